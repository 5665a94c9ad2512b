package grade

import (
	"math"

	"github.com/panoslice/panoslice/internal/imgutil"
)

// rgbToHSL converts an 8-bit RGB triple to HSL with hue in [0, 360) degrees
// and saturation/lightness in [0, 100]. Achromatic pixels report hue 0.
func rgbToHSL(r, g, b uint8) (h, s, l float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l * 100
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	case bf:
		h = (rf-gf)/d + 4
	}
	h *= 60
	if h >= 360 {
		h -= 360
	}

	return h, s * 100, l * 100
}

// hslToRGB converts hue in [0, 360) and saturation/lightness in [0, 100]
// back to 8-bit RGB. Round-tripping any RGB triple through rgbToHSL and back
// reproduces the input within one step per channel.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	sf := s / 100
	lf := l / 100

	if sf == 0 {
		v := imgutil.Clamp8(lf * 255)
		return v, v, v
	}

	var q float64
	if lf < 0.5 {
		q = lf * (1 + sf)
	} else {
		q = lf + sf - lf*sf
	}
	p := 2*lf - q
	hk := h / 360

	r = imgutil.Clamp8(hueToChannel(p, q, hk+1.0/3.0) * 255)
	g = imgutil.Clamp8(hueToChannel(p, q, hk) * 255)
	b = imgutil.Clamp8(hueToChannel(p, q, hk-1.0/3.0) * 255)
	return r, g, b
}

func hueToChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

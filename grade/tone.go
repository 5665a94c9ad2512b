package grade

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/panoslice/panoslice/internal/imgutil"
)

// Tone curve constants.
const (
	// toneCurveExponent shapes the highlight/shadow weight ramp. Values
	// below 1 push the curve's influence toward the midtones so the
	// extremes do not dominate.
	toneCurveExponent = 0.7

	// toneCurveGain converts a full-weight slider extreme (slider/100) into
	// channel units. At slider 20 a fully weighted pixel shifts by
	// 0.2 * 250 = 50 channel steps before clamping.
	toneCurveGain = 250
)

// ApplyGlobal applies brightness, contrast and saturation to img in a
// single per-pixel pass. Brightness scales each channel by
// effectiveBrightness/100, contrast scales the distance from 128 by
// contrastPct/100, and saturation blends each channel toward (or past) the
// pixel's luminance by saturationPct/100. Channels clamp to [0, 255] once
// at the end of the pass. Alpha is untouched.
func ApplyGlobal(img *image.NRGBA, effectiveBrightness float64, contrastPct, saturationPct int) {
	if effectiveBrightness == NeutralPercent &&
		contrastPct == NeutralPercent && saturationPct == NeutralPercent {
		return
	}

	b := effectiveBrightness / 100
	c := float64(contrastPct) / 100
	s := float64(saturationPct) / 100

	w := img.Rect.Dx()
	parallel.Line(img.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			base := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			row := img.Pix[base : base+w*4]
			for x := 0; x < len(row); x += 4 {
				r := float64(row[x]) * b
				g := float64(row[x+1]) * b
				bl := float64(row[x+2]) * b

				r = (r-128)*c + 128
				g = (g-128)*c + 128
				bl = (bl-128)*c + 128

				lum := imgutil.LuminanceF(r, g, bl)
				r = lum + (r-lum)*s
				g = lum + (g-lum)*s
				bl = lum + (bl-lum)*s

				row[x] = imgutil.Clamp8(r)
				row[x+1] = imgutil.Clamp8(g)
				row[x+2] = imgutil.Clamp8(bl)
			}
		}
	})
}

// ApplyHighlightsShadows applies the tone curve to img in place. Per pixel,
// with n the normalized luminance, pixels above the midpoint receive
// ((n-0.5)*2)^0.7 * highlights/100 * 250 added equally to all channels, and
// pixels below receive ((0.5-n)*2)^0.7 * shadows/100 * 250. The branches
// are disjoint: a pixel is either a highlight or a shadow, never both, so
// the two corrections need no ordering rule. Identity when both sliders
// are zero.
func ApplyHighlightsShadows(img *image.NRGBA, highlights, shadows int) {
	if highlights == 0 && shadows == 0 {
		return
	}

	hf := float64(highlights) / 100
	sf := float64(shadows) / 100

	w := img.Rect.Dx()
	parallel.Line(img.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			base := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			row := img.Pix[base : base+w*4]
			for x := 0; x < len(row); x += 4 {
				n := imgutil.Luminance(row[x], row[x+1], row[x+2]) / 255

				var adj float64
				switch {
				case n > 0.5:
					adj = math.Pow((n-0.5)*2, toneCurveExponent) * hf * toneCurveGain
				case n < 0.5:
					adj = math.Pow((0.5-n)*2, toneCurveExponent) * sf * toneCurveGain
				}
				if adj == 0 {
					continue
				}

				row[x] = imgutil.Clamp8(float64(row[x]) + adj)
				row[x+1] = imgutil.Clamp8(float64(row[x+1]) + adj)
				row[x+2] = imgutil.Clamp8(float64(row[x+2]) + adj)
			}
		}
	})
}

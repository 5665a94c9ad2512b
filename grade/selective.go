package grade

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/panoslice/panoslice/internal/imgutil"
)

// Band identifies one of the six hue regions targeted by selective color.
// Bands are 60 degrees wide, centered at multiples of 60 on the hue wheel;
// red wraps across 0.
type Band int

const (
	BandRed Band = iota
	BandYellow
	BandGreen
	BandCyan
	BandBlue
	BandMagenta
)

var bandNames = [...]string{"red", "yellow", "green", "cyan", "blue", "magenta"}

func (b Band) String() string {
	if b < BandRed || b > BandMagenta {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

// ParseBand maps a lowercase band name ("red", "yellow", ...) to its Band.
func ParseBand(name string) (Band, error) {
	for i, n := range bandNames {
		if n == name {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("unknown hue band %q", name)
}

// center is the band's hue center in degrees.
func (b Band) center() float64 {
	return float64(b) * 60
}

// Mask constants.
const (
	// bandHalfWidth is half a band's width in degrees. Hues within this
	// distance of the center carry full mask weight.
	bandHalfWidth = 30

	// defaultMaskRange is the falloff range percentage the engine applies.
	// At 100 the mask reaches zero 30 degrees past the band edge.
	defaultMaskRange = 100

	// maskFalloffExponent shapes the mask edge; greater than 1 keeps the
	// falloff tight near the band and gentle at the tail.
	maskFalloffExponent = 1.5
)

// SelectiveAdjustment shifts saturation and luminance for pixels whose hue
// falls in one band. Deltas are expressed in the same 0-100 units as HSL
// saturation/lightness; the engine does not bound them, only the adjusted
// S and L clamp to [0, 100].
type SelectiveAdjustment struct {
	Band       Band
	Saturation float64
	Luminance  float64
}

// Active reports whether the adjustment would change anything.
func (a SelectiveAdjustment) Active() bool {
	return a.Saturation != 0 || a.Luminance != 0
}

// maskWeight is the blend weight in [0, 1] of hue against band: 1 inside
// the band, falling smoothly to 0 with angular distance beyond the edge.
// rangePct sets the falloff reach via maxDistance = 60*(1 - rangePct/200);
// distances wrap at 0/360, which also covers red's two-sided range.
func maskWeight(hue float64, band Band, rangePct float64) float64 {
	d := math.Abs(hue - band.center())
	if d > 180 {
		d = 360 - d
	}
	d -= bandHalfWidth
	if d <= 0 {
		return 1
	}

	maxDistance := 60 * (1 - rangePct/100*0.5)
	if maxDistance <= 0 || d >= maxDistance {
		return 0
	}
	return math.Pow(1-d/maxDistance, maskFalloffExponent)
}

// ApplySelective applies every active adjustment to img in one combined
// pass with a single HSL round-trip per pixel regardless of how many bands
// are active. Per pixel, each band's mask weight scales its deltas into a
// running saturation/luminance total; the adjusted color is then blended
// back over the original by the strongest weight, which preserves pixels
// outside every band bit-for-bit and keeps band edges smooth. A nil or
// fully inactive list is an exact no-op.
func ApplySelective(img *image.NRGBA, adjs []SelectiveAdjustment) {
	active := make([]SelectiveAdjustment, 0, len(adjs))
	for _, a := range adjs {
		if a.Active() {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return
	}

	w := img.Rect.Dx()
	parallel.Line(img.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			base := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			row := img.Pix[base : base+w*4]
			for x := 0; x < len(row); x += 4 {
				r, g, b := row[x], row[x+1], row[x+2]
				hue, s, l := rgbToHSL(r, g, b)

				var totalSat, totalLum, maxWeight float64
				for _, a := range active {
					wt := maskWeight(hue, a.Band, defaultMaskRange)
					if wt <= 0 {
						continue
					}
					totalSat += a.Saturation * wt
					totalLum += a.Luminance * wt
					if wt > maxWeight {
						maxWeight = wt
					}
				}
				if maxWeight <= 0 {
					continue
				}

				nr, ng, nb := hslToRGB(hue, clampPercent(s+totalSat), clampPercent(l+totalLum))

				row[x] = imgutil.Clamp8(float64(r) + (float64(nr)-float64(r))*maxWeight)
				row[x+1] = imgutil.Clamp8(float64(g) + (float64(ng)-float64(g))*maxWeight)
				row[x+2] = imgutil.Clamp8(float64(b) + (float64(nb)-float64(b))*maxWeight)
			}
		}
	})
}

// ApplyBand is the sequential single-band reference pass. It matches
// ApplySelective with a one-element list; callers touching several bands
// should prefer the combined pass, which converts each pixel once instead
// of once per band.
func ApplyBand(img *image.NRGBA, adj SelectiveAdjustment) {
	if !adj.Active() {
		return
	}

	w := img.Rect.Dx()
	parallel.Line(img.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			base := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			row := img.Pix[base : base+w*4]
			for x := 0; x < len(row); x += 4 {
				r, g, b := row[x], row[x+1], row[x+2]
				hue, s, l := rgbToHSL(r, g, b)

				wt := maskWeight(hue, adj.Band, defaultMaskRange)
				if wt <= 0 {
					continue
				}

				nr, ng, nb := hslToRGB(hue,
					clampPercent(s+adj.Saturation*wt),
					clampPercent(l+adj.Luminance*wt))

				row[x] = imgutil.Clamp8(float64(r) + (float64(nr)-float64(r))*wt)
				row[x+1] = imgutil.Clamp8(float64(g) + (float64(ng)-float64(g))*wt)
				row[x+2] = imgutil.Clamp8(float64(b) + (float64(nb)-float64(b))*wt)
			}
		}
	})
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

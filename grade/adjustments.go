// Package grade implements the per-pixel grading passes applied to a
// panorama before it is split into carousel panels: global
// brightness/contrast/saturation, a highlights/shadows tone curve, and
// hue-banded selective color.
//
// All passes operate in place on a run-owned *image.NRGBA buffer and are
// implemented as direct channel arithmetic rather than platform filter
// primitives, so output is identical across rendering backends. Passes are
// parallelized across row ranges; each pixel's result depends only on its
// own channel values.
package grade

import "image"

// NeutralPercent is the slider value at which brightness, contrast and
// saturation leave pixels unchanged.
const NeutralPercent = 100

// Adjustments is the immutable global tone parameter set for one processing
// run. The zero value is NOT neutral; use Neutral as the starting point.
type Adjustments struct {
	// Brightness, Contrast and Saturation are percentages in 0-200 with
	// 100 meaning no change.
	Brightness int
	Contrast   int
	Saturation int

	// Exposure is a signed exposure bias added directly to the brightness
	// percentage before the pass runs.
	Exposure float64

	// Highlights and Shadows drive the tone curve, each in -20..20.
	Highlights int
	Shadows    int
}

// Neutral returns the adjustment set that leaves every pixel unchanged.
func Neutral() Adjustments {
	return Adjustments{
		Brightness: NeutralPercent,
		Contrast:   NeutralPercent,
		Saturation: NeutralPercent,
	}
}

// EffectiveBrightness folds the exposure bias into the brightness
// percentage, floored at zero.
func (a Adjustments) EffectiveBrightness() float64 {
	eb := float64(a.Brightness) + a.Exposure
	if eb < 0 {
		return 0
	}
	return eb
}

// IsNeutral reports whether applying a would change any pixel.
func (a Adjustments) IsNeutral() bool {
	return a.EffectiveBrightness() == NeutralPercent &&
		a.Contrast == NeutralPercent &&
		a.Saturation == NeutralPercent &&
		a.Highlights == 0 &&
		a.Shadows == 0
}

// Apply runs the full grading stack on img in place: the global pass, then
// the highlights/shadows curve, then selective color. This is the one entry
// point shared by full-resolution processing and preview recomputation.
func Apply(img *image.NRGBA, adj Adjustments, selective []SelectiveAdjustment) {
	ApplyGlobal(img, adj.EffectiveBrightness(), adj.Contrast, adj.Saturation)
	ApplyHighlightsShadows(img, adj.Highlights, adj.Shadows)
	ApplySelective(img, selective)
}

// Package autotone derives suggested tone-curve values from a photograph's
// luminance distribution. Suggestions stay inside the engine's slider range
// and come out neutral for a balanced exposure.
package autotone

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/rs/zerolog/log"
)

// Analysis thresholds and suggestion scaling.
const (
	// shadowThreshold is the luminance below which a pixel counts toward
	// the shadow share.
	shadowThreshold = 32

	// highlightThreshold is the luminance above which a pixel counts
	// toward the highlight share.
	highlightThreshold = 224

	// clippedShareTarget is the clipped-pixel share at which a suggestion
	// reaches the slider extreme. A quarter of the frame crushed or blown
	// is treated as maximal.
	clippedShareTarget = 0.25

	// suggestionMax bounds suggestions to the tone sliders' range.
	suggestionMax = 20
)

// Analysis summarizes the luminance distribution of one image.
type Analysis struct {
	// Mean is the average luminance in [0, 255].
	Mean float64

	// ShadowShare and HighlightShare are the fractions of pixels darker
	// than shadowThreshold and brighter than highlightThreshold.
	ShadowShare    float64
	HighlightShare float64

	// P5 and P95 are the 5th and 95th luminance percentiles.
	P5  int
	P95 int
}

// Analyze builds the luminance histogram of img and summarizes it. An
// image with no pixels yields the zero Analysis.
func Analyze(img image.Image) Analysis {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Analysis{}
	}

	gray := effect.Grayscale(img)
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	var total, weighted int
	for value, count := range bins {
		total += count
		weighted += value * count
	}
	if total == 0 {
		return Analysis{}
	}

	var shadows, highlights int
	for value := 0; value < shadowThreshold; value++ {
		shadows += bins[value]
	}
	for value := highlightThreshold + 1; value < len(bins); value++ {
		highlights += bins[value]
	}

	a := Analysis{
		Mean:           float64(weighted) / float64(total),
		ShadowShare:    float64(shadows) / float64(total),
		HighlightShare: float64(highlights) / float64(total),
		P5:             percentile(bins, total, 0.05),
		P95:            percentile(bins, total, 0.95),
	}

	log.Debug().
		Float64("mean", a.Mean).
		Float64("shadow_share", a.ShadowShare).
		Float64("highlight_share", a.HighlightShare).
		Int("p5", a.P5).
		Int("p95", a.P95).
		Msg("Luminance analysis complete")

	return a
}

// percentile walks the histogram until the cumulative count crosses the
// requested fraction of total.
func percentile(bins []int, total int, fraction float64) int {
	target := int(math.Ceil(fraction * float64(total)))
	cumulative := 0
	for value, count := range bins {
		cumulative += count
		if cumulative >= target {
			return value
		}
	}
	return len(bins) - 1
}

// Suggest maps the analysis onto tone slider values: crushed shadows lift
// the shadows slider, blown highlights pull the highlights slider down.
// Both stay within [-suggestionMax, suggestionMax]; a balanced exposure
// suggests the neutral (0, 0).
func (a Analysis) Suggest() (highlights, shadows int) {
	shadows = int(math.Round(math.Min(1, a.ShadowShare/clippedShareTarget) * suggestionMax))
	highlights = -int(math.Round(math.Min(1, a.HighlightShare/clippedShareTarget) * suggestionMax))
	return highlights, shadows
}

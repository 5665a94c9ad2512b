// Package geometry implements the crop geometry for carousel composition:
// panel layout arithmetic, aspect-locked crop correction, and the initial
// framing zoom shown by an interactive editor.
//
// Everything in this package is a pure function over plain values. Inputs
// that fall outside an image are clamped or slid back into range instead of
// rejected, so callers never have to handle geometry errors.
package geometry

import "math"

// Layout defaults. A 1080 px square is the native Instagram carousel panel
// size; the 0.1685 block ratio yields the 182 px letterbox blocks the
// original carousel format was designed around.
const (
	DefaultPanelSize  = 1080
	DefaultBlockRatio = 0.1685
)

// DefaultAspectTolerance is the relative aspect slack within which a crop
// rectangle is accepted as-is by FitToAspect.
const DefaultAspectTolerance = 0.01

// Layout describes how a graded panorama strip is split into square panels.
type Layout struct {
	// Count is the number of square panels (carousel slides), at least 1.
	Count int

	// Size is the side of each square panel in pixels.
	Size int

	// BlockRatio is the fraction of Size reserved for each letterbox block,
	// in (0, 0.5). Values at or above 0.5 leave no strip height.
	BlockRatio float64
}

// DefaultLayout returns the standard layout for the given panel count.
func DefaultLayout(count int) Layout {
	return Layout{Count: count, Size: DefaultPanelSize, BlockRatio: DefaultBlockRatio}
}

// BlockHeight is the pixel height of one letterbox block.
func (l Layout) BlockHeight() int {
	return int(math.Round(float64(l.Size) * l.BlockRatio))
}

// StripHeight is the pixel height of the image strip between the two
// letterbox blocks.
func (l Layout) StripHeight() int {
	return l.Size - 2*l.BlockHeight()
}

// FrameWidth is the total pixel width of the composed carousel strip.
func (l Layout) FrameWidth() int {
	return l.Count * l.Size
}

// Aspect is the width/height ratio a crop must match so that it maps onto
// the strip without distortion.
func (l Layout) Aspect() float64 {
	return float64(l.FrameWidth()) / float64(l.StripHeight())
}

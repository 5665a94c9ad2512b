package geometry

import "math"

// Rect is a crop rectangle in source-pixel space. A valid Rect satisfies
// 0 <= X, 0 <= Y, X+W <= imageWidth, Y+H <= imageHeight, W > 0, H > 0.
type Rect struct {
	X, Y, W, H float64
}

// Aspect returns the width/height ratio of the rectangle.
func (r Rect) Aspect() float64 {
	if r.H == 0 {
		return 0
	}
	return r.W / r.H
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (x, y float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// InitialZoom computes the zoom multiplier, relative to a fit-to-frame
// viewer's baseline zoom of 1, at which the image always fills the full
// frame width regardless of panel count or rotation.
//
// Rotation is normalized to [0, 360); quarter turns at 90 or 270 degrees
// swap the effective width and height. The frame is FrameWidth wide and
// StripHeight tall. With fitZoom = min(frameW/effW, frameH/effH) as the
// baseline, the returned value is (frameW/effW) / fitZoom: 1 when the image
// is already width-bound, larger when height binds first.
func InitialZoom(imageWidth, imageHeight int, rotationDegrees float64, layout Layout) float64 {
	effW := float64(imageWidth)
	effH := float64(imageHeight)

	rot := math.Mod(rotationDegrees, 360)
	if rot < 0 {
		rot += 360
	}
	if rot == 90 || rot == 270 {
		effW, effH = effH, effW
	}

	frameW := float64(layout.FrameWidth())
	frameH := float64(layout.StripHeight())
	if effW <= 0 || effH <= 0 || frameW <= 0 || frameH <= 0 {
		return 1
	}

	fitZoom := math.Min(frameW/effW, frameH/effH)
	widthFillZoom := frameW / effW
	return widthFillZoom / fitZoom
}

// FitToAspect corrects rect so its width/height ratio matches aspect within
// tolerance while preserving the rectangle's center where possible.
//
// The rectangle is first clamped into the image. If its aspect is already
// within tolerance it is returned unchanged. Otherwise the height is kept
// and the width recomputed; when that width would exceed the image, the
// full image width is used and the height derived from it instead. The
// result is recentered on the original midpoint and slid back into bounds
// rather than rejected, so the returned Rect always satisfies the Rect
// invariant. Never fails.
func FitToAspect(rect Rect, imageWidth, imageHeight int, aspect, tolerance float64) Rect {
	imgW := float64(imageWidth)
	imgH := float64(imageHeight)

	rect = clampToImage(rect, imgW, imgH)
	if aspect <= 0 {
		return rect
	}
	if rect.H > 0 && math.Abs(rect.W/rect.H-aspect) <= tolerance {
		return rect
	}

	cx, cy := rect.Center()

	w := rect.H * aspect
	h := rect.H
	if w > imgW {
		w = imgW
		h = imgW / aspect
	}

	return slideIntoBounds(Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}, imgW, imgH)
}

// clampToImage trims rect to the image area. Rectangles with no positive
// overlap degrade to the full frame, which keeps FitToAspect total.
func clampToImage(r Rect, imgW, imgH float64) Rect {
	if r.W <= 0 || r.H <= 0 || r.X >= imgW || r.Y >= imgH || r.X+r.W <= 0 || r.Y+r.H <= 0 {
		return Rect{X: 0, Y: 0, W: imgW, H: imgH}
	}
	if r.X < 0 {
		r.W += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.H += r.Y
		r.Y = 0
	}
	if r.X+r.W > imgW {
		r.W = imgW - r.X
	}
	if r.Y+r.H > imgH {
		r.H = imgH - r.Y
	}
	return r
}

// slideIntoBounds moves r so it lies inside the image. r.W <= imgW and
// r.H <= imgH must already hold; sliding then cannot push X or Y negative.
func slideIntoBounds(r Rect, imgW, imgH float64) Rect {
	if r.X+r.W > imgW {
		r.X = imgW - r.W
	}
	if r.Y+r.H > imgH {
		r.Y = imgH - r.H
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	return r
}

package geometry

import (
	"math"
	"testing"
)

func TestInitialZoom(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		rotation float64
		layout   Layout
		want     float64
	}{
		{
			// frameW=3240, frameH=716; fit=min(1.62, 0.716)=0.716;
			// widthFill=1.62; zoom = 1.62/0.716.
			name:   "wide landscape three panels",
			w:      2000,
			h:      1000,
			layout: DefaultLayout(3),
			want:   1.62 / 0.716,
		},
		{
			name:     "portrait rotated 90 matches swapped landscape",
			w:        1000,
			h:        2000,
			rotation: 90,
			layout:   DefaultLayout(3),
			want:     1.62 / 0.716,
		},
		{
			name:     "rotation wraps past 360",
			w:        1000,
			h:        2000,
			rotation: 450,
			layout:   DefaultLayout(3),
			want:     1.62 / 0.716,
		},
		{
			name:     "negative rotation normalizes",
			w:        1000,
			h:        2000,
			rotation: -270,
			layout:   DefaultLayout(3),
			want:     1.62 / 0.716,
		},
		{
			// Very wide image: width already binds, baseline fit fills
			// the frame width, so no extra zoom is needed.
			name:   "width-bound image needs no zoom",
			w:      10000,
			h:      500,
			layout: DefaultLayout(3),
			want:   1,
		},
		{
			name:   "rotation 180 leaves dimensions alone",
			w:      2000,
			h:      1000,
			layout: DefaultLayout(3),
			want:   1.62 / 0.716,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialZoom(tt.w, tt.h, tt.rotation, tt.layout)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InitialZoom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitialZoomSpecValue(t *testing.T) {
	got := InitialZoom(2000, 1000, 0, DefaultLayout(3))
	if math.Abs(got-2.2626) > 0.0001 {
		t.Errorf("InitialZoom(2000,1000,0,3 panels) = %v, want ~2.2626", got)
	}
}

func TestInitialZoomDegenerate(t *testing.T) {
	// No failure modes: nonsense inputs return the neutral multiplier.
	if got := InitialZoom(0, 100, 0, DefaultLayout(3)); got != 1 {
		t.Errorf("zero width: got %v, want 1", got)
	}
	if got := InitialZoom(100, 100, 0, Layout{Count: 1, Size: 100, BlockRatio: 0.5}); got != 1 {
		t.Errorf("zero strip height: got %v, want 1", got)
	}
}

// checkRectInvariant fails the test unless r lies inside imgW x imgH with
// positive dimensions.
func checkRectInvariant(t *testing.T, r Rect, imgW, imgH int) {
	t.Helper()
	if r.W <= 0 || r.H <= 0 {
		t.Fatalf("rect %+v has non-positive dimensions", r)
	}
	if r.X < 0 || r.Y < 0 {
		t.Fatalf("rect %+v has negative origin", r)
	}
	if r.X+r.W > float64(imgW)+1e-9 || r.Y+r.H > float64(imgH)+1e-9 {
		t.Fatalf("rect %+v exceeds image %dx%d", r, imgW, imgH)
	}
}

func TestFitToAspect(t *testing.T) {
	const imgW, imgH = 4000, 2000

	tests := []struct {
		name   string
		rect   Rect
		aspect float64
	}{
		{"widen centered rect", Rect{X: 1000, Y: 500, W: 500, H: 500}, 4.5251},
		{"narrow a wide rect", Rect{X: 0, Y: 0, W: 4000, H: 500}, 2.0},
		{"rect near right edge slides left", Rect{X: 3500, Y: 800, W: 400, H: 400}, 4.5251},
		{"rect near bottom edge slides up", Rect{X: 100, Y: 1700, W: 600, H: 300}, 3.0},
		{"tall aspect", Rect{X: 1800, Y: 200, W: 600, H: 600}, 0.5},
		{"full image to panorama", Rect{X: 0, Y: 0, W: 4000, H: 2000}, 4.5251},
		{"aspect needs full width", Rect{X: 0, Y: 0, W: 1000, H: 1900}, 8.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToAspect(tt.rect, imgW, imgH, tt.aspect, DefaultAspectTolerance)
			checkRectInvariant(t, got, imgW, imgH)
			if ratio := got.W / got.H; math.Abs(ratio-tt.aspect) > DefaultAspectTolerance {
				t.Errorf("aspect = %v, want %v within %v", ratio, tt.aspect, DefaultAspectTolerance)
			}
		})
	}
}

func TestFitToAspectKeepsMatchingRect(t *testing.T) {
	rect := Rect{X: 100, Y: 100, W: 452.51, H: 100}
	got := FitToAspect(rect, 4000, 2000, 4.5251, DefaultAspectTolerance)
	if got != rect {
		t.Errorf("rect within tolerance was modified: got %+v, want %+v", got, rect)
	}
}

func TestFitToAspectPreservesCenterAwayFromEdges(t *testing.T) {
	rect := Rect{X: 1500, Y: 800, W: 400, H: 400}
	got := FitToAspect(rect, 4000, 2000, 2.0, DefaultAspectTolerance)

	wantCX, wantCY := rect.Center()
	gotCX, gotCY := got.Center()
	if math.Abs(gotCX-wantCX) > 1e-9 || math.Abs(gotCY-wantCY) > 1e-9 {
		t.Errorf("center moved: got (%v,%v), want (%v,%v)", gotCX, gotCY, wantCX, wantCY)
	}
}

func TestFitToAspectClampsWildInputs(t *testing.T) {
	const imgW, imgH = 1000, 800

	tests := []struct {
		name string
		rect Rect
	}{
		{"negative origin", Rect{X: -200, Y: -50, W: 500, H: 400}},
		{"overflowing dimensions", Rect{X: 500, Y: 300, W: 5000, H: 5000}},
		{"zero size degrades to full frame", Rect{}},
		{"fully outside degrades to full frame", Rect{X: 5000, Y: 5000, W: 100, H: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToAspect(tt.rect, imgW, imgH, 1.91, DefaultAspectTolerance)
			checkRectInvariant(t, got, imgW, imgH)
			if ratio := got.W / got.H; math.Abs(ratio-1.91) > DefaultAspectTolerance {
				t.Errorf("aspect = %v, want 1.91", ratio)
			}
		})
	}
}

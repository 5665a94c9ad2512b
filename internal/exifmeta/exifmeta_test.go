package exifmeta

import (
	"image"
	"image/color"
	"testing"
)

func TestOrientationDerivedValues(t *testing.T) {
	tests := []struct {
		o        Orientation
		rotation float64
		mirrored bool
		swaps    bool
	}{
		{0, 0, false, false},
		{1, 0, false, false},
		{2, 0, true, false},
		{3, 180, false, false},
		{4, 180, true, false},
		{5, 90, true, true},
		{6, 270, false, true},
		{7, 270, true, true},
		{8, 90, false, true},
	}

	for _, tt := range tests {
		if got := tt.o.Rotation(); got != tt.rotation {
			t.Errorf("Orientation(%d).Rotation() = %v, want %v", tt.o, got, tt.rotation)
		}
		if got := tt.o.Mirrored(); got != tt.mirrored {
			t.Errorf("Orientation(%d).Mirrored() = %v, want %v", tt.o, got, tt.mirrored)
		}
		if got := tt.o.SwapsDimensions(); got != tt.swaps {
			t.Errorf("Orientation(%d).SwapsDimensions() = %v, want %v", tt.o, got, tt.swaps)
		}
	}
}

// quad builds a 2x2 raster with distinct corner values so transforms can be
// traced pixel by pixel.
func quad() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{10, 0, 0, 255}) // top-left
	img.SetNRGBA(1, 0, color.NRGBA{20, 0, 0, 255}) // top-right
	img.SetNRGBA(0, 1, color.NRGBA{30, 0, 0, 255}) // bottom-left
	img.SetNRGBA(1, 1, color.NRGBA{40, 0, 0, 255}) // bottom-right
	return img
}

func at(t *testing.T, img image.Image, x, y int) uint8 {
	t.Helper()
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA).R
}

func TestNormalizePixelMapping(t *testing.T) {
	// Corner layout after normalizing, as [top-left top-right bottom-left
	// bottom-right] red values of the quad fixture.
	tests := []struct {
		o    Orientation
		want [4]uint8
	}{
		{1, [4]uint8{10, 20, 30, 40}}, // untouched
		{2, [4]uint8{20, 10, 40, 30}}, // mirrored across the vertical axis
		{3, [4]uint8{40, 30, 20, 10}}, // rotated 180
		{4, [4]uint8{30, 40, 10, 20}}, // mirrored across the horizontal axis
		{6, [4]uint8{30, 10, 40, 20}}, // stored 90 CCW, uprighted clockwise
		{8, [4]uint8{20, 40, 10, 30}}, // stored 90 CW, uprighted counter-clockwise
	}

	for _, tt := range tests {
		out := Normalize(quad(), tt.o)
		got := [4]uint8{
			at(t, out, 0, 0), at(t, out, 1, 0),
			at(t, out, 0, 1), at(t, out, 1, 1),
		}
		if got != tt.want {
			t.Errorf("Normalize orientation %d corners = %v, want %v", tt.o, got, tt.want)
		}
	}
}

func TestNormalizeSwapsDimensions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for _, o := range []Orientation{5, 6, 7, 8} {
		out := Normalize(src, o)
		if b := out.Bounds(); b.Dx() != 2 || b.Dy() != 4 {
			t.Errorf("orientation %d produced %dx%d, want 2x4", o, b.Dx(), b.Dy())
		}
	}
	for _, o := range []Orientation{0, 1, 2, 3, 4} {
		out := Normalize(src, o)
		if b := out.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
			t.Errorf("orientation %d produced %dx%d, want 4x2", o, b.Dx(), b.Dy())
		}
	}
}

func TestNormalizeUnknownPassThrough(t *testing.T) {
	src := quad()
	if out := Normalize(src, 0); out != image.Image(src) {
		t.Error("unknown orientation did not return the source image")
	}
	if out := Normalize(src, 9); out != image.Image(src) {
		t.Error("out-of-range orientation did not return the source image")
	}
}

func TestCameraString(t *testing.T) {
	tests := []struct {
		make, model string
		want        string
	}{
		{"Sony", "ILCE-7M4", "Sony ILCE-7M4"},
		{"", "iPhone 15 Pro", "iPhone 15 Pro"},
		{"Canon", "", "Canon"},
		{"", "", ""},
	}
	for _, tt := range tests {
		m := &CaptureMeta{CameraMake: tt.make, CameraModel: tt.model}
		if got := m.Camera(); got != tt.want {
			t.Errorf("Camera() = %q, want %q", got, tt.want)
		}
	}
}

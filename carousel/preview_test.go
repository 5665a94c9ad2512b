package carousel

import (
	"image/color"
	"testing"
	"time"

	"github.com/panoslice/panoslice/grade"
)

func TestBuildProxy(t *testing.T) {
	proxy, scale := buildProxy(newGradient(4000, 1000))
	if b := proxy.Bounds(); b.Dx() != 1280 || b.Dy() != 320 {
		t.Errorf("proxy = %dx%d, want 1280x320", b.Dx(), b.Dy())
	}
	if scale != 0.32 {
		t.Errorf("scale = %v, want 0.32", scale)
	}

	small, scale := buildProxy(newGradient(640, 200))
	if b := small.Bounds(); b.Dx() != 640 || b.Dy() != 200 {
		t.Errorf("small proxy = %dx%d, want 640x200", b.Dx(), b.Dy())
	}
	if scale != 1 {
		t.Errorf("small-image scale = %v, want 1", scale)
	}
}

func TestPreviewerCommitsNewestUpdate(t *testing.T) {
	src := newUniform(100, 50, color.NRGBA{100, 100, 100, 255})
	p := NewPreviewer(src)
	p.debounce = time.Millisecond
	defer p.Close()

	// A burst of slider changes; only the final state matters.
	const updates = 10
	for i := 1; i <= updates; i++ {
		adj := grade.Neutral()
		adj.Brightness = 100 + i
		p.Update(Params{
			Crop:        fullFrame(100, 50),
			Layout:      testLayout(1, 20), // block 3, strip 14
			Adjustments: adj,
		})
	}

	deadline := time.After(5 * time.Second)
	var lastSeq uint64
	for {
		select {
		case frame := <-p.Frames():
			if frame.Seq < lastSeq {
				t.Fatalf("frame sequence went backwards: %d after %d", frame.Seq, lastSeq)
			}
			lastSeq = frame.Seq
			if frame.Seq < updates {
				continue // an intermediate frame beat the burst; keep draining
			}

			// Final state: brightness 110 over gray 100, cropped to the
			// fitted 71x50 rect.
			if b := frame.Image.Bounds(); b.Dx() != 71 || b.Dy() != 50 {
				t.Errorf("frame = %dx%d, want 71x50", b.Dx(), b.Dy())
			}
			got := frame.Image.NRGBAAt(35, 25)
			if got != (color.NRGBA{110, 110, 110, 255}) {
				t.Errorf("frame pixel = %+v, want graded gray 110", got)
			}
			return
		case <-deadline:
			t.Fatalf("frame for update %d never arrived (last seq %d)", updates, lastSeq)
		}
	}
}

func TestPreviewerCloseStopsRendering(t *testing.T) {
	p := NewPreviewer(newUniform(50, 25, color.NRGBA{90, 90, 90, 255}))
	p.debounce = time.Millisecond
	p.Close()
	p.Close() // idempotent

	p.Update(Params{
		Crop:        fullFrame(50, 25),
		Layout:      testLayout(1, 20),
		Adjustments: grade.Neutral(),
	})

	time.Sleep(20 * time.Millisecond)
	select {
	case frame := <-p.Frames():
		t.Fatalf("frame %d delivered after Close", frame.Seq)
	default:
	}
}

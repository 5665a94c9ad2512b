package carousel

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/grade"
	"github.com/panoslice/panoslice/internal/imgutil"
)

const (
	// previewDebounce delays recomputation after the last parameter change
	// so a slider drag does not recompute on every increment.
	previewDebounce = 250 * time.Millisecond

	// previewProxyWidth caps the proxy raster the preview loop grades.
	previewProxyWidth = 1280
)

// PreviewFrame is one committed preview render. Seq identifies the Update
// call it reflects; frames arrive in increasing Seq order.
type PreviewFrame struct {
	Seq   uint64
	Image *image.NRGBA
}

// Previewer recomputes the graded crop on a downsized proxy for live
// feedback while parameters change. Every Update is assigned a
// monotonically increasing sequence number; the render worker compares its
// number against the latest issued at commit time and discards superseded
// frames, so bursts of updates commit only the newest state. One worker
// renders at a time; Close releases it.
type Previewer struct {
	proxy *image.NRGBA
	scale float64

	seq atomic.Uint64

	mu       sync.Mutex
	params   Params
	timer    *time.Timer
	debounce time.Duration

	kick      chan struct{}
	frames    chan PreviewFrame
	done      chan struct{}
	closeOnce sync.Once
}

// NewPreviewer builds the proxy raster from src and starts the render
// worker. The caller's image is copied; src may be released afterwards.
func NewPreviewer(src image.Image) *Previewer {
	proxy, scale := buildProxy(src)
	p := &Previewer{
		proxy:    proxy,
		scale:    scale,
		debounce: previewDebounce,
		kick:     make(chan struct{}, 1),
		frames:   make(chan PreviewFrame, 1),
		done:     make(chan struct{}),
	}
	go p.loop()

	log.Debug().
		Int("proxy_width", proxy.Bounds().Dx()).
		Int("proxy_height", proxy.Bounds().Dy()).
		Float64("scale", scale).
		Msg("Previewer started")
	return p
}

// buildProxy downsizes src to the proxy width. ApproxBiLinear is enough
// here: the proxy exists for grading feedback, not final output.
func buildProxy(src image.Image) (*image.NRGBA, float64) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= previewProxyWidth || width <= 0 || height <= 0 {
		return imgutil.CloneNRGBA(src), 1
	}

	scale := float64(previewProxyWidth) / float64(width)
	newHeight := int(float64(height)*scale + 0.5)
	if newHeight < 1 {
		newHeight = 1
	}
	proxy := image.NewNRGBA(image.Rect(0, 0, previewProxyWidth, newHeight))
	draw.ApproxBiLinear.Scale(proxy, proxy.Bounds(), src, bounds, draw.Over, nil)
	return proxy, scale
}

// Update records the new parameter set and schedules a render once the
// debounce window passes without another change.
func (p *Previewer) Update(params Params) {
	p.mu.Lock()
	p.params = params
	p.seq.Add(1)
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.requestRender)
	p.mu.Unlock()
}

// Frames delivers committed preview frames. The channel holds the newest
// pending frame only; a slow consumer sees the latest state, not a backlog.
func (p *Previewer) Frames() <-chan PreviewFrame {
	return p.frames
}

// Close stops the render worker. Pending timers may still fire but no
// further frames are rendered or delivered.
func (p *Previewer) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		if p.timer != nil {
			p.timer.Stop()
		}
		p.mu.Unlock()
		close(p.done)
	})
}

func (p *Previewer) requestRender() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Previewer) loop() {
	for {
		select {
		case <-p.done:
			return
		case <-p.kick:
			p.render()
		}
	}
}

// render grades the proxy with a snapshot of the current parameters and
// commits the frame unless a newer Update arrived while it ran.
func (p *Previewer) render() {
	p.mu.Lock()
	params := p.params
	seq := p.seq.Load()
	p.mu.Unlock()

	if err := validateLayout(params.Layout); err != nil {
		log.Warn().Err(err).Uint64("seq", seq).Msg("Preview skipped: unusable layout")
		return
	}
	rotated, err := rotateQuarter(p.proxy, params.RotationDegrees)
	if err != nil {
		log.Warn().Err(err).Uint64("seq", seq).Msg("Preview skipped: unusable rotation")
		return
	}

	bounds := rotated.Bounds()
	crop := geometry.Rect{
		X: params.Crop.X * p.scale,
		Y: params.Crop.Y * p.scale,
		W: params.Crop.W * p.scale,
		H: params.Crop.H * p.scale,
	}
	fitted := geometry.FitToAspect(crop, bounds.Dx(), bounds.Dy(),
		params.Layout.Aspect(), geometry.DefaultAspectTolerance)

	working := imgutil.CloneNRGBA(rotated)
	grade.Apply(working, params.Adjustments, params.Selective)
	frame := imaging.Crop(working, rectBounds(fitted))

	if p.seq.Load() != seq {
		log.Debug().Uint64("seq", seq).Msg("Preview frame superseded, discarding")
		return
	}

	for {
		select {
		case p.frames <- PreviewFrame{Seq: seq, Image: frame}:
			return
		default:
			// Drop the stale pending frame and retry with this one.
			select {
			case <-p.frames:
			default:
			}
		}
	}
}

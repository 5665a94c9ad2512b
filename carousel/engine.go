// Package carousel turns a graded panorama into a social carousel: square
// letterboxed panels, an optional combined strip, the lossless master and
// the web-sized derivatives. Engine.Process is the single entry point; the
// package performs no I/O beyond the reader handed to Decode.
package carousel

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/grade"
	"github.com/panoslice/panoslice/internal/imgutil"
)

// Params is the full parameter set for one processing run.
type Params struct {
	// Crop is the caller's crop rectangle in the rotated image's pixel
	// space. It is fitted to the layout's aspect before use.
	Crop geometry.Rect

	// Layout shapes the panel grid.
	Layout geometry.Layout

	// Adjustments and Selective are the grading passes, applied to the
	// full source buffer before cropping.
	Adjustments grade.Adjustments
	Selective   []grade.SelectiveAdjustment

	// RotationDegrees rotates the source counter-clockwise before
	// cropping. Only quarter turns are accepted.
	RotationDegrees float64

	// BlockColor fills the letterbox rows. The zero value means white.
	BlockColor color.NRGBA

	// Combined adds the encoded combined strip to the output set.
	Combined bool
}

// OutputSet is the result of one processing run. Immutable after return;
// ownership passes entirely to the caller.
type OutputSet struct {
	RunID         string
	ProcessedFull EncodedImage
	Thumbnail     EncodedImage
	Preview       EncodedImage
	Panels        []Panel
	Combined      *EncodedImage
}

// Engine runs processing. It is stateless across runs and safe for
// concurrent use.
type Engine struct {
	sizeLimit   int
	panelEncode EncodeOptions
}

// Option configures an Engine.
type Option func(*Engine)

// WithSizeLimit sets the byte ceiling above which the lossless master falls
// back to a lossy encode. Zero or negative disables the ceiling.
func WithSizeLimit(limit int) Option {
	return func(e *Engine) { e.sizeLimit = limit }
}

// WithPanelEncode sets the encoder for panels and the combined strip.
func WithPanelEncode(enc EncodeOptions) Option {
	return func(e *Engine) { e.panelEncode = enc }
}

// NewEngine returns an Engine with the default size ceiling and JPEG panel
// encoding.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sizeLimit:   DefaultSizeLimit,
		panelEncode: EncodeOptions{Format: FormatJPEG, Quality: DefaultPanelQuality},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs one full processing pass: validate, rotate, fit the crop,
// grade the full buffer, then derive the master, the panel set, and the web
// derivatives. It returns a fully populated OutputSet or an error, never a
// partial result. Cancellation is checked between stages; buffers are owned
// by the run and released when it returns.
func (e *Engine) Process(ctx context.Context, src image.Image, p Params) (*OutputSet, error) {
	runID := uuid.New().String()
	start := time.Now()

	if src == nil {
		return nil, &ProcessError{Type: ErrTypeDecode, Message: "no source image"}
	}
	if err := validateLayout(p.Layout); err != nil {
		return nil, err
	}

	rotated, err := rotateQuarter(src, p.RotationDegrees)
	if err != nil {
		return nil, err
	}

	bounds := rotated.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, &ProcessError{Type: ErrTypeSurface, Message: "source image has no pixels"}
	}
	if err := validateCrop(p.Crop, width, height); err != nil {
		return nil, err
	}

	fitted := geometry.FitToAspect(p.Crop, width, height, p.Layout.Aspect(), geometry.DefaultAspectTolerance)

	log.Debug().
		Str("run_id", runID).
		Int("source_width", width).
		Int("source_height", height).
		Int("panel_count", p.Layout.Count).
		Float64("rotation", p.RotationDegrees).
		Float64("crop_width", fitted.W).
		Float64("crop_height", fitted.H).
		Msg("Processing run started")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing cancelled: %w", err)
	}

	// Grading runs over the full rotated buffer before any crop, so the
	// master and the strip are cut from identical pixels.
	working := imgutil.CloneNRGBA(rotated)
	grade.Apply(working, p.Adjustments, p.Selective)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing cancelled: %w", err)
	}

	master, err := CropEncode(working, fitted, nil, FormatPNG, FallbackQuality, e.sizeLimit)
	if err != nil {
		return nil, err
	}

	strip, err := RenderStrip(imaging.Crop(working, rectBounds(fitted)), p.Layout)
	if err != nil {
		return nil, err
	}

	blockColor := p.BlockColor
	if blockColor == (color.NRGBA{}) {
		blockColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}

	rasters, err := buildPanelRasters(strip, p.Layout, blockColor)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing cancelled: %w", err)
	}

	panels, err := encodePanels(rasters, e.panelEncode)
	if err != nil {
		return nil, err
	}

	combinedRaster := CombineStrip(rasters, p.Layout)
	thumb, err := Thumbnail(combinedRaster)
	if err != nil {
		return nil, err
	}
	preview, err := WebPreview(combinedRaster)
	if err != nil {
		return nil, err
	}

	out := &OutputSet{
		RunID:         runID,
		ProcessedFull: master,
		Thumbnail:     thumb,
		Preview:       preview,
		Panels:        panels,
	}
	if p.Combined {
		combined, err := encode(combinedRaster, e.panelEncode.Format, e.panelEncode.Quality)
		if err != nil {
			return nil, err
		}
		out.Combined = &combined
	}

	log.Debug().
		Str("run_id", runID).
		Str("master_format", master.Format.String()).
		Int("master_size", len(master.Data)).
		Int("panel_count", len(panels)).
		Dur("elapsed", time.Since(start)).
		Msg("Processing run complete")

	return out, nil
}

// rotateQuarter applies the quarter-turn rotation to src. Rotation follows
// the imaging package's counter-clockwise convention.
func rotateQuarter(src image.Image, degrees float64) (image.Image, error) {
	deg := math.Mod(degrees, 360)
	if deg < 0 {
		deg += 360
	}
	switch deg {
	case 0:
		return src, nil
	case 90:
		return imaging.Rotate90(src), nil
	case 180:
		return imaging.Rotate180(src), nil
	case 270:
		return imaging.Rotate270(src), nil
	}
	return nil, &ProcessError{
		Type:    ErrTypeOutOfBounds,
		Message: fmt.Sprintf("rotation %.1f is not a quarter turn", degrees),
	}
}

// validateCrop rejects rectangles with no area or no overlap with the
// source; anything else is repairable by the aspect fit.
func validateCrop(rect geometry.Rect, width, height int) error {
	if rect.W <= 0 || rect.H <= 0 {
		return &ProcessError{
			Type:    ErrTypeOutOfBounds,
			Message: fmt.Sprintf("crop %.1fx%.1f has no area", rect.W, rect.H),
		}
	}
	if rect.X+rect.W <= 0 || rect.Y+rect.H <= 0 ||
		rect.X >= float64(width) || rect.Y >= float64(height) {
		return &ProcessError{
			Type: ErrTypeOutOfBounds,
			Message: fmt.Sprintf("crop at (%.1f, %.1f) lies outside the %dx%d source",
				rect.X, rect.Y, width, height),
		}
	}
	return nil
}

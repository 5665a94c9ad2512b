package carousel

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/internal/imgutil"
)

// Panel is one encoded square output. Order is 1-indexed, left to right.
type Panel struct {
	Order int
	Image EncodedImage
}

// validateLayout rejects layouts no panel raster can be built from.
func validateLayout(layout geometry.Layout) error {
	if layout.Count < 1 {
		return &ProcessError{
			Type:    ErrTypeInvalidPanelCount,
			Message: fmt.Sprintf("panel count %d is below the one-panel minimum", layout.Count),
		}
	}
	if layout.Size <= 0 || layout.StripHeight() <= 0 {
		return &ProcessError{
			Type: ErrTypeSurface,
			Message: fmt.Sprintf("panel size %d with block ratio %.4f leaves no strip surface",
				layout.Size, layout.BlockRatio),
		}
	}
	return nil
}

// RenderStrip normalizes the graded crop onto the exact strip raster,
// FrameWidth x StripHeight, so panel slices land on whole pixels. A source
// already at the target size is cloned rather than resampled.
func RenderStrip(src image.Image, layout geometry.Layout) (*image.NRGBA, error) {
	if err := validateLayout(layout); err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &ProcessError{
			Type:    ErrTypeSurface,
			Message: "strip source has no pixels",
		}
	}

	width, height := layout.FrameWidth(), layout.StripHeight()
	if bounds.Dx() == width && bounds.Dy() == height {
		return imgutil.CloneNRGBA(src), nil
	}

	log.Debug().
		Int("src_width", bounds.Dx()).
		Int("src_height", bounds.Dy()).
		Int("strip_width", width).
		Int("strip_height", height).
		Msg("Normalizing strip raster")

	strip := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(strip, strip.Bounds(), src, bounds, draw.Over, nil)
	return strip, nil
}

// buildPanelRasters slices strip into layout.Count letterboxed squares.
// Slice boundaries distribute any leftover columns across panels; each
// slice is resampled to exactly Size x StripHeight when it is not already,
// then pasted onto a Size x Size canvas filled with blockColor.
func buildPanelRasters(strip image.Image, layout geometry.Layout, blockColor color.NRGBA) ([]*image.NRGBA, error) {
	if err := validateLayout(layout); err != nil {
		return nil, err
	}
	bounds := strip.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &ProcessError{
			Type:    ErrTypeSurface,
			Message: "panel strip has no pixels",
		}
	}

	width := bounds.Dx()
	stripHeight := layout.StripHeight()
	blockTop := layout.BlockHeight()

	rasters := make([]*image.NRGBA, layout.Count)
	for i := 0; i < layout.Count; i++ {
		x0 := bounds.Min.X + i*width/layout.Count
		x1 := bounds.Min.X + (i+1)*width/layout.Count
		slice := imaging.Crop(strip, image.Rect(x0, bounds.Min.Y, x1, bounds.Max.Y))
		if slice.Bounds().Dx() != layout.Size || slice.Bounds().Dy() != stripHeight {
			slice = imaging.Resize(slice, layout.Size, stripHeight, imaging.Lanczos)
		}

		canvas := imaging.New(layout.Size, layout.Size, blockColor)
		rasters[i] = imaging.Paste(canvas, slice, image.Pt(0, blockTop))
	}
	return rasters, nil
}

// SplitPanels slices strip into layout.Count letterboxed square panels and
// encodes them. The strip is normalized to the layout's exact strip raster
// first, so any input wide enough to slice is accepted. blockColor fills
// the letterbox rows exactly as given, including its alpha.
func SplitPanels(strip image.Image, layout geometry.Layout, blockColor color.NRGBA, enc EncodeOptions) ([]Panel, error) {
	normalized, err := RenderStrip(strip, layout)
	if err != nil {
		return nil, err
	}
	rasters, err := buildPanelRasters(normalized, layout, blockColor)
	if err != nil {
		return nil, err
	}
	return encodePanels(rasters, enc)
}

// encodePanels compresses the panel rasters concurrently, capped at NumCPU
// in-flight encodes, and joins before returning. Results keep raster order.
func encodePanels(rasters []*image.NRGBA, enc EncodeOptions) ([]Panel, error) {
	log.Debug().
		Int("panel_count", len(rasters)).
		Str("format", enc.Format.String()).
		Msg("Encoding panels")

	panels := make([]Panel, len(rasters))
	errs := make([]error, len(rasters))
	sem := make(chan struct{}, runtime.NumCPU())

	var wg sync.WaitGroup
	for i, raster := range rasters {
		wg.Add(1)
		go func(i int, raster *image.NRGBA) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			img, err := encode(raster, enc.Format, enc.Quality)
			if err != nil {
				errs[i] = fmt.Errorf("panel %d: %w", i+1, err)
				return
			}
			panels[i] = Panel{Order: i + 1, Image: img}
		}(i, raster)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return panels, nil
}

// CombineStrip pastes the letterboxed panels side by side into one
// len(panels)*Size x Size raster.
func CombineStrip(panels []*image.NRGBA, layout geometry.Layout) *image.NRGBA {
	if len(panels) == 0 {
		return image.NewNRGBA(image.Rectangle{})
	}

	combined := imaging.New(layout.Size*len(panels), layout.Size, color.NRGBA{255, 255, 255, 255})
	for i, panel := range panels {
		combined = imaging.Paste(combined, panel, image.Pt(i*layout.Size, 0))
	}
	return combined
}

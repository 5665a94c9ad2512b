package carousel

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/panoslice/panoslice/geometry"
)

// Format identifies an output encoding.
type Format int

const (
	// FormatPNG is the lossless master format.
	FormatPNG Format = iota
	// FormatJPEG is the lossy format for panels and size-limit fallbacks.
	FormatJPEG
	// FormatWebP is the lossy format for the web-sized derivatives.
	FormatWebP
)

var formatNames = [...]string{"png", "jpeg", "webp"}

func (f Format) String() string {
	if f < FormatPNG || f > FormatWebP {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Ext is the file extension for the format, with the leading dot.
func (f Format) Ext() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	}
	return ""
}

// MIME is the IANA media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}

// EncodedImage is one compressed output raster. Data is owned by the caller
// once returned.
type EncodedImage struct {
	Data   []byte
	Format Format
	Width  int
	Height int
}

// EncodeOptions select the encoder for panel and combined-strip outputs.
// Quality is in (0, 1] and applies to the lossy formats only.
type EncodeOptions struct {
	Format  Format
	Quality float32
}

// Resampling presets.
const (
	// ThumbnailMaxWidth and ThumbnailQuality are the small-derivative preset.
	ThumbnailMaxWidth = 400
	ThumbnailQuality  = 0.80

	// PreviewMaxWidth and PreviewQuality are the web-preview preset.
	PreviewMaxWidth = 1920
	PreviewQuality  = 0.85

	// FallbackQuality is the lossy quality used when a lossless encode
	// exceeds the size ceiling.
	FallbackQuality = 0.95

	// DefaultSizeLimit is the byte ceiling for lossless masters before the
	// lossy fallback engages.
	DefaultSizeLimit = 45 << 20

	// DefaultPanelQuality is the JPEG quality for panel and combined
	// encodes.
	DefaultPanelQuality = 0.95
)

// encode compresses img with the requested format. Lossy quality is mapped
// onto each codec's own scale.
func encode(img image.Image, format Format, quality float32) (EncodedImage, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return EncodedImage{}, &ProcessError{
			Type:    ErrTypeSurface,
			Message: "cannot encode an empty raster",
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)})
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: quality * 100})
	default:
		return EncodedImage{}, &ProcessError{
			Type:    ErrTypeEncode,
			Message: fmt.Sprintf("unsupported output format %s", format),
		}
	}
	if err != nil {
		return EncodedImage{}, &ProcessError{
			Type:    ErrTypeEncode,
			Message: fmt.Sprintf("failed to encode %s output", format),
			Err:     err,
		}
	}
	if buf.Len() == 0 {
		return EncodedImage{}, &ProcessError{
			Type:    ErrTypeEncode,
			Message: fmt.Sprintf("%s encoding produced no output", format),
		}
	}

	return EncodedImage{
		Data:   buf.Bytes(),
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// jpegQuality maps a (0, 1] quality onto the stdlib's 1-100 scale.
func jpegQuality(quality float32) int {
	q := int(quality*100 + 0.5)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}

// Downsample scales img so its width does not exceed maxWidth, preserving
// aspect ratio, and encodes it as lossy WebP at the given quality. Images
// already at or under maxWidth keep their pixel dimensions.
func Downsample(img image.Image, maxWidth int, quality float32) (EncodedImage, error) {
	if maxWidth <= 0 {
		return EncodedImage{}, &ProcessError{
			Type:    ErrTypeSurface,
			Message: fmt.Sprintf("downsample width %d leaves no surface", maxWidth),
		}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxWidth {
		newHeight := int(float64(height) * float64(maxWidth) / float64(width))
		if newHeight < 1 {
			newHeight = 1
		}

		log.Debug().
			Int("orig_width", width).
			Int("orig_height", height).
			Int("new_width", maxWidth).
			Int("new_height", newHeight).
			Msg("Downsampling derivative")

		resized := image.NewNRGBA(image.Rect(0, 0, maxWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	return encode(img, FormatWebP, quality)
}

// Thumbnail encodes the small web derivative of img.
func Thumbnail(img image.Image) (EncodedImage, error) {
	return Downsample(img, ThumbnailMaxWidth, ThumbnailQuality)
}

// WebPreview encodes the screen-sized web derivative of img.
func WebPreview(img image.Image) (EncodedImage, error) {
	return Downsample(img, PreviewMaxWidth, PreviewQuality)
}

// CropEncode extracts rect from img, optionally scales it to outSize (nil
// keeps the rectangle's own pixel size), and encodes it. A lossless encode
// whose output exceeds sizeLimit bytes is re-encoded as JPEG at
// FallbackQuality and the produced format is reported in the result; this
// fallback is recoverable and never returned as an error. sizeLimit <= 0
// disables the ceiling.
func CropEncode(img image.Image, rect geometry.Rect, outSize *image.Point, format Format, quality float32, sizeLimit int) (EncodedImage, error) {
	crop := rectBounds(rect).Intersect(img.Bounds())
	if crop.Empty() {
		return EncodedImage{}, &ProcessError{
			Type:    ErrTypeOutOfBounds,
			Message: fmt.Sprintf("crop %v lies outside the source image %v", rectBounds(rect), img.Bounds()),
		}
	}

	surface := image.Image(imaging.Crop(img, crop))
	if outSize != nil {
		if outSize.X <= 0 || outSize.Y <= 0 {
			return EncodedImage{}, &ProcessError{
				Type:    ErrTypeSurface,
				Message: fmt.Sprintf("output size %dx%d leaves no surface", outSize.X, outSize.Y),
			}
		}
		if outSize.X != crop.Dx() || outSize.Y != crop.Dy() {
			scaled := image.NewNRGBA(image.Rect(0, 0, outSize.X, outSize.Y))
			draw.CatmullRom.Scale(scaled, scaled.Bounds(), surface, surface.Bounds(), draw.Over, nil)
			surface = scaled
		}
	}

	enc, err := encode(surface, format, quality)
	if err != nil {
		return EncodedImage{}, err
	}
	if format != FormatPNG || sizeLimit <= 0 || len(enc.Data) <= sizeLimit {
		return enc, nil
	}

	limitErr := &ProcessError{
		Type:    ErrTypeSizeLimit,
		Message: fmt.Sprintf("lossless encode is %d bytes, over the %d byte ceiling", len(enc.Data), sizeLimit),
	}
	log.Warn().
		Err(limitErr).
		Int("encoded_size", len(enc.Data)).
		Int("size_limit", sizeLimit).
		Msg("Lossless encode over size ceiling, falling back to lossy")

	return encode(surface, FormatJPEG, FallbackQuality)
}

// rectBounds rounds a float rectangle to its integer pixel bounds.
func rectBounds(rect geometry.Rect) image.Rectangle {
	x0 := roundInt(rect.X)
	y0 := roundInt(rect.Y)
	return image.Rect(x0, y0, x0+roundInt(rect.W), y0+roundInt(rect.H))
}

func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

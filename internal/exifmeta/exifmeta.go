// Package exifmeta reads capture metadata and the EXIF orientation tag from
// a source photograph. Orientation is normalized physically — pixels are
// rotated/flipped once up front — so the processing engine never has to
// re-interpret it.
package exifmeta

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Orientation is the EXIF orientation tag, 1-8. Zero means the tag was
// absent; 1 means the pixel rows are already upright.
type Orientation int

// CaptureMeta is the capture metadata the CLI reports alongside processing.
type CaptureMeta struct {
	Orientation Orientation

	CameraMake  string
	CameraModel string

	TakenAt    time.Time
	HasTakenAt bool

	Latitude  float64
	Longitude float64
	HasGPS    bool
}

// Camera returns "Make Model", or an empty string when both are unknown.
func (m *CaptureMeta) Camera() string {
	return strings.TrimSpace(m.CameraMake + " " + m.CameraModel)
}

// Read decodes capture metadata from r. Formats without EXIF support
// return an error; callers treat that as "no metadata", not a failure.
func Read(r io.ReadSeeker) (*CaptureMeta, error) {
	exifData, err := imagemeta.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	meta := &CaptureMeta{
		Orientation: Orientation(int(exifData.Orientation)),
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	// Timestamp fallback chain: DateTimeOriginal > CreateDate > ModifyDate.
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		meta.TakenAt = exifData.DateTimeOriginal()
		meta.HasTakenAt = true
	case !exifData.CreateDate().IsZero():
		meta.TakenAt = exifData.CreateDate()
		meta.HasTakenAt = true
	case !exifData.ModifyDate().IsZero():
		meta.TakenAt = exifData.ModifyDate()
		meta.HasTakenAt = true
	}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		meta.Latitude = gps.Latitude()
		meta.Longitude = gps.Longitude()
		meta.HasGPS = true
	}

	log.Debug().
		Int("orientation", int(meta.Orientation)).
		Str("camera", meta.Camera()).
		Bool("has_date", meta.HasTakenAt).
		Bool("has_gps", meta.HasGPS).
		Msg("Capture metadata read")

	return meta, nil
}

// ReadFile decodes capture metadata from the file at path.
func ReadFile(path string) (*CaptureMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Rotation returns the counter-clockwise quarter-turn degrees that bring
// the raster upright.
func (o Orientation) Rotation() float64 {
	switch o {
	case 3, 4:
		return 180
	case 5, 8:
		return 90
	case 6, 7:
		return 270
	}
	return 0
}

// Mirrored reports whether the raster is flipped across an axis in
// addition to any rotation.
func (o Orientation) Mirrored() bool {
	switch o {
	case 2, 4, 5, 7:
		return true
	}
	return false
}

// SwapsDimensions reports whether uprighting the raster exchanges its
// width and height.
func (o Orientation) SwapsDimensions() bool {
	return o >= 5 && o <= 8
}

// Normalize physically rotates/flips img so its pixel rows read upright.
// Unknown or upright orientations return img unchanged.
func Normalize(img image.Image, o Orientation) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

package carousel

import (
	"image"
	"io"

	// Register the decoders for the source formats the engine accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Decode reads a source image from r and returns the decoded raster and the
// detected format name ("jpeg", "png", "gif", "webp"). The caller owns r;
// the engine performs no other I/O.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", &ProcessError{
			Type:    ErrTypeDecode,
			Message: "failed to decode source image",
			Err:     err,
		}
	}
	return img, format, nil
}

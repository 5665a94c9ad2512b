// Package bundle writes a processing run's output set as a single zip
// archive with a JSON manifest, so an editing surface can persist or
// re-import the run.
package bundle

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/panoslice/panoslice/carousel"
	"github.com/panoslice/panoslice/grade"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard
// (APPNOTE 6.3.7). Registered in init() with zstd level 12
// (SpeedBestCompression in klauspost/compress).
const zipMethodZstd uint16 = 93

func init() {
	zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	})
}

// ManifestName is the manifest's entry name inside the archive.
const ManifestName = "manifest.json"

// Manifest records what the bundle holds and the parameters that produced
// it, so a run can be re-edited later.
type Manifest struct {
	BundleID  string    `json:"bundle_id"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Layout      Layout      `json:"layout"`
	Adjustments Adjustments `json:"adjustments"`
	Selective   []Selective `json:"selective,omitempty"`

	Entries []Entry `json:"entries"`
}

// Layout mirrors the panel layout parameters.
type Layout struct {
	PanelCount int     `json:"panel_count"`
	PanelSize  int     `json:"panel_size"`
	BlockRatio float64 `json:"block_ratio"`
}

// Adjustments mirrors the global tone parameters.
type Adjustments struct {
	Brightness int     `json:"brightness"`
	Contrast   int     `json:"contrast"`
	Saturation int     `json:"saturation"`
	Exposure   float64 `json:"exposure"`
	Highlights int     `json:"highlights"`
	Shadows    int     `json:"shadows"`
}

// Selective mirrors one selective color adjustment.
type Selective struct {
	Band       string  `json:"band"`
	Saturation float64 `json:"saturation"`
	Luminance  float64 `json:"luminance"`
}

// Entry describes one image inside the archive.
type Entry struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
}

// Write streams the output set into w as a zstd-compressed zip archive.
// Every image becomes one entry; the manifest is written last.
func Write(w io.Writer, out *carousel.OutputSet, params carousel.Params) error {
	if out == nil {
		return errors.New("no output set to bundle")
	}

	now := time.Now().UTC()
	manifest := Manifest{
		BundleID:  uuid.New().String(),
		RunID:     out.RunID,
		CreatedAt: now,
		Layout: Layout{
			PanelCount: params.Layout.Count,
			PanelSize:  params.Layout.Size,
			BlockRatio: params.Layout.BlockRatio,
		},
		Adjustments: Adjustments{
			Brightness: params.Adjustments.Brightness,
			Contrast:   params.Adjustments.Contrast,
			Saturation: params.Adjustments.Saturation,
			Exposure:   params.Adjustments.Exposure,
			Highlights: params.Adjustments.Highlights,
			Shadows:    params.Adjustments.Shadows,
		},
		Selective: selectiveInfo(params.Selective),
	}

	log.Debug().
		Str("bundle_id", manifest.BundleID).
		Str("run_id", out.RunID).
		Int("panels", len(out.Panels)).
		Msg("Writing export bundle")

	zw := zip.NewWriter(w)

	write := func(name, kind string, img carousel.EncodedImage) error {
		if err := addFile(zw, name, img.Data, now); err != nil {
			return err
		}
		manifest.Entries = append(manifest.Entries, Entry{
			Name:   name,
			Kind:   kind,
			Format: img.Format.String(),
			Width:  img.Width,
			Height: img.Height,
			Size:   len(img.Data),
		})
		return nil
	}

	if err := write("master"+out.ProcessedFull.Format.Ext(), "master", out.ProcessedFull); err != nil {
		return err
	}
	if err := write("thumbnail"+out.Thumbnail.Format.Ext(), "thumbnail", out.Thumbnail); err != nil {
		return err
	}
	if err := write("preview"+out.Preview.Format.Ext(), "preview", out.Preview); err != nil {
		return err
	}
	for _, panel := range out.Panels {
		name := fmt.Sprintf("panels/panel-%02d%s", panel.Order, panel.Image.Format.Ext())
		if err := write(name, "panel", panel.Image); err != nil {
			return err
		}
	}
	if out.Combined != nil {
		if err := write("combined"+out.Combined.Format.Ext(), "combined", *out.Combined); err != nil {
			return err
		}
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := addFile(zw, ManifestName, manifestJSON, now); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}

	log.Debug().
		Str("bundle_id", manifest.BundleID).
		Int("entries", len(manifest.Entries)).
		Msg("Export bundle written")

	return nil
}

// RegisterDecompressor enables reading method-93 entries from r. Callers
// re-importing bundles call this on their zip reader before opening files.
func RegisterDecompressor(r *zip.Reader) {
	r.RegisterDecompressor(zipMethodZstd, func(rc io.Reader) io.ReadCloser {
		dec, err := zstd.NewReader(rc)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return dec.IOReadCloser()
	})
}

// errReader surfaces a decoder construction failure on first read.
type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func addFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zipMethodZstd,
		Modified: modified,
	}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create bundle entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write bundle entry %s: %w", name, err)
	}
	return nil
}

func selectiveInfo(adjs []grade.SelectiveAdjustment) []Selective {
	if len(adjs) == 0 {
		return nil
	}
	infos := make([]Selective, 0, len(adjs))
	for _, a := range adjs {
		infos = append(infos, Selective{
			Band:       a.Band.String(),
			Saturation: a.Saturation,
			Luminance:  a.Luminance,
		})
	}
	return infos
}

package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/panoslice/panoslice/carousel"
	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/grade"
)

func testOutputSet() *carousel.OutputSet {
	encoded := func(payload string, format carousel.Format, w, h int) carousel.EncodedImage {
		return carousel.EncodedImage{
			Data:   []byte(payload),
			Format: format,
			Width:  w,
			Height: h,
		}
	}
	combined := encoded("combined-bytes", carousel.FormatJPEG, 360, 120)
	return &carousel.OutputSet{
		RunID:         uuid.New().String(),
		ProcessedFull: encoded("master-bytes", carousel.FormatPNG, 716, 477),
		Thumbnail:     encoded("thumb-bytes", carousel.FormatWebP, 400, 133),
		Preview:       encoded("preview-bytes", carousel.FormatWebP, 716, 238),
		Panels: []carousel.Panel{
			{Order: 1, Image: encoded("panel-one", carousel.FormatJPEG, 120, 120)},
			{Order: 2, Image: encoded("panel-two", carousel.FormatJPEG, 120, 120)},
			{Order: 3, Image: encoded("panel-three", carousel.FormatJPEG, 120, 120)},
		},
		Combined: &combined,
	}
}

func testParams() carousel.Params {
	return carousel.Params{
		Layout: geometry.Layout{Count: 3, Size: 120, BlockRatio: geometry.DefaultBlockRatio},
		Adjustments: grade.Adjustments{
			Brightness: 110,
			Contrast:   100,
			Saturation: 90,
			Highlights: -5,
			Shadows:    8,
		},
		Selective: []grade.SelectiveAdjustment{
			{Band: grade.BandYellow, Saturation: 15, Luminance: -10},
		},
	}
}

func openBundle(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	RegisterDecompressor(zr)
	return zr
}

func readEntry(t *testing.T, zr *zip.Reader, name string) []byte {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read entry %s: %v", name, err)
		}
		return data
	}
	t.Fatalf("entry %s not found in bundle", name)
	return nil
}

func TestWriteRoundTrip(t *testing.T) {
	out := testOutputSet()

	var buf bytes.Buffer
	if err := Write(&buf, out, testParams()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	zr := openBundle(t, buf.Bytes())

	wantEntries := map[string]string{
		"master.png":          "master-bytes",
		"thumbnail.webp":      "thumb-bytes",
		"preview.webp":        "preview-bytes",
		"panels/panel-01.jpg": "panel-one",
		"panels/panel-02.jpg": "panel-two",
		"panels/panel-03.jpg": "panel-three",
		"combined.jpg":        "combined-bytes",
	}
	if got, want := len(zr.File), len(wantEntries)+1; got != want {
		t.Fatalf("bundle has %d entries, want %d", got, want)
	}
	for name, payload := range wantEntries {
		if got := string(readEntry(t, zr, name)); got != payload {
			t.Errorf("entry %s = %q, want %q", name, got, payload)
		}
	}
	for _, f := range zr.File {
		if f.Method != zipMethodZstd {
			t.Errorf("entry %s uses method %d, want %d", f.Name, f.Method, zipMethodZstd)
		}
	}
}

func TestWriteManifest(t *testing.T) {
	out := testOutputSet()

	var buf bytes.Buffer
	if err := Write(&buf, out, testParams()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	zr := openBundle(t, buf.Bytes())

	var manifest Manifest
	if err := json.Unmarshal(readEntry(t, zr, ManifestName), &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}

	if _, err := uuid.Parse(manifest.BundleID); err != nil {
		t.Errorf("bundle ID %q is not a UUID: %v", manifest.BundleID, err)
	}
	if manifest.RunID != out.RunID {
		t.Errorf("manifest run ID = %q, want %q", manifest.RunID, out.RunID)
	}
	if manifest.CreatedAt.IsZero() {
		t.Error("manifest created-at is zero")
	}
	if manifest.Layout.PanelCount != 3 || manifest.Layout.PanelSize != 120 {
		t.Errorf("manifest layout = %+v, want 3 panels of 120", manifest.Layout)
	}
	if manifest.Adjustments.Brightness != 110 || manifest.Adjustments.Shadows != 8 {
		t.Errorf("manifest adjustments = %+v", manifest.Adjustments)
	}
	if len(manifest.Selective) != 1 || manifest.Selective[0].Band != "yellow" {
		t.Fatalf("manifest selective = %+v, want one yellow entry", manifest.Selective)
	}
	if manifest.Selective[0].Saturation != 15 || manifest.Selective[0].Luminance != -10 {
		t.Errorf("manifest selective deltas = %+v", manifest.Selective[0])
	}

	if len(manifest.Entries) != 7 {
		t.Fatalf("manifest lists %d entries, want 7", len(manifest.Entries))
	}
	byName := make(map[string]Entry, len(manifest.Entries))
	for _, e := range manifest.Entries {
		byName[e.Name] = e
	}
	master, ok := byName["master.png"]
	if !ok {
		t.Fatal("manifest is missing the master entry")
	}
	if master.Kind != "master" || master.Format != "png" {
		t.Errorf("master entry = %+v", master)
	}
	if master.Width != 716 || master.Height != 477 {
		t.Errorf("master entry dimensions = %dx%d, want 716x477", master.Width, master.Height)
	}
	if master.Size != len("master-bytes") {
		t.Errorf("master entry size = %d, want %d", master.Size, len("master-bytes"))
	}
	panel, ok := byName["panels/panel-02.jpg"]
	if !ok {
		t.Fatal("manifest is missing panel 2")
	}
	if panel.Kind != "panel" || panel.Format != "jpeg" {
		t.Errorf("panel entry = %+v", panel)
	}
}

func TestWriteOmitsCombinedWhenAbsent(t *testing.T) {
	out := testOutputSet()
	out.Combined = nil

	var buf bytes.Buffer
	if err := Write(&buf, out, testParams()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	zr := openBundle(t, buf.Bytes())
	for _, f := range zr.File {
		if f.Name == "combined.jpg" {
			t.Fatal("bundle contains combined.jpg for a run without a combined strip")
		}
	}

	var manifest Manifest
	if err := json.Unmarshal(readEntry(t, zr, ManifestName), &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if len(manifest.Entries) != 6 {
		t.Errorf("manifest lists %d entries, want 6", len(manifest.Entries))
	}
}

func TestWriteNilOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, testParams()); err == nil {
		t.Fatal("Write(nil) succeeded, want error")
	}
}

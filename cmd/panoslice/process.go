package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/panoslice/panoslice/carousel"
	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/grade"
	"github.com/panoslice/panoslice/internal/autotone"
	"github.com/panoslice/panoslice/internal/bundle"
	"github.com/panoslice/panoslice/internal/exifmeta"
	"github.com/panoslice/panoslice/internal/logging"
	"github.com/panoslice/panoslice/internal/metrics"
)

// process flags
var (
	outputDirFlag    string
	panelsFlag       int
	panelSizeFlag    int
	blockRatioFlag   float64
	cropFlag         string
	rotationFlag     float64
	brightnessFlag   int
	contrastFlag     int
	saturationFlag   int
	exposureFlag     float64
	highlightsFlag   int
	shadowsFlag      int
	selectiveFlags   []string
	blockColorFlag   string
	combinedFlag     bool
	autotoneFlag     bool
	bundleFlag       string
	panelFormatFlag  string
	panelQualityFlag float64
	masterLimitFlag  int
)

var processCmd = &cobra.Command{
	Use:   "process <image>",
	Short: "Slice a panorama into square carousel panels",
	Long: `Process decodes a panoramic photo, fits the crop to the panel layout's
aspect ratio, grades the full image, and writes the processed master, the
square panels, and web-sized derivatives into the output directory.

The crop rectangle is given in pixels of the rotated image; without --crop
the largest centered region matching the layout's aspect is used. EXIF
orientation is applied before any user rotation.`,
	Args: cobra.ExactArgs(1),
	Run:  runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&outputDirFlag, "output", "o", "", "Output directory (default: <input>-panoslice)")
	f.IntVarP(&panelsFlag, "panels", "n", 3, "Number of square panels")
	f.IntVar(&panelSizeFlag, "panel-size", geometry.DefaultPanelSize, "Side of each square panel in pixels")
	f.Float64Var(&blockRatioFlag, "block-ratio", geometry.DefaultBlockRatio, "Fraction of the panel side for each letterbox block")
	f.StringVar(&cropFlag, "crop", "", "Crop rectangle x,y,w,h in rotated-image pixels (default: full frame)")
	f.Float64Var(&rotationFlag, "rotation", 0, "Counter-clockwise rotation in degrees (quarter turns only)")
	f.IntVar(&brightnessFlag, "brightness", grade.NeutralPercent, "Brightness percentage, 0-200")
	f.IntVar(&contrastFlag, "contrast", grade.NeutralPercent, "Contrast percentage, 0-200")
	f.IntVar(&saturationFlag, "saturation", grade.NeutralPercent, "Saturation percentage, 0-200")
	f.Float64Var(&exposureFlag, "exposure", 0, "Exposure bias added to the brightness percentage")
	f.IntVar(&highlightsFlag, "highlights", 0, "Highlight recovery, -20..20")
	f.IntVar(&shadowsFlag, "shadows", 0, "Shadow lift, -20..20")
	f.StringArrayVar(&selectiveFlags, "selective", nil,
		"Selective color band=sat[,lum], repeatable (bands: red, yellow, green, cyan, blue, magenta)")
	f.StringVar(&blockColorFlag, "block-color", "", `Letterbox color as hex, e.g. "#101010" (default white)`)
	f.BoolVar(&combinedFlag, "combined", false, "Also write the combined strip image")
	f.BoolVar(&autotoneFlag, "auto-tone", false, "Fill highlights/shadows from the histogram when left at 0")
	f.StringVar(&bundleFlag, "bundle", "", "Also write a zip bundle with a manifest to this path")
	f.StringVar(&panelFormatFlag, "panel-format", "jpeg", "Panel encoder: jpeg, png, webp")
	f.Float64Var(&panelQualityFlag, "panel-quality", carousel.DefaultPanelQuality, "Panel encode quality in (0,1]")
	f.IntVar(&masterLimitFlag, "master-limit", carousel.DefaultSizeLimit,
		"Master byte ceiling before the lossy fallback (0 disables)")
}

// runProcess is the process subcommand's execution logic.
func runProcess(cmd *cobra.Command, args []string) {
	input := args[0]

	meta := readMeta(input)

	file, err := os.Open(input)
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to open image")
	}
	decodeStart := time.Now()
	img, sourceFormat, err := carousel.Decode(file)
	file.Close()
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to decode image")
	}
	decodeDuration := time.Since(decodeStart)

	if meta != nil {
		img = exifmeta.Normalize(img, meta.Orientation)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	layout := geometry.Layout{Count: panelsFlag, Size: panelSizeFlag, BlockRatio: blockRatioFlag}

	adjustments := grade.Adjustments{
		Brightness: brightnessFlag,
		Contrast:   contrastFlag,
		Saturation: saturationFlag,
		Exposure:   exposureFlag,
		Highlights: highlightsFlag,
		Shadows:    shadowsFlag,
	}
	if autotoneFlag && adjustments.Highlights == 0 && adjustments.Shadows == 0 {
		analysis := autotone.Analyze(img)
		adjustments.Highlights, adjustments.Shadows = analysis.Suggest()
		log.Info().
			Int("highlights", adjustments.Highlights).
			Int("shadows", adjustments.Shadows).
			Msg("Applying suggested tone")
	}

	selective, err := parseSelective(selectiveFlags)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad --selective flag")
	}
	blockColor, err := resolveBlockColor(blockColorFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad --block-color flag")
	}
	panelFormat, err := parseFormat(panelFormatFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad --panel-format flag")
	}

	// The crop is expressed in the rotated image's pixel space.
	rotatedW, rotatedH := width, height
	if turn := math.Mod(math.Mod(rotationFlag, 360)+360, 360); turn == 90 || turn == 270 {
		rotatedW, rotatedH = rotatedH, rotatedW
	}
	crop, err := parseCrop(cropFlag, rotatedW, rotatedH)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad --crop flag")
	}

	outDir := outputDirFlag
	if outDir == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		outDir = filepath.Join(filepath.Dir(input), base+"-panoslice")
	}

	logging.NewRunLogger("process").
		Input(input, width, height).
		Feature("autoTone", autotoneFlag).
		Feature("combined", combinedFlag).
		Feature("bundle", bundleFlag != "").
		Config("sourceFormat", sourceFormat).
		Config("layout", fmt.Sprintf("%d x %dpx", layout.Count, layout.Size)).
		Config("panelFormat", panelFormat.String()).
		Config("output", outDir).
		DecodeDuration(decodeDuration).
		Log()

	engine := carousel.NewEngine(
		carousel.WithSizeLimit(masterLimitFlag),
		carousel.WithPanelEncode(carousel.EncodeOptions{
			Format:  panelFormat,
			Quality: float32(panelQualityFlag),
		}),
	)
	params := carousel.Params{
		Crop:            crop,
		Layout:          layout,
		Adjustments:     adjustments,
		Selective:       selective,
		RotationDegrees: rotationFlag,
		BlockColor:      blockColor,
		Combined:        combinedFlag,
	}

	rec := metrics.New("process").Duration("decode", decodeDuration)

	processStart := time.Now()
	out, err := engine.Process(cmd.Context(), img, params)
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}
	rec.Duration("process", time.Since(processStart))

	writeStart := time.Now()
	if err := writeOutputs(outDir, out); err != nil {
		log.Fatal().Err(err).Msg("Failed to write outputs")
	}
	if bundleFlag != "" {
		if err := writeBundle(bundleFlag, out, params); err != nil {
			log.Fatal().Err(err).Str("path", bundleFlag).Msg("Failed to write bundle")
		}
	}
	rec.Duration("write", time.Since(writeStart)).
		Count("panels", len(out.Panels)).
		Bytes("master", len(out.ProcessedFull.Data)).
		Bytes("total", outputBytes(out)).
		Property("runId", out.RunID).
		Property("master", out.ProcessedFull.Format.String()).
		Flush()

	log.Info().
		Str("runId", out.RunID).
		Str("output", outDir).
		Int("panels", len(out.Panels)).
		Msg("Processing complete")
}

// readMeta loads capture metadata, tolerating files without EXIF.
func readMeta(path string) *exifmeta.CaptureMeta {
	meta, err := exifmeta.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("No usable capture metadata")
		return nil
	}
	return meta
}

// writeOutputs writes every image of the output set under dir, panels in a
// panels/ subdirectory.
func writeOutputs(dir string, out *carousel.OutputSet) error {
	if err := os.MkdirAll(filepath.Join(dir, "panels"), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	write := func(name string, img carousel.EncodedImage) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Debug().Str("path", path).Int("bytes", len(img.Data)).Msg("Wrote output")
		return nil
	}
	if err := write("master"+out.ProcessedFull.Format.Ext(), out.ProcessedFull); err != nil {
		return err
	}
	if err := write("thumbnail"+out.Thumbnail.Format.Ext(), out.Thumbnail); err != nil {
		return err
	}
	if err := write("preview"+out.Preview.Format.Ext(), out.Preview); err != nil {
		return err
	}
	for _, panel := range out.Panels {
		name := filepath.Join("panels", fmt.Sprintf("panel-%02d%s", panel.Order, panel.Image.Format.Ext()))
		if err := write(name, panel.Image); err != nil {
			return err
		}
	}
	if out.Combined != nil {
		if err := write("combined"+out.Combined.Format.Ext(), *out.Combined); err != nil {
			return err
		}
	}
	return nil
}

// outputBytes sums the encoded sizes across the output set.
func outputBytes(out *carousel.OutputSet) int {
	total := len(out.ProcessedFull.Data) + len(out.Thumbnail.Data) + len(out.Preview.Data)
	for _, panel := range out.Panels {
		total += len(panel.Image.Data)
	}
	if out.Combined != nil {
		total += len(out.Combined.Data)
	}
	return total
}

// writeBundle writes the zip bundle for one processing run.
func writeBundle(path string, out *carousel.OutputSet, params carousel.Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	if err := bundle.Write(f, out, params); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close bundle file: %w", err)
	}
	return nil
}

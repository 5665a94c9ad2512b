package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/panoslice/panoslice/carousel"
	"github.com/panoslice/panoslice/geometry"
	"github.com/panoslice/panoslice/internal/autotone"
	"github.com/panoslice/panoslice/internal/exifmeta"
	"github.com/panoslice/panoslice/internal/logging"
)

// inspect flags
var (
	inspectPanelsFlag   int
	inspectRotationFlag float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Report image facts and suggested settings",
	Long: `Inspect decodes a photo and reports its dimensions, capture metadata,
exposure statistics, suggested tone adjustments, and the initial zoom a
fit-to-frame viewer needs for the requested panel count.`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectPanelsFlag, "panels", "n", 3, "Panel count used for the initial zoom")
	inspectCmd.Flags().Float64Var(&inspectRotationFlag, "rotation", 0, "Counter-clockwise rotation in degrees")
}

// runInspect is the inspect subcommand's execution logic.
func runInspect(cmd *cobra.Command, args []string) {
	input := args[0]

	meta := readMeta(input)

	file, err := os.Open(input)
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to open image")
	}
	img, sourceFormat, err := carousel.Decode(file)
	file.Close()
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to decode image")
	}
	if meta != nil {
		img = exifmeta.Normalize(img, meta.Orientation)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	logging.NewRunLogger("inspect").
		Input(input, width, height).
		Config("sourceFormat", sourceFormat).
		Log()

	analysis := autotone.Analyze(img)
	highlights, shadows := analysis.Suggest()

	layout := geometry.DefaultLayout(inspectPanelsFlag)
	zoom := geometry.InitialZoom(width, height, inspectRotationFlag, layout)

	fmt.Printf("%s\n", input)
	fmt.Printf("  format:      %s\n", sourceFormat)
	fmt.Printf("  dimensions:  %d x %d px (aspect %.3f)\n", width, height, float64(width)/float64(height))
	if meta != nil {
		if camera := meta.Camera(); camera != "" {
			fmt.Printf("  camera:      %s\n", camera)
		}
		if meta.HasTakenAt {
			fmt.Printf("  taken:       %s\n", meta.TakenAt.Format(time.RFC3339))
		}
		if meta.HasGPS {
			fmt.Printf("  location:    %.5f, %.5f\n", meta.Latitude, meta.Longitude)
		}
		if meta.Orientation > 1 {
			fmt.Printf("  orientation: %d (normalized before analysis)\n", meta.Orientation)
		}
	}
	fmt.Printf("  exposure:    mean %.0f, shadows clipped %.1f%%, highlights clipped %.1f%%\n",
		analysis.Mean, analysis.ShadowShare*100, analysis.HighlightShare*100)
	fmt.Printf("  tone range:  p5 %d, p95 %d\n", analysis.P5, analysis.P95)
	fmt.Printf("  suggested:   highlights %+d, shadows %+d\n", highlights, shadows)
	fmt.Printf("  zoom:        %.4f at %d panels\n", zoom, inspectPanelsFlag)
}

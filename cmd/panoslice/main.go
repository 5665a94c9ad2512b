package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/panoslice/panoslice/internal/logging"
)

var logLevelFlag string

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "panoslice",
	Short: "Slice panoramic photos into square carousel panels",
	Long: `Panoslice turns one wide panoramic photo into a set of square panels for
an Instagram-style carousel. Swiping through the panels reconstructs the
original panorama as one seamless strip.

The tool fits a crop to the layout's aspect ratio, applies any tone and
selective color grading over the full image, slices the strip into square
letterboxed panels, and writes the processed master plus web-sized
derivatives alongside them.

Examples:
  panoslice process pano.jpg --panels 3
  panoslice process pano.jpg --panels 5 --brightness 110 --shadows 8
  panoslice process pano.jpg --selective yellow=20,-5 --block-color "#101010"
  panoslice process pano.jpg --auto-tone --bundle run.zip
  panoslice inspect pano.jpg --panels 4`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level",
		logging.EnvOrDefault("PANOSLICE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.InitWithLevel(logLevelFlag)
	}
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

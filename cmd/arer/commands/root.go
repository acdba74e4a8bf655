// Package commands implements the arer command tree.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "arer",
	Short: "Batch tools for the audio-visual reverberation codec",
	Long: `arer drives a trained audio-visual codec over evaluation datasets.

The codec encodes reverberant speech into two quantized latent streams,
speech content and room impulse response, conditioned on material and
scene images. arer runs the offline passes around it:

  stats    accumulate per-channel normalization statistics of the codes
  test     reconstruct a subset and write per-branch audio
  version  show version information

Both passes read checkpoint bundles with a sibling config.yml describing
that checkpoint's architecture.

Examples:
  arer stats -c config.yaml --subset train
  arer test --encoder exp/enc/checkpoint-700000steps.pkl \
            --decoder exp/dec/checkpoint-500000steps.pkl \
            --output_dir out`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initLogging installs the default text logger. The batch tools are
// single-run processes; stdout carries both the log and the progress
// line.
func initLogging() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/MeKo-Tech/qrscan/internal/batch"
	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/extract"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Extract QR codes from many files in parallel",
	Long: `Analyze every file named on the command line or found in the given
directories with a pool of workers.

Unless --file-format is given, the declared format of each file is guessed
from its extension. Files with an unknown extension go through the full
office, image and PDF cascade.

Examples:
  qrscan batch ./inbox --recursive --include "*.pdf"
  qrscan batch a.docx b.png --format json --output results.json
  qrscan batch ./scans --workers 4 --stats`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig merges the loaded configuration with the flags given
// on the command line. Flags win when set explicitly.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	batchConfig := batch.DefaultConfig()
	batchConfig.GuessFormat = cfg.Batch.GuessFormat
	if cfg.Batch.Workers > 0 {
		batchConfig.Workers = cfg.Batch.Workers
	}

	flags := cmd.Flags()
	batchConfig.FileFormat, _ = flags.GetString("file-format")
	batchConfig.Recursive, _ = flags.GetBool("recursive")
	batchConfig.IncludePatterns, _ = flags.GetStringSlice("include")
	batchConfig.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	batchConfig.FailFast, _ = flags.GetBool("fail-fast")

	if flags.Changed("guess-format") {
		batchConfig.GuessFormat, _ = flags.GetBool("guess-format")
	}
	if flags.Changed("workers") {
		batchConfig.Workers, _ = flags.GetInt("workers")
	}
	if batchConfig.Workers <= 0 {
		batchConfig.Workers = runtime.NumCPU()
	}
	return batchConfig
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	batchConfig := configToBatchConfig(cfg, cmd)

	outputFormat := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		outputFormat, _ = cmd.Flags().GetString("format")
	}
	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}
	switch outputFormat {
	case outputFormatJSON, outputFormatYAML, "text":
	default:
		return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", outputFormat)
	}

	backend, err := barcode.NewBackend()
	if err != nil {
		return fmt.Errorf("failed to create barcode backend: %w", err)
	}
	dispatcher := extract.NewDispatcher(backend, cfg.ToExtractOptions())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Debug("Starting batch", "paths", args, "workers", batchConfig.Workers)
	res, err := batch.Process(ctx, dispatcher, args, batchConfig)
	if err != nil {
		if errors.Is(err, batch.ErrNoFiles) {
			return errors.New("no files found to analyze")
		}
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if !quiet {
		stats := res.Stats()
		slog.Info("Batch finished",
			"files", stats.Files,
			"failed", stats.Failed,
			"features", stats.Features,
			"workers", res.WorkerCount,
			"duration", res.Duration.String())
	}

	out, err := res.FormatResults(outputFormat)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile); err != nil {
				return err
			}
		}
	} else if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		res.PrintStats(cmd.OutOrStdout())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	defaults := config.DefaultConfig()

	batchCmd.Flags().String("file-format", "", "declared format for every file (default: guess from extension)")
	batchCmd.Flags().Bool("guess-format", defaults.Batch.GuessFormat, "guess the declared format from the file extension")
	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().BoolP("recursive", "r", false, "walk directories recursively")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of files to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to exclude")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first document that cannot be analyzed")
	batchCmd.Flags().StringP("format", "f", defaults.Output.Format, "output format (text, json, yaml)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().Bool("stats", false, "print summary statistics after the results")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress logging")
}

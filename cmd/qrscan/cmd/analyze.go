package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/extract"
	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Extract QR codes from a document or image",
	Long: `Analyze a single file and report every QR code found in it.

The declared file format selects the extraction strategy:
  document/office/*, document/email   walk the media entries of the archive
  document/pdf                        walk the image objects of the PDF
  image/*                             decode the file as one image

Without --file-format the office, image and PDF strategies are tried in
that order until one of them processes at least one image.

Examples:
  qrscan analyze report.docx --file-format document/office/word
  qrscan analyze scan.pdf --format json --output result.json
  qrscan analyze poster.png --events-dir ./events`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		path := args[0]

		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("input file not found: %s", path)
			}
			return fmt.Errorf("failed to stat input file: %w", err)
		}

		backend, err := barcode.NewBackend()
		if err != nil {
			return fmt.Errorf("failed to create barcode backend: %w", err)
		}
		dispatcher := extract.NewDispatcher(backend, cfg.ToExtractOptions())

		fileFormat, _ := cmd.Flags().GetString("file-format")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Debug("Analyzing document", "path", path, "file_format", fileFormat)
		res, err := dispatcher.Run(ctx, extract.Document{Path: path, Format: fileFormat})
		if err != nil {
			return fmt.Errorf("failed to analyze %s: %w", path, err)
		}
		slog.Info("Analysis finished",
			"path", path,
			"strategy", res.Strategy,
			"status", string(res.Status.Label),
			"images", res.ImagesProcessed,
			"features", len(res.Features),
			"duration", res.Duration.String())

		var eventFiles []eventFile
		if cfg.Output.EventsDir != "" {
			eventFiles, err = storeEvents(cfg.Output.EventsDir, res)
			if err != nil {
				return err
			}
			for _, f := range eventFiles {
				slog.Debug("Wrote event attachment", "path", f.Path)
			}
		}

		out, err := formatResult(cfg.Output.Format, path, res, eventFiles)
		if err != nil {
			return err
		}

		if cfg.Output.File != "" {
			if err := os.WriteFile(cfg.Output.File, []byte(out), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.Output.File)
			return err
		}
		if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	},
}

func addAnalyzeFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()

	cmd.Flags().String("file-format", "", "declared file format, e.g. document/pdf or image/png (default: try all)")
	cmd.Flags().StringP("format", "f", defaults.Output.Format, "output format (text, json, yaml)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("events-dir", "", "directory to write event attachments to")
	cmd.Flags().Int("max-value-length", defaults.Extract.MaxValueLength,
		"longest payload emitted as a feature value before truncation")
	cmd.Flags().Bool("abort-on-image-error", defaults.Extract.AbortOnImageError,
		"stop walking an office document at the first undecodable image")
	cmd.Flags().Int("max-image-dimension", defaults.Extract.MaxImageDimension,
		"downsize images whose longer edge exceeds this many pixels (0 disables)")
	cmd.Flags().Bool("try-harder", defaults.Extract.TryHarder, "use the slower, more thorough decoder mode")
	cmd.Flags().String("pdf-password", "", "password for encrypted PDF files")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addAnalyzeFlags(analyzeCmd)
	bindFlags(analyzeCmd.Flags(), []flagBinding{
		{"output.format", "format"},
		{"output.file", "output"},
		{"output.events_dir", "events-dir"},
		{"extract.max_value_length", "max-value-length"},
		{"extract.abort_on_image_error", "abort-on-image-error"},
		{"extract.max_image_dimension", "max-image-dimension"},
		{"extract.try_harder", "try-harder"},
		{"extract.pdf_password", "pdf-password"},
	})
}

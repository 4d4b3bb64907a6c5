// Package batch runs the extraction engine over many files in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/qrscan/internal/extract"
	"golang.org/x/sync/errgroup"
)

// ErrNoFiles is returned when discovery finds nothing to analyze.
var ErrNoFiles = errors.New("no files found")

// Process discovers the files named by args and analyzes each with d.
// Fatal per-document errors are recorded on the item unless FailFast is set.
func Process(ctx context.Context, d *extract.Dispatcher, args []string, config *Config) (*Result, error) {
	files, err := discoverFiles(args, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	startTime := time.Now()
	items, err := processParallel(ctx, d, files, config)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Items:       items,
		Duration:    time.Since(startTime),
		WorkerCount: config.workers(),
	}, nil
}

func (c *Config) formatFor(path string) string {
	switch {
	case c.FileFormat != "":
		return c.FileFormat
	case c.GuessFormat:
		return GuessFormat(path)
	default:
		return ""
	}
}

// processParallel analyzes files with a bounded worker group. Each item is
// written only by its own goroutine.
func processParallel(ctx context.Context, d *extract.Dispatcher, files []string, config *Config) ([]Item, error) {
	items := make([]Item, len(files))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(config.workers())

	for i, path := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			format := config.formatFor(path)
			items[i] = Item{Path: path, Format: format}

			res, err := d.Run(gctx, extract.Document{Path: path, Format: format})
			items[i].Result = res
			if err != nil {
				slog.Error("Document analysis failed", "path", path, "error", err)
				items[i].Error = err.Error()
				if config.FailFast {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

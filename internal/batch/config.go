package batch

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/MeKo-Tech/qrscan/internal/extract"
)

// Config holds all configuration for batch analysis.
type Config struct {
	// FileFormat is applied to every file when set. Otherwise the label is
	// guessed from the extension when GuessFormat is true, and left empty
	// (cascade) when it is false.
	FileFormat  string
	GuessFormat bool

	// Parallel processing settings
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// FailFast stops the batch at the first fatal document error.
	FailFast bool
}

// DefaultConfig returns the defaults used by the batch command.
func DefaultConfig() *Config {
	return &Config{
		GuessFormat: true,
		Workers:     runtime.NumCPU(),
	}
}

func (c *Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// Item is the outcome for one discovered file.
type Item struct {
	Path   string          `json:"path" yaml:"path"`
	Format string          `json:"file_format,omitempty" yaml:"file_format,omitempty"`
	Result *extract.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result holds the result of batch processing. Items follow discovery order.
type Result struct {
	Items       []Item        `json:"items" yaml:"items"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
	WorkerCount int           `json:"workers" yaml:"workers"`
}

// Stats summarises a batch.
type Stats struct {
	Files           int
	Failed          int
	ByStatus        map[extract.StatusLabel]int
	ImagesProcessed int
	Features        int
}

// Stats computes summary counters over all items.
func (r *Result) Stats() Stats {
	s := Stats{Files: len(r.Items), ByStatus: map[extract.StatusLabel]int{}}
	for _, it := range r.Items {
		if it.Error != "" || it.Result == nil {
			s.Failed++
			continue
		}
		s.ByStatus[it.Result.Status.Label]++
		s.ImagesProcessed += it.Result.ImagesProcessed
		s.Features += len(it.Result.Features)
	}
	return s
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", stats.Files)
	_, _ = fmt.Fprintf(w, "  Completed: %d\n", stats.ByStatus[extract.StatusCompleted])
	_, _ = fmt.Fprintf(w, "  Completed with errors: %d\n", stats.ByStatus[extract.StatusCompletedWithErrors])
	_, _ = fmt.Fprintf(w, "  Opted out: %d\n", stats.ByStatus[extract.StatusOptOut])
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	_, _ = fmt.Fprintf(w, "  Images processed: %d\n", stats.ImagesProcessed)
	_, _ = fmt.Fprintf(w, "  Features: %d\n", stats.Features)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
}

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/office"
)

// OfficeLimitMessage is reported when an office document holds more images
// than the budget allows.
const OfficeLimitMessage = "Office has more than 100 images, only processed first 100"

// mediaPrefixes are the archive directories holding embedded images.
var mediaPrefixes = []string{"word/media/", "ppt/media/", "xl/media/", "media/"}

// ArchiveReader is the archive capability used by OfficeExtractor.
type ArchiveReader interface {
	Names() []string
	Read(name string) ([]byte, error)
	Close() error
}

// Outcome is what a single extraction strategy achieved.
type Outcome struct {
	ImagesProcessed int
	Status          *Status
}

// OfficeExtractor walks the media directories of zip-based office documents.
type OfficeExtractor struct {
	processor         *ImageProcessor
	abortOnImageError bool
	open              func(doc Document) (ArchiveReader, error)
}

// NewOfficeExtractor creates an extractor reading archives with the office
// package. When abortOnImageError is set, the first undecodable image ends the
// walk instead of being skipped.
func NewOfficeExtractor(processor *ImageProcessor, abortOnImageError bool) *OfficeExtractor {
	return &OfficeExtractor{
		processor:         processor,
		abortOnImageError: abortOnImageError,
		open:              openArchive,
	}
}

func openArchive(doc Document) (ArchiveReader, error) {
	if doc.Data != nil {
		return office.NewReader(doc.Data)
	}
	return office.Open(doc.Path)
}

// Extract processes every media entry of doc in archive order. Corrupt
// archives end the walk silently; only operating-system failures are
// returned.
func (e *OfficeExtractor) Extract(ctx context.Context, doc Document, budget *Budget, res *Result) (Outcome, error) {
	start := budget.Count()
	outcome := func(st *Status) Outcome {
		return Outcome{ImagesProcessed: budget.Count() - start, Status: st}
	}

	archive, err := e.open(doc)
	if err != nil {
		if office.IsKind(err, office.KindCorrupt) {
			slog.Error("Error processing office document, bad zip file", "path", doc.name(), "error", err)
			return outcome(nil), nil
		}
		return outcome(nil), fmt.Errorf("open office document: %w", err)
	}
	defer func() { _ = archive.Close() }()

	candidates := mediaEntries(archive.Names())
	if len(candidates) == 0 {
		return outcome(nil), nil
	}

	for _, name := range candidates {
		if budget.Exhausted() {
			st := CompletedWithErrors(OfficeLimitMessage)
			return outcome(&st), nil
		}
		if isMediaPrefix(name) {
			continue
		}

		data, err := archive.Read(name)
		if err != nil {
			if office.IsKind(err, office.KindCorrupt) {
				slog.Error("Error processing office document, bad zip entry", "path", doc.name(), "entry", name, "error", err)
				return outcome(nil), nil
			}
			return outcome(nil), fmt.Errorf("read office entry %q: %w", name, err)
		}

		if err := e.processor.ProcessBytes(ctx, budget, data, res); err != nil {
			slog.Error("Error processing office document, can't open image", "path", doc.name(), "entry", name, "error", err)
			if e.abortOnImageError {
				return outcome(nil), nil
			}
		}
	}
	return outcome(nil), nil
}

func mediaEntries(names []string) []string {
	var out []string
	for _, n := range names {
		for _, p := range mediaPrefixes {
			if strings.HasPrefix(n, p) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func isMediaPrefix(name string) bool {
	for _, p := range mediaPrefixes {
		if name == p {
			return true
		}
	}
	return false
}

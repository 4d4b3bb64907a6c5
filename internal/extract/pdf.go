package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/pdf"
)

// PDFLimitMessage is reported when a PDF holds more images than the budget
// allows.
const PDFLimitMessage = "PDF has more than 100 images, only processed first 100"

// PDFDocument is the object-model capability used by PDFExtractor.
type PDFDocument interface {
	// ObjectCount is the length of the cross-reference table.
	ObjectCount() int
	ObjectDict(nr int) (string, error)
	ExtractImage(nr int) ([]byte, error)
}

// PDFExtractor walks the indirect objects of a PDF looking for images.
type PDFExtractor struct {
	processor *ImageProcessor
	open      func(doc Document) (PDFDocument, error)
}

// NewPDFExtractor creates an extractor reading documents with the pdf
// package. creds may be nil.
func NewPDFExtractor(processor *ImageProcessor, creds *pdf.PasswordCredentials) *PDFExtractor {
	return &PDFExtractor{
		processor: processor,
		open: func(doc Document) (PDFDocument, error) {
			if doc.Data != nil {
				return pdf.NewReader(doc.Data, creds)
			}
			return pdf.Open(doc.Path, creds)
		},
	}
}

// Extract processes every image object of doc in object-number order.
// Broken, missing and encrypted documents are logged; other failures to
// open the document are returned.
func (e *PDFExtractor) Extract(ctx context.Context, doc Document, budget *Budget, res *Result) (Outcome, error) {
	start := budget.Count()
	outcome := func(st *Status) Outcome {
		return Outcome{ImagesProcessed: budget.Count() - start, Status: st}
	}

	d, err := e.open(doc)
	if err != nil {
		switch {
		case pdf.IsKind(err, pdf.KindBroken):
			slog.Error("The file is corrupted or not a valid PDF", "path", doc.name(), "error", err)
		case pdf.IsKind(err, pdf.KindNotFound):
			slog.Error("The file does not exist", "path", doc.name(), "error", err)
		case pdf.IsKind(err, pdf.KindEncrypted):
			slog.Error("The file is password-protected", "path", doc.name(), "error", err)
		default:
			return outcome(nil), fmt.Errorf("open pdf: %w", err)
		}
		return outcome(nil), nil
	}

	for nr := 1; nr < d.ObjectCount(); nr++ {
		if budget.Exhausted() {
			st := CompletedWithErrors(PDFLimitMessage)
			return outcome(&st), nil
		}

		dict, err := d.ObjectDict(nr)
		if err != nil {
			slog.Error("Conversion error processing pdf object", "path", doc.name(), "object", nr, "error", err)
			continue
		}
		if !strings.Contains(dict, "/Image") {
			continue
		}

		data, err := d.ExtractImage(nr)
		if err != nil {
			slog.Error("Conversion error processing pdf image", "path", doc.name(), "object", nr, "error", err)
			continue
		}
		if err := e.processor.ProcessBytes(ctx, budget, data, res); err != nil {
			slog.Error("Error processing pdf, can't open image", "path", doc.name(), "object", nr, "error", err)
		}
	}
	return outcome(nil), nil
}

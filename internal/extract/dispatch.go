package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/MeKo-Tech/qrscan/internal/imagecodec"
	"github.com/MeKo-Tech/qrscan/internal/pdf"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyOffice = "office"
	StrategyPDF    = "pdf"
	StrategyImage  = "image"
	StrategyNone   = "none"
)

// OptOutMessage is reported when no strategy could process the document.
const OptOutMessage = "Unable to process file type"

// imageLabelPrefix selects the direct image strategy.
const imageLabelPrefix = "image/"

var officeLabels = map[string]bool{
	"document/office/excel":      true,
	"document/office/word":       true,
	"document/office/powerpoint": true,
	"document/office/unknown":    true,
	"document/email":             true,
	"document/office/email":      true,
}

var pdfLabels = map[string]bool{
	"document/pdf": true,
}

// Options configures a Dispatcher.
type Options struct {
	// MaxValueLength is the longest payload emitted verbatim.
	MaxValueLength int
	// AbortOnImageError ends an office walk at the first undecodable image.
	AbortOnImageError bool
	// MaxImageDimension downsizes larger rasters before decoding. Zero disables.
	MaxImageDimension int
	// TryHarder enables the slower, more thorough decoder mode.
	TryHarder bool
	// PDFCredentials unlock encrypted PDF files. May be nil.
	PDFCredentials *pdf.PasswordCredentials
}

// DefaultOptions returns the default dispatcher options.
func DefaultOptions() Options {
	return Options{
		MaxValueLength:    DefaultMaxValueLength,
		MaxImageDimension: 4096,
		TryHarder:         true,
	}
}

// Dispatcher selects an extraction strategy from the declared file format
// and produces the Result for one document. A Dispatcher may be shared
// between goroutines; all per-document state lives in Run.
type Dispatcher struct {
	backend barcode.Backend
	opts    Options

	processor *ImageProcessor
	office    *OfficeExtractor
	pdf       *PDFExtractor
}

type strategy struct {
	name string
	run  func(ctx context.Context, doc Document, budget *Budget, res *Result) (Outcome, error)
}

// NewDispatcher wires the extractors around backend.
func NewDispatcher(backend barcode.Backend, opts Options) *Dispatcher {
	decodeOpts := barcode.DefaultOptions()
	decodeOpts.TryHarder = opts.TryHarder

	processor := NewImageProcessor(
		backend,
		decodeOpts,
		imagecodec.Options{MaxDimension: opts.MaxImageDimension},
		NewNormalizer(opts.MaxValueLength),
	)
	return &Dispatcher{
		backend:   backend,
		opts:      opts,
		processor: processor,
		office:    NewOfficeExtractor(processor, opts.AbortOnImageError),
		pdf:       NewPDFExtractor(processor, opts.PDFCredentials),
	}
}

// Options returns the options the dispatcher was built with.
func (d *Dispatcher) Options() Options { return d.opts }

// WithMaxValueLength returns a dispatcher sharing the backend but truncating
// at n instead.
func (d *Dispatcher) WithMaxValueLength(n int) *Dispatcher {
	opts := d.opts
	opts.MaxValueLength = n
	return NewDispatcher(d.backend, opts)
}

// Run analyses one document. The returned error is non-nil only for
// unclassified failures of a container whose format was declared; the
// Result is valid either way.
func (d *Dispatcher) Run(ctx context.Context, doc Document) (*Result, error) {
	started := time.Now()
	res := &Result{Features: []Feature{}, Status: Completed(), Strategy: StrategyNone}
	var budget Budget
	budget.Reset()

	err := d.dispatch(ctx, doc, &budget, res)

	res.ImagesProcessed = budget.Count()
	res.Duration = time.Since(started)
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, doc Document, budget *Budget, res *Result) error {
	switch {
	case officeLabels[doc.Format]:
		return d.runSingle(ctx, d.officeStrategy(), doc, budget, res)
	case pdfLabels[doc.Format]:
		return d.runSingle(ctx, d.pdfStrategy(), doc, budget, res)
	case strings.HasPrefix(doc.Format, imageLabelPrefix):
		return d.runSingle(ctx, d.imageStrategy(), doc, budget, res)
	default:
		d.cascade(ctx, doc, budget, res)
		return nil
	}
}

func (d *Dispatcher) runSingle(ctx context.Context, s strategy, doc Document, budget *Budget, res *Result) error {
	res.Strategy = s.name
	out, err := s.run(ctx, doc, budget, res)
	if out.Status != nil {
		res.Status = *out.Status
	}
	return err
}

// cascade tries office, direct image and PDF in that order and stops at the
// first strategy that processed an image.
func (d *Dispatcher) cascade(ctx context.Context, doc Document, budget *Budget, res *Result) {
	for _, s := range []strategy{d.officeStrategy(), d.imageStrategy(), d.pdfStrategy()} {
		out, err := d.attempt(ctx, s, doc, budget, res)
		if err != nil {
			slog.Error("Could not detect file type, strategy failed", "strategy", s.name, "path", doc.name(), "error", err)
		}
		if out.ImagesProcessed > 0 {
			res.Strategy = s.name
			if out.Status != nil {
				res.Status = *out.Status
			}
			return
		}
	}
	res.Status = OptOut(OptOutMessage)
}

func (d *Dispatcher) attempt(ctx context.Context, s strategy, doc Document, budget *Budget, res *Result) (out Outcome, err error) {
	start := budget.Count()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{ImagesProcessed: budget.Count() - start}
			err = fmt.Errorf("%s strategy panic: %v", s.name, r)
		}
	}()
	return s.run(ctx, doc, budget, res)
}

func (d *Dispatcher) officeStrategy() strategy {
	return strategy{name: StrategyOffice, run: d.office.Extract}
}

func (d *Dispatcher) pdfStrategy() strategy {
	return strategy{name: StrategyPDF, run: d.pdf.Extract}
}

func (d *Dispatcher) imageStrategy() strategy {
	return strategy{name: StrategyImage, run: d.extractImage}
}

// extractImage treats the whole document as one raster. No budget check is
// made; exactly one image is processed at most.
func (d *Dispatcher) extractImage(ctx context.Context, doc Document, budget *Budget, res *Result) (Outcome, error) {
	start := budget.Count()

	data, err := doc.bytes()
	if err != nil {
		return Outcome{}, err
	}
	if err := d.processor.ProcessBytes(ctx, budget, data, res); err != nil {
		slog.Error("Error processing image, can't open image", "path", doc.name(), "error", err)
	}
	return Outcome{ImagesProcessed: budget.Count() - start}, nil
}

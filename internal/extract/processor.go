package extract

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/MeKo-Tech/qrscan/internal/imagecodec"
)

// ImageProcessor runs one raster through the barcode backend and the
// normalizer. It holds no per-document state.
type ImageProcessor struct {
	backend    barcode.Backend
	decodeOpts barcode.Options
	codecOpts  imagecodec.Options
	normalizer *Normalizer
}

// NewImageProcessor creates a processor.
func NewImageProcessor(backend barcode.Backend, decodeOpts barcode.Options, codecOpts imagecodec.Options, normalizer *Normalizer) *ImageProcessor {
	return &ImageProcessor{
		backend:    backend,
		decodeOpts: decodeOpts,
		codecOpts:  codecOpts,
		normalizer: normalizer,
	}
}

// Process consumes one unit of budget and emits the features of every symbol
// found in img. Backend failures count as an image without symbols.
func (p *ImageProcessor) Process(ctx context.Context, budget *Budget, img image.Image, res *Result) {
	raster := imagecodec.Normalize(img, p.codecOpts)
	budget.Consume()

	symbols, err := p.decode(ctx, raster)
	if err != nil {
		slog.Error("QR decoding failed", "error", err)
		return
	}

	for _, sym := range symbols {
		p.normalizer.Normalize(sym, res)
	}
}

// ProcessBytes decodes data with the image codec and processes the result.
// Codec failures are returned as *imagecodec.Error and consume no budget.
func (p *ImageProcessor) ProcessBytes(ctx context.Context, budget *Budget, data []byte, res *Result) error {
	img, err := imagecodec.Decode(data, p.codecOpts)
	if err != nil {
		return err
	}
	p.Process(ctx, budget, img, res)
	return nil
}

func (p *ImageProcessor) decode(ctx context.Context, img image.Image) (symbols []barcode.Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			symbols = nil
			err = fmt.Errorf("barcode backend panic: %v", r)
		}
	}()
	return p.backend.Decode(ctx, img, p.decodeOpts)
}

package barcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	gozxing "github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/text/encoding/charmap"
)

// latin1 makes gozxing map every byte-mode octet without an ECI onto a
// single rune so the original payload bytes can be recovered from the text.
const latin1 = "ISO-8859-1"

// newDefaultBackend returns the gozxing-backed implementation.
func newDefaultBackend() (Backend, error) { return &gozxingBackend{}, nil }

type gozxingBackend struct{}

func (b *gozxingBackend) Decode(_ context.Context, img image.Image, opts Options) ([]Symbol, error) {
	if img == nil {
		return nil, errors.New("barcode: nil image")
	}

	// Apply ROI if requested and valid
	if !opts.ROI.Empty() {
		if roiImg, ok := subImage(img, opts.ROI); ok {
			img = roiImg
		}
	}

	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("barcode: binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_CHARACTER_SET: latin1,
	}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	var results []*gozxing.Result
	if opts.Multi {
		results, err = multiqr.NewQRCodeMultiReader().DecodeMultiple(bitmap, hints)
	}
	if !opts.Multi || err != nil {
		// The multi reader gives up on some images the single reader handles.
		var r *gozxing.Result
		r, err = qrcode.NewQRCodeReader().Decode(bitmap, hints)
		if err == nil && r != nil {
			results = []*gozxing.Result{r}
		}
	}
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("barcode: decode: %w", err)
	}

	out := make([]Symbol, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out = append(out, symbolFromResult(r))
	}
	return out, nil
}

func symbolFromResult(r *gozxing.Result) Symbol {
	sym := Symbol{
		Payload: payloadFromResult(r),
		Type:    mapFormatFromZXing(r.GetBarcodeFormat()),
	}

	pts := r.GetResultPoints()
	if len(pts) > 0 {
		poly := make(Polygon, 0, len(pts))
		for _, p := range pts {
			poly = append(poly, Point{X: int(math.Round(p.GetX())), Y: int(math.Round(p.GetY()))})
		}
		sym.Polygon = poly
		rect := rectFromPoints(poly)
		sym.Rect = &rect
	}

	if v, ok := r.GetResultMetadata()[gozxing.ResultMetadataType_ORIENTATION]; ok {
		if deg, ok := v.(int); ok {
			if o, ok := OrientationFromDegrees(deg); ok {
				sym.Orientation = &o
			}
		}
	}
	// gozxing does not report a quality score; Quality stays absent.
	return sym
}

// payloadFromResult reverses the latin1 decoding applied by gozxing. The
// latin1 bytes are only trusted when they contain every raw byte segment of
// the symbol; segments decoded under an ECI charset (UTF-8, Shift_JIS) and
// kanji segments yield the UTF-8 encoding of the text instead.
func payloadFromResult(r *gozxing.Result) []byte {
	text := r.GetText()
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return []byte(text)
	}
	segments, _ := r.GetResultMetadata()[gozxing.ResultMetadataType_BYTE_SEGMENTS].([][]byte)
	if !containsSegments(raw, segments) {
		return []byte(text)
	}
	return raw
}

// containsSegments reports whether every segment occurs in raw, in order.
func containsSegments(raw []byte, segments [][]byte) bool {
	for _, seg := range segments {
		i := bytes.Index(raw, seg)
		if i < 0 {
			return false
		}
		raw = raw[i+len(seg):]
	}
	return true
}

func mapFormatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	default:
		return FormatUnknown
	}
}

func rectFromPoints(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{Left: minX, Top: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// subImage returns a sub-image if supported by the image implementation.
func subImage(img image.Image, r image.Rectangle) (image.Image, bool) {
	// Ensure ROI intersects bounds
	rb := r.Intersect(img.Bounds())
	if rb.Empty() {
		return nil, false
	}
	type subImager interface{ SubImage(r image.Rectangle) image.Image }
	if s, ok := img.(subImager); ok {
		return s.SubImage(rb), true
	}
	// Fallback: copy into new RGBA
	dst := image.NewRGBA(image.Rect(0, 0, rb.Dx(), rb.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rb.Min, draw.Src)
	return dst, true
}

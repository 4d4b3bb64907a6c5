package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// DefaultQRSize is the edge length in pixels of generated QR images.
const DefaultQRSize = 400

// QRImageConfig holds configuration for generating QR test images.
type QRImageConfig struct {
	// Payload is encoded byte for byte unless CharacterSet is set.
	Payload []byte
	// CharacterSet, e.g. "UTF-8", encodes Payload as text in that charset
	// behind an ECI header.
	CharacterSet string
	Size         int
	// Canvas, if larger than Size, pads the symbol onto a white background.
	Canvas int
}

// GenerateQRImage encodes payload into a grayscale QR image.
// Every payload byte becomes one byte-mode octet so arbitrary (including
// non-UTF-8) payloads round-trip through the decoder unchanged.
func GenerateQRImage(config QRImageConfig) (image.Image, error) {
	size := config.Size
	if size <= 0 {
		size = DefaultQRSize
	}

	charset := config.CharacterSet
	content := string(config.Payload)
	if charset == "" {
		charset = "ISO-8859-1"
		mapped, err := charmap.ISO8859_1.NewDecoder().Bytes(config.Payload)
		if err != nil {
			return nil, fmt.Errorf("latin1 map payload: %w", err)
		}
		content = string(mapped)
	}

	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_CHARACTER_SET: charset,
		gozxing.EncodeHintType_MARGIN:        4,
	}
	matrix, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	w, h := matrix.GetWidth(), matrix.GetHeight()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	if config.Canvas > w && config.Canvas > h {
		canvas := image.NewRGBA(image.Rect(0, 0, config.Canvas, config.Canvas))
		draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		offset := image.Pt((config.Canvas-w)/2, (config.Canvas-h)/2)
		draw.Draw(canvas, img.Bounds().Add(offset), img, image.Point{}, draw.Src)
		return canvas, nil
	}
	return img, nil
}

// QRPNG returns a PNG-encoded QR image holding text.
func QRPNG(t *testing.T, text string) []byte {
	t.Helper()
	return QRPNGBytes(t, []byte(text))
}

// QRPNGBytes returns a PNG-encoded QR image holding payload.
func QRPNGBytes(t *testing.T, payload []byte) []byte {
	t.Helper()

	data, err := MakeQRPNG(payload)
	require.NoError(t, err, "Failed to generate QR image")
	return data
}

// MakeQRPNG returns a PNG-encoded QR image holding payload.
func MakeQRPNG(payload []byte) ([]byte, error) {
	img, err := GenerateQRImage(QRImageConfig{Payload: payload})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// BlankPNG returns a PNG-encoded white image without any symbol.
func BlankPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return EncodePNG(t, img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "Failed to encode PNG image")
	return buf.Bytes()
}

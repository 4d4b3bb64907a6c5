// Package imagecodec decodes embedded image bytes into a normalized raster.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Kind classifies why an image could not be decoded.
type Kind int

const (
	// KindUnidentified means no registered codec recognised the bytes.
	KindUnidentified Kind = iota + 1
	// KindTruncated means the stream ended before the image was complete.
	KindTruncated
	// KindCorrupt covers every other decoder rejection.
	KindCorrupt
)

func (k Kind) String() string {
	switch k {
	case KindUnidentified:
		return "unidentified"
	case KindTruncated:
		return "truncated"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error reports a failure to turn bytes into a raster.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("image decode error (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Options controls normalization.
type Options struct {
	// MaxDimension downsizes images whose longer edge exceeds it. Zero disables.
	MaxDimension int
}

// Decode identifies and decodes data, then normalizes it.
func Decode(data []byte, opts Options) (img *image.NRGBA, err error) {
	if len(data) == 0 {
		return nil, &Error{Kind: KindUnidentified, Err: errors.New("empty image data")}
	}

	// Some third-party decoders panic on hostile input.
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = &Error{Kind: KindCorrupt, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	src, decErr := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if decErr != nil {
		return nil, classify(decErr)
	}
	return Normalize(src, opts), nil
}

// Normalize converts img to the fixed NRGBA color model and applies the
// size limit. Images already in that model and within limits are returned
// without copying.
func Normalize(img image.Image, opts Options) *image.NRGBA {
	b := img.Bounds()
	if opts.MaxDimension > 0 && (b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension) {
		return imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}

func classify(err error) error {
	switch {
	case errors.Is(err, image.ErrFormat):
		return &Error{Kind: KindUnidentified, Err: err}
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return &Error{Kind: KindTruncated, Err: err}
	default:
		return &Error{Kind: KindCorrupt, Err: err}
	}
}

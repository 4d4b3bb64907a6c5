package barcode

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
)

// String returns the symbology label as reported in features.
// FormatUnknown renders as the empty string so it is never emitted.
func (f Format) String() string {
	switch f {
	case FormatQR:
		return "QRCODE"
	default:
		return ""
	}
}

// Options controls backend decoding behavior.
type Options struct {
	// TryHarder enables more exhaustive search (slower but more robust).
	TryHarder bool

	// Multi enables multi-symbol detection in a single image.
	Multi bool

	// ROI optionally restricts decoding to a sub-rectangle of the image.
	// If zero-sized or out of bounds, backends should ignore it.
	ROI image.Rectangle
}

// DefaultOptions returns the options used by the extraction engine.
func DefaultOptions() Options {
	return Options{TryHarder: true, Multi: true}
}

// Point is an integer point in image coordinates.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("Point(x=%d, y=%d)", p.X, p.Y)
}

// Rect is an axis-aligned bounding rectangle.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// IsZero reports whether all bounds are zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(left=%d, top=%d, width=%d, height=%d)", r.Left, r.Top, r.Width, r.Height)
}

// Polygon is an ordered sequence of corner points.
type Polygon []Point

func (p Polygon) String() string {
	parts := make([]string, len(p))
	for i, pt := range p {
		parts[i] = pt.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Orientation is the reading direction of a decoded symbol.
type Orientation int

const (
	OrientationUp Orientation = iota
	OrientationRight
	OrientationDown
	OrientationLeft
)

func (o Orientation) String() string {
	switch o {
	case OrientationUp:
		return "UP"
	case OrientationRight:
		return "RIGHT"
	case OrientationDown:
		return "DOWN"
	case OrientationLeft:
		return "LEFT"
	default:
		return ""
	}
}

// OrientationFromDegrees maps a clockwise rotation to an Orientation.
// Only right angles are representable.
func OrientationFromDegrees(deg int) (Orientation, bool) {
	switch ((deg % 360) + 360) % 360 {
	case 0:
		return OrientationUp, true
	case 90:
		return OrientationRight, true
	case 180:
		return OrientationDown, true
	case 270:
		return OrientationLeft, true
	default:
		return 0, false
	}
}

// Symbol is one decoded barcode.
type Symbol struct {
	// Payload holds the raw bytes encoded in the symbol.
	Payload []byte

	Type        Format
	Rect        *Rect
	Polygon     Polygon
	Quality     *int
	Orientation *Orientation
}

// Backend is a pluggable barcode decoder implementation.
type Backend interface {
	Decode(ctx context.Context, img image.Image, opts Options) ([]Symbol, error)
}

// NewBackend returns the default backend implementation.
func NewBackend() (Backend, error) { return newDefaultBackend() }

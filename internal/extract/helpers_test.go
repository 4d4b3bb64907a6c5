package extract

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/MeKo-Tech/qrscan/internal/imagecodec"
	"github.com/stretchr/testify/require"
)

// fakeBackend returns the same symbols for every image.
type fakeBackend struct {
	calls    int
	symbols  []barcode.Symbol
	err      error
	panicMsg string
}

func (f *fakeBackend) Decode(_ context.Context, _ image.Image, _ barcode.Options) ([]barcode.Symbol, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.symbols, f.err
}

func textSymbol(s string) barcode.Symbol {
	return barcode.Symbol{Payload: []byte(s), Type: barcode.FormatQR}
}

func newTestProcessor(backend barcode.Backend) *ImageProcessor {
	return NewImageProcessor(backend, barcode.DefaultOptions(), imagecodec.Options{}, NewNormalizer(DefaultMaxValueLength))
}

func realBackend(t *testing.T) barcode.Backend {
	t.Helper()

	b, err := barcode.NewBackend()
	require.NoError(t, err)
	return b
}

// fakeArchive is an in-memory ArchiveReader.
type fakeArchive struct {
	names   []string
	data    map[string][]byte
	readErr map[string]error
	closed  bool
}

func (a *fakeArchive) Names() []string { return a.names }

func (a *fakeArchive) Read(name string) ([]byte, error) {
	if err := a.readErr[name]; err != nil {
		return nil, err
	}
	d, ok := a.data[name]
	if !ok {
		return nil, errors.New("missing")
	}
	return d, nil
}

func (a *fakeArchive) Close() error {
	a.closed = true
	return nil
}

// fakePDF is an in-memory PDFDocument. Object numbers index dicts directly.
type fakePDF struct {
	dicts     []string
	images    map[int][]byte
	dictErr   map[int]error
	extracted []int
}

func (p *fakePDF) ObjectCount() int { return len(p.dicts) }

func (p *fakePDF) ObjectDict(nr int) (string, error) {
	if err := p.dictErr[nr]; err != nil {
		return "", err
	}
	return p.dicts[nr], nil
}

func (p *fakePDF) ExtractImage(nr int) ([]byte, error) {
	p.extracted = append(p.extracted, nr)
	d, ok := p.images[nr]
	if !ok {
		return nil, errors.New("unsupported filter")
	}
	return d, nil
}

// imagePDF returns a fake document with n image objects, each followed by a
// page object.
func imagePDF(n int, img []byte) *fakePDF {
	p := &fakePDF{dicts: []string{""}, images: map[int][]byte{}}
	for range n {
		p.images[len(p.dicts)] = img
		p.dicts = append(p.dicts, "<</Type /XObject /Subtype /Image /Width 8 /Height 8>>")
		p.dicts = append(p.dicts, "<</Type /Page>>")
	}
	return p
}

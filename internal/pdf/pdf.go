// Package pdf exposes a PDF file as a table of indirect objects so callers
// can scan for embedded image streams without rendering pages.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// Kind classifies PDF failures.
type Kind int

const (
	// KindBroken means the file is not a readable PDF.
	KindBroken Kind = iota + 1
	// KindNotFound means the file does not exist.
	KindNotFound
	// KindEncrypted means the document is password protected and could not
	// be opened with the supplied credentials.
	KindEncrypted
	// KindObject is a failure confined to a single indirect object.
	KindObject
	// KindOther covers unclassified operating-system failures.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindBroken:
		return "broken"
	case KindNotFound:
		return "not_found"
	case KindEncrypted:
		return "encrypted"
	case KindObject:
		return "object"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Error is returned by Document operations.
type Error struct {
	Kind   Kind
	Object int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindObject {
		return fmt.Sprintf("pdf object %d: %v", e.Object, e.Err)
	}
	return fmt.Sprintf("pdf (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Document is a parsed PDF file.
type Document struct {
	ctx *model.Context
}

// Open reads and parses the PDF at path. creds may be nil.
func Open(path string, creds *PasswordCredentials) (*Document, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided PDF file path is expected
	if err != nil {
		return nil, &Error{Kind: classifyOpen(err), Err: err}
	}
	defer func() { _ = f.Close() }()

	return read(f, creds)
}

// NewReader parses a PDF held in memory. creds may be nil.
func NewReader(data []byte, creds *PasswordCredentials) (*Document, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	return read(bytes.NewReader(data), creds)
}

func read(rs io.ReadSeeker, creds *PasswordCredentials) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &Error{Kind: KindBroken, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	ctx, err := api.ReadContext(rs, newReadConfiguration(creds))
	if err != nil {
		return nil, &Error{Kind: classifyOpen(err), Err: err}
	}
	return &Document{ctx: ctx}, nil
}

// ObjectCount returns the length of the cross-reference table, including the
// free head entry 0. Valid object numbers are 1..ObjectCount()-1.
func (d *Document) ObjectCount() int {
	if d.ctx.Size != nil {
		return *d.ctx.Size
	}
	n := 0
	for nr := range d.ctx.Table {
		if nr+1 > n {
			n = nr + 1
		}
	}
	return n
}

// ObjectDict returns the uncompressed dictionary text of object nr. Free or
// missing objects yield an empty string.
func (d *Document) ObjectDict(nr int) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: KindObject, Object: nr, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	entry, ok := d.ctx.FindTableEntryLight(nr)
	if !ok || entry == nil || entry.Free || entry.Object == nil {
		return "", nil
	}
	return entry.Object.PDFString(), nil
}

// ExtractImage returns the encoded bytes of the image stream in object nr.
func (d *Document) ExtractImage(nr int) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &Error{Kind: KindObject, Object: nr, Err: fmt.Errorf("extract panic: %v", r)}
		}
	}()

	entry, ok := d.ctx.FindTableEntryLight(nr)
	if !ok || entry == nil || entry.Free {
		return nil, &Error{Kind: KindObject, Object: nr, Err: errors.New("no such object")}
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return nil, &Error{Kind: KindObject, Object: nr, Err: errors.New("not a stream object")}
	}

	img, err := pdfcpu.ExtractImage(d.ctx, &sd, false, fmt.Sprintf("Im%d", nr), nr, false)
	if err != nil {
		return nil, &Error{Kind: KindObject, Object: nr, Err: err}
	}
	if img == nil {
		return nil, &Error{Kind: KindObject, Object: nr, Err: errors.New("unsupported image stream")}
	}

	data, err = io.ReadAll(img)
	if err != nil {
		return nil, &Error{Kind: KindObject, Object: nr, Err: err}
	}
	return data, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

func classifyOpen(err error) Kind {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.As(err, &pathErr):
		return KindOther
	case looksEncrypted(err):
		return KindEncrypted
	default:
		return KindBroken
	}
}

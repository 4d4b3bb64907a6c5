// Package office reads zip-based office containers (docx, xlsx, pptx and
// friends) entry by entry.
package office

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
)

// Kind classifies archive failures.
type Kind int

const (
	// KindCorrupt means the bytes are not a readable zip archive or an entry
	// stream is damaged.
	KindCorrupt Kind = iota + 1
	// KindIO covers operating-system level failures such as a missing file.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindCorrupt:
		return "corrupt"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is returned by every Archive operation.
type Error struct {
	Kind  Kind
	Op    string
	Entry string
	Err   error
}

func (e *Error) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("office %s %q (%s): %v", e.Op, e.Entry, e.Kind, e.Err)
	}
	return fmt.Sprintf("office %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Archive is an open zip container.
type Archive struct {
	rc    *zip.ReadCloser
	files map[string]*zip.File
	names []string
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, &Error{Kind: classify(err), Op: "open", Err: err}
	}
	return newArchive(rc, rc.File), nil
}

// NewReader opens an archive held in memory.
func NewReader(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Kind: classify(err), Op: "open", Err: err}
	}
	return newArchive(nil, zr.File), nil
}

func newArchive(rc *zip.ReadCloser, entries []*zip.File) *Archive {
	a := &Archive{
		rc:    rc,
		files: make(map[string]*zip.File, len(entries)),
		names: make([]string, 0, len(entries)),
	}
	for _, f := range entries {
		a.names = append(a.names, f.Name)
		// First entry wins for duplicated names.
		if _, dup := a.files[f.Name]; !dup {
			a.files[f.Name] = f
		}
	}
	return a
}

// Names lists entry names in central directory order.
func (a *Archive) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Read returns the uncompressed bytes of the named entry.
func (a *Archive) Read(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, &Error{Kind: KindCorrupt, Op: "read", Entry: name, Err: errors.New("no such entry")}
	}

	r, err := f.Open()
	if err != nil {
		return nil, &Error{Kind: classify(err), Op: "read", Entry: name, Err: err}
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Kind: classify(err), Op: "read", Entry: name, Err: err}
	}
	return data, nil
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	if a.rc == nil {
		return nil
	}
	return a.rc.Close()
}

func classify(err error) Kind {
	var corrupt flate.CorruptInputError
	switch {
	case errors.Is(err, zip.ErrFormat),
		errors.Is(err, zip.ErrAlgorithm),
		errors.Is(err, zip.ErrChecksum),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &corrupt):
		return KindCorrupt
	default:
		return KindIO
	}
}

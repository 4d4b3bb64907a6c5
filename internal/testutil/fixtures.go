package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

// ZipEntry is one member of a generated archive. A nil Data with a name
// ending in "/" produces a directory marker.
type ZipEntry struct {
	Name string
	Data []byte
}

// MakeZip returns an archive holding entries in the given order.
func MakeZip(entries []ZipEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", e.Name, err)
		}
		if len(e.Data) > 0 {
			if _, err := w.Write(e.Data); err != nil {
				return nil, fmt.Errorf("write zip entry %s: %w", e.Name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildZip is MakeZip for tests.
func BuildZip(t *testing.T, entries []ZipEntry) []byte {
	t.Helper()

	data, err := MakeZip(entries)
	require.NoError(t, err, "Failed to build zip")
	return data
}

// MakeOfficeDoc returns a minimal office-style archive. media maps entry
// names (e.g. "word/media/image1.png") to their bytes and is written after a
// content-types part, preserving the order of names.
func MakeOfficeDoc(names []string, media map[string][]byte) ([]byte, error) {
	entries := []ZipEntry{{Name: "[Content_Types].xml", Data: []byte(`<?xml version="1.0"?><Types/>`)}}
	for _, n := range names {
		entries = append(entries, ZipEntry{Name: n, Data: media[n]})
	}
	return MakeZip(entries)
}

// WriteOfficeDoc writes the archive built by MakeOfficeDoc to dir/name.
func WriteOfficeDoc(t *testing.T, dir, name string, names []string, media map[string][]byte) string {
	t.Helper()

	data, err := MakeOfficeDoc(names, media)
	require.NoError(t, err, "Failed to build office document")
	return WriteFile(t, dir, name, data)
}

// CorruptZip returns bytes that start like a zip archive but cannot be read.
func CorruptZip() []byte {
	return append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 64)...)
}

// MakeImagePDF writes a PDF with one page per image to dir/name using
// pdfcpu's image import and returns its path.
func MakeImagePDF(dir, name string, images [][]byte) (string, error) {
	imgDir := filepath.Join(dir, name+"-images")
	if err := EnsureDir(imgDir); err != nil {
		return "", err
	}

	files := make([]string, 0, len(images))
	for i, data := range images {
		p := filepath.Join(imgDir, fmt.Sprintf("img%03d.png", i))
		if err := os.WriteFile(p, data, 0o600); err != nil {
			return "", err
		}
		files = append(files, p)
	}

	out := filepath.Join(dir, name)
	if err := api.ImportImagesFile(files, out, nil, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("build PDF from images: %w", err)
	}
	return out, nil
}

// WriteImagePDF is MakeImagePDF for tests.
func WriteImagePDF(t *testing.T, dir, name string, images [][]byte) string {
	t.Helper()

	out, err := MakeImagePDF(dir, name, images)
	require.NoError(t, err, "Failed to build PDF from images")
	return out
}

// MakeEncryptedPDF writes an AES encrypted copy of in to out. The owner
// password is the user password with "-owner" appended.
func MakeEncryptedPDF(in, out, userPW string) error {
	conf := model.NewAESConfiguration(userPW, userPW+"-owner", 256)
	if err := api.EncryptFile(in, out, conf); err != nil {
		return fmt.Errorf("encrypt PDF: %w", err)
	}
	return nil
}

// EncryptPDF is MakeEncryptedPDF for tests.
func EncryptPDF(t *testing.T, in, out, userPW string) string {
	t.Helper()

	require.NoError(t, MakeEncryptedPDF(in, out, userPW), "Failed to encrypt PDF")
	return out
}

// ReadFile is a test helper around os.ReadFile.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to read %s", path)
	return data
}

package office

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/qrscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_NamesAndRead(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "doc.docx", testutil.BuildZip(t, []testutil.ZipEntry{
		{Name: "word/document.xml", Data: []byte("<doc/>")},
		{Name: "word/media/"},
		{Name: "word/media/image1.png", Data: []byte("png-bytes")},
	}))

	a, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, []string{"word/document.xml", "word/media/", "word/media/image1.png"}, a.Names())

	data, err := a.Read("word/media/image1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	_, err = a.Read("missing.png")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCorrupt))
}

func TestArchive_NamesIsACopy(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "a.zip", testutil.BuildZip(t, []testutil.ZipEntry{
		{Name: "media/a.png", Data: []byte("a")},
	}))

	a, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	names := a.Names()
	names[0] = "changed"
	assert.Equal(t, "media/a.png", a.Names()[0])
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		kind Kind
	}{
		{
			name: "corrupt archive",
			path: testutil.WriteFile(t, dir, "bad.docx", testutil.CorruptZip()),
			kind: KindCorrupt,
		},
		{
			name: "plain text",
			path: testutil.WriteFile(t, dir, "notes.txt", []byte("hello world, not a zip")),
			kind: KindCorrupt,
		},
		{
			name: "missing file",
			path: filepath.Join(dir, "missing.docx"),
			kind: KindIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Open(tt.path)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}

	_, err := Open(filepath.Join(dir, "missing.docx"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindCorrupt, Op: "read", Entry: "xl/media/a.png", Err: errors.New("boom")}
	assert.Equal(t, `office read "xl/media/a.png" (corrupt): boom`, err.Error())

	err = &Error{Kind: KindIO, Op: "open", Err: errors.New("denied")}
	assert.Equal(t, "office open (io): denied", err.Error())
}

func TestNewReader(t *testing.T) {
	data := testutil.BuildZip(t, []testutil.ZipEntry{
		{Name: "ppt/media/image1.png", Data: []byte("one")},
		{Name: "ppt/slides/slide1.xml", Data: []byte("<slide/>")},
	})

	a, err := NewReader(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"ppt/media/image1.png", "ppt/slides/slide1.xml"}, a.Names())

	got, err := a.Read("ppt/media/image1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
	assert.NoError(t, a.Close())

	_, err = NewReader(testutil.CorruptZip())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCorrupt))
}

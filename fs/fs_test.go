package fs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryFileSystem(t *testing.T) {
	fs := NewMemoryFileSystem()
	assert.NotNil(t, fs)
	assert.IsType(t, &afero.MemMapFs{}, fs.Fs)
}

func TestNewOsFileSystem(t *testing.T) {
	fs := NewOsFileSystem()
	assert.NotNil(t, fs)
	assert.IsType(t, &afero.OsFs{}, fs.Fs)
}

func TestWriteFile(t *testing.T) {
	fs := NewMemoryFileSystem()
	err := fs.WriteFile("test/file.txt", []byte("Hello, World!"))
	assert.NoError(t, err)

	content, err := fs.ReadFile("test/file.txt")
	assert.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(content))
	assert.True(t, fs.IsDir("test"))
	assert.True(t, fs.FileExists("test/file.txt"))
}

func TestReadFileMissing(t *testing.T) {
	fs := NewMemoryFileSystem()
	_, err := fs.ReadFile("missing.txt")
	assert.ErrorContains(t, err, "error reading file missing.txt")
}

func TestIsDir(t *testing.T) {
	fs := NewMemoryFileSystem()
	err := fs.Fs.MkdirAll("test/dir", 0755)
	assert.NoError(t, err)

	assert.True(t, fs.IsDir("test/dir"))
	assert.False(t, fs.IsDir("test/nonexistent"))
}

func TestZipRoundTrip(t *testing.T) {
	fs := NewMemoryFileSystem()
	entries := []ZipEntry{
		{Name: "entity_file.java", Content: []byte("class Foo{}")},
		{Name: "form_file.ts", Content: []byte("export class Form {}")},
	}
	require.NoError(t, fs.WriteZip("out/files.zip", entries))

	got, err := fs.ReadZip("out/files.zip")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"entity_file.java": []byte("class Foo{}"),
		"form_file.ts":     []byte("export class Form {}"),
	}, got)
}

func TestZipBytesEmpty(t *testing.T) {
	_, err := ZipBytes(nil)
	assert.ErrorContains(t, err, "no files to zip")
}

func TestListFiles(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("b/two.txt", []byte("2")))
	require.NoError(t, fs.WriteFile("a/one.txt", []byte("1")))

	files, err := fs.ListFiles(".")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one.txt", "b/two.txt"}, files)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "entity_file.java", SanitizeFileName("entity_file.java"))
	assert.Equal(t, "file", SanitizeFileName(".."))
}

package fs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// ReadFile returns the content of path.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return data, nil
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content.
// Parent directories are created as needed.
func (fs *FileSystem) WriteFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	err := afero.WriteFile(fs.Fs, path, content, 0644)
	if err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// FileExists checks if a file exists
func (fs *FileSystem) FileExists(path string) bool {
	_, err := fs.Fs.Stat(path)
	return err == nil
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ZipEntry is one file written into an archive.
type ZipEntry struct {
	Name    string
	Content []byte
}

// ZipBytes builds a zip archive of entries in memory.
func ZipBytes(entries []ZipEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no files to zip")
	}

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, e := range entries {
		writer, err := zipWriter.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("error creating zip entry for file %s: %w", e.Name, err)
		}
		if _, err := writer.Write(e.Content); err != nil {
			return nil, fmt.Errorf("error writing file %s to zip: %w", e.Name, err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("error closing zip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteZip writes a zip archive of entries to path.
func (fs *FileSystem) WriteZip(path string, entries []ZipEntry) error {
	data, err := ZipBytes(entries)
	if err != nil {
		return err
	}
	return fs.WriteFile(path, data)
}

// ReadZip returns the entries of the archive at path, keyed by name.
func (fs *FileSystem) ReadZip(path string) (map[string][]byte, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadZipBytes(data)
}

// ReadZipBytes returns the file entries of an in-memory archive, keyed by name.
func ReadZipBytes(data []byte) (map[string][]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error opening zip archive: %w", err)
	}

	out := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening zip entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading zip entry %s: %w", f.Name, err)
		}
		out[f.Name] = content
	}
	return out, nil
}

// ListFiles returns every regular file under root, sorted.
func (fs *FileSystem) ListFiles(root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking file system: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// SanitizeFileName strips path components so a generated name cannot escape
// the output directory.
func SanitizeFileName(name string) string {
	name = filepath.ToSlash(name)
	parts := strings.Split(name, "/")
	var kept []string
	for _, part := range parts {
		if part != "" && part != "." && part != ".." {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "file"
	}
	return kept[len(kept)-1]
}

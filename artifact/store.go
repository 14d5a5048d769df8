// Package artifact keeps the ordered collection of generated files for one
// wizard run.
package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/fs"
)

// ArchiveName is the file name used by DownloadAll.
const ArchiveName = "generated_files.zip"

// GeneratedFile is one source file produced by a generation request.
type GeneratedFile struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Language catalog.Language `json:"language"`
	Content  string           `json:"content"`
}

// DownloadName is the file name used when the file is saved.
func (f GeneratedFile) DownloadName() string {
	name := fs.SanitizeFileName(f.Name)
	ext := catalog.Extension(f.Language)
	if filepath.Ext(name) == ext {
		return name
	}
	return name + ext
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// Store is an ordered collection of generated files with one active file.
// It is not safe for concurrent use.
type Store struct {
	files    []GeneratedFile
	activeID string
}

func NewStore() *Store {
	return &Store{}
}

// ReplaceAll discards the collection and installs files. The first file
// becomes active.
func (s *Store) ReplaceAll(files []GeneratedFile) {
	s.files = make([]GeneratedFile, len(files))
	copy(s.files, files)
	s.activeID = ""
	if len(s.files) > 0 {
		s.activeID = s.files[0].ID
	}
}

// Clear empties the collection.
func (s *Store) Clear() {
	s.ReplaceAll(nil)
}

// Files returns a copy of the collection in order.
func (s *Store) Files() []GeneratedFile {
	out := make([]GeneratedFile, len(s.files))
	copy(out, s.files)
	return out
}

func (s *Store) Len() int {
	return len(s.files)
}

// ActiveID returns the id of the active file, empty when the store is empty.
func (s *Store) ActiveID() string {
	return s.activeID
}

// Active returns the active file.
func (s *Store) Active() (GeneratedFile, bool) {
	for _, f := range s.files {
		if f.ID == s.activeID {
			return f, true
		}
	}
	return GeneratedFile{}, false
}

// SelectActive makes id the active file. Unknown ids are ignored.
func (s *Store) SelectActive(id string) bool {
	for _, f := range s.files {
		if f.ID == id {
			s.activeID = id
			return true
		}
	}
	return false
}

// HasName reports whether a file called name exists.
func (s *Store) HasName(name string) bool {
	for _, f := range s.files {
		if f.Name == name {
			return true
		}
	}
	return false
}

// PatchByName replaces the content of every file called name with
// transform(file). Unknown names leave the collection untouched.
func (s *Store) PatchByName(name string, transform func(GeneratedFile) string) bool {
	patched := false
	for i := range s.files {
		if s.files[i].Name == name {
			s.files[i].Content = transform(s.files[i])
			patched = true
		}
	}
	return patched
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	return &Store{files: s.Files(), activeID: s.activeID}
}

// CopyActive writes the active file's content to the clipboard.
func (s *Store) CopyActive(cb Clipboard) error {
	f, ok := s.Active()
	if !ok {
		return fmt.Errorf("no active file to copy")
	}
	if err := cb.WriteAll(f.Content); err != nil {
		return fmt.Errorf("error copying %s to clipboard: %w", f.Name, err)
	}
	return nil
}

// DownloadActive saves the active file under dir and returns its path.
func (s *Store) DownloadActive(fsys *fs.FileSystem, dir string) (string, error) {
	f, ok := s.Active()
	if !ok {
		return "", fmt.Errorf("no active file to download")
	}
	path := filepath.Join(dir, f.DownloadName())
	if err := fsys.WriteFile(path, []byte(f.Content)); err != nil {
		return "", err
	}
	return path, nil
}

// DownloadAll saves every file into a zip archive under dir and returns its path.
func (s *Store) DownloadAll(fsys *fs.FileSystem, dir string) (string, error) {
	entries := make([]fs.ZipEntry, 0, len(s.files))
	for _, f := range s.files {
		entries = append(entries, fs.ZipEntry{Name: f.DownloadName(), Content: []byte(f.Content)})
	}
	path := filepath.Join(dir, ArchiveName)
	if err := fsys.WriteZip(path, entries); err != nil {
		return "", err
	}
	return path, nil
}

// Package extract turns uploaded specification documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/santiagomed/edpgen/fs"
)

var (
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrEmptyDocument       = errors.New("document contains no text")
)

// SpecificationExtensions are the upload extensions accepted for specification documents.
var SpecificationExtensions = []string{".txt", ".md", ".doc", ".docx", ".odt"}

// Extractor returns the raw text of a named document.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

// DocumentExtractor reads text, markdown, OOXML (.docx), OpenDocument (.odt)
// and Word 97-2003 (.doc) files.
type DocumentExtractor struct {
	allowed map[string]bool
}

func NewDocumentExtractor(extensions ...string) *DocumentExtractor {
	if len(extensions) == 0 {
		extensions = SpecificationExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &DocumentExtractor{allowed: allowed}
}

// Accepts reports whether name has an accepted extension.
func (e *DocumentExtractor) Accepts(name string) bool {
	return e.allowed[strings.ToLower(filepath.Ext(name))]
}

func (e *DocumentExtractor) Extract(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !e.allowed[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, name)
	}

	var (
		text string
		err  error
	)
	switch ext {
	case ".docx":
		text, err = convert(docconv.ConvertDocx, data)
		text = tidy(text)
	case ".odt":
		text, err = convert(docconv.ConvertODT, data)
		text = tidy(text)
	case ".doc":
		text, err = wordText(data)
		text = tidy(text)
	default:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrUnsupportedDocument, name)
		}
		text = string(data)
	}
	if err != nil {
		return "", fmt.Errorf("error extracting %s: %w", name, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	return text, nil
}

// ExtractFile reads path from fsys and extracts its text.
func ExtractFile(fsys *fs.FileSystem, e Extractor, path string) (string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", err
	}
	return e.Extract(filepath.Base(path), data)
}

// convert runs a docconv converter. docconv dereferences archive parts it
// expects to exist, so a malformed archive panics instead of erroring.
func convert(fn func(io.Reader) (string, map[string]string, error), data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()
	text, _, err = fn(bytes.NewReader(data))
	return text, err
}

// tidy trims trailing spaces and collapses runs of blank lines left by the
// paragraph breaks of office formats.
func tidy(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

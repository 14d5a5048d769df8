// Package usecase produces use-case documentation from legacy source files.
package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/santiagomed/edpgen/artifact"
	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/extract"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
)

// DownloadName is the file name the document is saved under.
const DownloadName = "usecase-documentation.md"

// Extensions are the legacy source extensions accepted for upload.
var Extensions = []string{".cs", ".vb", ".xml", ".config"}

// Generator collects source files and asks the agent for a use-case
// document. It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	files      []llm.SourceFile
	document   string
	generation uint64
	busy       bool
	extractor  *extract.DocumentExtractor
	client     llm.Client
	logger     logger.Logger
}

func NewGenerator(client llm.Client, l logger.Logger) *Generator {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Generator{
		extractor: extract.NewDocumentExtractor(Extensions...),
		client:    client,
		logger:    l,
	}
}

// Add stores an uploaded file. A file with the same name is replaced.
func (g *Generator) Add(name string, data []byte) error {
	text, err := g.extractor.Extract(name, data)
	if err != nil {
		g.logger.Error(fmt.Sprintf("Error adding %s: %v", name, err))
		return err
	}
	file := llm.SourceFile{Name: filepath.Base(name), Content: text}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidate()
	for i := range g.files {
		if g.files[i].Name == file.Name {
			g.files[i] = file
			return nil
		}
	}
	g.files = append(g.files, file)
	return nil
}

// AddFile reads path from fsys and adds it.
func (g *Generator) AddFile(fsys *fs.FileSystem, path string) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return err
	}
	return g.Add(path, data)
}

// Remove drops the named file.
func (g *Generator) Remove(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.files {
		if g.files[i].Name == name {
			g.files = append(g.files[:i], g.files[i+1:]...)
			g.invalidate()
			return
		}
	}
}

// Files returns the uploaded files in upload order.
func (g *Generator) Files() []llm.SourceFile {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]llm.SourceFile, len(g.files))
	copy(out, g.files)
	return out
}

func (g *Generator) invalidate() {
	g.generation++
	g.document = ""
}

// Busy reports whether a generation call is outstanding.
func (g *Generator) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Generate sends every uploaded file to the agent and stores the document.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: use case generation is still running", core.ErrBusy)
	}
	if len(g.files) == 0 {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: upload at least one source file", core.ErrValidation)
	}
	files := make([]llm.SourceFile, len(g.files))
	copy(files, g.files)
	generation := g.generation
	g.busy = true
	g.mu.Unlock()

	g.logger.Info(fmt.Sprintf("Generating use case documentation from %d file(s)...", len(files)))
	doc, err := llm.GenerateUseCase(ctx, g.client, files)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
	if err != nil {
		g.logger.Error(fmt.Sprintf("Error generating use case documentation: %v", err))
		return "", err
	}
	if generation != g.generation {
		return "", fmt.Errorf("%w: uploads changed during generation", core.ErrStaleResult)
	}
	g.document = doc
	return doc, nil
}

// Document returns the last generated document, empty if none.
func (g *Generator) Document() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.document
}

// Copy writes the document to the clipboard.
func (g *Generator) Copy(cb artifact.Clipboard) error {
	doc := g.Document()
	if doc == "" {
		return fmt.Errorf("no use case documentation to copy")
	}
	if err := cb.WriteAll(doc); err != nil {
		return fmt.Errorf("error copying use case documentation: %w", err)
	}
	return nil
}

// Download saves the document under dir and returns its path.
func (g *Generator) Download(fsys *fs.FileSystem, dir string) (string, error) {
	doc := g.Document()
	if doc == "" {
		return "", fmt.Errorf("no use case documentation to download")
	}
	path := filepath.Join(dir, DownloadName)
	if err := fsys.WriteFile(path, []byte(doc)); err != nil {
		return "", err
	}
	return path, nil
}

package core

import (
	"fmt"
	"strings"

	"github.com/santiagomed/edpgen/catalog"
)

// Request is a non-interactive generation run.
type Request struct {
	InputSource   InputSource           `mapstructure:"input_source"`
	DocumentPath  string                `mapstructure:"document"`
	Text          string                `mapstructure:"text"`
	CodeTarget    catalog.CodeTarget    `mapstructure:"code_target"`
	ComponentType catalog.ComponentType `mapstructure:"component_type"`
	// Prompt overrides the template prompt when set.
	Prompt    string `mapstructure:"prompt"`
	OutputDir string `mapstructure:"output_dir"`
	Zip       bool   `mapstructure:"zip"`
}

// DefaultRequest returns a Request with default values.
func DefaultRequest() *Request {
	return &Request{
		InputSource:   ReferenceIndex,
		CodeTarget:    catalog.Backend,
		ComponentType: catalog.Entity,
		OutputDir:     ".",
	}
}

// NewRequest builds a request from a document path or inline text. A
// document takes precedence over text.
func NewRequest(documentPath, text string, target catalog.CodeTarget, component catalog.ComponentType, outputDir string) *Request {
	r := &Request{
		InputSource:   ReferenceIndex,
		DocumentPath:  documentPath,
		Text:          text,
		CodeTarget:    target,
		ComponentType: component,
		OutputDir:     outputDir,
	}
	if documentPath != "" {
		r.InputSource = UploadDocument
	}
	if r.OutputDir == "" {
		r.OutputDir = "."
	}
	return r
}

// Validate checks the request before any file or network access.
func (r *Request) Validate() error {
	switch r.InputSource {
	case UploadDocument:
		if r.DocumentPath == "" {
			return fmt.Errorf("%w: a document path is required", ErrValidation)
		}
	case ReferenceIndex:
		if strings.TrimSpace(r.Text) == "" {
			return fmt.Errorf("%w: specification text is required", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown input source %q", ErrValidation, r.InputSource)
	}
	if !catalog.IsValidTarget(r.CodeTarget) {
		return fmt.Errorf("%w: unknown code target %q", ErrValidation, r.CodeTarget)
	}
	if !catalog.Belongs(r.CodeTarget, r.ComponentType) {
		return fmt.Errorf("%w: component type %q is not available for %s", ErrValidation, r.ComponentType, r.CodeTarget)
	}
	return nil
}

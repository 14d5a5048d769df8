package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/santiagomed/edpgen/extract"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
)

// Options tune a Wizard.
type Options struct {
	// RemoteRegenerate routes regeneration through the generation client
	// instead of prepending the instruction locally.
	RemoteRegenerate bool
}

// Wizard owns one State and runs the remote calls its events request.
// It is safe for concurrent use; remote calls run without holding the lock.
type Wizard struct {
	mu         sync.Mutex
	state      State
	summarizer llm.Client
	generator  llm.Client
	extractor  extract.Extractor
	opts       Options
	logger     logger.Logger
}

func NewWizard(summarizer, generator llm.Client, extractor extract.Extractor, opts Options, l logger.Logger) *Wizard {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if extractor == nil {
		extractor = extract.NewDocumentExtractor()
	}
	return &Wizard{
		state:      NewState(),
		summarizer: summarizer,
		generator:  generator,
		extractor:  extractor,
		opts:       opts,
		logger:     l,
	}
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

// Dispatch applies ev and returns the resulting state.
func (w *Wizard) Dispatch(ev Event) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.apply(ev)
}

func (w *Wizard) apply(ev Event) (State, error) {
	next, err := Reduce(w.state, ev)
	if err != nil {
		if errors.Is(err, ErrStaleResult) {
			w.logger.Warn(err.Error())
		} else {
			w.logger.WithField("event", EventName(ev)).Debug(err.Error())
		}
		return w.state.Clone(), err
	}
	w.state = next
	return next.Clone(), nil
}

// Upload extracts the document text and summarizes it, unless the state marks
// uploads as already summarized. Extraction failures leave the state untouched.
func (w *Wizard) Upload(ctx context.Context, name string, data []byte) error {
	text, err := w.extractor.Extract(name, data)
	if err != nil {
		w.logger.Error(fmt.Sprintf("Error extracting %s: %v", name, err))
		return err
	}
	s, err := w.Dispatch(DocumentExtracted{Name: name, Text: text})
	if err != nil {
		return err
	}
	if s.IsSummarized {
		w.logger.WithField("document", name).Info("Using document text as the summarized specification")
		return nil
	}
	return w.Summarize(ctx)
}

// Summarize sends the raw document text to the summarization client.
func (w *Wizard) Summarize(ctx context.Context) error {
	w.mu.Lock()
	s, err := w.apply(SummarizeRequested{})
	w.mu.Unlock()
	if err != nil {
		return err
	}

	w.logger.Info("Summarizing specification...")
	summary, err := llm.Summarize(ctx, w.summarizer, s.RawSpecificationText)
	if err != nil {
		w.logger.Error(fmt.Sprintf("Error summarizing specification: %v", err))
		_, stale := w.Dispatch(SummarizeFailed{Token: s.Token, Err: err})
		return errors.Join(err, stale)
	}
	_, err = w.Dispatch(SummarizeSucceeded{Token: s.Token, Summary: summary})
	return err
}

// Generate sends the prompt to the generation client and installs the file.
func (w *Wizard) Generate(ctx context.Context) error {
	w.mu.Lock()
	s, err := w.apply(GenerateRequested{})
	w.mu.Unlock()
	if err != nil {
		return err
	}

	w.logger.WithField("component", string(s.ComponentType)).Info("Generating code...")
	code, err := llm.Generate(ctx, w.generator, s.PromptText)
	if err != nil {
		w.logger.Error(fmt.Sprintf("Error generating code: %v", err))
		_, stale := w.Dispatch(GenerateFailed{Token: s.Token, Err: err})
		return errors.Join(err, stale)
	}
	_, err = w.Dispatch(GenerateSucceeded{Token: s.Token, Content: code})
	return err
}

// Regenerate revises the named file, locally or through the generation
// client depending on Options.RemoteRegenerate.
func (w *Wizard) Regenerate(ctx context.Context, name, instruction string) error {
	if !w.opts.RemoteRegenerate {
		_, err := w.Dispatch(RegenerateLocal{Name: name, Instruction: instruction})
		return err
	}

	w.mu.Lock()
	s, err := w.apply(RegenerateRequested{Name: name, Instruction: instruction})
	w.mu.Unlock()
	if err != nil {
		return err
	}

	var content string
	for _, f := range s.Files.Files() {
		if f.Name == name {
			content = f.Content
			break
		}
	}
	w.logger.WithField("file", name).Info("Regenerating file...")
	code, err := llm.Regenerate(ctx, w.generator, name, content, instruction)
	if err != nil {
		w.logger.Error(fmt.Sprintf("Error regenerating %s: %v", name, err))
		_, stale := w.Dispatch(RegenerateFailed{Token: s.Token, Err: err})
		return errors.Join(err, stale)
	}
	_, err = w.Dispatch(RegenerateSucceeded{Token: s.Token, Name: name, Content: code})
	return err
}

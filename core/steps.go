package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/santiagomed/edpgen/extract"
)

// DefaultStepManager maps the pipeline steps of a request to their
// implementations. Typed text skips summarization.
type DefaultStepManager struct {
	steps map[StepType]Step
	order []StepType
}

func NewDefaultStepManager(r *Request) *DefaultStepManager {
	order := []StepType{LoadSpecification}
	if r.InputSource == UploadDocument {
		order = append(order, SummarizeSpecification)
	}
	order = append(order, BuildPrompt, GenerateCode, SaveFiles, Done)

	return &DefaultStepManager{
		order: order,
		steps: map[StepType]Step{
			LoadSpecification:      &LoadSpecificationStep{},
			SummarizeSpecification: &SummarizeSpecificationStep{},
			BuildPrompt:            &BuildPromptStep{},
			GenerateCode:           &GenerateCodeStep{},
			SaveFiles:              &SaveFilesStep{},
			Done:                   &DoneStep{},
		},
	}
}

func (m *DefaultStepManager) GetSteps() []StepType {
	return m.order
}

func (m *DefaultStepManager) GetStep(stepType StepType) Step {
	return m.steps[stepType]
}

type LoadSpecificationStep struct{}

func (s *LoadSpecificationStep) Execute(ctx context.Context, state *PipelineState) error {
	r := state.Request
	w := state.Wizard
	if _, err := w.Dispatch(SelectInputSource{Source: r.InputSource}); err != nil {
		return err
	}
	if r.InputSource == ReferenceIndex {
		_, err := w.Dispatch(SetSpecificationText{Text: r.Text})
		return err
	}

	state.Logger.Info(fmt.Sprintf("Extracting text from %s...", r.DocumentPath))
	text, err := extract.ExtractFile(state.FS, w.extractor, r.DocumentPath)
	if err != nil {
		return fmt.Errorf("failed to load specification: %w", err)
	}
	_, err = w.Dispatch(DocumentExtracted{Name: filepath.Base(r.DocumentPath), Text: text})
	return err
}

type SummarizeSpecificationStep struct{}

func (s *SummarizeSpecificationStep) Execute(ctx context.Context, state *PipelineState) error {
	return state.Wizard.Summarize(ctx)
}

type BuildPromptStep struct{}

func (s *BuildPromptStep) Execute(ctx context.Context, state *PipelineState) error {
	r := state.Request
	w := state.Wizard
	if _, err := w.Dispatch(SelectCodeTarget{Target: r.CodeTarget}); err != nil {
		return err
	}
	if _, err := w.Dispatch(SelectComponentType{Component: r.ComponentType}); err != nil {
		return err
	}
	if r.Prompt == "" {
		return nil
	}
	if _, err := w.Dispatch(SetEditingPrompt{Editing: true}); err != nil {
		return err
	}
	_, err := w.Dispatch(EditPrompt{Text: r.Prompt})
	return err
}

type GenerateCodeStep struct{}

func (s *GenerateCodeStep) Execute(ctx context.Context, state *PipelineState) error {
	return state.Wizard.Generate(ctx)
}

type SaveFilesStep struct{}

func (s *SaveFilesStep) Execute(ctx context.Context, state *PipelineState) error {
	files := state.Wizard.State().Files
	dir := state.Request.OutputDir
	if state.Request.Zip {
		path, err := files.DownloadAll(state.FS, dir)
		if err != nil {
			return fmt.Errorf("failed to save files: %w", err)
		}
		state.SavedPaths = append(state.SavedPaths, path)
		return nil
	}
	for _, f := range files.Files() {
		files.SelectActive(f.ID)
		path, err := files.DownloadActive(state.FS, dir)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", f.Name, err)
		}
		state.SavedPaths = append(state.SavedPaths, path)
	}
	return nil
}

type DoneStep struct{}

func (s *DoneStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Logger.Info(fmt.Sprintf("Saved %d file(s)", len(state.SavedPaths)))
	return nil
}

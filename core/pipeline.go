package core

import (
	"context"
	"fmt"
	"time"

	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/logger"
)

type Step interface {
	Execute(ctx context.Context, state *PipelineState) error
}

type StepType int

const (
	LoadSpecification StepType = iota
	SummarizeSpecification
	BuildPrompt
	GenerateCode
	SaveFiles
	Done
)

func (s StepType) String() string {
	switch s {
	case LoadSpecification:
		return "load specification"
	case SummarizeSpecification:
		return "summarize specification"
	case BuildPrompt:
		return "build prompt"
	case GenerateCode:
		return "generate code"
	case SaveFiles:
		return "save files"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("step %d", int(s))
	}
}

// PipelineState is shared by the steps of one run.
type PipelineState struct {
	Request    *Request
	Wizard     *Wizard
	FS         *fs.FileSystem
	SavedPaths []string
	Logger     logger.Logger
}

type StepManager interface {
	GetSteps() []StepType
	GetStep(stepType StepType) Step
}

// Pipeline drives a Wizard through load, summarize, prompt and generate in
// strict order, then saves the result.
type Pipeline struct {
	stepManager StepManager
	state       *PipelineState
	publisher   StepPublisher
}

func NewPipeline(r *Request, w *Wizard, fsys *fs.FileSystem, sm StepManager, pub StepPublisher, l logger.Logger) (*Pipeline, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if sm == nil {
		sm = NewDefaultStepManager(r)
	}
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Pipeline{
		state: &PipelineState{
			Request: r,
			Wizard:  w,
			FS:      fsys,
			Logger:  l,
		},
		publisher:   pub,
		stepManager: sm,
	}, nil
}

// SavedPaths returns the files written by the last run.
func (p *Pipeline) SavedPaths() []string {
	return p.state.SavedPaths
}

func (p *Pipeline) Execute(ctx context.Context) error {
	steps := p.stepManager.GetSteps()
	p.state.Logger.Info("Starting pipeline execution")
	for i, stepType := range steps {
		select {
		case <-ctx.Done():
			p.state.Logger.Info("Pipeline execution cancelled")
			return ctx.Err()
		default:
			p.state.Logger.Info(fmt.Sprintf("Attempting to execute step %d: %v", i, stepType))
			step := p.stepManager.GetStep(stepType)
			if step == nil {
				p.state.Logger.Error(fmt.Sprintf("Step %v not found", stepType))
				p.publisher.Error(stepType, fmt.Errorf("step %v not found", stepType))
				return fmt.Errorf("step %v not found", stepType)
			}

			startTime := time.Now()
			if err := step.Execute(ctx, p.state); err != nil {
				p.state.Logger.Error(fmt.Sprintf("Error executing step %v: %v", stepType, err))
				p.publisher.Error(stepType, err)
				return err
			}
			p.state.Logger.Info(fmt.Sprintf("Step %v completed in %v", stepType, time.Since(startTime)))
			p.publisher.PublishStep(stepType)
		}
	}

	p.state.Logger.Info("Pipeline execution completed")
	return nil
}

type StepPublisher interface {
	PublishStep(step StepType)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(step StepType) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}

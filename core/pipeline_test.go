package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type Publisher struct {
	stepChan chan StepType
	errChan  chan error
}

func NewPublisher() *Publisher {
	return &Publisher{
		stepChan: make(chan StepType, 16),
		errChan:  make(chan error, 16),
	}
}

func (p *Publisher) PublishStep(step StepType) {
	p.stepChan <- step
}

func (p *Publisher) Error(step StepType, err error) {
	p.errChan <- err
}

func (p *Publisher) steps() []StepType {
	var out []StepType
	for {
		select {
		case s := <-p.stepChan:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestPipeline_ExecuteDocument(t *testing.T) {
	summarizer := new(MockClient)
	summarizer.On("Complete", mock.Anything, llm.SummarizeQuery("Users can log in")).Return("Login spec", nil).Once()
	generator := new(MockClient)
	generator.On("Complete", mock.Anything, llm.BuildPrompt(catalog.Backend, catalog.Entity, "Login spec")).
		Return("class User{}", nil).Once()

	memFS := fs.NewMemoryFileSystem()
	require.NoError(t, memFS.WriteFile("docs/login.md", []byte("Users can log in")))

	r := NewRequest("docs/login.md", "", catalog.Backend, catalog.Entity, "out")
	w := NewWizard(summarizer, generator, nil, Options{}, logger.NewNullLogger())
	pub := NewPublisher()

	pipeline, err := NewPipeline(r, w, memFS, nil, pub, logger.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, pipeline.Execute(context.Background()))

	assert.Equal(t, []StepType{LoadSpecification, SummarizeSpecification, BuildPrompt, GenerateCode, SaveFiles, Done}, pub.steps())
	assert.Equal(t, []string{"out/entity_file.java"}, pipeline.SavedPaths())

	content, err := memFS.ReadFile("out/entity_file.java")
	require.NoError(t, err)
	assert.Equal(t, "class User{}", string(content))

	summarizer.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestPipeline_ExecuteTextSkipsSummary(t *testing.T) {
	summarizer := new(MockClient)
	generator := new(MockClient)
	generator.On("Complete", mock.Anything, "custom prompt").Return("<form></form>", nil).Once()

	memFS := fs.NewMemoryFileSystem()
	r := NewRequest("", "Add login", catalog.Frontend, catalog.HTML, "out")
	r.Prompt = "custom prompt"
	r.Zip = true

	w := NewWizard(summarizer, generator, nil, Options{}, nil)
	pub := NewPublisher()
	pipeline, err := NewPipeline(r, w, memFS, nil, pub, nil)
	require.NoError(t, err)
	require.NoError(t, pipeline.Execute(context.Background()))

	assert.Equal(t, []StepType{LoadSpecification, BuildPrompt, GenerateCode, SaveFiles, Done}, pub.steps())
	entries, err := memFS.ReadZip("out/generated_files.zip")
	require.NoError(t, err)
	assert.Equal(t, "<form></form>", string(entries["html_file.html"]))
	summarizer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestPipeline_GenerateError(t *testing.T) {
	generator := new(MockClient)
	generator.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	r := NewRequest("", "Add login", catalog.Backend, catalog.Entity, "out")
	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
	pub := NewPublisher()
	pipeline, err := NewPipeline(r, w, fs.NewMemoryFileSystem(), nil, pub, nil)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []StepType{LoadSpecification, BuildPrompt}, pub.steps())

	select {
	case published := <-pub.errChan:
		assert.Contains(t, published.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("expected a published error")
	}
}

func TestPipeline_Cancel(t *testing.T) {
	generator := new(MockClient)
	r := NewRequest("", "Add login", catalog.Backend, catalog.Entity, "out")
	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
	pub := NewPublisher()
	pipeline, err := NewPipeline(r, w, fs.NewMemoryFileSystem(), nil, pub, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pipeline.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.steps())
	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestNewPipelineValidatesRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{"no text", NewRequest("", " ", catalog.Backend, catalog.Entity, "")},
		{"bad target", NewRequest("", "x", "mobile", catalog.Entity, "")},
		{"bad component", NewRequest("", "x", catalog.Frontend, catalog.Entity, "")},
		{"upload without path", &Request{InputSource: UploadDocument, CodeTarget: catalog.Backend, ComponentType: catalog.Entity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.req, nil, nil, nil, nil, nil)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDefaultRequestIsValid(t *testing.T) {
	r := DefaultRequest()
	r.Text = "Add login"
	assert.NoError(t, r.Validate())
}

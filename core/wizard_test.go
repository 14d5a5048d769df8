package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient is a mock implementation of llm.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Complete(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func agentServer(t *testing.T, status int, body string) *llm.AgentClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	client, err := llm.NewAgentClient(llm.AgentConfig{Name: "test", URL: srv.URL, UserID: "u", APIKey: "k"}, logger.NewNullLogger())
	require.NoError(t, err)
	return client
}

func TestWizardSummarizeFromAgent(t *testing.T) {
	summarizer := agentServer(t, http.StatusOK, `{"output":{"content":"X"}}`)
	w := NewWizard(summarizer, new(MockClient), nil, Options{}, nil)

	require.NoError(t, w.Upload(context.Background(), "spec.txt", []byte("raw requirements")))

	s := w.State()
	assert.True(t, s.IsSummarized)
	assert.Equal(t, "X", s.RawSpecificationText)
	assert.Equal(t, "spec.txt", s.DocumentName)
}

func TestWizardSummarizeAgentError(t *testing.T) {
	summarizer := agentServer(t, http.StatusOK, `{"detail":{"error":"boom","requestId":"r-1"}}`)
	w := NewWizard(summarizer, new(MockClient), nil, Options{}, nil)

	err := w.Upload(context.Background(), "spec.txt", []byte("raw requirements"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	s := w.State()
	assert.False(t, s.IsSummarized)
	assert.False(t, s.Busy())
	assert.Contains(t, s.LastError, "boom")
}

func TestWizardUploadUnsupportedLeavesState(t *testing.T) {
	summarizer := new(MockClient)
	w := NewWizard(summarizer, new(MockClient), nil, Options{}, nil)
	before := w.State()

	err := w.Upload(context.Background(), "diagram.png", []byte("x"))
	assert.Error(t, err)
	assert.Equal(t, before.Token, w.State().Token)
	summarizer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestWizardEndToEnd(t *testing.T) {
	generator := new(MockClient)
	generator.On("Complete", mock.Anything, llm.BuildPrompt(catalog.Backend, catalog.Entity, "Add login")).
		Return("class Foo{}", nil).Once()

	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
	for _, ev := range []Event{
		SelectInputSource{Source: ReferenceIndex},
		SetSpecificationText{Text: "Add login"},
		SelectCodeTarget{Target: catalog.Backend},
		SelectComponentType{Component: catalog.Entity},
	} {
		_, err := w.Dispatch(ev)
		require.NoError(t, err)
	}

	require.NoError(t, w.Generate(context.Background()))

	files := w.State().Files.Files()
	require.Len(t, files, 1)
	assert.Equal(t, catalog.Java, files[0].Language)
	assert.Equal(t, "class Foo{}", files[0].Content)
	generator.AssertExpectations(t)
}

func TestWizardGenerateValidationSkipsNetwork(t *testing.T) {
	generator := new(MockClient)
	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)

	err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestWizardStaleGenerationDiscarded(t *testing.T) {
	generator := new(MockClient)
	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
	for _, ev := range []Event{
		SelectInputSource{Source: ReferenceIndex},
		SelectCodeTarget{Target: catalog.Backend},
		SelectComponentType{Component: catalog.Entity},
	} {
		_, err := w.Dispatch(ev)
		require.NoError(t, err)
	}

	generator.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_, err := w.Dispatch(SelectCodeTarget{Target: catalog.Frontend})
			require.NoError(t, err)
		}).
		Return("class Foo{}", nil).Once()

	err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrStaleResult)

	s := w.State()
	assert.Equal(t, catalog.Frontend, s.CodeTarget)
	assert.Zero(t, s.Files.Len())
}

func TestWizardBusyWhileGenerating(t *testing.T) {
	generator := new(MockClient)
	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
	for _, ev := range []Event{
		SelectInputSource{Source: ReferenceIndex},
		SelectCodeTarget{Target: catalog.Backend},
		SelectComponentType{Component: catalog.Entity},
	} {
		_, err := w.Dispatch(ev)
		require.NoError(t, err)
	}

	var second error
	generator.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			second = w.Generate(context.Background())
		}).
		Return("class Foo{}", nil).Once()

	require.NoError(t, w.Generate(context.Background()))
	assert.ErrorIs(t, second, ErrBusy)
	generator.AssertNumberOfCalls(t, "Complete", 1)
}

func TestWizardRegenerate(t *testing.T) {
	generator := new(MockClient)
	generator.On("Complete", mock.Anything, mock.Anything).Return("class Foo{}", nil).Once()

	setup := func(w *Wizard) {
		for _, ev := range []Event{
			SelectInputSource{Source: ReferenceIndex},
			SelectCodeTarget{Target: catalog.Backend},
			SelectComponentType{Component: catalog.Entity},
		} {
			_, err := w.Dispatch(ev)
			require.NoError(t, err)
		}
		require.NoError(t, w.Generate(context.Background()))
	}

	t.Run("local", func(t *testing.T) {
		w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
		setup(w)
		require.NoError(t, w.Regenerate(context.Background(), "entity_file", "add id"))
		assert.Equal(t, "// Regenerated: add id\nclass Foo{}", w.State().Files.Files()[0].Content)
	})

	t.Run("remote", func(t *testing.T) {
		remote := new(MockClient)
		remote.On("Complete", mock.Anything, llm.BuildPrompt(catalog.Backend, catalog.Entity, "")).Return("class Foo{}", nil).Once()
		remote.On("Complete", mock.Anything, llm.RegenerateQuery("entity_file", "class Foo{}", "add id")).
			Return("class Foo{ Long id; }", nil).Once()

		w := NewWizard(new(MockClient), remote, nil, Options{RemoteRegenerate: true}, nil)
		setup(w)
		require.NoError(t, w.Regenerate(context.Background(), "entity_file", "add id"))
		assert.Equal(t, "class Foo{ Long id; }", w.State().Files.Files()[0].Content)
		remote.AssertExpectations(t)
	})

	t.Run("unknown file", func(t *testing.T) {
		w := NewWizard(new(MockClient), new(MockClient), nil, Options{RemoteRegenerate: true}, nil)
		assert.ErrorIs(t, w.Regenerate(context.Background(), "missing", "x"), ErrValidation)
	})
}

func TestWizardUploadAlreadySummarized(t *testing.T) {
	summarizer := new(MockClient)
	w := NewWizard(summarizer, new(MockClient), nil, Options{}, nil)
	_, err := w.Dispatch(SetUseSummarizedInput{Enabled: true})
	require.NoError(t, err)

	require.NoError(t, w.Upload(context.Background(), "spec.md", []byte("Users log in")))

	s := w.State()
	assert.True(t, s.IsSummarized)
	assert.Equal(t, "Users log in", s.RawSpecificationText)
	assert.Equal(t, StepSelectCodeTarget, s.Step())
	summarizer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestWizardTextChangeDuringGeneration(t *testing.T) {
	generator := new(MockClient)
	w := NewWizard(new(MockClient), generator, nil, Options{}, nil)
	for _, ev := range []Event{
		SelectInputSource{Source: ReferenceIndex},
		SetSpecificationText{Text: "Add login"},
		SelectCodeTarget{Target: catalog.Backend},
		SelectComponentType{Component: catalog.Entity},
	} {
		_, err := w.Dispatch(ev)
		require.NoError(t, err)
	}

	generator.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_, err := w.Dispatch(SetSpecificationText{Text: "Add logout"})
			require.NoError(t, err)
		}).
		Return("class Foo{}", nil).Once()

	err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrStaleResult)

	s := w.State()
	assert.Zero(t, s.Files.Len())
	assert.Contains(t, s.PromptText, "Add logout")
	assert.False(t, s.Busy())
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Complete(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type MockClipboard struct {
	mock.Mock
}

func (m *MockClipboard) WriteAll(text string) error {
	return m.Called(text).Error(0)
}

func TestAddAcceptsLegacySources(t *testing.T) {
	g := NewGenerator(new(MockClient), nil)
	require.NoError(t, g.Add("src/Billing.cs", []byte("class Billing {}")))
	require.NoError(t, g.Add("web.config", []byte("<configuration/>")))
	assert.Error(t, g.Add("notes.txt", []byte("hello")))

	files := g.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "Billing.cs", files[0].Name)

	require.NoError(t, g.Add("Billing.cs", []byte("class Billing { int id; }")))
	files = g.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "class Billing { int id; }", files[0].Content)

	g.Remove("web.config")
	assert.Len(t, g.Files(), 1)
}

func TestGenerateRequiresFiles(t *testing.T) {
	client := new(MockClient)
	_, err := NewGenerator(client, nil).Generate(context.Background())
	assert.ErrorIs(t, err, core.ErrValidation)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerateAndExport(t *testing.T) {
	client := new(MockClient)
	query := llm.UseCaseQuery([]llm.SourceFile{{Name: "Billing.cs", Content: "class Billing {}"}})
	client.On("Complete", mock.Anything, query).Return("# Use Case: Billing", nil).Once()

	g := NewGenerator(client, nil)
	require.NoError(t, g.Add("Billing.cs", []byte("class Billing {}")))

	doc, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# Use Case: Billing", doc)
	assert.Equal(t, doc, g.Document())

	memFS := fs.NewMemoryFileSystem()
	path, err := g.Download(memFS, "out")
	require.NoError(t, err)
	assert.Equal(t, "out/usecase-documentation.md", path)
	saved, err := memFS.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(saved))

	cb := new(MockClipboard)
	cb.On("WriteAll", doc).Return(nil).Once()
	require.NoError(t, g.Copy(cb))
	cb.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestGenerateError(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	g := NewGenerator(client, nil)
	require.NoError(t, g.Add("Billing.vb", []byte("Module Billing")))

	_, err := g.Generate(context.Background())
	assert.ErrorContains(t, err, "boom")
	assert.Empty(t, g.Document())
	assert.False(t, g.Busy())

	_, err = g.Download(fs.NewMemoryFileSystem(), "out")
	assert.Error(t, err)
}

func TestGenerateStaleAfterUpload(t *testing.T) {
	client := new(MockClient)
	g := NewGenerator(client, nil)
	require.NoError(t, g.Add("Billing.cs", []byte("class Billing {}")))

	client.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_ = g.Add("Invoice.cs", []byte("class Invoice {}"))
		}).
		Return("# Use Case", nil).Once()

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, core.ErrStaleResult)
	assert.Empty(t, g.Document())
}

func TestAddFile(t *testing.T) {
	memFS := fs.NewMemoryFileSystem()
	require.NoError(t, memFS.WriteFile("legacy/App.xml", []byte("<app/>")))

	g := NewGenerator(new(MockClient), nil)
	require.NoError(t, g.AddFile(memFS, "legacy/App.xml"))
	assert.Equal(t, "App.xml", g.Files()[0].Name)
	assert.Error(t, g.AddFile(memFS, "legacy/missing.cs"))
}

package artifact

import (
	"errors"
	"testing"

	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClipboard struct {
	mock.Mock
}

func (m *MockClipboard) WriteAll(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

func sampleFiles() []GeneratedFile {
	return []GeneratedFile{
		{ID: "entity_file", Name: "entity_file", Language: catalog.Java, Content: "class Foo{}"},
		{ID: "html_file", Name: "html_file", Language: catalog.HTMLLang, Content: "<div></div>"},
	}
}

func TestReplaceAllSelectsFirst(t *testing.T) {
	s := NewStore()
	s.ReplaceAll(sampleFiles())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "entity_file", s.ActiveID())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.ActiveID())
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestReplaceAllCopiesInput(t *testing.T) {
	files := sampleFiles()
	s := NewStore()
	s.ReplaceAll(files)
	files[0].Content = "mutated"
	assert.Equal(t, "class Foo{}", s.Files()[0].Content)
}

func TestSelectActive(t *testing.T) {
	s := NewStore()
	s.ReplaceAll(sampleFiles())

	assert.True(t, s.SelectActive("html_file"))
	assert.Equal(t, "html_file", s.ActiveID())

	assert.False(t, s.SelectActive("missing"))
	assert.Equal(t, "html_file", s.ActiveID())
}

func TestPatchByName(t *testing.T) {
	s := NewStore()
	s.ReplaceAll(sampleFiles())

	assert.True(t, s.PatchByName("entity_file", PrependInstruction("add   an id\nfield")))
	f, _ := s.Active()
	assert.Equal(t, "// Regenerated: add an id field\nclass Foo{}", f.Content)

	assert.True(t, s.PatchByName("html_file", PrependInstruction("add a header")))
	assert.Equal(t, "<!-- Regenerated: add a header -->\n<div></div>", s.Files()[1].Content)
}

func TestPatchByNameUnknownLeavesCollection(t *testing.T) {
	s := NewStore()
	s.ReplaceAll(sampleFiles())
	before := s.Files()

	assert.False(t, s.PatchByName("nope", Replace("x")))
	assert.Equal(t, before, s.Files())
}

func TestCommentLine(t *testing.T) {
	assert.Equal(t, "// hi", CommentLine(catalog.TypeScript, "hi"))
	assert.Equal(t, "// hi", CommentLine(catalog.JavaScript, "hi"))
	assert.Equal(t, "/* a * / b */", CommentLine(catalog.CSS, "a */ b"))
	assert.Equal(t, "<!-- a - - b -->", CommentLine(catalog.XML, "a -- b"))
}

func TestCopyActive(t *testing.T) {
	s := NewStore()
	s.ReplaceAll(sampleFiles())

	cb := new(MockClipboard)
	cb.On("WriteAll", "class Foo{}").Return(nil).Once()
	require.NoError(t, s.CopyActive(cb))
	cb.AssertExpectations(t)

	failing := new(MockClipboard)
	failing.On("WriteAll", mock.Anything).Return(errors.New("no display"))
	assert.ErrorContains(t, s.CopyActive(failing), "no display")

	assert.Error(t, NewStore().CopyActive(cb))
}

func TestDownloadActive(t *testing.T) {
	memFS := fs.NewMemoryFileSystem()
	s := NewStore()
	s.ReplaceAll(sampleFiles())

	path, err := s.DownloadActive(memFS, "out")
	require.NoError(t, err)
	assert.Equal(t, "out/entity_file.java", path)

	content, err := memFS.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "class Foo{}", string(content))

	_, err = NewStore().DownloadActive(memFS, "out")
	assert.Error(t, err)
}

func TestDownloadAll(t *testing.T) {
	memFS := fs.NewMemoryFileSystem()
	s := NewStore()
	s.ReplaceAll(sampleFiles())

	path, err := s.DownloadAll(memFS, "out")
	require.NoError(t, err)

	entries, err := memFS.ReadZip(path)
	require.NoError(t, err)
	assert.Equal(t, "class Foo{}", string(entries["entity_file.java"]))
	assert.Equal(t, "<div></div>", string(entries["html_file.html"]))

	_, err = NewStore().DownloadAll(memFS, "out")
	assert.ErrorContains(t, err, "no files to zip")
}

func TestDownloadNameKeepsExistingExtension(t *testing.T) {
	f := GeneratedFile{Name: "../User.java", Language: catalog.Java}
	assert.Equal(t, "User.java", f.DownloadName())
}

func TestClone(t *testing.T) {
	s := NewStore()
	s.ReplaceAll(sampleFiles())
	c := s.Clone()
	c.PatchByName("entity_file", Replace("changed"))
	assert.Equal(t, "class Foo{}", s.Files()[0].Content)
	assert.Equal(t, s.ActiveID(), c.ActiveID())
}

package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/santiagomed/edpgen/core"
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

func uploadBoth(t *testing.T, c *Comparison) {
	t.Helper()
	require.NoError(t, c.Upload(Left, "usecase.md", []byte("Users can reset passwords")))
	require.NoError(t, c.Upload(Right, "src/Auth.java", []byte("class Auth {}")))
}

func TestDefaultSlots(t *testing.T) {
	c := New(new(MockClient), nil)
	assert.Equal(t, UseCaseDocument, c.Slot(Left).Kind)
	assert.Equal(t, CodeFile, c.Slot(Right).Kind)
	assert.False(t, c.Ready())
}

func TestAcceptLists(t *testing.T) {
	assert.Equal(t, ".txt,.md,.doc,.docx,.odt", AcceptList(UseCaseDocument))
	assert.Equal(t, ".js,.jsx,.ts,.tsx,.py,.java,.cs", AcceptList(CodeFile))
}

func TestUploadRespectsKind(t *testing.T) {
	c := New(new(MockClient), nil)
	assert.Error(t, c.Upload(Left, "Auth.java", []byte("class Auth {}")))
	assert.False(t, c.Slot(Left).Uploaded)

	require.NoError(t, c.Upload(Right, "src/Auth.java", []byte("class Auth {}")))
	slot := c.Slot(Right)
	assert.True(t, slot.Uploaded)
	assert.Equal(t, "Auth.java", slot.FileName)
	assert.Equal(t, "class Auth {}", slot.Text)
}

func TestCompareDisabledUntilBothUploaded(t *testing.T) {
	client := new(MockClient)
	c := New(client, nil)
	require.NoError(t, c.Upload(Left, "usecase.md", []byte("Users can reset passwords")))

	_, err := c.Compare(context.Background())
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "please upload both files before comparing")
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestChangingKindClearsUpload(t *testing.T) {
	c := New(new(MockClient), nil)
	uploadBoth(t, c)
	assert.True(t, c.Ready())

	require.NoError(t, c.SetKind(Right, CodeFile))
	assert.True(t, c.Slot(Right).Uploaded, "same kind keeps the upload")

	require.NoError(t, c.SetKind(Right, UseCaseDocument))
	assert.False(t, c.Slot(Right).Uploaded)
	assert.False(t, c.Ready())

	assert.ErrorIs(t, c.SetKind(Left, "image"), core.ErrValidation)
}

func TestCompare(t *testing.T) {
	client := new(MockClient)
	query := llm.CompareQuery("Use Case Document", "Users can reset passwords", "Code File", "class Auth {}")
	client.On("Complete", mock.Anything, query).Return("## Comparison Analysis\n- **2 missing** requirements", nil).Once()

	c := New(client, nil)
	uploadBoth(t, c)

	blocks, err := c.Compare(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, Heading2, blocks[0].Kind)
	assert.Equal(t, Bullet, blocks[1].Kind)
	assert.Equal(t, blocks, c.Report())
	client.AssertExpectations(t)

	c.Clear(Left)
	assert.Nil(t, c.Report())
}

func TestCompareErrorKeepsSlots(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	c := New(client, nil)
	uploadBoth(t, c)

	_, err := c.Compare(context.Background())
	assert.ErrorContains(t, err, "boom")
	assert.True(t, c.Ready())
}

func TestCompareStaleAfterUpload(t *testing.T) {
	client := new(MockClient)
	c := New(client, nil)
	uploadBoth(t, c)

	client.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_ = c.Upload(Right, "auth.ts", []byte("export class Auth {}"))
		}).
		Return("## Report", nil).Once()

	_, err := c.Compare(context.Background())
	assert.ErrorIs(t, err, core.ErrStaleResult)
	assert.Nil(t, c.Report())
}

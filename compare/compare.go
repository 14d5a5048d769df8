// Package compare checks a use case document against a code file through
// the remote agent.
package compare

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/extract"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
)

// Kind is what an upload slot currently holds.
type Kind string

const (
	UseCaseDocument Kind = "usecase"
	CodeFile        Kind = "code"
)

var accepts = map[Kind][]string{
	UseCaseDocument: extract.SpecificationExtensions,
	CodeFile:        {".js", ".jsx", ".ts", ".tsx", ".py", ".java", ".cs"},
}

// Accept returns the upload extensions allowed for k.
func (k Kind) Accept() []string {
	out := make([]string, len(accepts[k]))
	copy(out, accepts[k])
	return out
}

func (k Kind) Label() string {
	switch k {
	case UseCaseDocument:
		return "Use Case Document"
	case CodeFile:
		return "Code File"
	default:
		return string(k)
	}
}

func (k Kind) Valid() bool {
	_, ok := accepts[k]
	return ok
}

// Side picks one of the two slots.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Slot is one upload panel.
type Slot struct {
	Kind     Kind
	FileName string
	Text     string
	Uploaded bool
}

// Comparison holds both slots and the last report. It is safe for concurrent use.
type Comparison struct {
	mu         sync.Mutex
	slots      [2]Slot
	report     []Block
	generation uint64
	busy       bool
	client     llm.Client
	logger     logger.Logger
}

func New(client llm.Client, l logger.Logger) *Comparison {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Comparison{
		slots:  [2]Slot{{Kind: UseCaseDocument}, {Kind: CodeFile}},
		client: client,
		logger: l,
	}
}

func (c *Comparison) Slot(side Side) Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[side]
}

// SetKind switches what a slot holds. A change of kind drops the slot's upload.
func (c *Comparison) SetKind(side Side, kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown slot kind %q", core.ErrValidation, kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots[side].Kind == kind {
		return nil
	}
	c.slots[side] = Slot{Kind: kind}
	c.invalidate()
	return nil
}

// Upload extracts the text of a file into a slot.
func (c *Comparison) Upload(side Side, name string, data []byte) error {
	c.mu.Lock()
	kind := c.slots[side].Kind
	c.mu.Unlock()

	text, err := extract.NewDocumentExtractor(kind.Accept()...).Extract(name, data)
	if err != nil {
		c.logger.Error(fmt.Sprintf("Error uploading %s to %s slot: %v", name, side, err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots[side].Kind != kind {
		return fmt.Errorf("%w: %s slot changed kind during upload", core.ErrStaleResult, side)
	}
	c.slots[side] = Slot{Kind: kind, FileName: filepath.Base(name), Text: text, Uploaded: true}
	c.invalidate()
	return nil
}

// Clear empties a slot, keeping its kind.
func (c *Comparison) Clear(side Side) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[side] = Slot{Kind: c.slots[side].Kind}
	c.invalidate()
}

func (c *Comparison) invalidate() {
	c.generation++
	c.report = nil
}

// CanCompare evaluates whether both slots are ready.
func CanCompare(left, right Slot) core.GuardResult {
	if !left.Uploaded || !right.Uploaded {
		return core.GuardResult{Reason: "please upload both files before comparing"}
	}
	return core.GuardResult{Allowed: true}
}

// Ready reports whether Compare may be triggered.
func (c *Comparison) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.busy && CanCompare(c.slots[Left], c.slots[Right]).Allowed
}

// Compare sends both slots to the agent and parses the report.
func (c *Comparison) Compare(ctx context.Context) ([]Block, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: comparison is still running", core.ErrBusy)
	}
	left, right := c.slots[Left], c.slots[Right]
	if err := CanCompare(left, right).Error(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.busy = true
	generation := c.generation
	c.mu.Unlock()

	c.logger.Info(fmt.Sprintf("Comparing %s with %s...", left.FileName, right.FileName))
	text, err := llm.Compare(ctx, c.client, left.Kind.Label(), left.Text, right.Kind.Label(), right.Text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.logger.Error(fmt.Sprintf("Error comparing files: %v", err))
		return nil, err
	}
	if generation != c.generation {
		return nil, fmt.Errorf("%w: uploads changed during comparison", core.ErrStaleResult)
	}
	c.report = ParseReport(text)
	return c.copyReport(), nil
}

// Report returns the blocks of the last comparison, nil if none.
func (c *Comparison) Report() []Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyReport()
}

func (c *Comparison) copyReport() []Block {
	if c.report == nil {
		return nil
	}
	out := make([]Block, len(c.report))
	copy(out, c.report)
	return out
}

// AcceptList renders the extensions of k for display.
func AcceptList(k Kind) string {
	return strings.Join(k.Accept(), ",")
}

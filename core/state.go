// Package core holds the generation wizard: an explicit state, the events
// that move it and the pure transition function between them.
package core

import (
	"errors"

	"github.com/santiagomed/edpgen/artifact"
	"github.com/santiagomed/edpgen/catalog"
)

var (
	// ErrValidation marks a request rejected locally before any network call.
	ErrValidation = errors.New("validation error")
	// ErrBusy is returned when an action is triggered while a remote call is outstanding.
	ErrBusy = errors.New("another request is in progress")
	// ErrStaleResult is returned when a completion arrives for a superseded request.
	ErrStaleResult = errors.New("stale request result discarded")
)

// InputSource is how the specification text enters the wizard.
type InputSource string

const (
	UploadDocument InputSource = "upload"
	ReferenceIndex InputSource = "reference"
)

func (s InputSource) Valid() bool {
	return s == UploadDocument || s == ReferenceIndex
}

// WizardStep is the active step of the wizard, derived from State.
type WizardStep int

const (
	StepInput WizardStep = iota
	StepSelectCodeTarget
	StepSelectComponentType
	StepGenerate
)

func (s WizardStep) String() string {
	switch s {
	case StepInput:
		return "input"
	case StepSelectCodeTarget:
		return "select-code-target"
	case StepSelectComponentType:
		return "select-component-type"
	case StepGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Action names a remote call the wizard can have in flight.
type Action string

const (
	ActionNone       Action = ""
	ActionSummarize  Action = "summarize"
	ActionGenerate   Action = "generate"
	ActionRegenerate Action = "regenerate"
)

// State is everything one wizard run knows. Treat it as a value: Reduce
// never mutates its input, including the file store.
type State struct {
	InputSource          InputSource           `json:"inputSource"`
	DocumentName         string                `json:"documentName,omitempty"`
	RawSpecificationText string                `json:"rawSpecificationText,omitempty"`
	IsSummarized         bool                  `json:"isSummarized"`
	UseSummarizedInput   bool                  `json:"useSummarizedInput"`
	CodeTarget           catalog.CodeTarget    `json:"codeTarget,omitempty"`
	ComponentType        catalog.ComponentType `json:"componentType,omitempty"`
	PromptText           string                `json:"promptText"`
	IsEditingPrompt      bool                  `json:"isEditingPrompt"`

	Files *artifact.Store `json:"-"`

	// Token identifies the selection snapshot a remote call was issued
	// against. Any clearing change advances it.
	Token    uint64 `json:"token"`
	InFlight Action `json:"inFlight,omitempty"`

	LastError string `json:"lastError,omitempty"`
}

// NewState returns the initial wizard state.
func NewState() State {
	return State{
		InputSource: UploadDocument,
		Files:       artifact.NewStore(),
	}
}

// Step derives the active wizard step.
func (s State) Step() WizardStep {
	switch {
	case s.ComponentType != "":
		return StepGenerate
	case s.CodeTarget != "":
		return StepSelectComponentType
	case CanSelectCodeTarget(s).Allowed:
		return StepSelectCodeTarget
	default:
		return StepInput
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	if s.Files == nil {
		s.Files = artifact.NewStore()
	} else {
		s.Files = s.Files.Clone()
	}
	return s
}

// Busy reports whether a remote call is outstanding.
func (s State) Busy() bool {
	return s.InFlight != ActionNone
}

package core

import "github.com/santiagomed/edpgen/catalog"

// Event is an input to Reduce.
type Event interface {
	eventName() string
}

// SelectInputSource switches between uploading a document and typing text.
type SelectInputSource struct {
	Source InputSource
}

// SetSpecificationText sets free text for the ReferenceIndex source.
type SetSpecificationText struct {
	Text string
}

// SetUseSummarizedInput marks later uploads as already summarized, so their
// text is used as the specification without a summarization call.
type SetUseSummarizedInput struct {
	Enabled bool
}

// DocumentExtracted installs the raw text of an uploaded document.
type DocumentExtracted struct {
	Name string
	Text string
}

// SelectCodeTarget picks frontend or backend.
type SelectCodeTarget struct {
	Target catalog.CodeTarget
}

// SelectComponentType picks a component offered for the current target.
type SelectComponentType struct {
	Component catalog.ComponentType
}

// SetEditingPrompt toggles manual prompt editing.
type SetEditingPrompt struct {
	Editing bool
}

// EditPrompt replaces the prompt text while editing.
type EditPrompt struct {
	Text string
}

// SelectFile makes a generated file active.
type SelectFile struct {
	ID string
}

// RegenerateLocal prepends the instruction as a comment to the named file.
type RegenerateLocal struct {
	Name        string
	Instruction string
}

// SummarizeRequested marks the start of a summarization call.
type SummarizeRequested struct{}

// SummarizeSucceeded carries the condensed specification.
type SummarizeSucceeded struct {
	Token   uint64
	Summary string
}

// SummarizeFailed carries a summarization error.
type SummarizeFailed struct {
	Token uint64
	Err   error
}

// GenerateRequested marks the start of a generation call.
type GenerateRequested struct{}

// GenerateSucceeded carries the generated source text.
type GenerateSucceeded struct {
	Token   uint64
	Content string
}

// GenerateFailed carries a generation error.
type GenerateFailed struct {
	Token uint64
	Err   error
}

// RegenerateRequested marks the start of a remote regeneration call.
type RegenerateRequested struct {
	Name        string
	Instruction string
}

// RegenerateSucceeded carries the revised content for the named file.
type RegenerateSucceeded struct {
	Token   uint64
	Name    string
	Content string
}

// RegenerateFailed carries a regeneration error.
type RegenerateFailed struct {
	Token uint64
	Err   error
}

func (SelectInputSource) eventName() string     { return "select_input_source" }
func (SetSpecificationText) eventName() string  { return "set_specification_text" }
func (SetUseSummarizedInput) eventName() string { return "set_use_summarized_input" }
func (DocumentExtracted) eventName() string     { return "document_extracted" }
func (SelectCodeTarget) eventName() string      { return "select_code_target" }
func (SelectComponentType) eventName() string   { return "select_component_type" }
func (SetEditingPrompt) eventName() string      { return "set_editing_prompt" }
func (EditPrompt) eventName() string            { return "edit_prompt" }
func (SelectFile) eventName() string            { return "select_file" }
func (RegenerateLocal) eventName() string       { return "regenerate_local" }
func (SummarizeRequested) eventName() string    { return "summarize_requested" }
func (SummarizeSucceeded) eventName() string    { return "summarize_succeeded" }
func (SummarizeFailed) eventName() string       { return "summarize_failed" }
func (GenerateRequested) eventName() string     { return "generate_requested" }
func (GenerateSucceeded) eventName() string     { return "generate_succeeded" }
func (GenerateFailed) eventName() string        { return "generate_failed" }
func (RegenerateRequested) eventName() string   { return "regenerate_requested" }
func (RegenerateSucceeded) eventName() string   { return "regenerate_succeeded" }
func (RegenerateFailed) eventName() string      { return "regenerate_failed" }

// EventName returns the wire name of ev.
func EventName(ev Event) string {
	return ev.eventName()
}

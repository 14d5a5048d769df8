package server

import (
	"fmt"

	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/core"
)

// EventRequest is the JSON form of a user-driven wizard event. Completion
// events are produced by the server itself and cannot be posted.
type EventRequest struct {
	Type        string `json:"type" binding:"required"`
	Source      string `json:"source,omitempty"`
	Text        string `json:"text,omitempty"`
	Target      string `json:"target,omitempty"`
	Component   string `json:"component,omitempty"`
	Editing     bool   `json:"editing,omitempty"`
	Enabled     bool   `json:"enabled,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Instruction string `json:"instruction,omitempty"`
}

// Event converts the request to a core event.
func (r EventRequest) Event() (core.Event, error) {
	var ev core.Event
	switch r.Type {
	case "select_input_source":
		ev = core.SelectInputSource{Source: core.InputSource(r.Source)}
	case "set_specification_text":
		ev = core.SetSpecificationText{Text: r.Text}
	case "set_use_summarized_input":
		ev = core.SetUseSummarizedInput{Enabled: r.Enabled}
	case "select_code_target":
		ev = core.SelectCodeTarget{Target: catalog.CodeTarget(r.Target)}
	case "select_component_type":
		ev = core.SelectComponentType{Component: catalog.ComponentType(r.Component)}
	case "set_editing_prompt":
		ev = core.SetEditingPrompt{Editing: r.Editing}
	case "edit_prompt":
		ev = core.EditPrompt{Text: r.Text}
	case "select_file":
		ev = core.SelectFile{ID: r.ID}
	case "regenerate_local":
		ev = core.RegenerateLocal{Name: r.Name, Instruction: r.Instruction}
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", core.ErrValidation, r.Type)
	}
	return ev, nil
}

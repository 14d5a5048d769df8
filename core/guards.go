package core

import (
	"fmt"
	"strings"

	"github.com/santiagomed/edpgen/catalog"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // populated when not allowed
}

// Error returns the guard result as a validation error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...any) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...)}
}

// CanSelectCodeTarget evaluates whether the wizard may leave the input step.
// Rule: uploaded documents must be summarized, typed text passes immediately.
func CanSelectCodeTarget(s State) GuardResult {
	if s.InputSource == ReferenceIndex || s.IsSummarized {
		return allow()
	}
	return deny("upload and summarize a specification document first")
}

// CanSelectTarget evaluates choosing target from the current state.
func CanSelectTarget(s State, target catalog.CodeTarget) GuardResult {
	if r := CanSelectCodeTarget(s); !r.Allowed {
		return r
	}
	if !catalog.IsValidTarget(target) {
		return deny("unknown code target %q", target)
	}
	return allow()
}

// CanSelectComponent evaluates choosing component for the current target.
func CanSelectComponent(s State, component catalog.ComponentType) GuardResult {
	if s.CodeTarget == "" {
		return deny("select a code target first")
	}
	if !catalog.Belongs(s.CodeTarget, component) {
		return deny("component type %q is not available for %s", component, s.CodeTarget)
	}
	return allow()
}

// CanSummarize evaluates starting a summarization call.
// Rule: only uploaded documents are summarized, and only once text exists.
func CanSummarize(s State) GuardResult {
	if s.InputSource != UploadDocument {
		return deny("summarization applies to uploaded documents only")
	}
	if strings.TrimSpace(s.RawSpecificationText) == "" {
		return deny("no document text to summarize")
	}
	return allow()
}

// CanGenerate evaluates starting a generation call.
func CanGenerate(s State) GuardResult {
	if s.ComponentType == "" {
		return deny("select a component type first")
	}
	if strings.TrimSpace(s.PromptText) == "" {
		return deny("prompt is empty")
	}
	return allow()
}

// CanRegenerate evaluates regenerating the named file.
func CanRegenerate(s State, name, instruction string) GuardResult {
	if strings.TrimSpace(instruction) == "" {
		return deny("regeneration instruction is empty")
	}
	if s.Files == nil || !s.Files.HasName(name) {
		return deny("no generated file named %q", name)
	}
	return allow()
}

// CanEditPrompt evaluates replacing the prompt text.
func CanEditPrompt(s State) GuardResult {
	if !s.IsEditingPrompt {
		return deny("enable prompt editing first")
	}
	return allow()
}

// CanStartRemote evaluates issuing any remote call.
func CanStartRemote(s State) GuardResult {
	if s.Busy() {
		return deny("%s is still running", s.InFlight)
	}
	return allow()
}

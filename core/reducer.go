package core

import (
	"fmt"

	"github.com/santiagomed/edpgen/artifact"
	"github.com/santiagomed/edpgen/catalog"
	"github.com/santiagomed/edpgen/llm"
)

// Reduce applies ev to s and returns the next state. On error the returned
// state is s itself. s is never mutated.
func Reduce(s State, ev Event) (State, error) {
	if s.Files == nil {
		s.Files = artifact.NewStore()
	}
	switch e := ev.(type) {
	case SelectInputSource:
		if !e.Source.Valid() {
			return s, fmt.Errorf("%w: unknown input source %q", ErrValidation, e.Source)
		}
		next := s.Clone()
		next.InputSource = e.Source
		next.DocumentName = ""
		next.RawSpecificationText = ""
		next.IsSummarized = false
		resetSelection(&next)
		next.IsEditingPrompt = false
		next.LastError = ""
		return next, nil

	case SetSpecificationText:
		if s.InputSource != ReferenceIndex {
			return s, fmt.Errorf("%w: free text is only accepted for the reference input", ErrValidation)
		}
		next := s.Clone()
		next.RawSpecificationText = e.Text
		refreshPrompt(&next)
		if e.Text != s.RawSpecificationText {
			invalidate(&next)
		}
		return next, nil

	case SetUseSummarizedInput:
		next := s.Clone()
		next.UseSummarizedInput = e.Enabled
		return next, nil

	case DocumentExtracted:
		if s.InputSource != UploadDocument {
			return s, fmt.Errorf("%w: document uploads require the upload input", ErrValidation)
		}
		next := s.Clone()
		next.DocumentName = e.Name
		next.RawSpecificationText = e.Text
		next.IsSummarized = s.UseSummarizedInput
		resetSelection(&next)
		next.LastError = ""
		return next, nil

	case SelectCodeTarget:
		if err := CanSelectTarget(s, e.Target).Error(); err != nil {
			return s, err
		}
		next := s.Clone()
		resetSelection(&next)
		next.CodeTarget = e.Target
		return next, nil

	case SelectComponentType:
		if err := CanSelectComponent(s, e.Component).Error(); err != nil {
			return s, err
		}
		next := s.Clone()
		next.ComponentType = e.Component
		next.Files.Clear()
		invalidate(&next)
		refreshPrompt(&next)
		return next, nil

	case SetEditingPrompt:
		next := s.Clone()
		next.IsEditingPrompt = e.Editing
		refreshPrompt(&next)
		if next.PromptText != s.PromptText {
			invalidate(&next)
		}
		return next, nil

	case EditPrompt:
		if err := CanEditPrompt(s).Error(); err != nil {
			return s, err
		}
		next := s.Clone()
		next.PromptText = e.Text
		if e.Text != s.PromptText {
			invalidate(&next)
		}
		return next, nil

	case SelectFile:
		next := s.Clone()
		next.Files.SelectActive(e.ID)
		return next, nil

	case RegenerateLocal:
		if err := CanRegenerate(s, e.Name, e.Instruction).Error(); err != nil {
			return s, err
		}
		next := s.Clone()
		next.Files.PatchByName(e.Name, artifact.PrependInstruction(e.Instruction))
		return next, nil

	case SummarizeRequested:
		return begin(s, ActionSummarize, CanSummarize(s))

	case SummarizeSucceeded:
		if err := checkCompletion(s, ActionSummarize, e.Token); err != nil {
			return s, err
		}
		next := s.Clone()
		next.InFlight = ActionNone
		next.RawSpecificationText = e.Summary
		next.IsSummarized = true
		next.LastError = ""
		return next, nil

	case SummarizeFailed:
		return fail(s, ActionSummarize, e.Token, e.Err)

	case GenerateRequested:
		return begin(s, ActionGenerate, CanGenerate(s))

	case GenerateSucceeded:
		if err := checkCompletion(s, ActionGenerate, e.Token); err != nil {
			return s, err
		}
		next := s.Clone()
		next.InFlight = ActionNone
		next.LastError = ""
		name := catalog.FileName(s.ComponentType)
		next.Files.ReplaceAll([]artifact.GeneratedFile{{
			ID:       name,
			Name:     name,
			Language: catalog.LanguageFor(s.CodeTarget, s.ComponentType),
			Content:  e.Content,
		}})
		return next, nil

	case GenerateFailed:
		return fail(s, ActionGenerate, e.Token, e.Err)

	case RegenerateRequested:
		if err := CanRegenerate(s, e.Name, e.Instruction).Error(); err != nil {
			return s, err
		}
		return begin(s, ActionRegenerate, allow())

	case RegenerateSucceeded:
		if err := checkCompletion(s, ActionRegenerate, e.Token); err != nil {
			return s, err
		}
		next := s.Clone()
		next.InFlight = ActionNone
		next.LastError = ""
		next.Files.PatchByName(e.Name, artifact.Replace(e.Content))
		return next, nil

	case RegenerateFailed:
		return fail(s, ActionRegenerate, e.Token, e.Err)

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrValidation, ev)
	}
}

// resetSelection clears everything downstream of the input step.
func resetSelection(s *State) {
	s.CodeTarget = ""
	s.ComponentType = ""
	s.PromptText = ""
	s.Files.Clear()
	invalidate(s)
}

// invalidate supersedes any outstanding remote call. Every change to the
// specification text or the prompt goes through here.
func invalidate(s *State) {
	s.Token++
	s.InFlight = ActionNone
}

// refreshPrompt recomputes the template prompt unless the user is editing it.
func refreshPrompt(s *State) {
	if s.IsEditingPrompt || s.ComponentType == "" {
		return
	}
	s.PromptText = llm.BuildPrompt(s.CodeTarget, s.ComponentType, s.RawSpecificationText)
}

func begin(s State, action Action, guard GuardResult) (State, error) {
	if busy := CanStartRemote(s); !busy.Allowed {
		return s, fmt.Errorf("%w: %s", ErrBusy, busy.Reason)
	}
	if err := guard.Error(); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Token++
	next.InFlight = action
	next.LastError = ""
	return next, nil
}

func checkCompletion(s State, action Action, token uint64) error {
	if token != s.Token || s.InFlight != action {
		return fmt.Errorf("%w: %s token %d, current %d", ErrStaleResult, action, token, s.Token)
	}
	return nil
}

func fail(s State, action Action, token uint64, err error) (State, error) {
	if stale := checkCompletion(s, action, token); stale != nil {
		return s, stale
	}
	next := s.Clone()
	next.InFlight = ActionNone
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastError = fmt.Sprintf("%s failed", action)
	}
	return next, nil
}

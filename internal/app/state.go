// Package app holds the view state of the application as a closed set of
// variants. Transitions are plain functions: they return the next state or
// ErrInvalidTransition, in which case the caller keeps the current one.
package app

import (
	"errors"
	"fmt"

	"github.com/ppiankov/enquete/internal/model"
)

// ErrInvalidTransition is returned when a transition does not apply to the current state
var ErrInvalidTransition = errors.New("invalid transition")

// State is one of Dashboard, Editor or Roadmap
type State interface {
	Name() string
	isState()
}

// Dashboard lists the cases, optionally filtered
type Dashboard struct {
	Query string
}

// Editor collects a new case before its plan is generated
type Editor struct {
	Form CaseForm
}

// Roadmap shows one case and its steps
type Roadmap struct {
	CaseID string
	Mode   Mode
}

// CaseForm is the input of a new case
type CaseForm struct {
	Infraction    string
	Category      model.Category
	ModusOperandi string
}

func (Dashboard) Name() string { return "dashboard" }
func (Editor) Name() string    { return "editor" }
func (Roadmap) Name() string   { return "roadmap" }

func (Dashboard) isState() {}
func (Editor) isState()    {}
func (Roadmap) isState()   {}

// Mode is what the roadmap view is doing: Browsing, EditingStep, AddingStep or ViewingDraft
type Mode interface {
	isMode()
}

// Browsing is the idle roadmap mode
type Browsing struct{}

// EditingStep collects the result of a step being completed
type EditingStep struct {
	StepID string
	Result string
}

// AddingStep collects a manual step
type AddingStep struct {
	Form StepForm
}

// StepForm is the input of a manual step
type StepForm struct {
	Title       string
	Description string
	LegalBasis  string
	Priority    model.Priority
}

// ViewingDraft shows a generated procès-verbal draft
type ViewingDraft struct {
	Title   string
	Content string
}

func (Browsing) isMode()     {}
func (EditingStep) isMode()  {}
func (AddingStep) isMode()   {}
func (ViewingDraft) isMode() {}

// Initial is the state at startup
func Initial() State {
	return Dashboard{}
}

func invalid(s State, transition string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, transition, describe(s))
}

func describe(s State) string {
	if r, ok := s.(Roadmap); ok {
		switch r.Mode.(type) {
		case EditingStep:
			return "roadmap (editing step)"
		case AddingStep:
			return "roadmap (adding step)"
		case ViewingDraft:
			return "roadmap (viewing draft)"
		}
	}
	return s.Name()
}

// browsing reports whether s is a roadmap in Browsing mode
func browsing(s State) (Roadmap, bool) {
	r, ok := s.(Roadmap)
	if !ok {
		return Roadmap{}, false
	}
	_, idle := r.Mode.(Browsing)
	return r, idle || r.Mode == nil
}

// OpenEditor starts a new case from the dashboard or an idle roadmap
func OpenEditor(s State) (State, error) {
	switch s.(type) {
	case Dashboard:
		return Editor{Form: CaseForm{Category: model.CategoryProperty}}, nil
	case Roadmap:
		if _, ok := browsing(s); ok {
			return Editor{Form: CaseForm{Category: model.CategoryProperty}}, nil
		}
	}
	return s, invalid(s, "open editor")
}

// OpenCase shows the roadmap of caseID. From the editor this follows a successful plan.
func OpenCase(s State, caseID string) (State, error) {
	if caseID == "" {
		return s, fmt.Errorf("%w: open case without an ID", ErrInvalidTransition)
	}
	switch s.(type) {
	case Dashboard, Editor:
		return Roadmap{CaseID: caseID, Mode: Browsing{}}, nil
	}
	return s, invalid(s, "open case")
}

// Back leaves the editor or an idle roadmap for the dashboard, and leaves
// any other roadmap mode for Browsing
func Back(s State) (State, error) {
	switch st := s.(type) {
	case Editor:
		return Dashboard{}, nil
	case Roadmap:
		if _, ok := browsing(s); ok {
			return Dashboard{}, nil
		}
		return Roadmap{CaseID: st.CaseID, Mode: Browsing{}}, nil
	}
	return s, invalid(s, "back")
}

// BeginEditStep starts completing stepID
func BeginEditStep(s State, stepID string) (State, error) {
	r, ok := browsing(s)
	if !ok || stepID == "" {
		return s, invalid(s, "edit step")
	}
	return Roadmap{CaseID: r.CaseID, Mode: EditingStep{StepID: stepID}}, nil
}

// CancelMode returns a roadmap to Browsing
func CancelMode(s State) (State, error) {
	r, ok := s.(Roadmap)
	if !ok {
		return s, invalid(s, "cancel")
	}
	if _, idle := browsing(s); idle {
		return s, invalid(s, "cancel")
	}
	return Roadmap{CaseID: r.CaseID, Mode: Browsing{}}, nil
}

// BeginManualAdd opens the manual step form
func BeginManualAdd(s State) (State, error) {
	r, ok := browsing(s)
	if !ok {
		return s, invalid(s, "add step")
	}
	return Roadmap{CaseID: r.CaseID, Mode: AddingStep{Form: StepForm{Priority: model.PriorityNormal}}}, nil
}

// ShowDraft displays a generated draft over the roadmap
func ShowDraft(s State, title, content string) (State, error) {
	r, ok := s.(Roadmap)
	if !ok {
		return s, invalid(s, "show draft")
	}
	switch r.Mode.(type) {
	case Browsing, ViewingDraft, nil:
		return Roadmap{CaseID: r.CaseID, Mode: ViewingDraft{Title: title, Content: content}}, nil
	}
	return s, invalid(s, "show draft")
}

// CaseDeleted returns to the dashboard when the shown case was deleted.
// Any other state is unaffected.
func CaseDeleted(s State, caseID string) (State, error) {
	if r, ok := s.(Roadmap); ok && r.CaseID == caseID {
		return Dashboard{}, nil
	}
	return s, nil
}

// CurrentCase returns the case shown by s, if any
func CurrentCase(s State) (string, bool) {
	if r, ok := s.(Roadmap); ok {
		return r.CaseID, true
	}
	return "", false
}

package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/model"
)

// ErrInvalidResponse is returned when a structured response does not hold
// a list of complete step records
var ErrInvalidResponse = errors.New("invalid step response")

// rawStep mirrors StepSchema. Pointers tell a missing field from an empty one.
type rawStep struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	LegalBasis  *string `json:"legalBasis"`
	Priority    *string `json:"priority"`
}

// decodeSteps validates the payload and stamps each record with newID.
// Empty text means the provider proposed nothing.
func decodeSteps(text string, newID func() string) ([]model.InvestigationStep, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []model.InvestigationStep{}, nil
	}

	var raw []rawStep
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	steps := make([]model.InvestigationStep, 0, len(raw))
	for i, r := range raw {
		if missing := r.missing(); len(missing) > 0 {
			return nil, fmt.Errorf("%w: step %d is missing %s", ErrInvalidResponse, i, strings.Join(missing, ", "))
		}
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: step %d has an empty title", ErrInvalidResponse, i)
		}
		priority, err := model.ParsePriority(*r.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidResponse, i, err)
		}

		steps = append(steps, model.InvestigationStep{
			ID:          newID(),
			Title:       title,
			Description: strings.TrimSpace(*r.Description),
			LegalBasis:  strings.TrimSpace(*r.LegalBasis),
			Priority:    priority,
			Completed:   false,
		})
	}
	return steps, nil
}

func (r rawStep) missing() []string {
	var out []string
	if r.Title == nil {
		out = append(out, fieldTitle)
	}
	if r.Description == nil {
		out = append(out, fieldDescription)
	}
	if r.LegalBasis == nil {
		out = append(out, fieldLegalBasis)
	}
	if r.Priority == nil {
		out = append(out, fieldPriority)
	}
	return out
}

// Usable reports whether resp can be turned into a result for req: a
// structured reply must decode into steps, a draft must hold text.
// Anything else is worth asking the provider again.
func Usable(req llm.Request, resp *llm.Response) bool {
	if req.Schema == nil {
		return strings.TrimSpace(resp.Text) != ""
	}
	_, err := decodeSteps(resp.Text, func() string { return "" })
	return err == nil && strings.TrimSpace(resp.Text) != ""
}

package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CaseData represents one investigation file and its ordered roadmap.
// The JSON layout matches the document persisted by the case store.
type CaseData struct {
	ID            string              `json:"id"`
	Infraction    string              `json:"infraction"`    // Short description of the offense
	Category      Category            `json:"category"`      // Offense class
	ModusOperandi string              `json:"modusOperandi"` // Observed modus operandi narrative
	Steps         []InvestigationStep `json:"steps"`         // Insertion order is the procedural order
	Status        Status              `json:"currentStatus"`
	CreatedAt     Millis              `json:"createdAt"`
	UpdatedAt     Millis              `json:"updatedAt"`
}

// InvestigationStep is one procedural action of a case checklist
type InvestigationStep struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	LegalBasis  string   `json:"legalBasis"` // Article of the penal code or procedure code
	Priority    Priority `json:"priority"`
	Completed   bool     `json:"completed"`
	Result      string   `json:"result,omitempty"` // Observed result, set when completed
}

// Priority ranks an investigation step
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HAUTE"
	PriorityNormal Priority = "NORMALE"
)

// Priorities lists every priority in display order
func Priorities() []Priority {
	return []Priority{PriorityUrgent, PriorityHigh, PriorityNormal}
}

// ParsePriority maps a label onto the closed priority enumeration.
// English labels (HIGH, NORMAL) are accepted as aliases.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "URGENT":
		return PriorityUrgent, nil
	case "HAUTE", "HIGH":
		return PriorityHigh, nil
	case "NORMALE", "NORMAL":
		return PriorityNormal, nil
	default:
		return "", fmt.Errorf("unknown priority: %q (supported: URGENT, HAUTE, NORMALE)", s)
	}
}

// Category classifies the offense of a case
type Category string

const (
	CategoryProperty   Category = "Atteinte aux biens"
	CategoryPersons    Category = "Atteinte aux personnes"
	CategoryNarcotics  Category = "Stupéfiants"
	CategoryCyber      Category = "Cybercriminalité"
	CategoryRoadSafety Category = "Sécurité Routière"
	CategoryOther      Category = "Autre"
)

var categoryKeys = map[string]Category{
	"biens":       CategoryProperty,
	"personnes":   CategoryPersons,
	"stupefiants": CategoryNarcotics,
	"cyber":       CategoryCyber,
	"routier":     CategoryRoadSafety,
	"autre":       CategoryOther,
}

// Categories lists every category in display order
func Categories() []Category {
	return []Category{
		CategoryProperty,
		CategoryPersons,
		CategoryNarcotics,
		CategoryCyber,
		CategoryRoadSafety,
		CategoryOther,
	}
}

// ParseCategory accepts a full category label or its short key
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	if c, ok := categoryKeys[strings.ToLower(trimmed)]; ok {
		return c, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q (supported: biens, personnes, stupefiants, cyber, routier, autre)", s)
}

// Status is the lifecycle state of a case
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Label returns the French display label
func (s Status) Label() string {
	switch s {
	case StatusCompleted:
		return "Clôturé"
	case StatusDraft:
		return "Brouillon"
	default:
		return "Actif"
	}
}

// Millis is a timestamp persisted as Unix milliseconds
type Millis int64

// MillisOf converts a time to Millis
func MillisOf(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time converts back to a time.Time
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// CompletedCount returns how many steps are completed
func (c *CaseData) CompletedCount() int {
	count := 0
	for _, s := range c.Steps {
		if s.Completed {
			count++
		}
	}
	return count
}

// Progress returns the rounded completion percentage (0-100)
func (c *CaseData) Progress() int {
	total := len(c.Steps)
	if total == 0 {
		total = 1
	}
	return int(math.Round(float64(c.CompletedCount()) / float64(total) * 100))
}

// StepIndex returns the index of the step with the given ID, or -1
func (c *CaseData) StepIndex(stepID string) int {
	for i, s := range c.Steps {
		if s.ID == stepID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers cannot alias the store's steps
func (c CaseData) Clone() CaseData {
	steps := make([]InvestigationStep, len(c.Steps))
	copy(steps, c.Steps)
	c.Steps = steps
	return c
}

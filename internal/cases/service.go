// Package cases owns the case list. It is the only writer of the store.
package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/enquete/internal/model"
	"github.com/ppiankov/enquete/internal/store"
)

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrStepNotFound = errors.New("step not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ManualLegalBasis is recorded for manual steps entered without a legal basis
const ManualLegalBasis = "N.C."

// Service keeps the cases newest first and persists after every mutation
type Service struct {
	mu     sync.Mutex
	repo   store.Repository
	cases  []model.CaseData
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDSource replaces the case and step ID generator
func WithIDSource(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService loads the stored cases from repo
func NewService(ctx context.Context, repo store.Repository, opts ...Option) (*Service, error) {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	s.cases = loaded
	s.logger.Debug("cases loaded", zap.Int("count", len(loaded)))
	return s, nil
}

// NewStep creates a step record with a fresh ID
func (s *Service) NewStep(title, description, legalBasis string, priority model.Priority) model.InvestigationStep {
	return model.InvestigationStep{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		LegalBasis:  legalBasis,
		Priority:    priority,
	}
}

// Create stores a new active case in front of the list
func (s *Service) Create(ctx context.Context, infraction string, category model.Category, modusOperandi string, steps []model.InvestigationStep) (model.CaseData, error) {
	infraction = strings.TrimSpace(infraction)
	modusOperandi = strings.TrimSpace(modusOperandi)
	if infraction == "" || modusOperandi == "" {
		return model.CaseData{}, fmt.Errorf("%w: infraction and modus operandi are required", ErrInvalidInput)
	}
	if category == "" {
		category = model.CategoryOther
	}
	if _, err := model.ParseCategory(string(category)); err != nil {
		return model.CaseData{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	admitted, err := s.admitSteps(steps)
	if err != nil {
		return model.CaseData{}, err
	}

	now := model.MillisOf(s.now())
	c := model.CaseData{
		ID:            s.newID(),
		Infraction:    infraction,
		Category:      category,
		ModusOperandi: modusOperandi,
		Steps:         admitted,
		Status:        model.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	next := append([]model.CaseData{c}, s.cases...)
	if err := s.commit(ctx, next); err != nil {
		return model.CaseData{}, err
	}
	s.logger.Info("case created", zap.String("case_id", c.ID), zap.Int("steps", len(c.Steps)))
	return c.Clone(), nil
}

// List returns a copy of every case, newest first
func (s *Service) List() []model.CaseData {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.CaseData, len(s.cases))
	for i, c := range s.cases {
		out[i] = c.Clone()
	}
	return out
}

// Get returns a copy of one case
func (s *Service) Get(id string) (model.CaseData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return model.CaseData{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}
	return s.cases[i].Clone(), nil
}

// Delete removes a case and its steps
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}

	next := make([]model.CaseData, 0, len(s.cases)-1)
	next = append(next, s.cases[:i]...)
	next = append(next, s.cases[i+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logger.Info("case deleted", zap.String("case_id", id))
	return nil
}

// ToggleArchive flips a completed case back to active and anything else to completed
func (s *Service) ToggleArchive(ctx context.Context, id string) (model.CaseData, error) {
	return s.update(ctx, id, func(c *model.CaseData) error {
		if c.Status == model.StatusCompleted {
			c.Status = model.StatusActive
		} else {
			c.Status = model.StatusCompleted
		}
		return nil
	})
}

// AddManualStep appends a user-entered step
func (s *Service) AddManualStep(ctx context.Context, id, title, description, legalBasis string, priority model.Priority) (model.CaseData, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.CaseData{}, fmt.Errorf("%w: a step title is required", ErrInvalidInput)
	}
	if priority == "" {
		priority = model.PriorityNormal
	}
	p, err := model.ParsePriority(string(priority))
	if err != nil {
		return model.CaseData{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	legalBasis = strings.TrimSpace(legalBasis)
	if legalBasis == "" {
		legalBasis = ManualLegalBasis
	}

	step := s.NewStep(title, strings.TrimSpace(description), legalBasis, p)
	return s.update(ctx, id, func(c *model.CaseData) error {
		admitted, err := s.admitSteps([]model.InvestigationStep{step})
		if err != nil {
			return err
		}
		c.Steps = append(c.Steps, admitted...)
		return nil
	})
}

// CompleteStep marks a step done and records its result
func (s *Service) CompleteStep(ctx context.Context, caseID, stepID, result string) (model.CaseData, error) {
	result = strings.TrimSpace(result)
	if result == "" {
		return model.CaseData{}, fmt.Errorf("%w: a result is required to complete a step", ErrInvalidInput)
	}

	return s.update(ctx, caseID, func(c *model.CaseData) error {
		i := c.StepIndex(stepID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
		}
		c.Steps[i].Completed = true
		c.Steps[i].Result = result
		return nil
	})
}

// AppendSteps adds generated steps at the end of the roadmap, in order
func (s *Service) AppendSteps(ctx context.Context, id string, steps []model.InvestigationStep) (model.CaseData, error) {
	return s.update(ctx, id, func(c *model.CaseData) error {
		admitted, err := s.admitSteps(steps)
		if err != nil {
			return err
		}
		c.Steps = append(c.Steps, admitted...)
		return nil
	})
}

// admitSteps checks incoming steps before they join a case: each needs an ID
// unused by any stored step and a priority from the closed set. It returns
// copies with canonical priorities. Caller holds s.mu.
func (s *Service) admitSteps(steps []model.InvestigationStep) ([]model.InvestigationStep, error) {
	taken := make(map[string]bool)
	for _, c := range s.cases {
		for _, st := range c.Steps {
			taken[st.ID] = true
		}
	}

	out := make([]model.InvestigationStep, 0, len(steps))
	for _, st := range steps {
		if st.ID == "" {
			return nil, fmt.Errorf("%w: step %q has no ID", ErrInvalidInput, st.Title)
		}
		if taken[st.ID] {
			return nil, fmt.Errorf("%w: step ID %s is already in use", ErrInvalidInput, st.ID)
		}
		p, err := model.ParsePriority(string(st.Priority))
		if err != nil {
			return nil, fmt.Errorf("%w: step %s: %v", ErrInvalidInput, st.ID, err)
		}
		st.Priority = p
		taken[st.ID] = true
		out = append(out, st)
	}
	return out, nil
}

// Filter returns the cases whose infraction, modus operandi or category
// contains query (case-insensitive). An empty status matches every status.
func (s *Service) Filter(query string, status model.Status) []model.CaseData {
	q := strings.ToLower(strings.TrimSpace(query))

	var out []model.CaseData
	for _, c := range s.List() {
		if status != "" && c.Status != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Infraction), q) &&
			!strings.Contains(strings.ToLower(c.ModusOperandi), q) &&
			!strings.Contains(strings.ToLower(string(c.Category)), q) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// update applies fn to a copy of the case and commits it with a fresh updatedAt
func (s *Service) update(ctx context.Context, id string, fn func(*model.CaseData) error) (model.CaseData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return model.CaseData{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}

	c := s.cases[i].Clone()
	if err := fn(&c); err != nil {
		return model.CaseData{}, err
	}

	now := model.MillisOf(s.now())
	if now < c.CreatedAt {
		now = c.CreatedAt
	}
	c.UpdatedAt = now

	next := make([]model.CaseData, len(s.cases))
	copy(next, s.cases)
	next[i] = c
	if err := s.commit(ctx, next); err != nil {
		return model.CaseData{}, err
	}
	return c.Clone(), nil
}

// commit saves next and adopts it only when the save succeeded
func (s *Service) commit(ctx context.Context, next []model.CaseData) error {
	if err := s.repo.Save(ctx, next); err != nil {
		s.logger.Error("failed to save cases", zap.Error(err))
		return fmt.Errorf("save cases: %w", err)
	}
	s.cases = next
	return nil
}

func (s *Service) index(id string) int {
	for i, c := range s.cases {
		if c.ID == id {
			return i
		}
	}
	return -1
}

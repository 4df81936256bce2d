// Package plan turns case data into generation requests and generation
// responses into investigation steps.
package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/enquete/internal/generator"
	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/model"
)

// Planner runs the plan, suggestion and draft operations
type Planner struct {
	gen   generator.Generator
	model string
	newID func() string
}

// Option configures a Planner
type Option func(*Planner)

// WithIDSource replaces the step ID generator
func WithIDSource(newID func() string) Option {
	return func(p *Planner) { p.newID = newID }
}

// New creates a planner. An empty modelName leaves the choice to the provider config.
func New(gen generator.Generator, modelName string, opts ...Option) *Planner {
	p := &Planner{
		gen:   gen,
		model: modelName,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GeneratePlan proposes the initial roadmap for an infraction
func (p *Planner) GeneratePlan(ctx context.Context, infraction, modusOperandi string) ([]model.InvestigationStep, error) {
	resp, err := p.gen.Generate(ctx, llm.Request{
		Model:             p.model,
		Prompt:            planPrompt(infraction, modusOperandi),
		SystemInstruction: SystemPrompt,
		Schema:            StepSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	steps, err := decodeSteps(resp.Text, p.newID)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	return steps, nil
}

// SuggestNextSteps proposes follow-up steps from the results of completed ones
func (p *Planner) SuggestNextSteps(ctx context.Context, infraction string, steps []model.InvestigationStep) ([]model.InvestigationStep, error) {
	resp, err := p.gen.Generate(ctx, llm.Request{
		Model:             p.model,
		Prompt:            suggestPrompt(infraction, steps),
		SystemInstruction: SystemPrompt,
		Schema:            StepSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest next steps: %w", err)
	}

	next, err := decodeSteps(resp.Text, p.newID)
	if err != nil {
		return nil, fmt.Errorf("suggest next steps: %w", err)
	}
	return next, nil
}

// DraftDocument writes a procès-verbal draft for one step
func (p *Planner) DraftDocument(ctx context.Context, step model.InvestigationStep, infraction, modusOperandi string) (string, error) {
	resp, err := p.gen.Generate(ctx, llm.Request{
		Model:             p.model,
		Prompt:            draftPrompt(step, infraction, modusOperandi),
		SystemInstruction: SystemPrompt + DraftStyle,
	})
	if err != nil {
		return "", fmt.Errorf("draft document: %w", err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return DraftFallback, nil
	}
	return resp.Text, nil
}

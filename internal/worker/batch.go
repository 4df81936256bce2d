package worker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/enquete/internal/model"
)

// Planner generates the initial roadmap for a case
type Planner interface {
	GeneratePlan(ctx context.Context, infraction, modusOperandi string) ([]model.InvestigationStep, error)
}

// CaseRequest is one entry of a batch import file
type CaseRequest struct {
	Infraction    string `yaml:"infraction"`
	Category      string `yaml:"category"`
	ModusOperandi string `yaml:"modus"`
}

// ImportResult holds the generated steps for one case request
type ImportResult struct {
	Index   int
	Request CaseRequest
	Steps   []model.InvestigationStep
	Error   error
}

// BatchProcessor generates plans for many case requests concurrently
type BatchProcessor struct {
	planner     Planner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(planner Planner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		planner:     planner,
		concurrency: concurrency,
	}
}

// Process generates a plan per request. Results keep the input order.
func (b *BatchProcessor) Process(ctx context.Context, requests []CaseRequest) []*ImportResult {
	if len(requests) == 0 {
		return []*ImportResult{}
	}

	pool := NewPool[*ImportResult](ctx, b.concurrency)

	go func() {
		defer pool.Close()
		for i, req := range requests {
			if err := pool.Submit(b.planTask(i, req)); err != nil {
				return
			}
		}
	}()

	out := make([]*ImportResult, 0, len(requests))
	for result := range pool.Results() {
		out = append(out, result)
	}

	// Jobs dropped by a cancelled context still get a result
	if len(out) < len(requests) {
		done := make(map[int]bool, len(out))
		for _, r := range out {
			done[r.Index] = true
		}
		for i, req := range requests {
			if !done[i] {
				err := ctx.Err()
				if err == nil {
					err = ErrPoolClosed
				}
				out = append(out, &ImportResult{Index: i, Request: req, Error: err})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (b *BatchProcessor) planTask(index int, req CaseRequest) Task[*ImportResult] {
	return func(ctx context.Context) *ImportResult {
		steps, err := b.planner.GeneratePlan(ctx, req.Infraction, req.ModusOperandi)
		return &ImportResult{Index: index, Request: req, Steps: steps, Error: err}
	}
}

// ProcessFile reads case requests from a YAML file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ImportResult, error) {
	requests, err := ReadRequestsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}

	return b.Process(ctx, requests), nil
}

type batchFile struct {
	Cases []CaseRequest `yaml:"cases"`
}

// ReadRequestsFromFile reads the `cases:` list of a YAML file. Entries
// without an infraction are skipped and duplicates are dropped.
func ReadRequestsFromFile(filePath string) ([]CaseRequest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	var requests []CaseRequest
	seen := make(map[string]bool)

	for _, req := range file.Cases {
		req.Infraction = strings.TrimSpace(req.Infraction)
		req.Category = strings.TrimSpace(req.Category)
		req.ModusOperandi = strings.TrimSpace(req.ModusOperandi)

		if req.Infraction == "" {
			continue
		}

		key := req.Infraction + "\x00" + req.ModusOperandi
		if !seen[key] {
			seen[key] = true
			requests = append(requests, req)
		}
	}

	return requests, nil
}

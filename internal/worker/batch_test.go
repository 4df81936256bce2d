package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/enquete/internal/model"
)

type mockPlanner struct {
	fail map[string]bool
}

func (m *mockPlanner) GeneratePlan(ctx context.Context, infraction, modus string) ([]model.InvestigationStep, error) {
	time.Sleep(5 * time.Millisecond)
	if m.fail[infraction] {
		return nil, errors.New("generation failed")
	}
	return []model.InvestigationStep{
		{ID: infraction + "-1", Title: "Constatations", Priority: model.PriorityUrgent},
	}, nil
}

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_Process(t *testing.T) {
	processor := NewBatchProcessor(&mockPlanner{}, 2)

	requests := []CaseRequest{
		{Infraction: "Vol A", ModusOperandi: "effraction"},
		{Infraction: "Vol B", ModusOperandi: "ruse"},
		{Infraction: "Vol C", ModusOperandi: "arraché"},
	}

	results := processor.Process(context.Background(), requests)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Index != i || res.Request.Infraction != requests[i].Infraction {
			t.Errorf("result %d out of order: %+v", i, res.Request)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Request.Infraction, res.Error)
		}
		if len(res.Steps) != 1 {
			t.Errorf("expected 1 step for %s, got %d", res.Request.Infraction, len(res.Steps))
		}
	}
}

func TestBatchProcessor_Process_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockPlanner{fail: map[string]bool{"Vol B": true}}, 2)

	results := processor.Process(context.Background(), []CaseRequest{
		{Infraction: "Vol A"},
		{Infraction: "Vol B"},
	})

	if results[0].Error != nil {
		t.Errorf("expected success for first request, got %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error for second request")
	}
	if results[1].Steps != nil {
		t.Error("expected no steps on error")
	}
}

func TestBatchProcessor_Process_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockPlanner{}, 2)

	if results := processor.Process(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockPlanner{}, 1)
	results := processor.Process(ctx, []CaseRequest{{Infraction: "Vol A"}, {Infraction: "Vol B"}})

	if len(results) != 2 {
		t.Fatalf("expected a result per request, got %d", len(results))
	}
}

func TestReadRequestsFromFile(t *testing.T) {
	path := writeBatchFile(t, `cases:
  - infraction: "Vols sériels"
    category: biens
    modus: "M. Dupont a forcé 3 serrures"
  - infraction: "  "
    modus: ignored
  - infraction: Escroquerie
    modus: faux support technique
  - infraction: "Vols sériels"
    modus: "M. Dupont a forcé 3 serrures"
`)

	requests, err := ReadRequestsFromFile(path)
	if err != nil {
		t.Fatalf("ReadRequestsFromFile failed: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].Category != "biens" || requests[1].Infraction != "Escroquerie" {
		t.Errorf("unexpected requests: %+v", requests)
	}
}

func TestReadRequestsFromFile_Errors(t *testing.T) {
	if _, err := ReadRequestsFromFile("no_such_file.yaml"); err == nil {
		t.Error("expected error for non-existent file")
	}

	path := writeBatchFile(t, "cases: [unterminated")
	if _, err := ReadRequestsFromFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeBatchFile(t, "cases:\n  - infraction: Vol A\n  - infraction: Vol B\n")

	processor := NewBatchProcessor(&mockPlanner{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := processor.ProcessFile(context.Background(), "missing.yaml"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

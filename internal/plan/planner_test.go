package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/enquete/internal/cache"
	"github.com/ppiankov/enquete/internal/generator"
	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/model"
)

type fakeGenerator struct {
	text     string
	err      error
	requests []llm.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text}, nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("step-%d", n)
	}
}

const twoSteps = `[
	{"title": "Constatations", "description": "Relevés sur les lieux", "legalBasis": "Art. 54 CPP", "priority": "URGENT"},
	{"title": "Enquête de voisinage", "description": "Audition des riverains", "legalBasis": "Art. 62 CPP", "priority": "NORMALE"}
]`

func TestGeneratePlan_EndToEnd(t *testing.T) {
	gen := &fakeGenerator{text: twoSteps}
	p := New(gen, "gemini-3-flash-preview", WithIDSource(sequentialIDs()))

	steps, err := p.GeneratePlan(context.Background(), "Vols sériels", "M. Dupont a forcé 3 serrures")
	require.NoError(t, err)
	require.Len(t, steps, 2)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Contains(t, req.Prompt, "M. [NOM] a forcé 3 serrures")
	assert.NotContains(t, req.Prompt, "Dupont")
	assert.Contains(t, req.Prompt, `"Vols sériels"`)
	assert.Equal(t, SystemPrompt, req.SystemInstruction)
	assert.Same(t, StepSchema, req.Schema)
	assert.Equal(t, "gemini-3-flash-preview", req.Model)

	assert.Equal(t, "step-1", steps[0].ID)
	assert.Equal(t, "step-2", steps[1].ID)
	assert.Equal(t, model.PriorityUrgent, steps[0].Priority)
	assert.Equal(t, model.PriorityNormal, steps[1].Priority)
	for _, s := range steps {
		assert.False(t, s.Completed)
		assert.Empty(t, s.Result)
	}

	c := model.CaseData{Steps: steps}
	assert.Equal(t, 0, c.Progress())
}

func TestGeneratePlan_DefaultIDsAreUnique(t *testing.T) {
	p := New(&fakeGenerator{text: twoSteps}, "")

	steps, err := p.GeneratePlan(context.Background(), "Vol", "effraction")
	require.NoError(t, err)
	assert.NotEmpty(t, steps[0].ID)
	assert.NotEqual(t, steps[0].ID, steps[1].ID)
}

func TestGeneratePlan_EmptyResponse(t *testing.T) {
	p := New(&fakeGenerator{text: ""}, "")

	steps, err := p.GeneratePlan(context.Background(), "Vol", "effraction")
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestGeneratePlan_PropagatesErrors(t *testing.T) {
	quota := &llm.APIError{Provider: "gemini", StatusCode: 429}
	p := New(&fakeGenerator{err: quota}, "")

	_, err := p.GeneratePlan(context.Background(), "Vol", "effraction")
	require.Error(t, err)
	assert.True(t, llm.IsQuotaError(err))

	var apiErr *llm.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestDecodeSteps_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "Voici les étapes :"},
		{"object root", `{"title": "x"}`},
		{"missing legal basis", `[{"title": "x", "description": "y", "priority": "URGENT"}]`},
		{"missing priority", `[{"title": "x", "description": "y", "legalBasis": "z"}]`},
		{"empty title", `[{"title": " ", "description": "y", "legalBasis": "z", "priority": "URGENT"}]`},
		{"unknown priority", `[{"title": "x", "description": "y", "legalBasis": "z", "priority": "CRITIQUE"}]`},
		{"wrong type", `[{"title": 3, "description": "y", "legalBasis": "z", "priority": "URGENT"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSteps(tt.text, sequentialIDs())
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestDecodeSteps_PriorityAliases(t *testing.T) {
	steps, err := decodeSteps(`[
		{"title": "a", "description": "", "legalBasis": "", "priority": "HIGH"},
		{"title": "b", "description": "", "legalBasis": "", "priority": "normal"}
	]`, sequentialIDs())
	require.NoError(t, err)

	assert.Equal(t, model.PriorityHigh, steps[0].Priority)
	assert.Equal(t, model.PriorityNormal, steps[1].Priority)
}

func TestSuggestNextSteps_SummarizesCompletedOnly(t *testing.T) {
	gen := &fakeGenerator{text: `[{"title": "Garde à vue", "description": "d", "legalBasis": "Art. 63 CPP", "priority": "HAUTE"}]`}
	p := New(gen, "", WithIDSource(sequentialIDs()))

	current := []model.InvestigationStep{
		{ID: "a", Title: "Constatations", Completed: true, Result: "Traces laissées par Mme Martin"},
		{ID: "b", Title: "Vidéosurveillance", Completed: false},
		{ID: "c", Title: "Audition", Completed: true, Result: "Témoin formel"},
	}

	next, err := p.SuggestNextSteps(context.Background(), "Vols sériels", current)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, model.PriorityHigh, next[0].Priority)

	prompt := gen.requests[0].Prompt
	assert.Contains(t, prompt, "Acte: Constatations. Résultat: Traces laissées par Mme [NOM]\nActe: Audition. Résultat: Témoin formel")
	assert.NotContains(t, prompt, "Vidéosurveillance")
	assert.NotContains(t, prompt, "Martin")
	assert.Contains(t, prompt, "proposez les prochaines étapes logiques")
	assert.Same(t, StepSchema, gen.requests[0].Schema)
}

func TestSuggestNextSteps_NoCompletedSteps(t *testing.T) {
	gen := &fakeGenerator{text: "[]"}
	p := New(gen, "")

	next, err := p.SuggestNextSteps(context.Background(), "Vol", nil)
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Contains(t, gen.requests[0].Prompt, "Actes déjà réalisés et résultats :\n\n")
}

func TestDraftDocument(t *testing.T) {
	gen := &fakeGenerator{text: "L'an deux mille vingt-quatre..."}
	p := New(gen, "")

	step := model.InvestigationStep{Title: "Audition de M. Durand", LegalBasis: "Art. 61 CPP"}

	draft, err := p.DraftDocument(context.Background(), step, "Vols sériels", "M. Dupont a forcé 3 serrures")
	require.NoError(t, err)
	assert.Equal(t, "L'an deux mille vingt-quatre...", draft)

	req := gen.requests[0]
	assert.Nil(t, req.Schema, "drafts are free text")
	assert.True(t, strings.HasPrefix(req.SystemInstruction, SystemPrompt))
	assert.True(t, strings.HasSuffix(req.SystemInstruction, DraftStyle))
	assert.Contains(t, req.Prompt, "Préparez une trame de PV avant réalisation.")
	assert.NotContains(t, req.Prompt, "Durand")
	assert.NotContains(t, req.Prompt, "Dupont")
}

func TestDraftDocument_CompletedStep(t *testing.T) {
	gen := &fakeGenerator{text: "PV"}
	p := New(gen, "")

	step := model.InvestigationStep{Title: "Perquisition", Completed: true, Result: "Objets volés retrouvés chez Monsieur Leroy"}

	_, err := p.DraftDocument(context.Background(), step, "Recel", "")
	require.NoError(t, err)
	assert.Contains(t, gen.requests[0].Prompt, "L'acte a été réalisé. Résultats constatés : Objets volés retrouvés chez Monsieur [NOM]")
}

func TestDraftDocument_EmptyTextFallback(t *testing.T) {
	p := New(&fakeGenerator{text: "   "}, "")

	draft, err := p.DraftDocument(context.Background(), model.InvestigationStep{Title: "x"}, "Vol", "")
	require.NoError(t, err)
	assert.Equal(t, DraftFallback, draft)
}

func TestDraftDocument_Error(t *testing.T) {
	boom := errors.New("connection reset")
	p := New(&fakeGenerator{err: boom}, "")

	_, err := p.DraftDocument(context.Background(), model.InvestigationStep{Title: "x"}, "Vol", "")
	assert.ErrorIs(t, err, boom)
}

func TestStepSchema_Contract(t *testing.T) {
	require.Equal(t, llm.TypeArray, StepSchema.Type)
	item := StepSchema.Items
	assert.ElementsMatch(t, []string{"title", "description", "legalBasis", "priority"}, item.Required)
	assert.Equal(t, []string{"URGENT", "HAUTE", "NORMALE"}, item.Properties["priority"].Enum)
}

// replyQueue hands out replies in order and counts calls
type replyQueue struct {
	replies []string
	calls   int
}

func (q *replyQueue) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	text := q.replies[min(q.calls, len(q.replies)-1)]
	q.calls++
	return &llm.Response{Text: text}, nil
}

func cachedPlanner(q *replyQueue) *Planner {
	gen := generator.NewCached(q, cache.NewMemoryCache(time.Minute, 0), 0, nil, generator.AcceptIf(Usable))
	return New(gen, "", WithIDSource(sequentialIDs()))
}

func TestGeneratePlan_InvalidReplyNotCached(t *testing.T) {
	q := &replyQueue{replies: []string{"not json at all", twoSteps}}
	p := cachedPlanner(q)

	_, err := p.GeneratePlan(context.Background(), "Vols sériels", "effraction")
	require.ErrorIs(t, err, ErrInvalidResponse)

	steps, err := p.GeneratePlan(context.Background(), "Vols sériels", "effraction")
	require.NoError(t, err)
	assert.Len(t, steps, 2)
	assert.Equal(t, 2, q.calls)

	// A valid plan is served from the cache
	_, err = p.GeneratePlan(context.Background(), "Vols sériels", "effraction")
	require.NoError(t, err)
	assert.Equal(t, 2, q.calls)
}

func TestDraftDocument_BlankReplyNotCached(t *testing.T) {
	q := &replyQueue{replies: []string{"", "Procès-verbal"}}
	p := cachedPlanner(q)
	step := model.InvestigationStep{ID: "s1", Title: "Audition", Priority: model.PriorityHigh}

	first, err := p.DraftDocument(context.Background(), step, "Vol", "ruse")
	require.NoError(t, err)
	assert.Equal(t, DraftFallback, first)

	second, err := p.DraftDocument(context.Background(), step, "Vol", "ruse")
	require.NoError(t, err)
	assert.Equal(t, "Procès-verbal", second)
	assert.Equal(t, 2, q.calls)
}

func TestUsable(t *testing.T) {
	structured := llm.Request{Schema: StepSchema}
	assert.True(t, Usable(structured, &llm.Response{Text: twoSteps}))
	assert.False(t, Usable(structured, &llm.Response{Text: `[{"title":"x"}]`}))
	assert.False(t, Usable(structured, &llm.Response{Text: ""}))
	assert.True(t, Usable(llm.Request{}, &llm.Response{Text: "PV"}))
	assert.False(t, Usable(llm.Request{}, &llm.Response{Text: " \n"}))
}

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/enquete/internal/model"
)

func sampleCase() model.CaseData {
	return model.CaseData{
		ID:            "3f2a9c1e-7d4b-4e1a-9b0c-2d5e6f7a8b9c",
		Infraction:    "Vols sériels",
		Category:      model.CategoryProperty,
		ModusOperandi: "Effraction de serrures",
		Steps: []model.InvestigationStep{
			{ID: "s1", Title: "Constatations", Description: "Relevés sur les lieux", LegalBasis: "Art. 54 CPP", Priority: model.PriorityUrgent, Completed: true, Result: "Traces relevées"},
			{ID: "s2", Title: "Voisinage", LegalBasis: "Art. 62 CPP", Priority: model.PriorityNormal},
		},
		Status:    model.StatusActive,
		CreatedAt: 1714640400000,
		UpdatedAt: 1714644000000,
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).WriteMarkdown(&buf, sampleCase()))

	md := buf.String()
	assert.Contains(t, md, "# Vols sériels\n")
	assert.Contains(t, md, "- **Avancement** : 50% (1/2 actes)")
	assert.Contains(t, md, "- **Statut** : Actif")
	assert.Contains(t, md, "### 1. [x] Constatations `URGENT`")
	assert.Contains(t, md, "> **Résultat** : Traces relevées")
	assert.Contains(t, md, "### 2. [ ] Voisinage `NORMALE`")
	assert.Contains(t, md, footer)
}

func TestWriteMarkdown_NoStepsNoFooter(t *testing.T) {
	c := sampleCase()
	c.Steps = nil

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).WriteMarkdown(&buf, c))
	assert.Contains(t, buf.String(), "Aucun acte enregistré.")
	assert.Contains(t, buf.String(), "0% (0/0 actes)")
	assert.NotContains(t, buf.String(), footer)
}

func TestWriteJSON(t *testing.T) {
	r := NewRenderer(false)
	r.now = func() time.Time { return time.UnixMilli(1714650000000) }

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf, sampleCase()))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 50, doc.Progress)
	assert.Equal(t, 1, doc.Completed)
	assert.Equal(t, 2, doc.Total)
	assert.Equal(t, model.Millis(1714650000000), doc.ExportedAt)
	assert.Equal(t, sampleCase(), doc.Case)
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(true)

	jsonPath := filepath.Join(dir, "out", "case.json")
	mdPath := filepath.Join(dir, "out", "case.md")
	require.NoError(t, r.RenderJSON(sampleCase(), jsonPath))
	require.NoError(t, r.RenderMarkdown(sampleCase(), mdPath))

	for _, p := range []string{jsonPath, mdPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "vols-seriels-3f2a9c1e", Filename(sampleCase()))
	assert.Equal(t, "dossier", Filename(model.CaseData{Infraction: "???"}))
	assert.Equal(t, "escroquerie-a-la-carte-c1", Filename(model.CaseData{ID: "c1", Infraction: "Escroquerie à la carte!"}))
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/enquete/internal/cases"
	"github.com/ppiankov/enquete/internal/export"
	"github.com/ppiankov/enquete/internal/model"
	"github.com/ppiankov/enquete/internal/store"
)

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "none.yaml"), "--data-dir", dir, "--store", "file"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func openCases(t *testing.T, dir string) *cases.Service {
	t.Helper()
	repo := store.NewFileRepository(filepath.Join(dir, store.Key+".json"))
	svc, err := cases.NewService(context.Background(), repo)
	require.NoError(t, err)
	return svc
}

func TestCaseCommands(t *testing.T) {
	withEnv(t, map[string]string{})
	dir := t.TempDir()

	out, err := execute(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Aucun dossier en mémoire")

	c, err := openCases(t, dir).Create(context.Background(), "Vols sériels", model.CategoryProperty,
		"M. Dupont a forcé 3 serrures", []model.InvestigationStep{
			{ID: "s1", Title: "Audition du plaignant", LegalBasis: "Art. 61 CPP", Priority: model.PriorityHigh},
		})
	require.NoError(t, err)

	out, err = execute(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Vols sériels")
	assert.Contains(t, out, c.ID)

	out, err = execute(t, dir, "show", c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Audition du plaignant")
	assert.Contains(t, out, "[HAUTE]")

	_, err = execute(t, dir, "step", "complete", c.ID, "s1", "--result", "Plainte enregistrée")
	require.NoError(t, err)

	_, err = execute(t, dir, "step", "add", c.ID, "--title", "Perquisition", "--priority", "URGENT")
	require.NoError(t, err)

	got, err := openCases(t, dir).Get(c.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	assert.True(t, got.Steps[0].Completed)
	assert.Equal(t, "Plainte enregistrée", got.Steps[0].Result)
	assert.Equal(t, "Perquisition", got.Steps[1].Title)
	assert.Equal(t, cases.ManualLegalBasis, got.Steps[1].LegalBasis)
	assert.Equal(t, model.PriorityUrgent, got.Steps[1].Priority)

	_, err = execute(t, dir, "archive", c.ID)
	require.NoError(t, err)

	out, err = execute(t, dir, "list", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Vols sériels")

	exportDir := t.TempDir()
	_, err = execute(t, dir, "export", c.ID, "--md", "--dir", exportDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(exportDir, export.Filename(got)+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Perquisition")

	_, err = execute(t, dir, "delete", c.ID, "--yes")
	require.NoError(t, err)
	assert.Empty(t, openCases(t, dir).List())
}

func TestCommandErrors(t *testing.T) {
	withEnv(t, map[string]string{})
	dir := t.TempDir()

	_, err := execute(t, dir, "show", "missing")
	assert.ErrorIs(t, err, cases.ErrCaseNotFound)

	_, err = execute(t, dir, "list", "--status", "closed")
	assert.Error(t, err)

	_, err = execute(t, dir, "step", "add", "missing", "--title", "X", "--priority", "LOW")
	assert.Error(t, err)
}

// Package export renders a case roadmap to JSON or Markdown files
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/enquete/internal/model"
)

const footer = "_Document de travail généré par enquete. À vérifier et compléter par l'OPJ avant tout usage procédural._"

// Renderer writes case roadmaps
type Renderer struct {
	includeFooter bool
	now           func() time.Time
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, now: time.Now}
}

// Document is the JSON export layout
type Document struct {
	Case       model.CaseData `json:"case"`
	Progress   int            `json:"progress"`
	Completed  int            `json:"completedSteps"`
	Total      int            `json:"totalSteps"`
	ExportedAt model.Millis   `json:"exportedAt"`
}

// WriteJSON writes the JSON export of c to w
func (r *Renderer) WriteJSON(w io.Writer, c model.CaseData) error {
	doc := Document{
		Case:       c,
		Progress:   c.Progress(),
		Completed:  c.CompletedCount(),
		Total:      len(c.Steps),
		ExportedAt: model.MillisOf(r.now()),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode case: %w", err)
	}
	return nil
}

// WriteMarkdown writes the Markdown roadmap of c to w
func (r *Renderer) WriteMarkdown(w io.Writer, c model.CaseData) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", c.Infraction)
	fmt.Fprintf(&b, "- **Catégorie** : %s\n", c.Category)
	fmt.Fprintf(&b, "- **Statut** : %s\n", c.Status.Label())
	fmt.Fprintf(&b, "- **Avancement** : %d%% (%d/%d actes)\n", c.Progress(), c.CompletedCount(), len(c.Steps))
	fmt.Fprintf(&b, "- **Ouvert le** : %s\n", formatDate(c.CreatedAt))
	fmt.Fprintf(&b, "- **Mis à jour le** : %s\n\n", formatDate(c.UpdatedAt))

	b.WriteString("## Mode opératoire\n\n")
	b.WriteString(strings.TrimSpace(c.ModusOperandi))
	b.WriteString("\n\n## Feuille de route\n\n")

	if len(c.Steps) == 0 {
		b.WriteString("Aucun acte enregistré.\n\n")
	}
	for i, s := range c.Steps {
		mark := "[ ]"
		if s.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "### %d. %s %s `%s`\n\n", i+1, mark, s.Title, s.Priority)
		fmt.Fprintf(&b, "*Base légale* : %s\n\n", s.LegalBasis)
		if d := strings.TrimSpace(s.Description); d != "" {
			b.WriteString(d)
			b.WriteString("\n\n")
		}
		if s.Completed && s.Result != "" {
			fmt.Fprintf(&b, "> **Résultat** : %s\n\n", s.Result)
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(footer)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the JSON export of c to path
func (r *Renderer) RenderJSON(c model.CaseData, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, c) })
}

// RenderMarkdown writes the Markdown roadmap of c to path
func (r *Renderer) RenderMarkdown(c model.CaseData, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, c) })
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return write(f)
}

func formatDate(m model.Millis) string {
	if m == 0 {
		return "-"
	}
	return m.Time().Local().Format("02/01/2006 15:04")
}

// Filename turns a case into a safe file base name
func Filename(c model.CaseData) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(c.Infraction) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case strings.ContainsRune("àâä", r):
			b.WriteRune('a')
			lastDash = false
		case strings.ContainsRune("éèêë", r):
			b.WriteRune('e')
			lastDash = false
		case strings.ContainsRune("îï", r):
			b.WriteRune('i')
			lastDash = false
		case strings.ContainsRune("ôö", r):
			b.WriteRune('o')
			lastDash = false
		case strings.ContainsRune("ùûü", r):
			b.WriteRune('u')
			lastDash = false
		case r == 'ç':
			b.WriteRune('c')
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}

	name := strings.Trim(b.String(), "-")
	if len(name) > 60 {
		name = strings.Trim(name[:60], "-")
	}
	if name == "" {
		name = "dossier"
	}

	id := c.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return name
	}
	return name + "-" + id
}

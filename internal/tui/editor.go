package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/enquete/internal/app"
	"github.com/ppiankov/enquete/internal/model"
)

const (
	focusInfraction = iota
	focusCategory
	focusModus
	editorFields
)

func (m *Model) resetEditor() {
	m.infraction.SetValue("")
	m.modus.Reset()
	m.category = 0
	m.editorFocus = focusInfraction
}

func (m *Model) focusEditor(field int) tea.Cmd {
	m.editorFocus = field
	m.infraction.Blur()
	m.modus.Blur()
	switch field {
	case focusInfraction:
		return m.infraction.Focus()
	case focusModus:
		return m.modus.Focus()
	}
	return nil
}

func (m *Model) form() app.CaseForm {
	return app.CaseForm{
		Infraction:    strings.TrimSpace(m.infraction.Value()),
		Category:      model.Categories()[m.category],
		ModusOperandi: strings.TrimSpace(m.modus.Value()),
	}
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.transition(app.Back(m.state))
		return nil
	case "tab":
		return m.focusEditor((m.editorFocus + 1) % editorFields)
	case "shift+tab":
		return m.focusEditor((m.editorFocus + editorFields - 1) % editorFields)
	case "ctrl+s":
		return m.submitCase()
	case "enter":
		if m.editorFocus != focusModus {
			return m.submitCase()
		}
	}

	if m.pending.Busy(app.ActionPlan) {
		return nil
	}

	var cmd tea.Cmd
	switch m.editorFocus {
	case focusInfraction:
		m.infraction, cmd = m.infraction.Update(msg)
	case focusCategory:
		n := len(model.Categories())
		switch msg.String() {
		case "right", "l", " ":
			m.category = (m.category + 1) % n
		case "left", "h":
			m.category = (m.category + n - 1) % n
		}
	case focusModus:
		m.modus, cmd = m.modus.Update(msg)
	}
	return cmd
}

func (m *Model) submitCase() tea.Cmd {
	form := m.form()
	if form.Infraction == "" || form.ModusOperandi == "" {
		m.flash = "Renseignez l'infraction et le mode opératoire."
		return nil
	}
	if m.pending.Busy(app.ActionPlan) {
		m.flash = "Génération en cours..."
		return nil
	}

	m.state = app.Editor{Form: form}
	return m.begin(app.ActionPlan, m.planCmd(form))
}

func (m *Model) viewEditor() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Nouvelle Procédure"))
	b.WriteString("\n\n")

	b.WriteString(m.label("Nature de l'infraction", focusInfraction))
	b.WriteString(m.infraction.View())
	b.WriteString("\n\n")

	b.WriteString(m.label("Catégorie", focusCategory))
	fmt.Fprintf(&b, "‹ %s ›\n\n", model.Categories()[m.category])

	b.WriteString(m.label("Mode opératoire / Faits constatés", focusModus))
	b.WriteString(m.modus.View())
	b.WriteString("\n\n")

	if m.pending.Busy(app.ActionPlan) {
		b.WriteString(m.spinner.View() + " Génération de la trame d'enquête...")
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render("tab champ suivant · ←/→ catégorie · ctrl+s générer la trame · esc retour"))
	return b.String()
}

func (m *Model) label(text string, field int) string {
	if m.editorFocus == field {
		return m.styles.Focused.Render(text) + "\n"
	}
	return m.styles.Label.Render(text) + "\n"
}

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/enquete/internal/app"
	"github.com/ppiankov/enquete/internal/cases"
	"github.com/ppiankov/enquete/internal/model"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldLegal
	stepFieldCount
)

// focusPriority follows the text fields of the manual step form
const focusPriority = stepFieldCount

func (m *Model) updateRoadmap(msg tea.KeyMsg, st app.Roadmap) tea.Cmd {
	c, err := m.cases.Get(st.CaseID)
	if err != nil {
		// deleted behind our back
		m.transition(app.CaseDeleted(m.state, st.CaseID))
		return nil
	}
	m.stepCursor = clamp(m.stepCursor, len(c.Steps))

	switch mode := st.Mode.(type) {
	case app.EditingStep:
		return m.updateEditingStep(msg, c, mode)
	case app.AddingStep:
		return m.updateAddingStep(msg, c)
	case app.ViewingDraft:
		return m.updateDraft(msg, mode)
	}

	switch msg.String() {
	case "esc":
		m.transition(app.Back(m.state))
	case "up", "k":
		if m.stepCursor > 0 {
			m.stepCursor--
		}
	case "down", "j":
		if m.stepCursor < len(c.Steps)-1 {
			m.stepCursor++
		}
	case "c":
		if len(c.Steps) == 0 || c.Steps[m.stepCursor].Completed {
			return nil
		}
		if m.transition(app.BeginEditStep(m.state, c.Steps[m.stepCursor].ID)) {
			m.result.Reset()
			return m.result.Focus()
		}
	case "m":
		if m.transition(app.BeginManualAdd(m.state)) {
			for i := range m.stepFields {
				m.stepFields[i].SetValue("")
			}
			m.priority = priorityIndex(model.PriorityNormal)
			return m.focusStepField(fieldTitle)
		}
	case "s":
		return m.begin(app.ActionSuggest, m.suggestCmd(c))
	case "p":
		if len(c.Steps) == 0 {
			return nil
		}
		return m.begin(app.ActionDraft, m.draftCmd(c, c.Steps[m.stepCursor]))
	case "a":
		if _, err := m.cases.ToggleArchive(m.ctx, c.ID); err != nil {
			m.storageFailed(err)
		}
	}
	return nil
}

func (m *Model) updateEditingStep(msg tea.KeyMsg, c model.CaseData, mode app.EditingStep) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.result.Blur()
		m.transition(app.CancelMode(m.state))
		return nil
	case "enter", "ctrl+s":
		_, err := m.cases.CompleteStep(m.ctx, c.ID, mode.StepID, m.result.Value())
		if errors.Is(err, cases.ErrInvalidInput) {
			m.flash = "Saisissez le résultat de l'acte."
			return nil
		}
		if err != nil {
			m.storageFailed(err)
			return nil
		}
		m.result.Blur()
		m.transition(app.CancelMode(m.state))
		return nil
	}

	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return cmd
}

func (m *Model) focusStepField(field int) tea.Cmd {
	m.addFocus = field
	for i := range m.stepFields {
		m.stepFields[i].Blur()
	}
	if field < stepFieldCount {
		return m.stepFields[field].Focus()
	}
	return nil
}

func (m *Model) updateAddingStep(msg tea.KeyMsg, c model.CaseData) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.focusStepField(focusPriority)
		m.transition(app.CancelMode(m.state))
		return nil
	case "tab":
		return m.focusStepField((m.addFocus + 1) % (stepFieldCount + 1))
	case "shift+tab":
		return m.focusStepField((m.addFocus + stepFieldCount) % (stepFieldCount + 1))
	case "enter", "ctrl+s":
		priority := model.Priorities()[m.priority]
		_, err := m.cases.AddManualStep(m.ctx, c.ID,
			m.stepFields[fieldTitle].Value(),
			m.stepFields[fieldDescription].Value(),
			m.stepFields[fieldLegal].Value(),
			priority)
		if errors.Is(err, cases.ErrInvalidInput) {
			m.flash = "L'intitulé de l'acte est obligatoire."
			return nil
		}
		if err != nil {
			m.storageFailed(err)
			return nil
		}
		m.focusStepField(focusPriority)
		m.transition(app.CancelMode(m.state))
		m.stepCursor = len(c.Steps)
		return nil
	}

	if m.addFocus == focusPriority {
		n := len(model.Priorities())
		switch msg.String() {
		case "right", "l", " ":
			m.priority = (m.priority + 1) % n
		case "left", "h":
			m.priority = (m.priority + n - 1) % n
		}
		return nil
	}

	var cmd tea.Cmd
	m.stepFields[m.addFocus], cmd = m.stepFields[m.addFocus].Update(msg)
	return cmd
}

func (m *Model) updateDraft(msg tea.KeyMsg, mode app.ViewingDraft) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		m.draftText = ""
		m.transition(app.CancelMode(m.state))
		return nil
	case "y":
		if err := clipboard.WriteAll(mode.Content); err != nil {
			m.logger.Warn("clipboard unavailable")
			m.flash = "Copie impossible sur ce terminal."
			return nil
		}
		m.flash = "Copié !"
		return nil
	}

	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	return cmd
}

func priorityIndex(p model.Priority) int {
	for i, candidate := range model.Priorities() {
		if candidate == p {
			return i
		}
	}
	return len(model.Priorities()) - 1
}

// renderDraft formats a draft for the viewer, falling back to plain wrapping
func (m *Model) renderDraft(text string) string {
	width := max(m.draft.Width, 20)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.draftStyle),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if out, err := r.Render(text); err == nil {
			return out
		}
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func (m *Model) viewRoadmap(st app.Roadmap) string {
	c, err := m.cases.Get(st.CaseID)
	if err != nil {
		return m.styles.Muted.Render("Dossier introuvable.")
	}

	if mode, ok := st.Mode.(app.ViewingDraft); ok {
		return m.viewDraft(mode)
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(c.Infraction))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s · %s · mis à jour le %s\n",
		m.styles.Muted.Render(string(c.Category)), m.styles.Status(c.Status), formatDate(c.UpdatedAt))
	fmt.Fprintf(&b, "Avancement procédure %s %d%%\n\n", progressBar(c.Progress(), 24), c.Progress())
	b.WriteString(m.styles.Label.Render("Mode opératoire"))
	b.WriteString("\n")
	b.WriteString(c.ModusOperandi)
	b.WriteString("\n\n")

	if len(c.Steps) == 0 {
		b.WriteString(m.styles.Muted.Render("Aucun acte enregistré."))
		b.WriteString("\n")
	}
	cursor := clamp(m.stepCursor, len(c.Steps))
	for i, s := range c.Steps {
		b.WriteString(m.viewStep(i, s, i == cursor))
	}
	b.WriteString("\n")

	switch mode := st.Mode.(type) {
	case app.EditingStep:
		title := ""
		if i := c.StepIndex(mode.StepID); i >= 0 {
			title = c.Steps[i].Title
		}
		b.WriteString(m.styles.Panel.Render(
			m.styles.Label.Render("Résultat : "+title) + "\n" + m.result.View() + "\n" +
				m.styles.Help.Render("entrée valider l'acte · esc annuler")))
		return b.String()
	case app.AddingStep:
		b.WriteString(m.viewAddStep())
		return b.String()
	}

	if m.pending.Busy(app.ActionSuggest) {
		b.WriteString(m.spinner.View() + " Analyse des résultats...\n")
	}
	if m.pending.Busy(app.ActionDraft) {
		b.WriteString(m.spinner.View() + " Rédaction du PV...\n")
	}
	b.WriteString(m.styles.Help.Render("c valider · m acte manuel · s phase suivante · p rédiger PV · a archiver · esc retour"))
	return b.String()
}

func (m *Model) viewStep(i int, s model.InvestigationStep, selected bool) string {
	var b strings.Builder

	mark := "○"
	if s.Completed {
		mark = m.styles.Done.Render("✓")
	}
	title := m.styles.Title.Render(s.Title)
	if selected {
		title = m.styles.Selected.Render("▸ " + s.Title)
	}
	fmt.Fprintf(&b, "%s %2d. %s %s\n", mark, i+1, title, m.styles.Priority(s.Priority).Render(string(s.Priority)))
	fmt.Fprintf(&b, "      %s\n", m.styles.Muted.Render("§ "+s.LegalBasis))
	if s.Description != "" {
		fmt.Fprintf(&b, "      %s\n", s.Description)
	}
	if s.Completed && s.Result != "" {
		fmt.Fprintf(&b, "      %s %s\n", m.styles.Done.Render("Résultat :"), s.Result)
	}
	return b.String()
}

func (m *Model) viewAddStep() string {
	labels := [stepFieldCount]string{"Intitulé", "Description", "Base légale"}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Ajouter un acte manuel"))
	b.WriteString("\n")
	for i := range m.stepFields {
		style := m.styles.Label
		if m.addFocus == i {
			style = m.styles.Focused
		}
		b.WriteString(style.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(m.stepFields[i].View())
		b.WriteString("\n")
	}

	style := m.styles.Label
	if m.addFocus == focusPriority {
		style = m.styles.Focused
	}
	p := model.Priorities()[m.priority]
	b.WriteString(style.Render("Priorité"))
	fmt.Fprintf(&b, "\n‹ %s ›\n", m.styles.Priority(p).Render(string(p)))
	b.WriteString(m.styles.Help.Render("tab champ suivant · entrée ajouter · esc annuler"))
	return m.styles.Panel.Render(b.String())
}

func (m *Model) viewDraft(mode app.ViewingDraft) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Projet de PV : " + mode.Title))
	b.WriteString("\n")
	b.WriteString(m.draft.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("↑/↓ défiler · y copier · esc fermer"))
	return b.String()
}

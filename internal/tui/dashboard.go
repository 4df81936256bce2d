package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/enquete/internal/app"
	"github.com/ppiankov/enquete/internal/model"
)

var statusFilters = []model.Status{"", model.StatusActive, model.StatusCompleted}

func (m *Model) visibleCases(st app.Dashboard) []model.CaseData {
	return m.cases.Filter(st.Query, m.statusFilter)
}

func (m *Model) updateDashboard(msg tea.KeyMsg, st app.Dashboard) tea.Cmd {
	if m.searching {
		return m.updateSearch(msg)
	}

	list := m.visibleCases(st)
	m.cursor = clamp(m.cursor, len(list))

	if m.confirmDelete != "" {
		id := m.confirmDelete
		m.confirmDelete = ""
		if msg.String() != "y" {
			return nil
		}
		if err := m.cases.Delete(m.ctx, id); err != nil {
			m.storageFailed(err)
			return nil
		}
		m.transition(app.CaseDeleted(m.state, id))
		m.cursor = clamp(m.cursor, len(list)-1)
		return nil
	}

	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	case "n":
		if m.transition(app.OpenEditor(m.state)) {
			m.resetEditor()
			return m.focusEditor(0)
		}
	case "enter":
		if len(list) == 0 {
			return nil
		}
		if m.transition(app.OpenCase(m.state, list[m.cursor].ID)) {
			m.stepCursor = 0
		}
	case "a":
		if len(list) == 0 {
			return nil
		}
		if _, err := m.cases.ToggleArchive(m.ctx, list[m.cursor].ID); err != nil {
			m.storageFailed(err)
		}
	case "d":
		if len(list) > 0 {
			m.confirmDelete = list[m.cursor].ID
		}
	case "f":
		m.statusFilter = nextStatus(m.statusFilter)
		m.cursor = 0
	case "/":
		m.searching = true
		m.search.SetValue(st.Query)
		return m.search.Focus()
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.state = app.Dashboard{}
		m.cursor = 0
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.state = app.Dashboard{Query: m.search.Value()}
	m.cursor = 0
	return cmd
}

func nextStatus(s model.Status) model.Status {
	for i, f := range statusFilters {
		if f == s {
			return statusFilters[(i+1)%len(statusFilters)]
		}
	}
	return ""
}

func (m *Model) viewDashboard(st app.Dashboard) string {
	var b strings.Builder
	list := m.visibleCases(st)

	title := fmt.Sprintf("Dossiers en cours (%d)", len(list))
	if m.statusFilter != "" {
		title += " · " + m.statusFilter.Label()
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	if m.searching || st.Query != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(list) == 0 {
		b.WriteString(m.styles.Muted.Render("Aucun dossier en mémoire"))
		b.WriteString("\n")
	}

	cursor := clamp(m.cursor, len(list))
	for i, c := range list {
		marker := "  "
		name := m.styles.Title.Render(c.Infraction)
		if i == cursor {
			marker = m.styles.Selected.Render("▸ ")
			name = m.styles.Selected.Render(c.Infraction)
		}
		fmt.Fprintf(&b, "%s%s\n", marker, name)
		fmt.Fprintf(&b, "    %s · %s · %s %d%% · %s\n",
			m.styles.Muted.Render(string(c.Category)),
			m.styles.Status(c.Status),
			progressBar(c.Progress(), 16), c.Progress(),
			m.styles.Muted.Render(formatDate(c.UpdatedAt)))
	}

	b.WriteString("\n")
	if m.confirmDelete != "" {
		b.WriteString(m.styles.Urgent.Render("Supprimer définitivement ce dossier stocké localement ? (y/N)"))
		return b.String()
	}
	b.WriteString(m.styles.Help.Render("n nouveau · entrée ouvrir · a archiver · d supprimer · / rechercher · f statut · q quitter"))
	return b.String()
}

// clamp keeps a cursor inside a list of n items
func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatDate(ms model.Millis) string {
	return ms.Time().Local().Format("02/01/2006 15:04")
}

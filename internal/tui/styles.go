package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/enquete/internal/model"
)

var (
	navy    = lipgloss.Color("#1E3A5F")
	slate   = lipgloss.Color("#64748B")
	light   = lipgloss.Color("#F1F5F9")
	red     = lipgloss.Color("#DC2626")
	amber   = lipgloss.Color("#D97706")
	blue    = lipgloss.Color("#2563EB")
	green   = lipgloss.Color("#16A34A")
	magenta = lipgloss.Color("#9333EA")
)

// Styles groups every style used by the views
type Styles struct {
	Header    lipgloss.Style
	Banner    lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Done      lipgloss.Style
	Archived  lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
	Help      lipgloss.Style
	Quota     lipgloss.Style
	Technical lipgloss.Style
	Panel     lipgloss.Style
	Urgent    lipgloss.Style
	High      lipgloss.Style
	Normal    lipgloss.Style
}

// DefaultStyles returns the application palette
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(light).Background(navy).Padding(0, 1),
		Banner:    lipgloss.NewStyle().Foreground(slate).Italic(true),
		Title:     lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(slate),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(blue),
		Done:      lipgloss.NewStyle().Foreground(green),
		Archived:  lipgloss.NewStyle().Foreground(magenta),
		Label:     lipgloss.NewStyle().Foreground(slate).Bold(true),
		Focused:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		Help:      lipgloss.NewStyle().Foreground(slate),
		Quota:     lipgloss.NewStyle().Foreground(light).Background(amber).Padding(0, 1),
		Technical: lipgloss.NewStyle().Foreground(light).Background(red).Padding(0, 1),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(slate).Padding(0, 1),
		Urgent:    lipgloss.NewStyle().Bold(true).Foreground(red),
		High:      lipgloss.NewStyle().Foreground(amber),
		Normal:    lipgloss.NewStyle().Foreground(blue),
	}
}

// Priority returns the badge style of p
func (s Styles) Priority(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityUrgent:
		return s.Urgent
	case model.PriorityHigh:
		return s.High
	default:
		return s.Normal
	}
}

// Status renders the label of a case status
func (s Styles) Status(st model.Status) string {
	if st == model.StatusCompleted {
		return s.Archived.Render(st.Label())
	}
	return s.Done.Render(st.Label())
}

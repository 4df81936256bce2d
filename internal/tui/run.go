package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run starts the interface on the terminal and blocks until the user quits
func Run(ctx context.Context, m *Model) error {
	// Detect the background before the program owns the terminal
	if lipgloss.HasDarkBackground() {
		m.draftStyle = "dark"
	} else {
		m.draftStyle = "light"
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal interface: %w", err)
	}
	return nil
}

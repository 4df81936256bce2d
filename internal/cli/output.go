package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ppiankov/enquete/internal/model"
)

var (
	titleColor   = color.New(color.FgHiWhite, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
	doneColor    = color.New(color.FgGreen)
	urgentColor  = color.New(color.FgRed, color.Bold)
	highColor    = color.New(color.FgYellow)
	normalColor  = color.New(color.FgCyan)
	archiveColor = color.New(color.FgMagenta)
)

func priorityColor(p model.Priority) *color.Color {
	switch p {
	case model.PriorityUrgent:
		return urgentColor
	case model.PriorityHigh:
		return highColor
	default:
		return normalColor
	}
}

func statusText(s model.Status) string {
	if s == model.StatusCompleted {
		return archiveColor.Sprint(s.Label())
	}
	return doneColor.Sprint(s.Label())
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func formatUpdated(m model.Millis) string {
	return m.Time().Local().Format("02/01/2006 15:04")
}

// printCaseLine prints one row of the case list
func printCaseLine(w io.Writer, c model.CaseData) {
	fmt.Fprintf(w, "%s  %s\n", titleColor.Sprint(c.Infraction), mutedColor.Sprint(c.ID))
	fmt.Fprintf(w, "  %s · %s · %s %3d%% · %s\n",
		c.Category, statusText(c.Status), progressBar(c.Progress(), 20), c.Progress(), formatUpdated(c.UpdatedAt))
}

// printRoadmap prints a case and all of its steps
func printRoadmap(w io.Writer, c model.CaseData) {
	fmt.Fprintln(w, titleColor.Sprint(c.Infraction))
	fmt.Fprintf(w, "%s · %s · mis à jour le %s\n", c.Category, statusText(c.Status), formatUpdated(c.UpdatedAt))
	fmt.Fprintf(w, "Avancement procédure %s %d%% (%d/%d)\n\n", progressBar(c.Progress(), 30), c.Progress(), c.CompletedCount(), len(c.Steps))
	fmt.Fprintf(w, "%s\n%s\n\n", mutedColor.Sprint("Mode opératoire"), c.ModusOperandi)

	if len(c.Steps) == 0 {
		fmt.Fprintln(w, mutedColor.Sprint("Aucun acte enregistré."))
		return
	}

	for i, s := range c.Steps {
		printStep(w, i+1, s)
	}
}

func printStep(w io.Writer, n int, s model.InvestigationStep) {
	mark := "○"
	if s.Completed {
		mark = doneColor.Sprint("✓")
	}
	fmt.Fprintf(w, "%s %2d. %s %s\n", mark, n, titleColor.Sprint(s.Title), priorityColor(s.Priority).Sprintf("[%s]", s.Priority))
	fmt.Fprintf(w, "      %s %s\n", mutedColor.Sprint("§"), s.LegalBasis)
	if s.Description != "" {
		fmt.Fprintf(w, "      %s\n", s.Description)
	}
	if s.Completed && s.Result != "" {
		fmt.Fprintf(w, "      %s %s\n", doneColor.Sprint("Résultat :"), s.Result)
	}
	fmt.Fprintf(w, "      %s\n", mutedColor.Sprint(s.ID))
}

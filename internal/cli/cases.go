package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/enquete/internal/anonymize"
	"github.com/ppiankov/enquete/internal/model"
)

var (
	newInfraction string
	newCategory   string
	newModus      string
	genTimeout    time.Duration

	listStatus string
	listSearch string

	deleteYes bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Open a case and generate its investigation roadmap",
	Long: `Generate the initial roadmap for an infraction and store the new case.

Names following an honorific and uppercase acronyms are redacted before the
description is sent to the provider.

Example:
  enquete new --infraction "Vols sériels" --category biens --modus "M. Dupont a forcé 3 serrures"`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cases, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()
		applyColor(s.cfg)

		status, err := parseStatus(listStatus)
		if err != nil {
			return err
		}

		found := s.cases.Filter(listSearch, status)
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Aucun dossier en mémoire")
			return nil
		}
		for _, c := range found {
			printCaseLine(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Show a case roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()
		applyColor(s.cfg)

		c, err := s.cases.Get(args[0])
		if err != nil {
			return err
		}
		printRoadmap(cmd.OutOrStdout(), c)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <case-id>",
	Short: "Delete a case permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.cases.Get(args[0])
		if err != nil {
			return err
		}
		if !deleteYes && !confirm(fmt.Sprintf("Supprimer définitivement le dossier %q ?", c.Infraction)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Annulé.")
			return nil
		}

		if err := s.cases.Delete(cmd.Context(), c.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dossier supprimé : %s\n", c.ID)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <case-id>",
	Short: "Close a case, or reopen a closed one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.cases.ToggleArchive(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s : %s\n", c.Infraction, c.Status.Label())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd, listCmd, showCmd, deleteCmd, archiveCmd)

	newCmd.Flags().StringVar(&newInfraction, "infraction", "", "nature of the infraction (required)")
	newCmd.Flags().StringVar(&newCategory, "category", "biens", "category: biens, personnes, stupefiants, cyber, routier, autre")
	newCmd.Flags().StringVar(&newModus, "modus", "", "observed modus operandi (required)")
	_ = newCmd.MarkFlagRequired("infraction")
	_ = newCmd.MarkFlagRequired("modus")

	newCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "give up after this long, retries included (0 waits for the transport)")

	listCmd.Flags().StringVar(&listStatus, "status", "", "only show cases with this status: draft, active, completed")
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter on infraction, modus operandi or category")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
}

func runNew(cmd *cobra.Command, args []string) error {
	category, err := model.ParseCategory(newCategory)
	if err != nil {
		return err
	}
	if strings.TrimSpace(newInfraction) == "" || strings.TrimSpace(newModus) == "" {
		return fmt.Errorf("--infraction and --modus must not be empty")
	}

	ctx, cancel := generationContext(cmd.Context())
	defer cancel()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()
	applyColor(s.cfg)

	if verbose {
		fmt.Fprintf(os.Stderr, "Sent to %s: %s / %s\n", s.cfg.LLM.Provider,
			anonymize.Text(newInfraction), anonymize.Text(newModus))
	}
	fmt.Fprintln(os.Stderr, "⚙️  Génération de la trame d'enquête...")

	steps, err := s.planner.GeneratePlan(ctx, newInfraction, newModus)
	if err != nil {
		return generationFailed(err)
	}

	c, err := s.cases.Create(ctx, newInfraction, category, newModus, steps)
	if err != nil {
		return err
	}

	printRoadmap(cmd.OutOrStdout(), c)
	return nil
}

// generationContext applies --timeout when set
func generationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if genTimeout > 0 {
		return context.WithTimeout(parent, genTimeout)
	}
	return context.WithCancel(parent)
}

func parseStatus(s string) (model.Status, error) {
	switch st := model.Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return "", nil
	case model.StatusDraft, model.StatusActive, model.StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status: %q (supported: draft, active, completed)", s)
	}
}

func applyColor(cfg *model.Config) {
	if !cfg.Output.Color {
		color.NoColor = true
	}
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s (y/N) ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "o" || answer == "oui"
}

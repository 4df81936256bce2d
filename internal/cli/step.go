package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/enquete/internal/cases"
	"github.com/ppiankov/enquete/internal/model"
)

var (
	stepTitle       string
	stepDescription string
	stepLegal       string
	stepPriority    string
	stepResult      string
)

// stepCmd groups manual roadmap edits
var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Add or complete investigation steps",
}

var stepAddCmd = &cobra.Command{
	Use:   "add <case-id>",
	Short: "Append a manual step to a case",
	Long: `Append a step written by the investigator. Without --legal the
step is recorded with the legal basis "` + cases.ManualLegalBasis + `".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority, err := model.ParsePriority(stepPriority)
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()
		applyColor(s.cfg)

		c, err := s.cases.AddManualStep(cmd.Context(), args[0], stepTitle, stepDescription, stepLegal, priority)
		if err != nil {
			return err
		}

		added := c.Steps[len(c.Steps)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Acte ajouté à %s\n", c.Infraction)
		printStep(cmd.OutOrStdout(), len(c.Steps), added)
		return nil
	},
}

var stepCompleteCmd = &cobra.Command{
	Use:   "complete <case-id> <step-id>",
	Short: "Record the result of a step and mark it done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()
		applyColor(s.cfg)

		c, err := s.cases.CompleteStep(cmd.Context(), args[0], args[1], stepResult)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Acte validé. Avancement %s %d%%\n", progressBar(c.Progress(), 20), c.Progress())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stepCmd)
	stepCmd.AddCommand(stepAddCmd, stepCompleteCmd)

	stepAddCmd.Flags().StringVar(&stepTitle, "title", "", "step title (required)")
	stepAddCmd.Flags().StringVar(&stepDescription, "description", "", "what has to be done")
	stepAddCmd.Flags().StringVar(&stepLegal, "legal", "", "legal basis, e.g. \"Art. 60 CPP\"")
	stepAddCmd.Flags().StringVar(&stepPriority, "priority", string(model.PriorityNormal), "URGENT, HAUTE or NORMALE")
	_ = stepAddCmd.MarkFlagRequired("title")

	stepCompleteCmd.Flags().StringVar(&stepResult, "result", "", "observed result (required)")
	_ = stepCompleteCmd.MarkFlagRequired("result")
}

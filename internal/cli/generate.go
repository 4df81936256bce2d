package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var draftOut string

var suggestCmd = &cobra.Command{
	Use:   "suggest <case-id>",
	Short: "Ask for follow-up steps based on the results recorded so far",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := generationContext(cmd.Context())
		defer cancel()

		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()
		applyColor(s.cfg)

		c, err := s.cases.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "⚙️  Analyse des résultats...")
		steps, err := s.planner.SuggestNextSteps(ctx, c.Infraction, c.Steps)
		if err != nil {
			return generationFailed(err)
		}
		if len(steps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Aucun acte complémentaire proposé.")
			return nil
		}

		before := len(c.Steps)
		c, err = s.cases.AppendSteps(ctx, c.ID, steps)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d acte(s) complémentaire(s) ajouté(s)\n", len(steps))
		for i := before; i < len(c.Steps); i++ {
			printStep(cmd.OutOrStdout(), i+1, c.Steps[i])
		}
		return nil
	},
}

var draftCmd = &cobra.Command{
	Use:   "draft <case-id> <step-id>",
	Short: "Draft the procès-verbal for a step",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := generationContext(cmd.Context())
		defer cancel()

		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.cases.Get(args[0])
		if err != nil {
			return err
		}
		i := c.StepIndex(args[1])
		if i < 0 {
			return fmt.Errorf("step %s not found in case %s", args[1], c.ID)
		}

		fmt.Fprintln(os.Stderr, "⚙️  Rédaction du PV...")
		text, err := s.planner.DraftDocument(ctx, c.Steps[i], c.Infraction, c.ModusOperandi)
		if err != nil {
			return generationFailed(err)
		}

		if draftOut == "" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}
		if err := os.WriteFile(draftOut, []byte(text+"\n"), 0o600); err != nil {
			return fmt.Errorf("write draft: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ PV enregistré : %s\n", draftOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd, draftCmd)

	draftCmd.Flags().StringVarP(&draftOut, "out", "o", "", "write the draft to this file instead of stdout")
	for _, c := range []*cobra.Command{suggestCmd, draftCmd} {
		c.Flags().DurationVar(&genTimeout, "timeout", 0, "give up after this long, retries included (0 waits for the transport)")
	}
}

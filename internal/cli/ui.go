package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/enquete/internal/tui"
)

// uiCmd starts the interactive interface
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive terminal interface",
	Long: `Open the full-screen interface: browse cases, create new ones,
complete steps, ask for the next phase and draft procès-verbaux.

Logs are written to enquete.log in the data directory since the
interface owns the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := os.MkdirAll(cfg.Store.DataDir, 0o700); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		l, err := newLogger(verbose, []string{filepath.Join(cfg.Store.DataDir, "enquete.log")})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l

		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		m := tui.New(cmd.Context(), s.cases, s.planner, tui.WithLogger(logger.Named("tui")))
		return tui.Run(cmd.Context(), m)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

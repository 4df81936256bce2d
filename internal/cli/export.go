package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/enquete/internal/export"
)

var (
	exportJSON     bool
	exportMarkdown bool
	exportDir      string
	noFooter       bool
)

var exportCmd = &cobra.Command{
	Use:   "export <case-id>",
	Short: "Export a case roadmap to JSON and/or Markdown",
	Long: `Export writes the case and its steps to files named after the
infraction. Without --json or --md both formats are written.

Example:
  enquete export 6f1c... --md --dir ./dossiers`,
	Args: cobra.ExactArgs(1),
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

		wantJSON, wantMarkdown := exportJSON, exportMarkdown
		if !wantJSON && !wantMarkdown {
			wantJSON, wantMarkdown = true, true
		}

		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		renderer := export.NewRenderer(!noFooter)
		base := filepath.Join(exportDir, export.Filename(c))

		if wantJSON {
			path := base + ".json"
			if err := renderer.RenderJSON(c, path); err != nil {
				return fmt.Errorf("render JSON: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ JSON: %s\n", path)
		}
		if wantMarkdown {
			path := base + ".md"
			if err := renderer.RenderMarkdown(c, path); err != nil {
				return fmt.Errorf("render Markdown: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Markdown: %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportJSON, "json", false, "write the JSON document")
	exportCmd.Flags().BoolVar(&exportMarkdown, "md", false, "write the Markdown document")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	exportCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

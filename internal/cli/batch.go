package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/enquete/internal/model"
	"github.com/ppiankov/enquete/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Open many cases from a YAML file in parallel",
	Long: `Batch generates a roadmap for every case listed in a YAML file and
stores each case whose plan succeeded. Entries without an infraction are
skipped and duplicates are ignored.

File format:
  cases:
    - infraction: Vols sériels
      category: biens
      modus: M. Dupont a forcé 3 serrures

Example:
  enquete batch cases.yaml
  enquete batch cases.yaml --concurrency 4 --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()
	applyColor(s.cfg)

	workers := concurrency
	if workers <= 0 {
		workers = s.cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  enquete batch import\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", s.cfg.LLM.Provider)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(s.planner, workers)

	fmt.Fprintf(os.Stderr, "⚙️  Generating roadmaps...\n\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		req := result.Request
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", req.Infraction, describeFailure(result.Error))
			continue
		}

		category, err := model.ParseCategory(req.Category)
		if err != nil {
			if req.Category != "" {
				s.logger.Warn("unknown category, using default",
					zap.String("category", req.Category), zap.String("infraction", req.Infraction))
			}
			category = model.CategoryOther
		}

		c, err := s.cases.Create(ctx, req.Infraction, category, req.ModusOperandi, result.Steps)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", req.Infraction, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d actes)  %s\n", c.Infraction, len(c.Steps), c.ID)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Summary\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:        %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Created:      %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failed:       %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("no case could be created")
	}
	return nil
}

// describeFailure turns a generation error into the notice text,
// plus the detail in verbose mode
func describeFailure(err error) string {
	msg := notifyText(err)
	if verbose {
		return fmt.Sprintf("%s (%v)", msg, err)
	}
	return msg
}

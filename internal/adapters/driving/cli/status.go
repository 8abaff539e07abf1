package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show per-step progress for a document's latest run",
	Long: `Shows the latest indexing run for a document with per-step status,
durations and failure detail. Progress is persisted after every step,
so a run still in flight is inspectable too.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if runStore == nil {
		return errors.New("run store not configured")
	}

	run, err := runStore.LatestRun(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no indexing runs for document %q", args[0])
		}
		return fmt.Errorf("failed to load run: %w", err)
	}

	cmd.Printf("Document:  %s\n", run.DocumentID)
	cmd.Printf("Run:       %s\n", run.ID)
	cmd.Printf("Status:    %s\n", run.Status)
	cmd.Printf("Model:     %s\n", run.EmbeddingModel)
	cmd.Printf("Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		cmd.Printf("Finished:  %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Println()
	printSteps(cmd, run)
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nordvig-labs/byggqa-cli/internal/core/services"
)

var (
	runsJSON       bool
	queryRunsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List indexing runs",
	Long:  `Lists all indexing runs, newest first, with status and chunk counts.`,
	RunE:  runRuns,
}

var runsQueriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List answered queries",
	Long:  `Lists persisted query runs, newest first, with quality tiers.`,
	RunE:  runQueryRuns,
}

func init() {
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output runs as JSON")
	runsQueriesCmd.Flags().IntVarP(&queryRunsLimit, "limit", "n", 20, "maximum number of query runs (0 for all)")
	runsCmd.AddCommand(runsQueriesCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if runStore == nil {
		return errors.New("run store not configured")
	}

	runs, err := runStore.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runsJSON {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal runs: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(runs) == 0 {
		cmd.Println("No indexing runs yet.")
		return nil
	}
	for i := range runs {
		run := &runs[i]
		cmd.Printf("%s  %-9s  %-20s  %d chunks  %s\n",
			run.ID, run.Status, run.DocumentID,
			run.Stats.TotalChunks, run.StartedAt.Format(time.RFC3339))
	}
	return nil
}

func runQueryRuns(cmd *cobra.Command, _ []string) error {
	if queryRunStore == nil {
		return errors.New("query run store not configured")
	}

	runs, err := queryRunStore.ListQueryRuns(context.Background(), queryRunsLimit)
	if err != nil {
		return fmt.Errorf("failed to list query runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No queries answered yet.")
		return nil
	}
	for i := range runs {
		run := &runs[i]
		cmd.Printf("%s  %-10s  %s\n", run.CreatedAt.Format(time.RFC3339), run.Quality.Tier, run.Query)
		if run.Response != services.NoAnswerResponse {
			cmd.Printf("  %s\n", firstLine(run.Response))
		}
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

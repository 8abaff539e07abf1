package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driving"
)

var (
	queryRunID string
	queryLang  string
	queryTopK  int
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Runs the query pipeline: generates query variations, retrieves the
most similar chunks from the selected indexing run and synthesises an
answer with cited sources.

By default the latest completed indexing run is queried; --run pins a
specific one.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryRunID, "run", "", "indexing run ID to query (default: latest completed)")
	queryCmd.Flags().StringVar(&queryLang, "lang", "", "query language for thresholds (e.g. da, en)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 0, "number of chunks to retrieve")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the full query run as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	ctx := context.Background()
	run, err := answerService.Ask(ctx, args[0], driving.AskOptions{
		RunID:    queryRunID,
		Language: queryLang,
		TopK:     queryTopK,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, run)
	}
	return outputQueryText(cmd, run)
}

func outputQueryJSON(cmd *cobra.Command, run *domain.QueryRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal query run: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, run *domain.QueryRun) error {
	cmd.Println(run.Response)
	cmd.Println()

	if len(run.Results) > 0 {
		cmd.Println("Sources:")
		for i, r := range run.Results {
			section := r.Metadata.SectionTitle
			if section == "" {
				section = "(no section)"
			}
			cmd.Printf("  [%d] %s, page %d, %s (%.2f)\n",
				i+1, r.DocumentID, r.Metadata.PageNumber, section, r.Similarity)
		}
		cmd.Println()
	}

	cmd.Printf("Confidence: %s (top similarity %.2f, %d results)\n",
		run.Quality.Tier, run.Quality.TopSimilarity, run.Quality.ResultCount)
	if run.Quality.Tier == domain.TierPoor || run.Quality.Tier == domain.TierMinimum {
		cmd.Println("Consider rephrasing the question or indexing more documents.")
	}
	return nil
}

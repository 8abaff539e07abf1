package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

var indexAll bool

var indexCmd = &cobra.Command{
	Use:   "index [document-id...]",
	Short: "Index parsed documents",
	Long: `Runs the indexing pipeline for one or more documents:
partition, metadata, enrich, chunk, embed, store.

A document ID names a <document-id>.jsonl file in the configured
elements directory; a path ending in .jsonl is accepted and reduced to
its document ID. With --all, every document in the directory is
indexed. Multiple documents are indexed concurrently as independent
units.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexAll, "all", false, "index every document with parse output")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexingService == nil {
		return errors.New("indexing service not configured")
	}

	documentIDs, err := resolveDocumentIDs(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runs, err := indexingService.IndexAll(ctx, documentIDs)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	failed := 0
	for i := range runs {
		printRun(cmd, &runs[i])
		if runs[i].Status == domain.RunFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to index", failed, len(runs))
	}
	return nil
}

func resolveDocumentIDs(args []string) ([]string, error) {
	if indexAll {
		if len(args) > 0 {
			return nil, errors.New("--all cannot be combined with document arguments")
		}
		if documentLister == nil {
			return nil, errors.New("document source not configured")
		}
		ids, err := documentLister.ListDocuments()
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		if len(ids) == 0 {
			return nil, errors.New("no parse output found in the elements directory")
		}
		return ids, nil
	}

	if len(args) == 0 {
		return nil, errors.New("provide at least one document ID, or --all")
	}
	ids := make([]string, len(args))
	for i, arg := range args {
		ids[i] = strings.TrimSuffix(filepath.Base(arg), ".jsonl")
	}
	return ids, nil
}

func printRun(cmd *cobra.Command, run *domain.IndexingRun) {
	cmd.Printf("%s: %s (run %s)\n", run.DocumentID, run.Status, run.ID)
	printSteps(cmd, run)
	cmd.Println()
}

func printSteps(cmd *cobra.Command, run *domain.IndexingRun) {
	for _, step := range run.Steps {
		line := fmt.Sprintf("  %-10s %s", step.Name, step.Status)
		if step.Status == domain.StepCompleted {
			line += fmt.Sprintf("  %s", step.Duration.Round(time.Millisecond))
		}
		if step.Error != nil {
			line += fmt.Sprintf("  [%s] %s", step.Error.Category, step.Error.Message)
		}
		cmd.Println(line)
	}
	if run.Status == domain.RunCompleted {
		cmd.Printf("  %d chunks stored (min %d / avg %d / max %d chars)\n",
			run.Stats.TotalChunks, run.Stats.MinSize, run.Stats.AvgSize, run.Stats.MaxSize)
	}
}

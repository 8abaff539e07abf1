package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and index new parse output",
	Long: `Watches a directory for new or rewritten JSONL element files and
indexes each affected document as it appears. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexingService == nil {
		return errors.New("indexing service not configured")
	}
	if newWatcher == nil {
		return errors.New("watcher not configured")
	}

	watcher, err := newWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // Best-effort shutdown

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := watcher.Watch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", args[0], err)
	}

	cmd.Printf("Watching %s for parse output. Press Ctrl+C to stop.\n", args[0])
	for documentID := range events {
		logger.Info("Parse output changed for document %s", documentID)
		run, err := indexingService.Index(ctx, documentID)
		if err != nil {
			// Infrastructure failure; keep watching.
			cmd.PrintErrf("%s: %v\n", documentID, err)
			continue
		}
		printRun(cmd, run)
	}
	return nil
}

// Package cli implements the byggqa command-line interface. Commands
// hold no business logic; they parse flags, call the driving ports and
// format output.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driving"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// DocumentLister enumerates the documents with parse output available
// for indexing.
type DocumentLister interface {
	ListDocuments() ([]string, error)
}

// DocumentWatcher reports documents whose parse output appears or
// changes, for continuous indexing.
type DocumentWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan string, error)
	Close() error
}

// ProviderCheck is one connectivity check result for the doctor
// command.
type ProviderCheck struct {
	Name string
	Err  error
}

// Services injected by main before Execute.
var (
	indexingService driving.IndexingOrchestrator
	answerService   driving.AnswerService
	runStore        driven.RunStore
	queryRunStore   driven.QueryRunStore
	documentLister  DocumentLister
	newWatcher      func() (DocumentWatcher, error)
	validateFn      func(ctx context.Context) []ProviderCheck
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "byggqa",
	Short: "Question answering over parsed construction documents",
	Long: `byggqa indexes parsed construction documents into a vector store and
answers questions about them with cited sources.

Documents arrive as JSONL element files from the upstream parser;
byggqa chunks, embeds and stores them, then retrieves and synthesises
answers at query time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
}

// Ports carries the wired dependencies from main into the command
// tree.
type Ports struct {
	Indexing   driving.IndexingOrchestrator
	Answering  driving.AnswerService
	Runs       driven.RunStore
	QueryRuns  driven.QueryRunStore
	Lister     DocumentLister
	NewWatcher func() (DocumentWatcher, error)
	Validate   func(ctx context.Context) []ProviderCheck
}

// SetPorts installs the wired dependencies. Call once before Execute.
func SetPorts(p Ports) {
	indexingService = p.Indexing
	answerService = p.Answering
	runStore = p.Runs
	queryRunStore = p.QueryRuns
	documentLister = p.Lister
	newWatcher = p.NewWatcher
	validateFn = p.Validate
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

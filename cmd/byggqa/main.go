// Command byggqa answers questions about parsed construction documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/ai"
	configfile "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/config/file"
	elementsfile "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/elements/file"
	storagememory "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/storage/memory"
	"github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/tasks"
	vectormemory "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/vectorstore/memory"
	vectorpostgres "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/vectorstore/postgres"
	"github.com/nordvig-labs/byggqa-cli/internal/adapters/driving/cli"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, settingsPath, err := configfile.Load(os.Getenv("BYGGQA_CONFIG_DIR"))
	if err != nil {
		return err
	}

	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return err
	}
	defer embedder.Close() //nolint:errcheck // Best-effort shutdown

	completion, err := ai.CreateCompletionService(settings.Completion)
	if err != nil {
		return err
	}
	if completion != nil {
		defer completion.Close() //nolint:errcheck // Best-effort shutdown
	}

	retrievalCfg := settings.RetrievalConfig()

	vectorStore, err := buildVectorStore(settings, embedder.Dimensions(), retrievalCfg.MaxInMemoryCorpus)
	if err != nil {
		return err
	}
	defer vectorStore.Close() //nolint:errcheck // Best-effort shutdown

	runs, queryRuns, closeRunStore, err := buildRunStores(settings.Storage)
	if err != nil {
		return err
	}
	defer closeRunStore() //nolint:errcheck // Best-effort shutdown

	taskRunner := tasks.NewRunner(0)
	defer taskRunner.Close() //nolint:errcheck // Waits for pending analytics writes

	elementSource := elementsfile.NewSource(settings.Elements.Dir)

	chunker := services.NewChunkingEngine(settings.ChunkingConfig())
	indexing := services.NewIndexingService(
		elementSource, chunker, embedder, vectorStore, runs, completion)

	variations := services.NewVariationGenerator(completion, settings.VariationConfig())
	retrieval := services.NewRetrievalEngine(vectorStore, embedder, runs, retrievalCfg)
	quality := services.NewQualityAssessor(retrievalCfg)
	answerer := services.NewAnswerer(
		variations, retrieval, quality, completion,
		queryRuns, taskRunner, runs, retrievalCfg)

	cli.SetVersion(version)
	cli.SetSettings(settings, settingsPath)
	cli.SetPorts(cli.Ports{
		Indexing:  indexing,
		Answering: answerer,
		Runs:      runs,
		QueryRuns: queryRuns,
		Lister:    elementSource,
		NewWatcher: func() (cli.DocumentWatcher, error) {
			return elementsfile.NewWatcher()
		},
		Validate: func(ctx context.Context) []cli.ProviderCheck {
			return []cli.ProviderCheck{
				{Name: "embedding (" + embedder.ModelName() + ")", Err: ai.ValidateEmbedding(ctx, embedder)},
				{Name: "completion", Err: ai.ValidateCompletion(ctx, completion)},
			}
		},
	})
	return cli.Execute()
}

// buildRunStores selects SQLite persistence or, for ephemeral trial
// runs, the in-memory stores.
func buildRunStores(cfg configfile.StorageSettings) (driven.RunStore, driven.QueryRunStore, func() error, error) {
	if cfg.Ephemeral {
		return storagememory.NewRunStore(), storagememory.NewQueryRunStore(), func() error { return nil }, nil
	}
	runDB, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, err
	}
	return runDB.RunStore(), runDB.QueryRunStore(), runDB.Close, nil
}

func buildVectorStore(settings *configfile.Settings, dimensions, maxInMemory int) (driven.VectorStore, error) {
	if dsn := settings.Storage.PostgresDSN; dsn != "" {
		return vectorpostgres.New(context.Background(), vectorpostgres.Config{
			DSN:               dsn,
			Dimensions:        dimensions,
			MaxInMemoryCorpus: maxInMemory,
		})
	}
	return vectormemory.New(maxInMemory), nil
}

package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// Settings is the TOML file layout. Zero fields fall back to domain
// defaults, so a partial file only overrides what it names.
type Settings struct {
	Chunking   ChunkingSettings   `toml:"chunking"`
	Retrieval  RetrievalSettings  `toml:"retrieval"`
	Variations VariationSettings  `toml:"variations"`
	Embedding  ProviderSettings   `toml:"embedding"`
	Completion ProviderSettings   `toml:"completion"`
	Storage    StorageSettings    `toml:"storage"`
	Elements   ElementSettings    `toml:"elements"`
}

// ChunkingSettings configures the chunking engine.
type ChunkingSettings struct {
	MaxChunkSize    int `toml:"max_chunk_size"`
	TargetChunkSize int `toml:"target_chunk_size"`
	OverlapSize     int `toml:"overlap_size"`
	MinChunkSize    int `toml:"min_chunk_size"`
}

// RetrievalSettings configures retrieval and quality thresholds.
type RetrievalSettings struct {
	TopK              int    `toml:"top_k"`
	MaxInMemoryCorpus int    `toml:"max_in_memory_corpus"`
	DefaultLanguage   string `toml:"default_language"`

	// Thresholds maps language code to similarity tiers, e.g.
	// [retrieval.thresholds.da].
	Thresholds map[string]ThresholdSettings `toml:"thresholds"`
}

// ThresholdSettings is one language's similarity tier boundaries.
type ThresholdSettings struct {
	Excellent  float64 `toml:"excellent"`
	Good       float64 `toml:"good"`
	Acceptable float64 `toml:"acceptable"`
	Minimum    float64 `toml:"minimum"`
}

// VariationSettings configures query variation generation.
type VariationSettings struct {
	TimeoutMillis int `toml:"timeout_ms"`
}

// ProviderSettings configures one model provider (embedding or
// completion).
type ProviderSettings struct {
	// Provider selects the adapter: "ollama", "openai" or "" (off for
	// completion, ollama for embedding).
	Provider string `toml:"provider"`

	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_s"`
}

// StorageSettings configures the persistence backends.
type StorageSettings struct {
	// DataDir holds the SQLite run database. Empty uses ~/.byggqa/data.
	DataDir string `toml:"data_dir"`

	// Ephemeral keeps run records in memory only. Useful for trial
	// runs that should leave nothing on disk.
	Ephemeral bool `toml:"ephemeral"`

	// PostgresDSN selects the pgvector store. Empty uses the in-memory
	// vector store.
	PostgresDSN string `toml:"postgres_dsn"`
}

// ElementSettings configures where parsed document elements come from.
type ElementSettings struct {
	// Dir holds one <document-id>.jsonl element file per document.
	Dir string `toml:"dir"`
}

// Timeout returns the provider timeout as a duration.
func (p ProviderSettings) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Load reads settings from the TOML file under configDir. A missing
// file yields empty settings (all defaults). If configDir is empty,
// defaults to ~/.byggqa.
func Load(configDir string) (*Settings, string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".byggqa")
	}

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{}, path, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, path, nil
}

// Write persists settings to the TOML file under configDir, creating
// the directory as needed.
func Write(configDir string, s *Settings) (string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".byggqa")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}

// ChunkingConfig resolves the chunking domain config, applying file
// overrides on top of the defaults.
func (s *Settings) ChunkingConfig() domain.ChunkingConfig {
	cfg := domain.DefaultChunkingConfig()
	if s.Chunking.MaxChunkSize > 0 {
		cfg.MaxChunkSize = s.Chunking.MaxChunkSize
	}
	if s.Chunking.TargetChunkSize > 0 {
		cfg.TargetChunkSize = s.Chunking.TargetChunkSize
	}
	if s.Chunking.OverlapSize > 0 {
		cfg.OverlapSize = s.Chunking.OverlapSize
	}
	if s.Chunking.MinChunkSize > 0 {
		cfg.MinChunkSize = s.Chunking.MinChunkSize
	}
	return cfg
}

// RetrievalConfig resolves the retrieval domain config. File-defined
// threshold tiers replace the default tiers per language; languages
// the file does not name keep their defaults.
func (s *Settings) RetrievalConfig() domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()
	if s.Retrieval.TopK > 0 {
		cfg.TopK = s.Retrieval.TopK
	}
	if s.Retrieval.MaxInMemoryCorpus > 0 {
		cfg.MaxInMemoryCorpus = s.Retrieval.MaxInMemoryCorpus
	}
	if s.Retrieval.DefaultLanguage != "" {
		cfg.DefaultLanguage = s.Retrieval.DefaultLanguage
	}
	for lang, t := range s.Retrieval.Thresholds {
		cfg.Thresholds[lang] = domain.ThresholdTiers{
			Excellent:  t.Excellent,
			Good:       t.Good,
			Acceptable: t.Acceptable,
			Minimum:    t.Minimum,
		}
	}
	return cfg
}

// VariationConfig resolves the variation domain config.
func (s *Settings) VariationConfig() domain.VariationConfig {
	cfg := domain.DefaultVariationConfig()
	if s.Variations.TimeoutMillis > 0 {
		cfg.Timeout = time.Duration(s.Variations.TimeoutMillis) * time.Millisecond
	}
	return cfg
}

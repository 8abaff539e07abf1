package cli

import (
	"errors"

	"github.com/spf13/cobra"

	configfile "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/config/file"
)

// Loaded settings and their file path, injected by main.
var (
	settings     *configfile.Settings
	settingsPath string
)

// SetSettings installs the loaded configuration for the settings
// command. Call once before Execute.
func SetSettings(s *configfile.Settings, path string) {
	settings = s
	settingsPath = path
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the resolved configuration",
	Long: `Shows the effective configuration: file values merged over built-in
defaults. Edit the TOML file at the printed path to change them.`,
	RunE: runSettingsShow,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settings == nil {
		return errors.New("settings not configured")
	}

	cmd.Printf("Config file: %s\n\n", settingsPath)

	chunking := settings.ChunkingConfig()
	cmd.Println("[Chunking]")
	cmd.Printf("  Max chunk size:    %d\n", chunking.MaxChunkSize)
	cmd.Printf("  Target chunk size: %d\n", chunking.TargetChunkSize)
	cmd.Printf("  Overlap size:      %d\n", chunking.OverlapSize)
	cmd.Printf("  Min chunk size:    %d\n", chunking.MinChunkSize)
	cmd.Println()

	retrieval := settings.RetrievalConfig()
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K:             %d\n", retrieval.TopK)
	cmd.Printf("  Default language:  %s\n", retrieval.DefaultLanguage)
	for lang, tiers := range retrieval.Thresholds {
		cmd.Printf("  Thresholds (%s):   %.2f / %.2f / %.2f / %.2f\n",
			lang, tiers.Excellent, tiers.Good, tiers.Acceptable, tiers.Minimum)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding, "ollama")
	cmd.Println()

	cmd.Println("[Completion]")
	printProvider(cmd, settings.Completion, "(off)")
	cmd.Println()

	cmd.Println("[Storage]")
	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = "~/.byggqa/data"
	}
	cmd.Printf("  Data dir:          %s\n", dataDir)
	if settings.Storage.Ephemeral {
		cmd.Printf("  Run store:         in-memory (ephemeral)\n")
	}
	if settings.Storage.PostgresDSN != "" {
		cmd.Printf("  Vector store:      postgres\n")
	} else {
		cmd.Printf("  Vector store:      in-memory\n")
	}
	cmd.Println()

	cmd.Println("[Elements]")
	cmd.Printf("  Dir:               %s\n", settings.Elements.Dir)
	return nil
}

func printProvider(cmd *cobra.Command, p configfile.ProviderSettings, defaultProvider string) {
	provider := p.Provider
	if provider == "" {
		provider = defaultProvider
	}
	cmd.Printf("  Provider:          %s\n", provider)
	if p.Model != "" {
		cmd.Printf("  Model:             %s\n", p.Model)
	}
	if p.BaseURL != "" {
		cmd.Printf("  Base URL:          %s\n", p.BaseURL)
	}
	if p.APIKey != "" {
		cmd.Printf("  API key:           %s\n", maskAPIKey(p.APIKey))
	}
	if p.Dimensions > 0 {
		cmd.Printf("  Dimensions:        %d\n", p.Dimensions)
	}
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

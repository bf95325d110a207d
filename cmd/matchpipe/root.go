package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kickframe/matchpipe"
)

// configPath is the path to a YAML config override file, set via --config.
var configPath string

// analyzerKind selects the Analyzer implementation, set via --analyzer.
var analyzerKind string

// dbPath is the path to the SQLite document store, set via --db.
var dbPath string

// anthropicAPIKey overrides the Anthropic API key, set via --anthropic-key.
var anthropicAPIKey string

var rootCmd = &cobra.Command{
	Use:   "matchpipe",
	Short: "Soccer match video tactical-event pipeline",
	Long:  "Drive windowed detection, deduplication, clip ranking, and half merging against a match's video.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".matchpipe", "matchpipe.db")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config override file")
	rootCmd.PersistentFlags().StringVar(&analyzerKind, "analyzer", "anthropic", "analyzer implementation: anthropic or fake")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to the SQLite document store")
	rootCmd.PersistentFlags().StringVar(&anthropicAPIKey, "anthropic-key", "", "Anthropic API key (defaults to the client's environment lookup)")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(mergeHalvesCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// loadConfig resolves the effective Config: an override file if --config
// was given, otherwise the documented defaults.
func loadConfig() (matchpipe.Config, error) {
	if configPath == "" {
		return matchpipe.DefaultConfig(), nil
	}
	return matchpipe.LoadConfig(configPath)
}

// newAnalyzer resolves the Analyzer named by --analyzer.
func newAnalyzer() (matchpipe.Analyzer, error) {
	switch analyzerKind {
	case "anthropic":
		return matchpipe.NewAnthropicAnalyzer(anthropicAPIKey), nil
	case "fake":
		return &fakeAnalyzer{}, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q (want anthropic or fake)", analyzerKind)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

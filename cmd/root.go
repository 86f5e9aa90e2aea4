package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/config"
	"github.com/abhisek/chatcompare/internal/llm"
	"github.com/abhisek/chatcompare/internal/logger"
	"github.com/abhisek/chatcompare/internal/pricing"
	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "chatcompare",
	Short: "Compare chat model answers side by side",
	Long: "ChatCompare sends one prompt to several language models at once, " +
		"shows the answers next to each other with token usage and estimated cost, " +
		"and keeps a history of every run.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CHATCOMPARE_DB env var)")
	rootCmd.PersistentFlags().String("pricing", "", "YAML file with per-1K token price overrides (overrides CHATCOMPARE_PRICING)")
	rootCmd.PersistentFlags().String("api-key", "", "OpenAI API key (overrides OPENAI_API_KEY)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if p, _ := cmd.Flags().GetString("pricing"); p != "" {
		cfg.PricingPath = p
	}
	if key, _ := cmd.Flags().GetString("api-key"); key != "" {
		cfg.SetAPIKey(key)
	}
	return cfg, nil
}

// resolveDBPath returns the --db flag value, creating its directory. An
// empty result means the configured default applies.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return "", nil
}

// openStore opens the run store at the configured path.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// newOrchestrator wires a provider for cfg to the store and price table.
func newOrchestrator(ctx context.Context, cfg *config.Config, st *store.Store, prices pricing.Table) (*run.Orchestrator, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM, st)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return run.New(provider, prices, st,
		run.WithCredentials(cfg),
		run.WithConcurrency(cfg.Concurrency),
	), nil
}

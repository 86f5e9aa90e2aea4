package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/app"
	"github.com/abhisek/chatcompare/internal/logger"
	"github.com/abhisek/chatcompare/internal/run"
)

// runDashboard opens the store, builds dependencies, and launches the TUI.
func runDashboard(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go next to the database.
	logPath := filepath.Join(filepath.Dir(cfg.DBPath), "chatcompare.log")
	if closer, err := logger.ToFile(logPath); err == nil {
		defer closer.Close()
	} else {
		logger.Discard()
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prices, err := cfg.Prices()
	if err != nil {
		return fmt.Errorf("load pricing: %w", err)
	}

	runFn := func(ctx context.Context, req run.Request, apiKey string) (*run.Summary, error) {
		runCfg := *cfg
		runCfg.SetAPIKey(apiKey)
		orch, err := newOrchestrator(ctx, &runCfg, st, prices)
		if err != nil {
			return nil, err
		}
		return orch.Execute(ctx, req)
	}

	return app.Run(app.Options{
		Run:       runFn,
		History:   st,
		Models:    prices.Models(),
		Providers: cfg.LLM.Configured(),
	})
}

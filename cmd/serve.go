package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/logger"
	"github.com/abhisek/chatcompare/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		orch, err := newOrchestrator(ctx, cfg, st, prices)
		if err != nil {
			return err
		}
		if !cfg.HasCredentials() {
			logger.Warn("no API credential configured; runs will be rejected until one is set")
		}

		logger.Info("starting server", "addr", cfg.Addr, "db", cfg.DBPath, "providers", cfg.LLM.Configured())
		return server.New(cfg.Addr, orch, st, prices).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides CHATCOMPARE_ADDR, default :8000)")
}

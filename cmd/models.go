package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List priced models and the provider each routes to",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		prices, err := cfg.Prices()
		if err != nil {
			return fmt.Errorf("load pricing: %w", err)
		}

		configured := make(map[string]bool)
		for _, p := range cfg.LLM.Configured() {
			configured[p] = true
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-32s  %-11s  %12s  %12s  %s\n",
			"Model", "Provider", "Prompt/1K", "Compl/1K", "Ready")
		fmt.Fprintln(out, strings.Repeat("─", 84))
		for _, m := range prices.Models() {
			p, _ := prices.Lookup(m)
			provider := llm.RouteModel(m)
			ready := "✗"
			if configured[provider] || cfg.LLM.Mock {
				ready = "✓"
			}
			fmt.Fprintf(out, "%-32s  %-11s  %12s  %12s  %s\n",
				truncate(m, 32), provider,
				fmt.Sprintf("$%.4f", p.PromptPer1K), fmt.Sprintf("$%.4f", p.CompletionPer1K), ready)
		}
		return nil
	},
}

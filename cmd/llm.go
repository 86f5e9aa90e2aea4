package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect individual model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Model, _ = cmd.Flags().GetString("model")
		opts.RunUUID, _ = cmd.Flags().GetString("run")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			opts.From = time.Now().Add(-since)
		}

		s, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		calls, err := s.QueryCalls(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query calls: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(calls) == 0 {
			fmt.Fprintln(out, "No model calls found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-11s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Provider", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		for _, c := range calls {
			ok := "✓"
			if !c.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-11s  %-28s  %-6d  %-6d  %-7d  %s\n",
				c.ID,
				c.Timestamp.Local().Format("2006-01-02 15:04:05"),
				c.Provider,
				truncate(c.Model, 28),
				c.InputTokens,
				c.OutputTokens,
				c.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.GetCall(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get call: %w", err)
		}
		if c == nil {
			return fmt.Errorf("call %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", c.ID)
		fmt.Fprintf(out, "Run:       %s\n", c.RunID)
		fmt.Fprintf(out, "Time:      %s\n", c.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", c.Provider)
		fmt.Fprintf(out, "Model:     %s\n", c.Model)
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", c.InputTokens, c.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", c.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", c.Success)
		if c.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", c.ErrorMessage)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated token usage and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		prices, err := cfg.Prices()
		if err != nil {
			return fmt.Errorf("load pricing: %w", err)
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		usage, err := s.UsageByModel(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(usage) == 0 {
			fmt.Fprintln(out, "No model usage recorded yet.")
			return nil
		}

		fmt.Fprintln(out, "Usage and Estimated Cost (USD)")
		fmt.Fprintln(out, strings.Repeat("─", 88))
		fmt.Fprintf(out, "%-32s  %6s  %6s  %10s  %10s  %8s  %10s\n",
			"Model", "Calls", "Failed", "Input", "Output", "Avg Ms", "Cost")
		fmt.Fprintln(out, strings.Repeat("─", 88))

		var totalCalls, totalFailed, totalIn, totalOut int
		var totalCost float64
		var unknownModels []string
		for _, mu := range usage {
			cost := "?"
			if _, ok := prices.Lookup(mu.Model); ok {
				c := prices.Estimate(mu.Model, mu.InputTokens, mu.OutputTokens)
				totalCost += c
				cost = formatCost(c)
			} else {
				unknownModels = append(unknownModels, mu.Model)
			}
			fmt.Fprintf(out, "%-32s  %6d  %6d  %10d  %10d  %8d  %10s\n",
				truncate(mu.Model, 32), mu.Calls, mu.Failures, mu.InputTokens, mu.OutputTokens, mu.AvgLatencyMs, cost)
			totalCalls += mu.Calls
			totalFailed += mu.Failures
			totalIn += mu.InputTokens
			totalOut += mu.OutputTokens
		}

		fmt.Fprintln(out, strings.Repeat("─", 88))
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(out, "%-32s  %6d  %6d  %10d  %10d  %8s  %10s\n",
			label, totalCalls, totalFailed, totalIn, totalOut, "", formatCost(totalCost))

		if len(unknownModels) > 0 {
			fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.6f", usd)
	}
	return fmt.Sprintf("$%.4f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("model", "m", "", "Filter by model")
	llmListCmd.Flags().String("run", "", "Filter by run UUID")
	llmListCmd.Flags().Duration("since", 0, "Only show calls newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/run"
	"github.com/abhisek/chatcompare/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListRecent(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			if records == nil {
				records = []run.Record{}
			}
			return writeJSON(out, records)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-5s  %-8s  %-8s  %-10s  %s\n",
			"ID", "Timestamp", "OK", "In", "Out", "Cost", "Prompt")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, r := range records {
			fmt.Fprintf(out, "%-5d  %-19s  %-5s  %-8d  %-8d  %-10s  %s\n",
				r.ID,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%d/%d", r.Results.Succeeded(), len(r.Results)),
				r.PromptTokens,
				r.CompletionTokens,
				formatCost(r.Cost),
				truncate(strings.Join(strings.Fields(r.UserPrompt), " "), 40),
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved run with every model's answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("run %d not found", id)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, rec)
		}
		printRecord(out, rec)
		return nil
	},
}

func printRecord(w io.Writer, rec *run.Record) {
	fmt.Fprintf(w, "ID:        %d\n", rec.ID)
	fmt.Fprintf(w, "Run:       %s\n", rec.RunUUID)
	fmt.Fprintf(w, "Time:      %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Models:    %s\n", strings.Join(rec.Models, ", "))
	fmt.Fprintf(w, "Params:    temperature=%g top_p=%g max_tokens=%d frequency_penalty=%g presence_penalty=%g\n",
		rec.Temperature, rec.TopP, rec.MaxTokens, rec.FrequencyPenalty, rec.PresencePenalty)
	fmt.Fprintf(w, "Tokens:    %d in / %d out\n", rec.PromptTokens, rec.CompletionTokens)
	fmt.Fprintf(w, "Cost:      %s\n", formatCost(rec.Cost))
	if rec.SystemPrompt != "" {
		fmt.Fprintf(w, "\nSystem:\n%s\n", rec.SystemPrompt)
	}
	fmt.Fprintf(w, "\nUser:\n%s\n", rec.UserPrompt)

	sep := strings.Repeat("─", 60)
	for _, r := range rec.Results {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, r.Model)
		fmt.Fprintln(w, sep)
		if r.Outcome.IsSuccess() {
			fmt.Fprintln(w, r.Outcome.Text())
		} else {
			fmt.Fprintf(w, "Error: %s\n", r.Outcome.Err())
		}
	}
}

// storeFromFlags loads config and opens the store for read-only commands.
func storeFromFlags(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	historyCmd.PersistentFlags().Bool("json", false, "Print JSON")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

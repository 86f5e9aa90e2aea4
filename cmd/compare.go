package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/chatcompare/internal/run"
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Send one prompt to several models and print the results",
	Example: `  chatcompare run -m gpt-3.5-turbo -m gpt-4 "Explain closures in one sentence"
  chatcompare run --system "Answer in French" --json "Say hello"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requestFromFlags(cmd, args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
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

		orch, err := newOrchestrator(cmd.Context(), cfg, st, prices)
		if err != nil {
			return err
		}

		sum, err := orch.Execute(cmd.Context(), req)
		var persistErr *run.PersistError
		if err != nil && !(errors.As(err, &persistErr) && sum != nil) {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(sum); encErr != nil {
				return encErr
			}
		} else {
			printSummary(cmd.OutOrStdout(), sum)
		}
		// Results are shown even when they could not be saved.
		return err
	},
}

// requestFromFlags builds a run request from flags, starting from the
// request defaults. The prompt comes from args, --prompt, or stdin ("-").
func requestFromFlags(cmd *cobra.Command, args []string) (run.Request, error) {
	req := run.DefaultRequest()
	f := cmd.Flags()

	req.SystemPrompt, _ = f.GetString("system")
	req.UserPrompt, _ = f.GetString("prompt")
	if len(args) > 0 {
		req.UserPrompt = strings.Join(args, " ")
	}
	if req.UserPrompt == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return req, fmt.Errorf("read prompt from stdin: %w", err)
		}
		req.UserPrompt = string(data)
	}

	if f.Changed("model") {
		req.Models, _ = f.GetStringSlice("model")
	}
	if f.Changed("temperature") {
		req.Temperature, _ = f.GetFloat64("temperature")
	}
	if f.Changed("top-p") {
		req.TopP, _ = f.GetFloat64("top-p")
	}
	if f.Changed("max-tokens") {
		req.MaxTokens, _ = f.GetInt("max-tokens")
	}
	if f.Changed("frequency-penalty") {
		req.FrequencyPenalty, _ = f.GetFloat64("frequency-penalty")
	}
	if f.Changed("presence-penalty") {
		req.PresencePenalty, _ = f.GetFloat64("presence-penalty")
	}
	return req, nil
}

func printSummary(w io.Writer, sum *run.Summary) {
	sep := strings.Repeat("─", 72)
	for _, r := range sum.Results {
		fmt.Fprintln(w, sep)
		if r.Outcome.IsSuccess() {
			fmt.Fprintf(w, "%s  (%d in / %d out, %s)\n", r.Model,
				r.Outcome.PromptTokens(), r.Outcome.CompletionTokens(), formatCost(r.Outcome.Cost()))
			fmt.Fprintln(w, sep)
			fmt.Fprintln(w, strings.TrimSpace(r.Outcome.Text()))
		} else {
			fmt.Fprintf(w, "%s  FAILED\n", r.Model)
			fmt.Fprintln(w, sep)
			fmt.Fprintf(w, "Error: %s\n", r.Outcome.Err())
		}
	}
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Run #%d: %d/%d succeeded, %d prompt + %d completion tokens, %s\n",
		sum.ID, sum.Results.Succeeded(), len(sum.Results),
		sum.PromptTokens, sum.CompletionTokens, formatCost(sum.Cost))
}

func init() {
	def := run.DefaultRequest()
	f := runCmd.Flags()
	f.StringP("system", "s", def.SystemPrompt, "System prompt")
	f.StringP("prompt", "p", "", `User prompt ("-" reads stdin); positional args take precedence`)
	f.StringSliceP("model", "m", def.Models, "Model to query (repeatable or comma-separated)")
	f.Float64("temperature", def.Temperature, "Sampling temperature")
	f.Float64("top-p", def.TopP, "Nucleus sampling mass")
	f.Int("max-tokens", def.MaxTokens, "Completion token cap")
	f.Float64("frequency-penalty", def.FrequencyPenalty, "Frequency penalty")
	f.Float64("presence-penalty", def.PresencePenalty, "Presence penalty")
	f.Bool("json", false, "Print the run summary as JSON")
}

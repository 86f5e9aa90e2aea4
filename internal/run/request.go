package run

import (
	"strings"

	"github.com/abhisek/chatcompare/internal/llm"
)

// DefaultModel is preselected when the caller names no model.
const DefaultModel = "gpt-3.5-turbo"

// Request is one prompt to be sent to several models.
type Request struct {
	SystemPrompt     string   `json:"system_prompt"`
	UserPrompt       string   `json:"user_prompt"`
	Models           []string `json:"models"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	MaxTokens        int      `json:"max_tokens"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
}

// DefaultRequest returns a Request with the default model and sampling
// parameters. Decoding JSON into it leaves the defaults in place for
// omitted fields.
func DefaultRequest() Request {
	p := llm.DefaultParams()
	return Request{
		Models:           []string{DefaultModel},
		Temperature:      p.Temperature,
		TopP:             p.TopP,
		MaxTokens:        p.MaxTokens,
		FrequencyPenalty: p.FrequencyPenalty,
		PresencePenalty:  p.PresencePenalty,
	}
}

// Params returns the sampling parameters to pass to every model.
func (r Request) Params() llm.Params {
	return llm.Params{
		Temperature:      r.Temperature,
		TopP:             r.TopP,
		MaxTokens:        r.MaxTokens,
		FrequencyPenalty: r.FrequencyPenalty,
		PresencePenalty:  r.PresencePenalty,
	}
}

// NormalizeModels trims ids, drops empty ones and keeps only the first
// occurrence of each, preserving order.
func NormalizeModels(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

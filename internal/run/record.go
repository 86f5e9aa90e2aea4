package run

import "time"

// Record is a persisted run. Totals cover successful models only.
type Record struct {
	ID               int64     `json:"id"`
	RunUUID          string    `json:"run_uuid"`
	CreatedAt        time.Time `json:"timestamp"`
	SystemPrompt     string    `json:"system_prompt"`
	UserPrompt       string    `json:"user_prompt"`
	Models           []string  `json:"models"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	MaxTokens        int       `json:"max_tokens"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
	Results          Results   `json:"results"`
	PromptTokens     int       `json:"input_tokens"`
	CompletionTokens int       `json:"output_tokens"`
	Cost             float64   `json:"cost"`
}

// Summary is what a caller gets back from Execute.
type Summary struct {
	ID               int64   `json:"id"`
	RunUUID          string  `json:"run_uuid"`
	Results          Results `json:"results"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	Cost             float64 `json:"cost"`
}

// Package pricing estimates the USD cost of a model call from its token usage.
package pricing

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Price holds per-1000-token pricing for a model.
type Price struct {
	PromptPer1K     float64 `yaml:"prompt"`     // USD per 1K prompt tokens
	CompletionPer1K float64 `yaml:"completion"` // USD per 1K completion tokens
}

// Cost calculates the USD cost for the given token counts.
func (p Price) Cost(promptTokens, completionTokens int) float64 {
	return (float64(promptTokens)*p.PromptPer1K + float64(completionTokens)*p.CompletionPer1K) / 1000
}

// Table maps model IDs to their pricing. A Table is a plain value; callers
// own their copy and pass it to whoever needs to estimate costs.
type Table map[string]Price

// Estimate returns the USD cost of a call. Models missing from the table are
// priced at zero so an unknown model never fails a run.
func (t Table) Estimate(model string, promptTokens, completionTokens int) float64 {
	return t[model].Cost(promptTokens, completionTokens)
}

// Lookup returns the pricing for a model ID.
func (t Table) Lookup(model string) (Price, bool) {
	p, ok := t[model]
	return p, ok
}

// Models returns the priced model IDs in sorted order.
func (t Table) Models() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Merge returns a new Table with overrides layered on top of t.
func (t Table) Merge(overrides Table) Table {
	out := make(Table, len(t)+len(overrides))
	for id, p := range t {
		out[id] = p
	}
	for id, p := range overrides {
		out[id] = p
	}
	return out
}

// Default returns a fresh copy of the built-in price table.
func Default() Table {
	return Table(nil).Merge(defaultPrices)
}

// LoadFile reads price overrides from a YAML file of the form:
//
//	gpt-4:
//	  prompt: 0.03
//	  completion: 0.06
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML price overrides.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing pricing: %w", err)
	}
	for id, p := range t {
		if p.PromptPer1K < 0 || p.CompletionPer1K < 0 {
			return nil, fmt.Errorf("pricing: model %q has a negative price", id)
		}
	}
	return t, nil
}

// defaultPrices is the embedded pricing table in USD per 1K tokens.
// Last updated: 2026-02-15.
var defaultPrices = Table{
	// OpenAI
	"gpt-3.5-turbo": {0.0005, 0.0015},
	"gpt-4":         {0.03, 0.06},
	"gpt-4-turbo":   {0.01, 0.03},
	"gpt-4.1":       {0.002, 0.008},
	"gpt-4.1-mini":  {0.0004, 0.0016},
	"gpt-4.1-nano":  {0.0001, 0.0004},
	"gpt-4o":        {0.0025, 0.01},
	"gpt-4o-mini":   {0.00015, 0.0006},
	"gpt-5":         {0.00125, 0.01},
	"gpt-5-mini":    {0.00025, 0.002},
	"gpt-5-nano":    {0.00005, 0.0004},
	"o1":            {0.015, 0.06},
	"o1-mini":       {0.0011, 0.0044},
	"o3":            {0.002, 0.008},
	"o3-mini":       {0.0011, 0.0044},
	"o4-mini":       {0.0011, 0.0044},

	// Anthropic
	"claude-3-5-haiku-20241022":  {0.0008, 0.004},
	"claude-3-5-sonnet-20241022": {0.003, 0.015},
	"claude-3-7-sonnet-20250219": {0.003, 0.015},
	"claude-3-haiku-20240307":    {0.00025, 0.00125},
	"claude-3-opus-20240229":     {0.015, 0.075},
	"claude-haiku-4-5":           {0.001, 0.005},
	"claude-opus-4-1":            {0.015, 0.075},
	"claude-opus-4-5":            {0.005, 0.025},
	"claude-sonnet-4-0":          {0.003, 0.015},
	"claude-sonnet-4-5":          {0.003, 0.015},

	// Google (Gemini)
	"gemini-1.5-flash":      {0.000075, 0.0003},
	"gemini-1.5-pro":        {0.00125, 0.005},
	"gemini-2.0-flash":      {0.0001, 0.0004},
	"gemini-2.0-flash-lite": {0.000075, 0.0003},
	"gemini-2.5-flash":      {0.0003, 0.0025},
	"gemini-2.5-flash-lite": {0.0001, 0.0004},
	"gemini-2.5-pro":        {0.00125, 0.01},
}

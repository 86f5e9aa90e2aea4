package run

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type outcomeKind uint8

const (
	kindInvalid outcomeKind = iota
	kindCompletion
	kindFailure
)

// Outcome is the result of one model call: a completion or a failure,
// never both. Build one with Succeeded or Failed.
type Outcome struct {
	kind             outcomeKind
	text             string
	errMsg           string
	promptTokens     int
	completionTokens int
	cost             float64
}

// Succeeded records a completion with its usage and estimated cost.
func Succeeded(text string, promptTokens, completionTokens int, cost float64) Outcome {
	return Outcome{
		kind:             kindCompletion,
		text:             text,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		cost:             cost,
	}
}

// Failed records a model failure. Failures carry no usage.
func Failed(msg string) Outcome {
	return Outcome{kind: kindFailure, errMsg: msg}
}

// IsSuccess reports whether the outcome is a completion.
func (o Outcome) IsSuccess() bool { return o.kind == kindCompletion }

// IsFailure reports whether the outcome is a failure.
func (o Outcome) IsFailure() bool { return o.kind == kindFailure }

// Valid reports whether the outcome was built by Succeeded or Failed.
func (o Outcome) Valid() bool { return o.kind != kindInvalid }

// Text is the completion text, empty for failures.
func (o Outcome) Text() string { return o.text }

// Err is the failure description, empty for completions.
func (o Outcome) Err() string { return o.errMsg }

func (o Outcome) PromptTokens() int     { return o.promptTokens }
func (o Outcome) CompletionTokens() int { return o.completionTokens }
func (o Outcome) Cost() float64         { return o.cost }

type failureJSON struct {
	Error string `json:"error"`
}

// MarshalJSON encodes a completion as its text and a failure as
// {"error": "..."}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case kindCompletion:
		return json.Marshal(o.text)
	case kindFailure:
		return json.Marshal(failureJSON{Error: o.errMsg})
	default:
		return nil, errors.New("run: marshal of zero Outcome")
	}
}

// UnmarshalJSON reverses MarshalJSON. Usage is not part of the wire form,
// so decoded completions report zero tokens and cost.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*o = Succeeded(text, 0, 0, 0)
		return nil
	}

	var f failureJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("run: outcome must be a string or an error object: %w", err)
	}
	*o = Failed(f.Error)
	return nil
}

// Result pairs a model with its outcome.
type Result struct {
	Model   string
	Outcome Outcome
}

// Results holds one outcome per model in request order. It encodes as a
// JSON object whose keys keep that order.
type Results []Result

// Get returns the outcome for model.
func (rs Results) Get(model string) (Outcome, bool) {
	for _, r := range rs {
		if r.Model == model {
			return r.Outcome, true
		}
	}
	return Outcome{}, false
}

// Models returns the model of every result, in order.
func (rs Results) Models() []string {
	models := make([]string, len(rs))
	for i, r := range rs {
		models[i] = r.Model
	}
	return models
}

// Succeeded counts the completions.
func (rs Results) Succeeded() int {
	n := 0
	for _, r := range rs {
		if r.Outcome.IsSuccess() {
			n++
		}
	}
	return n
}

func (rs Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Model)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Outcome)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", r.Model, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (rs *Results) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*rs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("run: results must be a JSON object")
	}

	out := Results{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		model, ok := tok.(string)
		if !ok {
			return fmt.Errorf("run: unexpected results key %v", tok)
		}
		var o Outcome
		if err := dec.Decode(&o); err != nil {
			return fmt.Errorf("model %s: %w", model, err)
		}
		out = append(out, Result{Model: model, Outcome: o})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*rs = out
	return nil
}

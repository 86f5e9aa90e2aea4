package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// runRequestSchema checks types and required fields only; value ranges are
// passed through to the providers untouched.
const runRequestSchema = `{
  "type": "object",
  "required": ["user_prompt", "models"],
  "properties": {
    "system_prompt":     {"type": "string"},
    "user_prompt":       {"type": "string"},
    "models":            {"type": "array", "items": {"type": "string"}},
    "temperature":       {"type": "number"},
    "top_p":             {"type": "number"},
    "max_tokens":        {"type": "integer"},
    "frequency_penalty": {"type": "number"},
    "presence_penalty":  {"type": "number"}
  }
}`

const runRequestSchemaURL = "schema://run-request.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func runSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(runRequestSchema), &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(runRequestSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(runRequestSchemaURL)
	})
	return compiled, compileErr
}

// validateRunRequest checks a decoded request body against the schema.
func validateRunRequest(body []byte) error {
	sch, err := runSchema()
	if err != nil {
		return fmt.Errorf("compile request schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return &requestError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := sch.Validate(doc); err != nil {
		return &validationError{Err: err}
	}
	return nil
}

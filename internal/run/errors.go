package run

import "errors"

// Request-level errors. No model is called when Execute returns one.
var (
	ErrNoCredentials = errors.New("no API credential configured")
	ErrNoModels      = errors.New("at least one model is required")
	ErrEmptyPrompt   = errors.New("user prompt is required")
)

// PersistError means the models ran but the record was not saved.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return "saving run: " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

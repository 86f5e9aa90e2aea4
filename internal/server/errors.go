package server

import (
	"errors"
	"net/http"

	"github.com/abhisek/chatcompare/internal/run"
)

// ErrorCode identifies the kind of failure in an error response.
type ErrorCode string

const (
	CodeInvalidInput  ErrorCode = "invalid_input"
	CodeInvalidSchema ErrorCode = "invalid_schema"
	CodeNoCredentials ErrorCode = "no_credentials"
	CodePersistFailed ErrorCode = "persist_failed"
	CodeInternalError ErrorCode = "internal_error"
)

// requestError is a malformed request body.
type requestError struct{ Err error }

func (e *requestError) Error() string { return e.Err.Error() }
func (e *requestError) Unwrap() error { return e.Err }

// validationError is a body that parsed but does not match the schema.
type validationError struct{ Err error }

func (e *validationError) Error() string { return "request does not match schema: " + e.Err.Error() }
func (e *validationError) Unwrap() error { return e.Err }

// HTTPError is an error with an associated HTTP status code.
type HTTPError struct {
	StatusCode int
	Code       ErrorCode
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// MapError maps a domain error to an HTTPError.
func MapError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var (
		reqErr     *requestError
		schemaErr  *validationError
		persistErr *run.PersistError
	)
	switch {
	case errors.Is(err, run.ErrNoCredentials):
		return &HTTPError{http.StatusBadRequest, CodeNoCredentials, err}
	case errors.Is(err, run.ErrNoModels), errors.Is(err, run.ErrEmptyPrompt), errors.As(err, &reqErr):
		return &HTTPError{http.StatusBadRequest, CodeInvalidInput, err}
	case errors.As(err, &schemaErr):
		return &HTTPError{http.StatusUnprocessableEntity, CodeInvalidSchema, err}
	case errors.As(err, &persistErr):
		return &HTTPError{http.StatusInternalServerError, CodePersistFailed, err}
	default:
		return &HTTPError{http.StatusInternalServerError, CodeInternalError, err}
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, err error) {
	httpErr := MapError(err)
	if httpErr == nil {
		return
	}
	writeJSON(w, httpErr.StatusCode, errorBody{
		Code:   string(httpErr.Code),
		Detail: httpErr.Error(),
	})
}

package pipeline

import (
	"fmt"

	"github.com/flowforge/ingestcore/internal/secrets"
)

// CoreError is a custom error type that carries an exit code for structured
// error handling. Commands in the CLI use this to communicate specific exit
// codes back to main.go. It implements the error interface and supports
// unwrapping via errors.Is and errors.As.
type CoreError struct {
	// Code is the process exit code associated with this error.
	Code int

	// Message is a human-readable description of what went wrong.
	Message string

	// Err is the underlying error that caused this CoreError, if any.
	Err error
}

// Error returns the formatted error message, with any credential-shaped
// substrings masked -- a run failure that embeds a source config's token or
// URL userinfo must never surface it verbatim in a log line or exit message.
// If an underlying error is present, it is included in the output separated
// by a colon.
func (e *CoreError) Error() string {
	if e.Err != nil {
		return secrets.Redact(fmt.Sprintf("%s: %v", e.Message, e.Err))
	}
	return secrets.Redact(e.Message)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As to
// traverse the error chain.
func (e *CoreError) Unwrap() error {
	return e.Err
}

// NewUsageError creates a CoreError with ExitUsage (1) code for invalid
// flags or configuration detected before any stage runs.
func NewUsageError(msg string) *CoreError {
	return &CoreError{Code: int(ExitUsage), Message: msg}
}

// NewIOError creates a CoreError with ExitIOError (2) code for a failure
// reading or writing the staging store, a checkpoint file, or another
// on-disk/network dependency.
func NewIOError(msg string, err error) *CoreError {
	return &CoreError{Code: int(ExitIOError), Message: msg, Err: err}
}

// NewStageError creates a CoreError with ExitStageFailure (3) code for a
// pipeline stage that failed while executing.
func NewStageError(msg string, err error) *CoreError {
	return &CoreError{Code: int(ExitStageFailure), Message: msg, Err: err}
}

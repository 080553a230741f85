// Package core provides the main VoiceMind client: the pipeline that
// classifies transcripts, updates the per-user model, and grows the shared
// knowledge graph.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates that a connection to the storage backend failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrClassificationFailed indicates that classification failed with no
	// fallback available.
	ErrClassificationFailed = errors.New("classification failed")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")
)

// PipelineError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
//
// Example:
//
//	err := &PipelineError{
//	    Op:  "Process",
//	    Err: ErrClassificationFailed,
//	}
//	// Error() returns: "voicemind: Process: classification failed"
type PipelineError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "voicemind: <Op>: <Err>"
func (e *PipelineError) Error() string {
	return fmt.Sprintf("voicemind: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with PipelineError.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewPipelineError("Process", err)
//	}
//
// Parameters:
//   - op: Name of the operation (e.g., "NewClient", "Process")
//   - err: The underlying error to wrap
//
// Returns a PipelineError, or nil if err is nil.
func NewPipelineError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{
		Op:  op,
		Err: err,
	}
}

package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyResponse is returned when the provider answers with no content.
var ErrEmptyResponse = errors.New("ai returned empty response")

// InferenceError wraps any failure of the external inference capability:
// network, timeout, non-success status or empty output.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Wrap returns err as an *InferenceError unless it already is one.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InferenceError
	if errors.As(err, &ie) {
		return err
	}
	return &InferenceError{Op: op, Err: err}
}

// IsInference reports whether err came from the inference capability.
func IsInference(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

package models

import (
	"errors"
	"fmt"
)

// Recoverable conditions: both are handled by falling back, never surfaced as
// request failures on forecasting endpoints.
var (
	// ErrAdapterUnavailable signals that the historical data fetch failed.
	ErrAdapterUnavailable = errors.New("historical data adapter unavailable")

	// ErrModelMissing signals that no trained model artifact exists.
	ErrModelMissing = errors.New("no trained model artifact")
)

// ErrFeatureMismatch is fatal for a prediction: the trained model's feature
// list does not match the current inputs, and silently dropping or reordering
// features would corrupt the result.
var ErrFeatureMismatch = errors.New("trained feature set does not match inputs")

// InvalidQueryError rejects a malformed request before any computation. It is
// surfaced to the caller as a client error.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// InvalidQueryf builds an InvalidQueryError with a formatted reason.
func InvalidQueryf(format string, args ...any) error {
	return &InvalidQueryError{Reason: fmt.Sprintf(format, args...)}
}

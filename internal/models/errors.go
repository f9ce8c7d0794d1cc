package models

import (
	"errors"
	"fmt"
)

// Error kinds raised by the analysis pipeline.
var (
	// ErrMalformedRecord marks an input record missing a required field.
	// Such records are skipped and reported as warnings.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInsufficientData marks a heuristic that could not run for lack of data.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvariantViolation marks a broken cross-stage invariant. It is a
	// programming defect and is never recovered from.
	ErrInvariantViolation = errors.New("invariant violation")
)

// RecordError describes a single rejected input record.
type RecordError struct {
	Kind   string // "transaction" or "holder"
	Index  int    // position in the input slice
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s #%d: %s", e.Kind, e.Index, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedRecord.
func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}

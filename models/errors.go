package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = fmt.Errorf("%w: invalid attendance state", ErrInvalidInput)
	ErrNotFound     = errors.New("not found")
	ErrQuorumNotMet = errors.New("quorum not met")
	ErrStorage      = errors.New("storage failure")
)

// ValidationError describes a rejected field. It matches ErrInvalidInput
// (or the more specific sentinel it was built with) under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	err    error
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	if e.err != nil {
		return e.err
	}
	return ErrInvalidInput
}

// QuorumError carries the quorum state that caused a vote to be rejected.
type QuorumError struct {
	CurrentPercent   float64
	ThresholdPercent float64
	TotalShares      int64
}

func (e *QuorumError) Error() string {
	if e.TotalShares == 0 {
		return "quorum not met: no shares registered"
	}
	return fmt.Sprintf("quorum not met: %.2f%% present, %.2f%% required", e.CurrentPercent, e.ThresholdPercent)
}

func (e *QuorumError) Unwrap() error {
	return ErrQuorumNotMet
}

// StorageError wraps a store failure for the named operation.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

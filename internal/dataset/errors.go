package dataset

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across the error taxonomy.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyResult  = errors.New("nothing to show")
)

// ColumnNotFoundError reports a column reference that is not in the dataset.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrInvalidInput
}

// InputError reports a rejected user selection: unknown method, wrong column
// type, clashing names. The dataset is left untouched.
type InputError struct {
	Op     string
	Reason string
}

func (e *InputError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid builds an InputError with a formatted reason.
func Invalid(op, format string, args ...any) error {
	return &InputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ParseError reports a cell that could not be read as a number.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %q as a number: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("cannot parse %q as a number", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyResultError is informational: there is nothing to compute or show.
type EmptyResultError struct {
	What string
}

func (e *EmptyResultError) Error() string { return e.What }

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

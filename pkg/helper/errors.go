package helper

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownHelper reports a call to a name that has no registered helper.
	ErrUnknownHelper = errors.New("helper: unknown helper")
	// ErrEmptyChoice reports a random pick over an empty set of values.
	ErrEmptyChoice = errors.New("helper: random requires at least one value")
)

// InvalidRangeError is returned by numeric helpers when the resolved lower
// bound is greater than the upper bound.
type InvalidRangeError struct {
	Start any
	End   any
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("helper: invalid range: start %v is greater than end %v", e.Start, e.End)
}

// ArgumentError describes an argument that is missing, surplus, or of the
// wrong type. Param is empty when the problem concerns the argument list as a
// whole (for example too many positional values).
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Param == "" {
		return "helper: " + e.Reason
	}
	return fmt.Sprintf("helper: argument %q %s", e.Param, e.Reason)
}

// CallError wraps any failure produced while invoking a named helper.
type CallError struct {
	Helper string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("helper %q: %v", e.Helper, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

package template

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-jen/pkg/helper"
)

// ErrUnknownHelper is wrapped by ValidationError when a template calls a name
// that is neither a registered helper nor a macro defined by the template.
var ErrUnknownHelper = helper.ErrUnknownHelper

// ErrTemplateTooLarge is returned when a remote template exceeds the size the
// loader accepts.
var ErrTemplateTooLarge = errors.New("template: remote template too large")

var errNotUnixSeconds = errors.New("value is not a unix timestamp")

// ParseError reports malformed template syntax. Line and Column are 1-based
// and zero when the engine could not locate the problem.
type ParseError struct {
	Source string
	Line   int
	Column int
	Near   string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "template: parse " + e.Source
	if e.Line > 0 {
		msg += fmt.Sprintf(":%d:%d", e.Line, e.Column)
	}
	if e.Near != "" {
		msg += fmt.Sprintf(" near %q", e.Near)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a template that parsed but cannot be rendered:
// an unknown helper, a malformed keyword call, or a failing dry-run call.
type ValidationError struct {
	Source string
	Helper string
	Line   int
	Column int
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "template: validate " + e.Source
	if e.Line > 0 {
		msg += fmt.Sprintf(":%d:%d", e.Line, e.Column)
	}
	var callErr *helper.CallError
	if e.Helper != "" && !errors.As(e.Err, &callErr) {
		msg += fmt.Sprintf(": helper %q", e.Helper)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RenderError reports a failure while rendering a validated template.
type RenderError struct {
	Source string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template: render %s: %v", e.Source, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

package engine

import (
	"errors"
	"strings"
)

// ErrorKind classifies conversion failures.
type ErrorKind string

const (
	ErrInvalidInput      ErrorKind = "invalid_input"
	ErrEngineFailure     ErrorKind = "engine_failure"
	ErrUnsupportedFormat ErrorKind = "unsupported_format"
	ErrExportFailed      ErrorKind = "export_failed"
)

// Error is returned by every Converter and Prober in this package.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind satisfies services.Classifier.
func (e *Error) ErrorKind() string { return string(e.Kind) }

// KindOf extracts the ErrorKind from err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}

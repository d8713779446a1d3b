package errors

import (
	"errors"
)

// ExitCodeError is an error that knows which exit status a binary should report.
type ExitCodeError struct {
	code ExitCode
	error
}

func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

// WithExitCode is NewError for callers returning a plain error: nil stays nil.
func WithExitCode(err error, exitCode ExitCode) error {
	if err == nil {
		return nil
	}
	return NewError(err, exitCode)
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

func (e *ExitCodeError) Unwrap() error {
	return e.error
}

// ExitCodeOf finds the exit status carried by err: 0 for nil, GenericFailureExitCode
// when nothing in err's chain has one.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return 0
	}
	var ece *ExitCodeError
	if errors.As(err, &ece) {
		return ece.GetExitCode()
	}
	return GenericFailureExitCode
}

package cli

import (
	"context"
	"errors"
)

// Process exit codes. A declined confirmation exits 0.
const (
	exitFailure     = 1
	exitValidation  = 2
	exitInterrupted = 130
)

// ExitError carries the process exit code for err.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func exitCodeError(code int, err error) error {
	if code <= 0 || err == nil {
		return err
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps a command error to a process exit code. Form validation
// failures exit 2 and an interrupted command (Ctrl-C) exits 130.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded *ExitError
	switch {
	case errors.As(err, &coded) && coded.Code > 0:
		return coded.Code
	case errors.Is(err, errValidation):
		return exitValidation
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	return exitFailure
}

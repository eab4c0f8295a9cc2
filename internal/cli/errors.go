package cli

import (
	"errors"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Exit codes returned by quotectl.
const (
	ExitCodeSuccess     = 0
	ExitCodeGeneric     = 1
	ExitCodeUsage       = 2
	ExitCodeNotFound    = 3
	ExitCodeInvalid     = 4
	ExitCodeUnavailable = 5
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

// ExitCode implements the interface main checks for.
func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeGeneric
	}

	return e.Code
}

// mapCommandError picks an exit code from the domain error kind.
func mapCommandError(err error) error {
	if err == nil {
		return nil
	}

	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	code := ExitCodeGeneric

	switch {
	case domain.IsNotFound(err):
		code = ExitCodeNotFound
	case domain.IsValidation(err), domain.IsFormat(err), domain.IsConflict(err):
		code = ExitCodeInvalid
	case domain.IsUnavailable(err):
		code = ExitCodeUnavailable
	}

	return &ExitError{Code: code, Err: err}
}

func usageError(err error) error {
	return &ExitError{Code: ExitCodeUsage, Err: err}
}

// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pubpublica/pubctl/internal/runtime"
)

var (
	// ErrUnknownOperation is the sentinel error wrapped by UnknownOperationError.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrMissingArgument is the sentinel error wrapped by MissingArgumentError.
	ErrMissingArgument = errors.New("missing argument")

	// ErrUnexpectedArgument is the sentinel error wrapped by UnexpectedArgumentError.
	ErrUnexpectedArgument = errors.New("unexpected argument")

	// ErrChildProcessFailure is the sentinel error wrapped by ChildProcessFailureError.
	ErrChildProcessFailure = errors.New("child process failed")

	// ErrDuplicateOperation is the sentinel error wrapped by DuplicateOperationError.
	ErrDuplicateOperation = errors.New("duplicate operation")
)

type (
	// UnknownOperationError is returned when no operation has the requested name.
	UnknownOperationError struct {
		Name  OperationName
		Known []OperationName
	}

	// MissingArgumentError is returned when fewer arguments than declared
	// parameters were given. Param is the first parameter left unbound.
	MissingArgumentError struct {
		Operation OperationName
		Param     ParamName
		// Position is the 1-based position of Param.
		Position int
		Usage    string
	}

	// UnexpectedArgumentError is returned when a non-variadic operation
	// receives arguments beyond its parameters.
	UnexpectedArgumentError struct {
		Operation OperationName
		Args      []string
		Usage     string
	}

	// ChildProcessFailureError is returned when the child exits non-zero.
	ChildProcessFailureError struct {
		Operation OperationName
		ExitCode  runtime.ExitCode
		// Output is the tail of the child's combined output.
		Output string
	}

	// DuplicateOperationError is returned when a table declares a name twice.
	DuplicateOperationError struct {
		Name OperationName
	}
)

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown operation %q", e.Name)
	}
	names := make([]string, len(e.Known))
	for i, n := range e.Known {
		names[i] = string(n)
	}
	return fmt.Sprintf("unknown operation %q (available: %s)", e.Name, strings.Join(names, ", "))
}

// Unwrap returns ErrUnknownOperation for errors.Is() compatibility.
func (e *UnknownOperationError) Unwrap() error { return ErrUnknownOperation }

// Error implements the error interface.
func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: missing argument <%s> (usage: %s)", e.Operation, e.Param, e.Usage)
}

// Unwrap returns ErrMissingArgument for errors.Is() compatibility.
func (e *MissingArgumentError) Unwrap() error { return ErrMissingArgument }

// Error implements the error interface.
func (e *UnexpectedArgumentError) Error() string {
	return fmt.Sprintf("%s: unexpected argument(s) %q (usage: %s)", e.Operation, e.Args, e.Usage)
}

// Unwrap returns ErrUnexpectedArgument for errors.Is() compatibility.
func (e *UnexpectedArgumentError) Unwrap() error { return ErrUnexpectedArgument }

// Error implements the error interface.
func (e *ChildProcessFailureError) Error() string {
	return fmt.Sprintf("%s: child process exited with code %d", e.Operation, e.ExitCode)
}

// Unwrap returns ErrChildProcessFailure for errors.Is() compatibility.
func (e *ChildProcessFailureError) Unwrap() error { return ErrChildProcessFailure }

// Error implements the error interface.
func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("duplicate operation %q", e.Name)
}

// Unwrap returns ErrDuplicateOperation for errors.Is() compatibility.
func (e *DuplicateOperationError) Unwrap() error { return ErrDuplicateOperation }

// IsUsageError reports whether err is a local argument error, which the CLI
// reports with the usage exit code instead of running anything.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrUnknownOperation) ||
		errors.Is(err, ErrMissingArgument) ||
		errors.Is(err, ErrUnexpectedArgument)
}

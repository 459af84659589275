// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strconv"
)

// Exit codes pubctl produces itself. Every other code comes from a child.
const (
	ExitSuccess ExitCode = 0
	// ExitFailure reports an infrastructure failure: nothing started, or the
	// child could not be waited for.
	ExitFailure ExitCode = 1
	// ExitUsage reports an invalid invocation, matching cobra.
	ExitUsage ExitCode = 2
	// ExitCommandNotFound is the shell status for a missing program.
	ExitCommandNotFound ExitCode = 127

	// signalBase is added to a signal number, as POSIX shells do for a
	// child killed by that signal.
	signalBase = 128
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status in the POSIX range 0-255.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode for errors.Is() compatibility.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// SignalExitCode returns the status a shell reports for a child killed by
// signal number sig.
func SignalExitCode(sig int) ExitCode {
	return ExitCode(signalBase + sig)
}

// Validate returns an error if c is outside 0-255.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether c is zero.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// IsCommandNotFound reports the shell's "command not found" status.
func (c ExitCode) IsCommandNotFound() bool { return c == ExitCommandNotFound }

// Signal returns the signal number encoded in a shell-style status above 128.
func (c ExitCode) Signal() (int, bool) {
	if c <= signalBase || c > 255 {
		return 0, false
	}
	return int(c) - signalBase, true
}

// String returns the decimal form of c.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

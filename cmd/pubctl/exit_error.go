// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/pubpublica/pubctl/internal/runtime"
)

const (
	exitFailure = runtime.ExitFailure
	exitUsage   = runtime.ExitUsage
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code runtime.ExitCode
	Err  error
	// reported is set once the error has been rendered on stderr.
	reported bool
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as an invalid invocation.
func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}

// alreadyReported reports whether err was rendered by App.fail.
func alreadyReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}

// exitCodeOf returns the process exit code for an error returned by the
// command tree.
func exitCodeOf(err error) runtime.ExitCode {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}

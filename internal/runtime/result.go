// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"mvdan.cc/sh/v3/interp"
)

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// waitResult maps the outcome of cmd.Run or cmd.Wait. Wait reports
// ErrWaitDelay when the child exited but a process it left behind kept the
// output pipes open past the delay; the child's own status is still in
// ProcessState.
func waitResult(ctx *ExecutionContext, cmd *exec.Cmd, err error) *Result {
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		if cmd.ProcessState.Success() {
			return NewSuccessResult()
		}
		err = &exec.ExitError{ProcessState: cmd.ProcessState}
	}
	return resultFromError(ctx, err)
}

// resultFromError maps the error returned by running a child to a Result.
// A child that exited on its own yields its status and one killed by a signal
// yields 128+signal, as a shell reports it. A start failure or a cancelled
// context is an infrastructure error.
func resultFromError(ctx *ExecutionContext, err error) *Result {
	if err == nil {
		return NewSuccessResult()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.context().Err(); ctxErr != nil {
			return NewErrorResult(ExitFailure, fmt.Errorf("execution cancelled: %w", ctxErr))
		}
		code := ExitCode(exitErr.ExitCode())
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = SignalExitCode(int(ws.Signal()))
		}
		if validateErr := code.Validate(); validateErr != nil {
			return NewErrorResult(ExitFailure, fmt.Errorf("child terminated abnormally (%s): %w", exitErr, validateErr))
		}
		return NewExitCodeResult(code)
	}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		return NewExitCodeResult(ExitCode(status))
	}

	if ctxErr := ctx.context().Err(); ctxErr != nil {
		return NewErrorResult(ExitFailure, fmt.Errorf("execution cancelled: %w", ctxErr))
	}
	return NewErrorResult(ExitFailure, fmt.Errorf("failed to execute command: %w", err))
}

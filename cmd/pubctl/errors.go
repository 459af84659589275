// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/issue"
	"github.com/pubpublica/pubctl/internal/runtime"
	"github.com/pubpublica/pubctl/pkg/pubconfig"

	"github.com/spf13/cobra"
)

// errorClass is how the CLI reports an error: the catalog entry shown as
// guidance and the process exit code.
type errorClass struct {
	issue issue.Id
	code  runtime.ExitCode
}

// classifyError maps err to its guidance and exit code. fallback is used
// for errors no rule matches.
func classifyError(err error, fallback issue.Id) errorClass {
	var (
		actionable *issue.ActionableError
		exitErr    *ExitError
		failure    *dispatch.ChildProcessFailureError
	)

	switch {
	case errors.As(err, &failure):
		return errorClass{code: failure.ExitCode}
	case errors.As(err, &actionable) && actionable.Issue != 0:
		return errorClass{issue: actionable.Issue, code: exitFailure}
	case errors.Is(err, dispatch.ErrUnknownOperation):
		return errorClass{issue: issue.OperationNotFoundId, code: exitUsage}
	case errors.Is(err, dispatch.ErrMissingArgument):
		return errorClass{issue: issue.MissingArgumentId, code: exitUsage}
	case errors.Is(err, dispatch.ErrUnexpectedArgument):
		return errorClass{issue: issue.UnexpectedArgumentId, code: exitUsage}
	case errors.Is(err, runtime.ErrInvalidMode):
		return errorClass{issue: issue.InvalidRuntimeModeId, code: exitUsage}
	case errors.Is(err, runtime.ErrRuntimeNotAvailable):
		return errorClass{issue: issue.RuntimeNotAvailableId, code: exitFailure}
	case errors.Is(err, runtime.ErrEnvironmentUnavailable):
		return errorClass{issue: issue.VenvNotFoundId, code: exitFailure}
	case errors.Is(err, exec.ErrNotFound):
		return errorClass{issue: issue.InterpreterNotFoundId, code: exitFailure}
	case errors.Is(err, pubconfig.ErrConfigurationKeyMissing):
		return errorClass{issue: issue.ConfigurationKeyMissingId, code: exitFailure}
	case errors.Is(err, os.ErrPermission):
		return errorClass{issue: issue.PermissionDeniedId, code: exitFailure}
	case errors.As(err, &exitErr):
		return errorClass{issue: fallback, code: exitErr.Code}
	default:
		return errorClass{issue: fallback, code: exitFailure}
	}
}

// fail reports err on stderr and returns the ExitError that carries its exit
// code out of cobra. A failing child has already streamed its own output,
// so only its code is propagated.
func (a *App) fail(cmd *cobra.Command, ws *workspace, err error, fallback issue.Id) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	class := classifyError(err, fallback)

	var failure *dispatch.ChildProcessFailureError
	if errors.As(err, &failure) {
		if ws != nil {
			ws.logger.Debug("operation failed", "operation", failure.Operation, "code", failure.ExitCode)
		}
		return &ExitError{Code: class.code, Err: err, reported: true}
	}

	verbose := ws != nil && ws.verbose
	fmt.Fprintln(a.stderr, failStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	renderGuidance(a.stderr, class.issue, ws.glamourStyle())

	return &ExitError{Code: class.code, Err: err, reported: true}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method, which adds suggestions and, in verbose mode, the
// full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderGuidance renders the catalog entry for id below the error.
func renderGuidance(w io.Writer, id issue.Id, style string) {
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(style)
	if err != nil {
		fmt.Fprintln(w, entry.MarkdownMsg())
		return
	}
	fmt.Fprint(w, rendered)
}

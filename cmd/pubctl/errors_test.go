// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/issue"
	"github.com/pubpublica/pubctl/internal/runtime"
	"github.com/pubpublica/pubctl/pkg/pubconfig"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	actionable := issue.NewErrorContext().
		WithOperation("load configuration document").
		WithIssue(issue.DocumentNotFoundId).
		Wrap(os.ErrNotExist).
		BuildError()

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
		wantCode  runtime.ExitCode
	}{
		{
			name:     "child failure keeps its code",
			err:      &dispatch.ChildProcessFailureError{Operation: "deploy", ExitCode: 42},
			wantCode: 42,
		},
		{
			name:      "actionable error",
			err:       actionable,
			wantIssue: issue.DocumentNotFoundId,
			wantCode:  exitFailure,
		},
		{
			name:      "unknown operation",
			err:       &dispatch.UnknownOperationError{Name: "frobnicate"},
			wantIssue: issue.OperationNotFoundId,
			wantCode:  exitUsage,
		},
		{
			name:      "missing argument",
			err:       &dispatch.MissingArgumentError{Operation: "deploy", Param: dispatch.ParamHost},
			wantIssue: issue.MissingArgumentId,
			wantCode:  exitUsage,
		},
		{
			name:      "unexpected argument",
			err:       &dispatch.UnexpectedArgumentError{Operation: "test", Args: []string{"x"}},
			wantIssue: issue.UnexpectedArgumentId,
			wantCode:  exitUsage,
		},
		{
			name:      "invalid runtime",
			err:       &runtime.InvalidModeError{Value: "docker"},
			wantIssue: issue.InvalidRuntimeModeId,
			wantCode:  exitUsage,
		},
		{
			name:      "runtime not available",
			err:       fmt.Errorf("dispatch: %w", runtime.ErrRuntimeNotAvailable),
			wantIssue: issue.RuntimeNotAvailableId,
			wantCode:  exitFailure,
		},
		{
			name:      "venv missing",
			err:       fmt.Errorf("test: %w", runtime.ErrEnvironmentUnavailable),
			wantIssue: issue.VenvNotFoundId,
			wantCode:  exitFailure,
		},
		{
			name:      "interpreter missing",
			err:       &exec.Error{Name: "python3", Err: exec.ErrNotFound},
			wantIssue: issue.InterpreterNotFoundId,
			wantCode:  exitFailure,
		},
		{
			name:      "configuration key missing",
			err:       &pubconfig.ConfigurationKeyMissingError{Section: "DEPLOY", Key: "USER"},
			wantIssue: issue.ConfigurationKeyMissingId,
			wantCode:  exitFailure,
		},
		{
			name:      "permission denied",
			err:       fmt.Errorf("open: %w", os.ErrPermission),
			wantIssue: issue.PermissionDeniedId,
			wantCode:  exitFailure,
		},
		{
			name:      "usage error uses fallback issue",
			err:       usageError(errors.New("accepts 0 arg(s)")),
			wantIssue: issue.ScriptExecutionFailedId,
			wantCode:  exitUsage,
		},
		{
			name:      "unclassified error uses fallback",
			err:       errors.New("something else"),
			wantIssue: issue.ScriptExecutionFailedId,
			wantCode:  exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classifyError(tt.err, issue.ScriptExecutionFailedId)
			if got.issue != tt.wantIssue {
				t.Errorf("issue = %v, want %v", got.issue, tt.wantIssue)
			}
			if got.code != tt.wantCode {
				t.Errorf("code = %d, want %d", got.code, tt.wantCode)
			}
		})
	}
}

func TestExitCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want runtime.ExitCode
	}{
		{"nil", nil, 0},
		{"exit error", &ExitError{Code: 3}, 3},
		{"wrapped exit error", fmt.Errorf("run: %w", &ExitError{Code: 127}), 127},
		{"usage error", usageError(errors.New("bad flag")), exitUsage},
		{"plain error", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeOf(tt.err); got != tt.want {
				t.Errorf("exitCodeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	withErr := &ExitError{Code: 2, Err: inner}
	if withErr.Error() != "inner" {
		t.Errorf("Error() = %q, want %q", withErr.Error(), "inner")
	}
	if !errors.Is(withErr, inner) {
		t.Error("errors.Is(ExitError, inner) = false, want true")
	}

	bare := &ExitError{Code: 5}
	if bare.Error() != "exit status 5" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "exit status 5")
	}
	if alreadyReported(bare) {
		t.Error("alreadyReported(bare) = true, want false")
	}
	if !alreadyReported(&ExitError{Code: 1, reported: true}) {
		t.Error("alreadyReported(reported) = false, want true")
	}
}

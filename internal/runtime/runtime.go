// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Runtime modes.
const (
	ModeNative  Mode = "native"
	ModeVirtual Mode = "virtual"
	ModeTTY     Mode = "tty"
)

var (
	// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
	ErrInvalidMode = errors.New("invalid runtime mode")

	// ErrRuntimeNotAvailable is returned when a registered runtime cannot
	// run on this host, or no runtime is registered for a mode.
	ErrRuntimeNotAvailable = errors.New("runtime not available")

	// ErrEmptyArgv is returned when an ExecutionContext has no program.
	ErrEmptyArgv = errors.New("no program to execute")
)

type (
	// Mode selects how a child process is started.
	Mode string

	// InvalidModeError is returned when a Mode is not one of the defined modes.
	InvalidModeError struct {
		Value Mode
	}

	// RuntimeNotAvailableError reports a mode that cannot be used.
	//
	//nolint:revive // RuntimeNotAvailableError reads better at call sites than NotAvailableError
	RuntimeNotAvailableError struct {
		Mode   Mode
		Reason string
	}

	// IOContext holds the standard streams of an execution.
	IOContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ExecutionContext contains everything needed to start one child process.
	ExecutionContext struct {
		// Context is the Go context for cancellation. Cancelling it kills the child.
		Context context.Context
		// ExecutionID identifies this execution in logs.
		ExecutionID string
		// Argv is the program and its arguments. Argv[0] is an interpreter
		// name ("python3") or path, resolved against the venv first.
		Argv []string
		// Dir is the working directory of the child.
		Dir string
		// ExtraEnv is added to the child environment after activation.
		ExtraEnv map[string]string
		// Venv is the virtual environment directory. Empty disables activation.
		Venv string
		// IO holds the child's standard streams.
		IO IOContext
	}

	// Result contains the result of an execution.
	Result struct {
		// ExitCode is the exit code of the child, or 1 when it could not run.
		ExitCode ExitCode
		// Error is set when the child could not be started or waited for.
		// A child that ran and exited non-zero has a nil Error.
		Error error
	}

	// Runtime defines the interface for starting a child process.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Available reports whether this runtime can run on the current host.
		Available() bool
		// Validate checks an execution before anything is started.
		Validate(ctx *ExecutionContext) error
		// Execute runs the child and blocks until it exits.
		Execute(ctx *ExecutionContext) *Result
	}

	// Registry holds the runtimes by mode.
	Registry struct {
		runtimes map[Mode]Runtime
	}
)

// Modes returns every runtime mode.
func Modes() []Mode {
	return []Mode{ModeNative, ModeVirtual, ModeTTY}
}

// ParseMode converts a user-supplied name to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// String returns the mode name.
func (m Mode) String() string { return string(m) }

// Validate returns an error if m is not one of the defined modes.
func (m Mode) Validate() error {
	if slices.Contains(Modes(), m) {
		return nil
	}
	return &InvalidModeError{Value: m}
}

// Error implements the error interface.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual, tty)", e.Value)
}

// Unwrap returns ErrInvalidMode for errors.Is() compatibility.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// Error implements the error interface.
func (e *RuntimeNotAvailableError) Error() string {
	return fmt.Sprintf("runtime %q not available: %s", e.Mode, e.Reason)
}

// Unwrap returns ErrRuntimeNotAvailable for errors.Is() compatibility.
func (e *RuntimeNotAvailableError) Unwrap() error { return ErrRuntimeNotAvailable }

// NewExecutionContext creates an execution context with the process streams
// and a background context.
func NewExecutionContext(argv []string, dir string) *ExecutionContext {
	return &ExecutionContext{
		Context:  context.Background(),
		Argv:     slices.Clone(argv),
		Dir:      dir,
		ExtraEnv: make(map[string]string),
		IO: IOContext{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
	}
}

func (ctx *ExecutionContext) context() context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}

// validateCommon holds the checks shared by every runtime.
func validateCommon(ctx *ExecutionContext) error {
	if len(ctx.Argv) == 0 || ctx.Argv[0] == "" {
		return ErrEmptyArgv
	}
	if err := validateWorkDir(ctx.Dir); err != nil {
		return err
	}
	return CheckVenv(ctx.Venv)
}

// Success returns true if the command executed successfully
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// NewRegistry creates a new runtime registry
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[Mode]Runtime),
	}
}

// Register adds a runtime to the registry
func (r *Registry) Register(mode Mode, rt Runtime) {
	r.runtimes[mode] = rt
}

// Get returns the runtime for mode if it is registered and available.
func (r *Registry) Get(mode Mode) (Runtime, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	rt, ok := r.runtimes[mode]
	if !ok {
		return nil, &RuntimeNotAvailableError{Mode: mode, Reason: "not registered"}
	}
	if !rt.Available() {
		return nil, &RuntimeNotAvailableError{Mode: mode, Reason: "not supported on this host"}
	}
	return rt, nil
}

// Available returns the modes whose runtimes can run on this host.
func (r *Registry) Available() []Mode {
	var modes []Mode
	for _, m := range Modes() {
		if rt, ok := r.runtimes[m]; ok && rt.Available() {
			modes = append(modes, m)
		}
	}
	return modes
}

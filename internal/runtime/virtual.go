// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime runs the activation recipe
//
//	. venv/bin/activate && VAR=value interpreter args...
//
// in an embedded POSIX shell, the same shape a justfile recipe has. The
// shell gets its own copy of the host environment, so sourcing the activate
// script never leaks into the pubctl process.
type VirtualRuntime struct {
	environ func() []string
}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{environ: os.Environ}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(ModeVirtual)
}

// Available returns whether this runtime is available
func (r *VirtualRuntime) Available() bool {
	// Virtual runtime is always available as it's built-in
	return true
}

// Validate checks the execution and that the recipe parses.
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if err := validateCommon(ctx); err != nil {
		return err
	}
	if ctx.Venv != "" {
		if _, err := os.Stat(ActivateScript(ctx.Venv)); err != nil {
			return &EnvironmentError{Venv: ctx.Venv, Reason: "missing activate script"}
		}
	}
	script, err := Recipe(ctx)
	if err != nil {
		return err
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(script), "recipe"); err != nil {
		return fmt.Errorf("recipe syntax error: %w", err)
	}
	return nil
}

// Execute runs the recipe and returns the child's exit status.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	if err := r.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	script, err := Recipe(ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "recipe")
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to parse recipe: %w", err))
	}

	environ := r.environ
	if environ == nil {
		environ = os.Environ
	}

	runner, err := interp.New(
		interp.Dir(ctx.Dir),
		interp.Env(expand.ListEnviron(environ()...)),
		interp.StdIO(ctx.IO.Stdin, ctx.IO.Stdout, ctx.IO.Stderr),
	)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	err = runner.Run(ctx.context(), prog)
	if err == nil {
		return NewSuccessResult()
	}
	var status interp.ExitStatus
	if errors.As(err, &status) && ctx.context().Err() == nil {
		return NewExitCodeResult(ExitCode(status))
	}
	return resultFromError(ctx, err)
}

// Recipe renders the shell command the virtual runtime executes. Every
// word is quoted, so arguments reach the interpreter exactly as given.
func Recipe(ctx *ExecutionContext) (string, error) {
	if len(ctx.Argv) == 0 {
		return "", ErrEmptyArgv
	}

	var b strings.Builder
	if ctx.Venv != "" {
		activate, err := quote(ActivateScript(ctx.Venv))
		if err != nil {
			return "", err
		}
		b.WriteString(". " + activate + " && ")
	}

	for _, name := range slices.Sorted(maps.Keys(ctx.ExtraEnv)) {
		if !syntax.ValidName(name) {
			return "", fmt.Errorf("invalid environment variable name %q", name)
		}
		value, err := quote(ctx.ExtraEnv[name])
		if err != nil {
			return "", err
		}
		b.WriteString(name + "=" + value + " ")
	}

	for i, arg := range ctx.Argv {
		word, err := quote(arg)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	return b.String(), nil
}

func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q for the shell: %w", s, err)
	}
	return q, nil
}

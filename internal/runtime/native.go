// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait blocks on the child's output pipes once the
// child has exited or was killed. A background process the child left behind
// may hold them open indefinitely.
const waitDelay = 5 * time.Second

// NativeRuntime starts the interpreter directly with os/exec.
type NativeRuntime struct {
	// environ returns the host environment. It is os.Environ outside tests.
	environ func() []string
	// waitDelay overrides the package default when non-zero.
	waitDelay time.Duration
}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{environ: os.Environ}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(ModeNative)
}

// Available returns whether this runtime is available
func (r *NativeRuntime) Available() bool {
	return true
}

// Validate checks that the program, working directory and venv are usable.
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	return validateCommon(ctx)
}

// Execute runs the child with the activated environment and streams its
// output to ctx.IO.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	if err := r.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	cmd := r.command(ctx)
	cmd.Stdin = ctx.IO.Stdin
	cmd.Stdout = ctx.IO.Stdout
	cmd.Stderr = ctx.IO.Stderr

	return waitResult(ctx, cmd, cmd.Run())
}

// command builds the child process without attaching any I/O.
func (r *NativeRuntime) command(ctx *ExecutionContext) *exec.Cmd {
	environ := r.environ
	if environ == nil {
		environ = os.Environ
	}

	program := ResolveInterpreter(ctx.Argv[0], ctx.Venv)
	cmd := exec.CommandContext(ctx.context(), program, ctx.Argv[1:]...)
	cmd.Dir = ctx.Dir
	cmd.Env = ActivatedEnv(environ(), ctx.Venv, ctx.ExtraEnv)
	cmd.WaitDelay = waitDelay
	if r.waitDelay > 0 {
		cmd.WaitDelay = r.waitDelay
	}
	return cmd
}

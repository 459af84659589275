// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runtime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/creack/pty"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// TTYRuntime runs the child like NativeRuntime, but on a pseudo-terminal.
// Scripts that read passwords or confirmations with a tty check (getpass,
// sudo) then work as they do from a shell. stdout and stderr are merged by
// the terminal and arrive on ctx.IO.Stdout.
type TTYRuntime struct {
	native *NativeRuntime
}

// NewTTYRuntime creates a new tty runtime
func NewTTYRuntime() *TTYRuntime {
	return &TTYRuntime{native: NewNativeRuntime()}
}

// Name returns the runtime name
func (r *TTYRuntime) Name() string {
	return string(ModeTTY)
}

// Available returns whether this runtime is available
func (r *TTYRuntime) Available() bool {
	return true
}

// Validate checks that the program, working directory and venv are usable.
func (r *TTYRuntime) Validate(ctx *ExecutionContext) error {
	return validateCommon(ctx)
}

// Execute starts the child on a new pseudo-terminal and relays it to
// ctx.IO. When stdin is itself a terminal it is switched to raw mode for the
// duration so keystrokes reach the child unprocessed.
func (r *TTYRuntime) Execute(ctx *ExecutionContext) *Result {
	if err := r.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	cmd := r.native.command(ctx)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to start on a pseudo-terminal: %w", err))
	}
	defer func() { _ = ptmx.Close() }() // Best-effort; the child has exited

	if in, ok := ctx.IO.Stdin.(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		_ = pty.InheritSize(in, ptmx) // Default size is fine if this fails
		if state, rawErr := term.MakeRaw(int(in.Fd())); rawErr == nil {
			defer func() { _ = term.Restore(int(in.Fd()), state) }()
		}
	}

	if ctx.IO.Stdin != nil {
		defer relayInput(ptmx, ctx.IO.Stdin)()
	}

	stdout := ctx.IO.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	// Reading the master fails with EIO once the child side is closed.
	if _, copyErr := io.Copy(stdout, ptmx); copyErr != nil && !errors.Is(copyErr, syscall.EIO) {
		_ = cmd.Wait()
		return NewErrorResult(1, fmt.Errorf("relaying terminal output: %w", copyErr))
	}

	return waitResult(ctx, cmd, cmd.Wait())
}

// relayInput copies in to the terminal until the returned stop is called.
// Stopping interrupts a pending read on a terminal or pipe, so input typed
// after the child exits stays with the next reader. Readers that cannot be
// polled, like regular files, are relayed until they end.
func relayInput(ptmx io.Writer, in io.Reader) (stop func()) {
	cr, err := cancelreader.NewReader(in)
	if err != nil {
		go func() { _, _ = io.Copy(ptmx, in) }()
		return func() {}
	}
	go func() {
		_, _ = io.Copy(ptmx, cr)
		_ = cr.Close()
	}()
	return func() { cr.Cancel() }
}

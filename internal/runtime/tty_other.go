// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runtime

// TTYRuntime is unavailable on Windows, which has no POSIX pseudo-terminals.
type TTYRuntime struct{}

// NewTTYRuntime creates a new tty runtime
func NewTTYRuntime() *TTYRuntime {
	return &TTYRuntime{}
}

// Name returns the runtime name
func (r *TTYRuntime) Name() string {
	return string(ModeTTY)
}

// Available returns whether this runtime is available
func (r *TTYRuntime) Available() bool {
	return false
}

// Validate always fails on this platform.
func (r *TTYRuntime) Validate(*ExecutionContext) error {
	return &RuntimeNotAvailableError{Mode: ModeTTY, Reason: "pseudo-terminals are not supported on windows"}
}

// Execute always fails on this platform.
func (r *TTYRuntime) Execute(ctx *ExecutionContext) *Result {
	return NewErrorResult(1, r.Validate(ctx))
}

// SPDX-License-Identifier: MPL-2.0

// Package runtime runs one resolved tool invocation as a child process inside
// the repository's Python virtual environment.
//
// Three runtime implementations are available:
//   - native: executes the interpreter directly with os/exec and an activated
//     copy of the host environment
//   - virtual: executes an activation recipe (". venv/bin/activate && ...")
//     in an embedded shell interpreter (mvdan/sh)
//   - tty: native, attached to a pseudo-terminal so scripts that prompt (sudo
//     passwords, confirmations) behave as they would in a terminal
//
// All runtimes implement the Runtime interface with Name(), Available(),
// Validate() and Execute(). Activation is always scoped to the child: the
// pubctl process environment is never modified.
package runtime

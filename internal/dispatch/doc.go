// SPDX-License-Identifier: MPL-2.0

// Package dispatch maps pubpublica operation names to a single invocation of
// an external tool script and runs it.
//
// The operation table is static. Dispatching an operation binds positional
// arguments to the operation's declared parameters, passes any trailing flags
// through verbatim, resolves the interpreter argv, and runs it once through a
// runtime that activates the repository's virtual environment for the child
// only. The child's exit code is the result; there are no retries.
package dispatch

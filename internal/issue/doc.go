// SPDX-License-Identifier: MPL-2.0

// Package issue holds pubctl's user-facing error reporting: ActionableError
// for what failed and how to fix it, and a catalog of Markdown guidance
// (missing venv, unknown operation, missing configuration key, ...) that the
// CLI renders with glamour below the error.
package issue

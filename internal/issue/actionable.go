// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing error: what pubctl was doing, on which
	// file or operation, and what the user can do about it. The CLI prints
	// it with Format and renders the linked catalog entry below it.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration document").
	//		WithResource(docPath).
	//		WithSuggestion("Pass --pc-document to read another file").
	//		WithIssue(issue.DocumentNotFoundId).
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "load configuration document".
		Operation string
		// Resource is the path or name involved, if any.
		Resource string
		// Suggestions are one-line fixes shown below the message.
		Suggestions []string
		// Cause is the underlying error.
		Cause error
		// Issue links a catalog entry with longer guidance. Zero means none.
		Issue Id
	}

	// ErrorContext builds an ActionableError incrementally.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error returns "cannot <operation> <resource>: <cause>".
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("cannot ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(" ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format returns the message followed by the suggestions. In verbose mode the
// causes are listed one per line, including every branch of joined errors.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	for _, s := range e.Suggestions {
		msg.WriteString("\n  → ")
		msg.WriteString(s)
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nCaused by:")
		for _, c := range causeChain(e.Cause) {
			fmt.Fprintf(&msg, "\n  %s%s", strings.Repeat("  ", c.depth), c.err.Error())
		}
	}
	return msg.String()
}

// Guidance returns the linked catalog issue, or nil when none is linked.
func (e *ActionableError) Guidance() *Issue {
	if e.Issue == 0 {
		return nil
	}
	return Get(e.Issue)
}

type cause struct {
	err   error
	depth int
}

// causeChain flattens err and everything it wraps, depth first.
func causeChain(err error) []cause {
	var out []cause
	var walk func(error, int)
	walk = func(err error, depth int) {
		if err == nil {
			return
		}
		out = append(out, cause{err: err, depth: depth})
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner, depth+1)
			}
		default:
			walk(errors.Unwrap(err), depth+1)
		}
	}
	walk(err, 0)
	return out
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithResource sets the path or name involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends a suggestion. It can be called more than once.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

// WithIssue links the error to a catalog issue.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.Issue = id
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set. The
// builder can be reused; each Build returns an independent copy.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	out := c.err
	out.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &out
}

// BuildError is Build returned as an error, so that a missing operation
// yields a nil interface rather than a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}

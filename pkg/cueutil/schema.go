// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the input accepted by Schema.Check.
const DefaultMaxFileSize int64 = 5 << 20

type (
	// Schema is an embedded CUE source plus the definition inputs are
	// checked against. It holds no CUE runtime, so one Schema can be shared
	// between goroutines; every Check compiles in a fresh context.
	Schema struct {
		src        []byte
		definition string
	}

	// Checked is an input that passed a Schema. User is the input as
	// written, with its field order; Unified is User unified with the
	// definition.
	Checked struct {
		User     cue.Value
		Unified  cue.Value
		Filename string
	}

	// Option adjusts a single Check.
	Option func(*checkOptions)

	checkOptions struct {
		filename   string
		maxSize    int64
		incomplete bool
	}
)

// NewSchema returns a Schema for the given definition path, e.g. "#Config".
func NewSchema(src []byte, definition string) *Schema {
	return &Schema{src: src, definition: definition}
}

// Named labels error messages with name instead of "<input>".
func Named(name string) Option {
	return func(o *checkOptions) { o.filename = name }
}

// LimitSize replaces DefaultMaxFileSize.
func LimitSize(n int64) Option {
	return func(o *checkOptions) { o.maxSize = n }
}

// AllowIncomplete accepts inputs that leave required fields unset. Settings
// files use it since every field has a default.
func AllowIncomplete() Option {
	return func(o *checkOptions) { o.incomplete = true }
}

// Check compiles data, unifies it with the definition and validates it.
func (s *Schema) Check(data []byte, opts ...Option) (*Checked, error) {
	o := checkOptions{filename: "<input>", maxSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	def := ctx.CompileBytes(s.src).LookupPath(cue.ParsePath(s.definition))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("internal error: schema %s: %w", s.definition, err)
	}

	user := ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := user.Err(); err != nil {
		return nil, FormatError(err, o.filename)
	}

	unified := def.Unify(user)
	var validateOpts []cue.Option
	if !o.incomplete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, o.filename)
	}

	return &Checked{User: user, Unified: unified, Filename: o.filename}, nil
}

// Decode decodes the unified value into v.
func (c *Checked) Decode(v any) error {
	return FormatError(c.Unified.Decode(v), c.Filename)
}

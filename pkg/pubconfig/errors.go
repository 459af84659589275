// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigurationKeyMissing is the sentinel error wrapped by
	// ConfigurationKeyMissingError.
	ErrConfigurationKeyMissing = errors.New("configuration key missing")

	// ErrValueType is the sentinel error wrapped by ValueTypeError.
	ErrValueType = errors.New("configuration value has the wrong type")

	// ErrUnsupportedFormat is returned when a document format cannot be
	// determined or is not one of json, cue or toml.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

type (
	// ConfigurationKeyMissingError reports a required section or key that is
	// absent from the document.
	ConfigurationKeyMissingError struct {
		Section Section
		Key     Key
		// SectionMissing is true when the whole section is absent.
		SectionMissing bool
	}

	// ValueTypeError reports a present key whose value has a different kind
	// than the accessor expects.
	ValueTypeError struct {
		Section Section
		Key     Key
		Want    Kind
		Got     Kind
	}

	// ValidationError lists every declared key missing from a document.
	ValidationError struct {
		Missing []*ConfigurationKeyMissingError
	}
)

// Error implements the error interface.
func (e *ConfigurationKeyMissingError) Error() string {
	if e.SectionMissing {
		return fmt.Sprintf("configuration key %s.%s missing: no %s section", e.Section, e.Key, e.Section)
	}
	return fmt.Sprintf("configuration key %s.%s missing", e.Section, e.Key)
}

// Unwrap returns ErrConfigurationKeyMissing for errors.Is() compatibility.
func (e *ConfigurationKeyMissingError) Unwrap() error { return ErrConfigurationKeyMissing }

// Error implements the error interface.
func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("configuration value %s.%s is a %s, want %s", e.Section, e.Key, e.Got, e.Want)
}

// Unwrap returns ErrValueType for errors.Is() compatibility.
func (e *ValueTypeError) Unwrap() error { return ErrValueType }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m.Section) + "." + string(m.Key)
	}
	return fmt.Sprintf("%d configuration key(s) missing: %s", len(e.Missing), strings.Join(names, ", "))
}

// Unwrap exposes each missing-key error so errors.Is and errors.As reach them.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Missing))
	for i, m := range e.Missing {
		errs[i] = m
	}
	return errs
}

// SPDX-License-Identifier: MPL-2.0

package pubconfig

import "errors"

// Validate checks that every declared key of every declared section is
// present with the expected kind. Missing keys are collected into a single
// *ValidationError; a kind mismatch is returned immediately as a
// *ValueTypeError, since the schema check at load time already rules it out
// for documents read through Load or Parse.
func Validate(doc *Document) error {
	var missing []*ConfigurationKeyMissingError
	for _, s := range declared {
		for _, dk := range s.keys {
			_, err := doc.require(s.name, dk.Key, dk.Kind)
			if err == nil {
				continue
			}
			var m *ConfigurationKeyMissingError
			if errors.As(err, &m) {
				missing = append(missing, m)
				continue
			}
			return err
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
	FormatTOML Format = "toml"
)

// Format is a serialization of the configuration document.
type Format string

// Formats returns every supported format, canonical first.
func Formats() []Format {
	return []Format{FormatJSON, FormatCUE, FormatTOML}
}

// ParseFormat converts a user-supplied name (case-insensitive) to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatJSON, FormatCUE, FormatTOML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want json, cue or toml)", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// FormatError turns a CUE error into one "<path>: <message>" line per
// problem, prefixed with filename:
//
//	pubpublica.json: REDIS.REDIS_PORT: conflicting values "6379" and int
//
// Errors that did not come from CUE are wrapped unchanged.
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}

	var cueErr errors.Error
	if !errors.As(err, &cueErr) {
		return fmt.Errorf("%s: %w", filename, err)
	}

	list := errors.Errors(err)
	lines := make([]string, len(list))
	for i, e := range list {
		lines[i] = describe(e)
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// describe renders one CUE error from its path and its bare message.
func describe(e errors.Error) string {
	format, args := e.Msg()
	msg := fmt.Sprintf(format, args...)
	if path := formatPath(errors.Path(e)); path != "" {
		return path + ": " + msg
	}
	return msg
}

// formatPath joins path with dots and shows numeric elements after the first
// as indices, so DEPLOY INCLUDES 2 becomes "DEPLOY.INCLUDES[2]". A leading
// schema definition such as #Document is dropped, since users never write it.
func formatPath(path []string) string {
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}

	var b strings.Builder
	for i, part := range path {
		switch {
		case i == 0:
			b.WriteString(part)
		case isIndex(part):
			fmt.Fprintf(&b, "[%s]", part)
		default:
			b.WriteString("." + part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

// CheckFileSize rejects data larger than limit bytes.
func CheckFileSize(data []byte, limit int64, filename string) error {
	if n := int64(len(data)); n > limit {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, n, limit)
	}
	return nil
}

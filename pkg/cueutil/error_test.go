// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "pubpublica.json"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		original := errors.New("some error")
		err := FormatError(original, "pubpublica.json")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "pubpublica.json") {
			t.Errorf("error should contain filepath, got: %v", err)
		}
		if !errors.Is(err, original) {
			t.Errorf("error should wrap the original, got: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{name: "empty path", path: nil, expected: ""},
		{name: "section only", path: []string{"REDIS"}, expected: "REDIS"},
		{name: "section and key", path: []string{"REDIS", "REDIS_PORT"}, expected: "REDIS.REDIS_PORT"},
		{name: "list element", path: []string{"DEPLOY", "INCLUDES", "2"}, expected: "DEPLOY.INCLUDES[2]"},
		{name: "leading digits stay a field", path: []string{"0", "name"}, expected: "0.name"},
		{name: "definition dropped", path: []string{"#Document", "REDIS", "REDIS_PORT"}, expected: "REDIS.REDIS_PORT"},
		{name: "definition only", path: []string{"#Document"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "empty", size: 0},
		{name: "within limit", size: 11},
		{name: "at exact limit", size: 100},
		{name: "exceeds limit", size: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckFileSize(make([]byte, tt.size), 100, "pubctl.cue")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckFileSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "pubctl.cue") {
				t.Errorf("error should contain filename, got: %v", err)
			}
		})
	}
}

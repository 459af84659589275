// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"testing"
)

func TestExitCode_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value     ExitCode
		wantValid bool
	}{
		{ExitSuccess, true},
		{ExitFailure, true},
		{ExitUsage, true},
		{ExitCommandNotFound, true},
		{255, true},
		{-1, false},
		{256, false},
	}

	for _, tt := range tests {
		t.Run(tt.value.String(), func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Errorf("ExitCode(%d).Validate() = %v, want valid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error does not wrap ErrInvalidExitCode: %v", err)
			}
		})
	}
}

func TestExitCode_Predicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code         ExitCode
		wantSuccess  bool
		wantNotFound bool
	}{
		{0, true, false},
		{1, false, false},
		{126, false, false},
		{127, false, true},
		{130, false, false},
	}

	for _, tt := range tests {
		if got := tt.code.IsSuccess(); got != tt.wantSuccess {
			t.Errorf("ExitCode(%d).IsSuccess() = %v, want %v", tt.code, got, tt.wantSuccess)
		}
		if got := tt.code.IsCommandNotFound(); got != tt.wantNotFound {
			t.Errorf("ExitCode(%d).IsCommandNotFound() = %v, want %v", tt.code, got, tt.wantNotFound)
		}
	}
}

func TestExitCode_Signal(t *testing.T) {
	t.Parallel()

	if got := SignalExitCode(2); got != 130 {
		t.Errorf("SignalExitCode(SIGINT) = %d, want 130", got)
	}
	if sig, ok := SignalExitCode(15).Signal(); !ok || sig != 15 {
		t.Errorf("Signal() = %d, %v, want 15, true", sig, ok)
	}
	for _, code := range []ExitCode{0, 1, 127, 128, 256} {
		if _, ok := code.Signal(); ok {
			t.Errorf("ExitCode(%d).Signal() ok = true, want false", code)
		}
	}
}

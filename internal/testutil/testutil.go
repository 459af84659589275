// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"testing"
)

// MustMkdirAll creates path and its parents or fails the test.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// Release registers release to run when the test ends. An error is logged
// rather than failing the test, since servers and SSH clients often report
// one when the peer has already gone away.
func Release(t testing.TB, what string, release func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := release(); err != nil {
			t.Logf("release %s: %v", what, err)
		}
	})
}

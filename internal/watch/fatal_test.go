// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	for _, errno := range fatalErrnos {
		if !isFatalFsnotifyError(errno) {
			t.Errorf("isFatalFsnotifyError(%v) = false", errno)
		}
		if !isFatalFsnotifyError(fmt.Errorf("fsnotify: %w", errno)) {
			t.Errorf("wrapped %v not reported as fatal", errno)
		}
	}

	for _, err := range []error{nil, syscall.Errno(0), errors.New("queue overflow")} {
		if isFatalFsnotifyError(err) {
			t.Errorf("isFatalFsnotifyError(%v) = true", err)
		}
	}
}

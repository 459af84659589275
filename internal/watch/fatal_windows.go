// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// ReadDirectoryChangesW is unusable after these: too many open files, an
// invalid handle (the directory was removed) and out of memory.
var fatalErrnos = []syscall.Errno{4, 6, 8}

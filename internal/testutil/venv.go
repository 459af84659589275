// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FakeInterpreterScript is a POSIX shell stand-in for python3. It prints its
// arguments, working directory and the activation variables, writes one line
// to stderr, and exits with N when given an argument "--exit=N".
const FakeInterpreterScript = `#!/bin/sh
printf 'argv:'
for a in "$@"; do printf ' [%s]' "$a"; done
printf '\n'
printf 'cwd: %s\n' "$(pwd -P)"
printf 'PYTHONPATH: %s\n' "${PYTHONPATH-}"
printf 'VIRTUAL_ENV: %s\n' "${VIRTUAL_ENV-}"
printf 'PYTHONHOME: %s\n' "${PYTHONHOME-<unset>}"
echo "fake interpreter stderr" >&2
for a in "$@"; do
	case "$a" in
		--exit=*) exit "${a#--exit=}" ;;
	esac
done
exit 0
`

// SkipWithoutPOSIXShell skips tests that execute shell scripts.
func SkipWithoutPOSIXShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
}

// WriteExecutable writes content to path with execute permission, creating
// parent directories.
func WriteExecutable(t testing.TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// FakeVenv creates a virtual environment under root/venv with an activate
// script and an interpreter executable named interpreter running script. It
// returns the venv directory.
func FakeVenv(t testing.TB, root, interpreter, script string) string {
	t.Helper()

	venv := filepath.Join(root, "venv")
	bin := filepath.Join(venv, "bin")
	MustMkdirAll(t, bin, 0o755)

	activate := `VIRTUAL_ENV='` + venv + `'
export VIRTUAL_ENV
PATH="$VIRTUAL_ENV/bin:$PATH"
export PATH
unset PYTHONHOME
`
	if err := os.WriteFile(filepath.Join(bin, "activate"), []byte(activate), 0o644); err != nil {
		t.Fatalf("failed to write activate script: %v", err)
	}
	WriteExecutable(t, filepath.Join(bin, interpreter), script)
	return venv
}

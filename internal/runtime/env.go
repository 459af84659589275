// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"
)

// Variables set or cleared by venv activation.
const (
	EnvVirtualEnv = "VIRTUAL_ENV"
	EnvPythonHome = "PYTHONHOME"
	EnvPath       = "PATH"
)

// ErrEnvironmentUnavailable is the sentinel error wrapped by EnvironmentError.
var ErrEnvironmentUnavailable = errors.New("virtual environment unavailable")

// EnvironmentError reports a configured virtual environment that cannot be
// activated. Nothing is started when it is returned.
type EnvironmentError struct {
	Venv   string
	Reason string
}

// Error implements the error interface.
func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("virtual environment %s: %s", e.Venv, e.Reason)
}

// Unwrap returns ErrEnvironmentUnavailable for errors.Is() compatibility.
func (e *EnvironmentError) Unwrap() error { return ErrEnvironmentUnavailable }

// VenvBinDir returns the directory holding a venv's executables and
// activation scripts.
func VenvBinDir(venv string) string {
	if goruntime.GOOS == "windows" {
		return filepath.Join(venv, "Scripts")
	}
	return filepath.Join(venv, "bin")
}

// ActivateScript returns the POSIX activation script of a venv.
func ActivateScript(venv string) string {
	return filepath.Join(VenvBinDir(venv), "activate")
}

// CheckVenv verifies that venv exists and has an executables directory. An
// empty venv means activation is disabled and always passes.
func CheckVenv(venv string) error {
	if venv == "" {
		return nil
	}
	info, err := os.Stat(venv)
	if err != nil {
		if os.IsNotExist(err) {
			return &EnvironmentError{Venv: venv, Reason: "directory does not exist"}
		}
		return &EnvironmentError{Venv: venv, Reason: err.Error()}
	}
	if !info.IsDir() {
		return &EnvironmentError{Venv: venv, Reason: "not a directory"}
	}
	if _, err := os.Stat(VenvBinDir(venv)); err != nil {
		return &EnvironmentError{Venv: venv, Reason: "missing " + filepath.Base(VenvBinDir(venv)) + " directory"}
	}
	return nil
}

// ActivatedEnv returns the child environment for an invocation: base with the
// venv activated (PYTHONHOME removed, VIRTUAL_ENV set, the venv's executables
// first on PATH) and extra applied last. base is not modified.
func ActivatedEnv(base []string, venv string, extra map[string]string) []string {
	env := envMap(base)

	if venv != "" {
		delete(env, EnvPythonHome)
		env[EnvVirtualEnv] = venv
		path := VenvBinDir(venv)
		if current := env[EnvPath]; current != "" {
			path += string(os.PathListSeparator) + current
		}
		env[EnvPath] = path
	}

	maps.Copy(env, extra)
	return EnvToSlice(env)
}

// ResolveInterpreter returns the program to start for name. Bare names are
// looked up in the venv first, because os/exec resolves names against the
// pubctl process PATH rather than the child's. Paths are returned unchanged.
func ResolveInterpreter(name, venv string) string {
	if venv == "" || strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		return name
	}
	candidate := filepath.Join(VenvBinDir(venv), name)
	for _, c := range []string{candidate, candidate + ".exe"} {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return name
}

// EnvToSlice converts an environment map to KEY=VALUE entries sorted by key.
func EnvToSlice(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func envMap(entries []string) map[string]string {
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		idx := findEnvSeparator(entry)
		if idx == -1 {
			continue
		}
		env[entry[:idx]] = entry[idx+1:]
	}
	return env
}

// findEnvSeparator returns the index of the '=' separating name from value.
// Windows has variables such as "=C:" whose name starts with '='.
func findEnvSeparator(entry string) int {
	if entry == "" {
		return -1
	}
	if idx := strings.IndexByte(entry[1:], '='); idx != -1 {
		return idx + 1
	}
	return -1
}

// validateWorkDir validates that a working directory exists and is accessible.
// This provides a better error message than letting exec fail with a cryptic error.
func validateWorkDir(dir string) error {
	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied: %s", dir)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	return nil
}

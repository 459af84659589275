// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pubpublica/pubctl/internal/config"
	"github.com/pubpublica/pubctl/internal/runtime"
)

// recordingRuntime prints the argv it was given and exits with the code from
// a "--exit=N" argument.
type recordingRuntime struct {
	mu    sync.Mutex
	calls []*runtime.ExecutionContext
}

func (r *recordingRuntime) Name() string                             { return "recording" }
func (r *recordingRuntime) Available() bool                          { return true }
func (r *recordingRuntime) Validate(*runtime.ExecutionContext) error { return nil }

func (r *recordingRuntime) Execute(ctx *runtime.ExecutionContext) *runtime.Result {
	r.mu.Lock()
	r.calls = append(r.calls, ctx)
	r.mu.Unlock()

	fmt.Fprintln(ctx.IO.Stdout, strings.Join(ctx.Argv, " "))
	code := 0
	for _, arg := range ctx.Argv {
		if v, ok := strings.CutPrefix(arg, "--exit="); ok {
			code, _ = strconv.Atoi(v)
		}
	}
	return &runtime.Result{ExitCode: runtime.ExitCode(code)}
}

func (r *recordingRuntime) Calls() []*runtime.ExecutionContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// staticConfig is a ConfigProvider returning a fixed configuration.
type staticConfig struct {
	cfg *config.Config
	err error
}

func (p staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return p.cfg, p.err
}

type testEnv struct {
	app    *App
	root   string
	rt     *recordingRuntime
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestEnv builds an App rooted at a temp directory whose runtimes all
// record instead of starting processes. A non-empty document is written as
// the configuration document.
func newTestEnv(t *testing.T, document string) *testEnv {
	t.Helper()

	root := t.TempDir()
	if document != "" {
		if err := os.WriteFile(filepath.Join(root, config.DefaultDocument), []byte(document), 0o644); err != nil {
			t.Fatalf("write document: %v", err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Root = root
	cfg.Venv = ""

	rt := &recordingRuntime{}
	registry := runtime.NewRegistry()
	for _, m := range runtime.Modes() {
		registry.Register(m, rt)
	}

	env := &testEnv{root: root, rt: rt, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.app = NewApp(Dependencies{
		Config:   staticConfig{cfg: cfg},
		Registry: registry,
		Stdin:    strings.NewReader(""),
		Stdout:   env.stdout,
		Stderr:   env.stderr,
		Getwd:    func() (string, error) { return root, nil },
	})
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) runtime.ExitCode {
	t.Helper()

	e.stdout.Reset()
	e.stderr.Reset()
	rootCmd := NewRootCommand(e.app)
	rootCmd.SetArgs(args)
	return exitCodeOf(rootCmd.ExecuteContext(t.Context()))
}

func TestOperation_DispatchesArguments(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "check", "docs/", "--strict"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}

	calls := env.rt.Calls()
	if len(calls) != 1 {
		t.Fatalf("runtime calls = %d, want 1", len(calls))
	}
	call := calls[0]

	wantArgv := []string{"python3", "tools/check_links.py", "docs/", "--strict"}
	if !slices.Equal(call.Argv, wantArgv) {
		t.Errorf("Argv = %q, want %q", call.Argv, wantArgv)
	}
	if call.Dir != env.root {
		t.Errorf("Dir = %q, want %q", call.Dir, env.root)
	}
	if got := call.ExtraEnv["PYTHONPATH"]; got != env.root {
		t.Errorf("PYTHONPATH = %q, want %q", got, env.root)
	}
	if got := env.stdout.String(); got != strings.Join(wantArgv, " ")+"\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestOperation_PassesPubctlFlagsAfterPositional(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "check", "docs/", "--pc-dry-run", "-v"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}

	calls := env.rt.Calls()
	if len(calls) != 1 {
		t.Fatalf("runtime calls = %d, want 1", len(calls))
	}
	wantArgv := []string{"python3", "tools/check_links.py", "docs/", "--pc-dry-run", "-v"}
	if !slices.Equal(calls[0].Argv, wantArgv) {
		t.Errorf("Argv = %q, want %q", calls[0].Argv, wantArgv)
	}
}

func TestOperation_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		wantCode  runtime.ExitCode
		wantCalls int
	}{
		{"success", []string{"test"}, 0, 1},
		{"path operation", []string{"validate", "pubs/"}, 0, 1},
		{"child exit code propagates", []string{"deploy", "prod1", "--exit=3"}, 3, 1},
		{"child exit 127 propagates", []string{"status", "prod1", "--exit=127"}, 127, 1},
		{"missing argument", []string{"deploy"}, exitUsage, 0},
		{"unexpected argument", []string{"test", "tests/unit"}, exitUsage, 0},
		{"unknown operation", []string{"frobnicate"}, exitUsage, 0},
		{"run by name", []string{"run", "provision", "prod1"}, 0, 1},
		{"run without operation", []string{"run"}, exitUsage, 0},
		{"run unknown operation", []string{"run", "frobnicate"}, exitUsage, 0},
		{"unknown pubctl flag", []string{"--bogus"}, exitUsage, 0},
		{"invalid runtime", []string{"test", "--pc-runtime", "docker"}, exitUsage, 0},
		{"virtual runtime", []string{"check", "--pc-runtime", "virtual", "docs/"}, 0, 1},
		{"dry run with watch", []string{"check", "--pc-dry-run", "--pc-watch", "docs/"}, exitUsage, 0},
		{"list takes no arguments", []string{"list", "extra"}, exitUsage, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, "")
			if code := env.run(t, tt.args...); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d; stderr: %s", code, tt.wantCode, env.stderr)
			}
			if got := len(env.rt.Calls()); got != tt.wantCalls {
				t.Errorf("runtime calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestOperation_ChildFailureIsNotReRendered(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "deploy", "prod1", "--exit=4"); code != 4 {
		t.Fatalf("exit code = %d, want 4", code)
	}
	if strings.Contains(env.stderr.String(), "Error:") {
		t.Errorf("stderr = %q, want no error banner for a failing child", env.stderr)
	}
}

func TestOperation_UnknownOperationListsKnown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "frobnicate"); code != exitUsage {
		t.Fatalf("exit code = %d, want %d", code, exitUsage)
	}
	stderr := env.stderr.String()
	for _, want := range []string{"frobnicate", "deploy", "check"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestOperation_DryRun(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "check", "--pc-dry-run", "docs/", "--strict"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}
	if calls := env.rt.Calls(); len(calls) != 0 {
		t.Fatalf("runtime calls = %d, want 0", len(calls))
	}

	out := env.stdout.String()
	for _, want := range []string{
		"python3 tools/check_links.py docs/ --strict",
		"path=docs/",
		"PYTHONPATH=" + env.root,
		"(activation disabled)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output missing %q:\n%s", want, out)
		}
	}
}

func TestOperation_DryRunReportsArgumentErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "deploy", "--pc-dry-run"); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "list"); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	out := env.stdout.String()
	for _, want := range []string{"test", "check <path>", "validate <path>", "status <host>", "provision <host>", "deploy <host>", "-m pytest"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigLoadFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	env.app.Config = staticConfig{err: errors.New("settings are broken")}

	if code := env.run(t, "test"); code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(env.stderr.String(), "settings are broken") {
		t.Errorf("stderr = %q, want the load error", env.stderr)
	}
	if calls := env.rt.Calls(); len(calls) != 0 {
		t.Errorf("runtime calls = %d, want 0", len(calls))
	}
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootHelp_ConfigExampleRuns(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, partialDocument)
	if code := env.run(t, "--help"); code != 0 {
		t.Fatalf("--help exit code = %d", code)
	}

	var example []string
	for line := range strings.Lines(env.stdout.String()) {
		fields := strings.Fields(line)
		if len(fields) >= 5 && fields[0] == "pubctl" && fields[1] == "config" && fields[2] == "get" {
			example = fields[1:5]
			break
		}
	}
	if example == nil {
		t.Fatalf("help has no config get example:\n%s", env.stdout)
	}

	if code := env.run(t, example...); code != 0 {
		t.Errorf("help example %q exit code = %d; stderr: %s", strings.Join(example, " "), code, env.stderr)
	}
	if got := env.stdout.String(); got != "pubpublica\n" {
		t.Errorf("help example printed %q, want %q", got, "pubpublica\n")
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const partialDocument = `{
    "DEPLOY": {
        "USER": "pubpublica",
        "INCLUDES": ["pubpublica/", "wsgi.py"],
        "SOCKET_PATH": "/run/pub sock"
    },
    "REDIS": {
        "REDIS_HOST": "127.0.0.1",
        "REDIS_PORT": 6379
    }
}
`

func TestConfigGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "string value",
			args:       []string{"DEPLOY", "USER"},
			wantStdout: "pubpublica\n",
		},
		{
			name:       "list value one item per line",
			args:       []string{"DEPLOY", "INCLUDES"},
			wantStdout: "pubpublica/\nwsgi.py\n",
		},
		{
			name:       "integer value",
			args:       []string{"REDIS", "REDIS_PORT"},
			wantStdout: "6379\n",
		},
		{
			name:       "missing key",
			args:       []string{"DEPLOY", "GROUP"},
			wantCode:   1,
			wantStderr: "DEPLOY.GROUP",
		},
		{
			name:       "missing section",
			args:       []string{"NGINX", "NGINX_CONFIG_FILE"},
			wantCode:   1,
			wantStderr: "no NGINX section",
		},
		{
			name:     "wrong argument count",
			args:     []string{"DEPLOY"},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, partialDocument)
			code := env.run(t, append([]string{"config", "get"}, tt.args...)...)
			if int(code) != tt.wantCode {
				t.Fatalf("exit code = %d, want %d; stderr: %s", code, tt.wantCode, env.stderr)
			}
			if tt.wantStdout != "" && env.stdout.String() != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", env.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

func TestConfigEnv(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, partialDocument)
	if code := env.run(t, "config", "env", "DEPLOY", "REDIS"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}

	lines := strings.Split(strings.TrimSuffix(env.stdout.String(), "\n"), "\n")
	wantPrefixes := []string{"INCLUDES=", "REDIS_HOST=", "REDIS_PORT=", "SOCKET_PATH=", "USER="}
	if len(lines) != len(wantPrefixes) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(wantPrefixes), env.stdout)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if lines[3] != "SOCKET_PATH='/run/pub sock'" {
		t.Errorf("SOCKET_PATH line = %q, want a shell-quoted value", lines[3])
	}
	if lines[0] != "INCLUDES='pubpublica/ wsgi.py'" {
		t.Errorf("INCLUDES line = %q, want space-joined quoted list", lines[0])
	}
}

func TestConfigEnv_Errors(t *testing.T) {
	t.Parallel()

	const injectedKey = `{
    "DEPLOY": {"USER": "pubpublica"},
    "NGINX": {"X=1; touch /tmp/pwned; Y": "v"}
}`

	tests := []struct {
		name     string
		document string
		args     []string
		wantCode int
	}{
		{"missing section", partialDocument, []string{"DEPLOY", "NGINX"}, 1},
		{"no sections", partialDocument, nil, 2},
		{"unknown flag", partialDocument, []string{"--bogus", "DEPLOY"}, 2},
		{"key is not a shell name", injectedKey, []string{"DEPLOY", "NGINX"}, 1},
		{"key starts with a digit", `{"DEPLOY": {"1USER": "x"}}`, []string{"DEPLOY"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, tt.document)
			code := env.run(t, append([]string{"config", "env"}, tt.args...)...)
			if int(code) != tt.wantCode {
				t.Errorf("exit code = %d, want %d; stderr: %s", code, tt.wantCode, env.stderr)
			}
			if tt.wantCode != 0 && env.stdout.Len() != 0 {
				t.Errorf("stdout = %q, want nothing on failure", env.stdout)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("complete document", func(t *testing.T) {
		t.Parallel()

		full, err := os.ReadFile(filepath.Join("..", "..", "pkg", "pubconfig", "testdata", "pubpublica.json"))
		if err != nil {
			t.Fatalf("read fixture: %v", err)
		}
		env := newTestEnv(t, string(full))
		if code := env.run(t, "config", "validate"); code != 0 {
			t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
		}
		if !strings.Contains(env.stdout.String(), "every declared key is present") {
			t.Errorf("stdout = %q", env.stdout)
		}
	})

	t.Run("partial document", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, partialDocument)
		if code := env.run(t, "config", "validate"); code != exitFailure {
			t.Fatalf("exit code = %d, want %d", code, exitFailure)
		}
		out := env.stdout.String()
		for _, want := range []string{"BUILD.LOCAL_CONFIG_PATH", "DEPLOY.GROUP", "REDIS.REDIS_PASSWORD_PATH"} {
			if !strings.Contains(out, want) {
				t.Errorf("validate output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "DEPLOY.USER") {
			t.Errorf("validate output lists a present key:\n%s", out)
		}
	})
}

func TestConfigDump(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format   string
		wantCode int
		want     string
	}{
		{"json", 0, `"REDIS_PORT": 6379`},
		{"toml", 0, "[DEPLOY]"},
		{"cue", 0, "DEPLOY:"},
		{"yaml", 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, partialDocument)
			code := env.run(t, "config", "dump", "--format", tt.format)
			if int(code) != tt.wantCode {
				t.Fatalf("exit code = %d, want %d; stderr: %s", code, tt.wantCode, env.stderr)
			}
			if tt.want != "" && !strings.Contains(env.stdout.String(), tt.want) {
				t.Errorf("dump output missing %q:\n%s", tt.want, env.stdout)
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, partialDocument)
	if code := env.run(t, "config", "show"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}
	out := env.stdout.String()
	for _, want := range []string{"DEPLOY", "USER", "pubpublica", "wsgi.py", "REDIS_PORT", "6379"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfig_DocumentNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "config", "get", "DEPLOY", "USER"); code != exitFailure {
		t.Fatalf("exit code = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(env.stderr.String(), "pubpublica.json") {
		t.Errorf("stderr = %q, want the document path", env.stderr)
	}
}

func TestConfig_DocumentFlag(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if err := os.WriteFile(filepath.Join(env.root, "staging.json"), []byte(partialDocument), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	if code := env.run(t, "--pc-document", "staging.json", "config", "get", "DEPLOY", "USER"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}
	if got := env.stdout.String(); got != "pubpublica\n" {
		t.Errorf("stdout = %q, want %q", got, "pubpublica\n")
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "config", "path"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}
	out := env.stdout.String()
	for _, want := range []string{env.root, filepath.Join(env.root, "pubpublica.json"), "(using defaults)"} {
		if !strings.Contains(out, want) {
			t.Errorf("path output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigSettings(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if code := env.run(t, "config", "settings"); code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, env.stderr)
	}
	out := env.stdout.String()
	for _, want := range []string{`interpreter: "python3"`, `default_runtime: "native"`} {
		if !strings.Contains(out, want) {
			t.Errorf("settings output missing %q:\n%s", want, out)
		}
	}
}

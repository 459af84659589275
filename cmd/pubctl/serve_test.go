// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pubpublica/pubctl/internal/config"
)

func TestServeConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		settings  config.ServeConfig
		flags     serveFlagValues
		wantAddr  string
		wantOpen  bool
		wantValid bool
	}{
		{
			name:      "loopback default",
			settings:  config.ServeConfig{Listen: config.DefaultListen},
			wantAddr:  config.DefaultListen,
			wantValid: true,
		},
		{
			name:     "all interfaces without keys",
			settings: config.ServeConfig{Listen: config.DefaultListen},
			flags:    serveFlagValues{listen: "0.0.0.0:2222"},
			wantAddr: "0.0.0.0:2222",
		},
		{
			name:      "all interfaces with keys",
			settings:  config.ServeConfig{Listen: "0.0.0.0:2222"},
			flags:     serveFlagValues{authorizedKeys: "/etc/pubctl/authorized_keys"},
			wantAddr:  "0.0.0.0:2222",
			wantValid: true,
		},
		{
			name:      "flag allows unauthenticated access",
			settings:  config.ServeConfig{Listen: "0.0.0.0:2222"},
			flags:     serveFlagValues{allowOpen: true},
			wantAddr:  "0.0.0.0:2222",
			wantOpen:  true,
			wantValid: true,
		},
		{
			name:      "setting allows unauthenticated access",
			settings:  config.ServeConfig{Listen: "0.0.0.0:2222", AllowUnauthenticated: true},
			wantAddr:  "0.0.0.0:2222",
			wantOpen:  true,
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Serve = tt.settings
			flags := tt.flags
			flags.hostKey = "/tmp/host_ed25519"

			got, err := serveConfig(cfg, &flags)
			if err != nil {
				t.Fatalf("serveConfig() error = %v", err)
			}
			if got.Address != tt.wantAddr {
				t.Errorf("Address = %q, want %q", got.Address, tt.wantAddr)
			}
			if got.AllowUnauthenticated != tt.wantOpen {
				t.Errorf("AllowUnauthenticated = %v, want %v", got.AllowUnauthenticated, tt.wantOpen)
			}
			if err := got.Validate(); (err == nil) != tt.wantValid {
				t.Errorf("Validate() error = %v, want valid %v", err, tt.wantValid)
			}
		})
	}
}

func TestServe_RefusesUnauthenticatedNonLoopback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, partialDocument)
	code := env.run(t, "serve", "--listen", "0.0.0.0:0", "--host-key", filepath.Join(env.root, "host_ed25519"))
	if code != exitUsage {
		t.Fatalf("exit code = %d, want %d; stderr: %s", code, exitUsage, env.stderr)
	}
	if !strings.Contains(env.stderr.String(), "allow unauthenticated") {
		t.Errorf("stderr should explain the refusal:\n%s", env.stderr)
	}
}

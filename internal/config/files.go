// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pubpublica/pubctl/internal/issue"
)

// resolveConfigPath returns the settings file to load, or "" for defaults.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if isFile(opts.ConfigFilePath) {
			return opts.ConfigFilePath, nil
		}
		return "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Check the path given to --pc-config").
			WithSuggestion("Run 'pubctl config path' to see where settings are read from").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(fmt.Errorf("settings file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	if local := filepath.Join(opts.BaseDir, LocalConfigFileName); isFile(local) {
		return local, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if user := filepath.Join(dir, SettingsFileName); isFile(user) {
		return user, nil
	}
	return "", nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes GenerateCUE(DefaultConfig()) to
// <dir>/config.cue unless that file already exists.
func CreateDefaultConfig(dir string) (path string, created bool, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create settings directory: %w", err)
	}

	path = filepath.Join(dir, SettingsFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return path, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("create settings file: %w", err)
	}
	if _, err := f.WriteString(GenerateCUE(DefaultConfig())); err != nil {
		f.Close()
		return "", false, fmt.Errorf("write settings file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", false, fmt.Errorf("write settings file: %w", err)
	}
	return path, true, nil
}

// GenerateCUE renders cfg as a settings file that loads back to cfg.
// Empty optional paths are left out.
func GenerateCUE(cfg *Config) string {
	var b strings.Builder
	b.WriteString("// pubctl settings\n")
	b.WriteString("// Every field can be overridden with a PUBCTL_* environment variable.\n\n")

	field := func(indent, key, value string) {
		fmt.Fprintf(&b, "%s%s: %s\n", indent, key, value)
	}
	optional := func(indent, key, value string) {
		if value != "" {
			field(indent, key, strconv.Quote(value))
		}
	}
	open := func(name string) { fmt.Fprintf(&b, "\n%s: {\n", name) }
	closeBlock := func() { b.WriteString("}\n") }

	optional("", "root", cfg.Root)
	field("", "venv", strconv.Quote(cfg.Venv))
	field("", "interpreter", strconv.Quote(cfg.Interpreter))
	field("", "module_root_var", strconv.Quote(cfg.ModuleRootVar))
	field("", "document", strconv.Quote(cfg.Document))
	field("", "default_runtime", strconv.Quote(string(cfg.DefaultRuntime)))

	open("ui")
	field("\t", "color_scheme", strconv.Quote(string(cfg.UI.ColorScheme)))
	field("\t", "verbose", strconv.FormatBool(cfg.UI.Verbose))
	closeBlock()

	open("serve")
	field("\t", "listen", strconv.Quote(cfg.Serve.Listen))
	optional("\t", "host_key", cfg.Serve.HostKey)
	optional("\t", "authorized_keys", cfg.Serve.AuthorizedKeys)
	if cfg.Serve.AllowUnauthenticated {
		field("\t", "allow_unauthenticated", "true")
	}
	closeBlock()

	open("watch")
	field("\t", "debounce", strconv.Quote(cfg.Watch.Debounce.String()))
	if len(cfg.Watch.Ignore) > 0 {
		b.WriteString("\tignore: [\n")
		for _, pattern := range cfg.Watch.Ignore {
			fmt.Fprintf(&b, "\t\t%s,\n", strconv.Quote(pattern))
		}
		b.WriteString("\t]\n")
	}
	closeBlock()

	return b.String()
}

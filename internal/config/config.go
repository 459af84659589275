// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pubpublica/pubctl/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName names the per-user configuration directory.
	AppName = "pubctl"
	// SettingsFileName is the per-user settings file inside ConfigDir.
	SettingsFileName = "config.cue"
	// LocalConfigFileName is the repository-local settings file.
	LocalConfigFileName = "pubctl.cue"
	// EnvPrefix prefixes every environment override, e.g. PUBCTL_VENV.
	EnvPrefix = "PUBCTL"
)

//go:embed config_schema.cue
var configSchema []byte

var settingsSchema = cueutil.NewSchema(configSchema, "#Config")

// ConfigDir returns the per-user pubctl directory: $XDG_CONFIG_HOME/pubctl
// (or ~/.config/pubctl) on Linux, ~/Library/Application Support/pubctl on
// macOS and %AppData%\pubctl on Windows.
//
//nolint:revive // config.Dir reads poorly at call sites
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Schema returns the embedded #Config schema source.
func Schema() string {
	return string(configSchema)
}

// newViper returns a viper instance seeded with the defaults and wired to
// the PUBCTL_* environment. Nested keys map to underscores, so ui.verbose
// is overridden by PUBCTL_UI_VERBOSE.
func newViper() *viper.Viper {
	v := viper.New()

	d := DefaultConfig()
	for key, value := range map[string]any{
		"root":                        d.Root,
		"venv":                        d.Venv,
		"interpreter":                 d.Interpreter,
		"module_root_var":             d.ModuleRootVar,
		"document":                    d.Document,
		"default_runtime":             d.DefaultRuntime,
		"ui.color_scheme":             d.UI.ColorScheme,
		"ui.verbose":                  d.UI.Verbose,
		"serve.listen":                d.Serve.Listen,
		"serve.host_key":              d.Serve.HostKey,
		"serve.authorized_keys":       d.Serve.AuthorizedKeys,
		"serve.allow_unauthenticated": d.Serve.AllowUnauthenticated,
		"watch.debounce":              d.Watch.Debounce,
		"watch.ignore":                d.Watch.Ignore,
	} {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// PUBCTL_VENV= must be able to turn activation off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

// mergeSettingsFile checks path against #Config and merges it over the
// defaults already in v. The file decodes to a map rather than a Config so
// that absent fields keep their defaults and env overrides still apply.
func mergeSettingsFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}

	checked, err := settingsSchema.Check(data, cueutil.Named(path), cueutil.AllowIncomplete())
	if err != nil {
		return err
	}

	var values map[string]any
	if err := checked.Decode(&values); err != nil {
		return err
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}
	return nil
}

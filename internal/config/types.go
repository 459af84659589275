// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// RuntimeNative runs the interpreter directly with a computed environment.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual sources the venv activate script in the embedded shell.
	RuntimeVirtual RuntimeMode = "virtual"
	// RuntimeTTY runs natively attached to a pseudo-terminal.
	RuntimeTTY RuntimeMode = "tty"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultDocument is the configuration document read by the tool scripts.
	DefaultDocument = "pubpublica.json"
	// DefaultListen is the loopback address `pubctl serve` binds by default.
	DefaultListen = "127.0.0.1:2222"
	// DefaultDebounce is the quiet period watch mode waits for before re-dispatching.
	DefaultDebounce = 300 * time.Millisecond
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

type (
	// RuntimeMode names the runtime used when no --pc-runtime flag is given.
	// The dispatcher parses it into runtime.Mode at the boundary.
	RuntimeMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds pubctl's own settings. The pubpublica configuration
	// document is separate and lives at Document.
	Config struct {
		// Root is the repository root. Empty means the working directory.
		Root string `json:"root" mapstructure:"root"`
		// Venv is the virtual environment directory, relative to Root.
		// Empty disables activation and the interpreter is found on PATH.
		Venv string `json:"venv" mapstructure:"venv"`
		// Interpreter is the program every operation invokes.
		Interpreter string `json:"interpreter" mapstructure:"interpreter" validate:"required"`
		// ModuleRootVar is set to Root so scripts can import the application modules.
		ModuleRootVar string `json:"module_root_var" mapstructure:"module_root_var" validate:"required,envname"`
		// Document is the configuration document path, relative to Root.
		Document string `json:"document" mapstructure:"document" validate:"required"`
		// DefaultRuntime sets the runtime used by every dispatch.
		DefaultRuntime RuntimeMode `json:"default_runtime" mapstructure:"default_runtime" validate:"required,oneof=native virtual tty"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Serve configures the SSH dispatch server
		Serve ServeConfig `json:"serve" mapstructure:"serve"`
		// Watch configures watch mode
		Watch WatchConfig `json:"watch" mapstructure:"watch"`

		// Source is the settings file the values were loaded from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme ("auto", "dark", "light")
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" validate:"required,oneof=auto dark light"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// ServeConfig configures `pubctl serve`.
	ServeConfig struct {
		// Listen is the host:port the SSH server binds.
		Listen string `json:"listen" mapstructure:"listen" validate:"required,hostname_port"`
		// HostKey is the server key path. Empty means <config dir>/host_ed25519.
		HostKey string `json:"host_key" mapstructure:"host_key"`
		// AuthorizedKeys restricts sessions to the listed public keys when set.
		AuthorizedKeys string `json:"authorized_keys" mapstructure:"authorized_keys"`
		// AllowUnauthenticated lets a non-loopback Listen run without
		// AuthorizedKeys.
		AllowUnauthenticated bool `json:"allow_unauthenticated" mapstructure:"allow_unauthenticated"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		// Debounce is the quiet period after the last change before re-dispatching.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce" validate:"gte=0"`
		// Ignore lists doublestar patterns, relative to the watched path, that never trigger.
		Ignore []string `json:"ignore" mapstructure:"ignore" validate:"dive,required"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Venv:           "venv",
		Interpreter:    "python3",
		ModuleRootVar:  "PYTHONPATH",
		Document:       DefaultDocument,
		DefaultRuntime: RuntimeNative,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Serve: ServeConfig{
			Listen: DefaultListen,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
			Ignore: []string{
				"**/__pycache__/**",
				"**/*.pyc",
				"**/.git/**",
				"venv/**",
			},
		},
	}
}

// String returns the string representation of the RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// Validate checks the struct constraints the CUE schema cannot see, such as
// values that came from PUBCTL_* environment overrides.
func (c *Config) Validate() error {
	err := structValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}
	return &InvalidConfigError{FieldErrors: errs}
}

// ResolveRoot returns the absolute repository root. An empty Root resolves
// to base, and a relative Root is joined onto base.
func (c *Config) ResolveRoot(base string) (string, error) {
	root := c.Root
	if root == "" {
		root = base
	} else if !filepath.IsAbs(root) {
		root = filepath.Join(base, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve repository root %q: %w", root, err)
	}
	return abs, nil
}

// DocumentPath returns the configuration document path under root.
func (c *Config) DocumentPath(root string) string {
	if filepath.IsAbs(c.Document) {
		return c.Document
	}
	return filepath.Join(root, c.Document)
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// RegisterValidation only fails on an empty tag.
		_ = validate.RegisterValidation("envname", func(fl validator.FieldLevel) bool {
			return envNamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// fieldError renders a validator failure with the settings key path,
// e.g. "serve.listen: failed hostname_port".
func fieldError(fe validator.FieldError) error {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	if fe.Param() != "" {
		return fmt.Errorf("%s: %q does not satisfy %s=%s", ns, fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s: %q does not satisfy %s", ns, fmt.Sprint(fe.Value()), fe.Tag())
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"

	"github.com/pubpublica/pubctl/internal/issue"
)

type (
	// LoadOptions says where to look for the settings file. The lookup order
	// is ConfigFilePath alone when set, then <BaseDir>/pubctl.cue, then
	// <config dir>/config.cue. Finding nothing yields the defaults.
	LoadOptions struct {
		// ConfigFilePath is --pc-config. A missing file is an error.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when set.
		ConfigDirPath string
		// BaseDir holds the repository-local pubctl.cue. Empty means the
		// working directory.
		BaseDir string
	}

	// Provider loads pubctl settings.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider returns the Provider that reads settings files from disk.
func NewProvider() Provider {
	return fileProvider{}
}

// Load resolves the settings file, layers it over the defaults and applies
// PUBCTL_* environment overrides. The result has passed Config.Validate.
func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}

	if resolvedPath != "" {
		if err := mergeSettingsFile(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'pubctl config --help' for configuration options").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	if err := cfg.Validate(); err != nil {
		resource := resolvedPath
		if resource == "" {
			resource = EnvPrefix + "_* environment"
		}
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resource).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithSuggestion("Run 'pubctl config path' to see which settings file is used").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

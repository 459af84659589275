// SPDX-License-Identifier: MPL-2.0

// Package config handles pubctl's own settings using Viper with CUE as the file format.
//
// Settings are read from the file given with --pc-config, else from pubctl.cue in the
// repository, else from ~/.config/pubctl/config.cue (or the XDG, macOS or Windows
// equivalent). Absent fields keep their defaults and every key can be overridden with a
// PUBCTL_* environment variable (ui.verbose becomes PUBCTL_UI_VERBOSE).
//
// Files are validated against the embedded CUE schema (config_schema.cue) and the decoded
// struct is checked again with validator tags, which also covers environment overrides.
package config

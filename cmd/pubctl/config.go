// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pubpublica/pubctl/internal/config"
	"github.com/pubpublica/pubctl/internal/issue"
	"github.com/pubpublica/pubctl/pkg/pubconfig"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"
)

// newConfigCommand creates the `pubctl config` command tree. Most
// subcommands read the pubpublica configuration document; settings and init
// manage pubctl's own settings file.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the pubpublica configuration document",
		Long: `Inspect the pubpublica configuration document.

The document (pubpublica.json by default) is read by the deployment scripts.
pubctl never modifies it. Its own settings are stored in:
  - pubctl.cue at the repository root, or
  - Linux: ~/.config/pubctl/config.cue
  - macOS: ~/Library/Application Support/pubctl/config.cue
  - Windows: %APPDATA%\pubctl\config.cue`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the configuration document",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDocument(cmd, app, rootFlags, func(_ *workspace, doc *pubconfig.Document) error {
				showDocument(app.stdout, doc)
				return nil
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "get <section> <key>",
		Short: "Print one configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, app, rootFlags, func(_ *workspace, doc *pubconfig.Document) error {
				return getValue(app.stdout, doc, pubconfig.Section(args[0]), pubconfig.Key(args[1]))
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that every key the scripts read is present",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDocument(cmd, app, rootFlags, func(ws *workspace, doc *pubconfig.Document) error {
				return validateDocument(app.stdout, ws.docPath, doc)
			})
		},
	})

	var dumpFormat string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the document as JSON, TOML or CUE",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := pubconfig.ParseFormat(dumpFormat)
			if err != nil {
				return app.fail(cmd, nil, usageError(err), 0)
			}
			return withDocument(cmd, app, rootFlags, func(_ *workspace, doc *pubconfig.Document) error {
				out, err := doc.Marshal(f)
				if err != nil {
					return err
				}
				_, err = app.stdout.Write(out)
				return err
			})
		},
	}
	dumpCmd.Flags().StringVar(&dumpFormat, "format", string(pubconfig.FormatJSON), "output format (json, toml, cue)")
	cfgCmd.AddCommand(dumpCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "env <section>...",
		Short: "Print sections as shell KEY=VALUE lines",
		Long: `Print sections as shell KEY=VALUE lines.

Sections are merged in the order given; a key in a later section overrides
the same key in an earlier one. Values are quoted for a POSIX shell.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, app, rootFlags, func(_ *workspace, doc *pubconfig.Document) error {
				sections := make([]pubconfig.Section, len(args))
				for i, a := range args {
					sections[i] = pubconfig.Section(a)
				}
				return writeEnv(app.stdout, doc, sections)
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the settings file and document paths",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := app.loadWorkspace(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, nil, err, issue.ConfigLoadFailedId)
			}
			showPaths(app.stdout, ws)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "settings",
		Short: "Print the effective pubctl settings as CUE",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := app.loadWorkspace(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, nil, err, issue.ConfigLoadFailedId)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(ws.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default pubctl settings file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, nil, err, 0)
			}
			path, created, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return app.fail(cmd, nil, err, issue.PermissionDeniedId)
			}
			if created {
				fmt.Fprintf(app.stdout, "%s Created default settings at %s\n", okStyle.Render("✓"), path)
			} else {
				fmt.Fprintf(app.stdout, "%s Settings already exist at %s\n", mutedStyle.Render("•"), path)
			}
			return nil
		},
	})

	return cfgCmd
}

// withDocument loads the workspace and its document, then runs fn. Errors
// from any step are reported through App.fail.
func withDocument(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, fn func(*workspace, *pubconfig.Document) error) error {
	ctx := cmd.Context()
	ws, err := app.loadWorkspace(ctx, rootFlags)
	if err != nil {
		return app.fail(cmd, nil, err, issue.ConfigLoadFailedId)
	}
	doc, err := ws.loadDocument(ctx)
	if err != nil {
		return app.fail(cmd, ws, err, 0)
	}
	if err := fn(ws, doc); err != nil {
		return app.fail(cmd, ws, err, 0)
	}
	return nil
}

func showDocument(w io.Writer, doc *pubconfig.Document) {
	fmt.Fprintln(w, titleStyle.Render("Configuration Document"))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("File"), doc.Path())

	for _, section := range doc.Sections() {
		title := string(section)
		if !section.IsDeclared() {
			title += mutedStyle.Render(" (not read by pubctl)")
		}
		fmt.Fprintln(w, sectionStyle.Render(title))

		keys := doc.Keys(section)
		if len(keys) == 0 {
			fmt.Fprintf(w, "  %s\n", mutedStyle.Render("(empty)"))
		}
		for _, key := range keys {
			v, _ := doc.Lookup(section, key)
			if items, ok := v.AsList(); ok {
				fmt.Fprintf(w, "  %s:\n", keyStyle.Render(string(key)))
				if len(items) == 0 {
					fmt.Fprintf(w, "    %s\n", mutedStyle.Render("(none)"))
				}
				for _, item := range items {
					fmt.Fprintf(w, "    - %s\n", valueStyle.Render(item))
				}
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", keyStyle.Render(string(key)), valueStyle.Render(v.String()))
		}
	}
}

// getValue prints one value. List items go on separate lines.
func getValue(w io.Writer, doc *pubconfig.Document, section pubconfig.Section, key pubconfig.Key) error {
	v, ok := doc.Lookup(section, key)
	if !ok {
		return &pubconfig.ConfigurationKeyMissingError{
			Section:        section,
			Key:            key,
			SectionMissing: !doc.HasSection(section),
		}
	}
	if items, isList := v.AsList(); isList {
		for _, item := range items {
			fmt.Fprintln(w, item)
		}
		return nil
	}
	fmt.Fprintln(w, v.String())
	return nil
}

// validateDocument lists every missing declared key and fails when any is
// missing.
func validateDocument(w io.Writer, path string, doc *pubconfig.Document) error {
	err := pubconfig.Validate(doc)
	var verr *pubconfig.ValidationError
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s %s: every declared key is present\n", okStyle.Render("✓"), path)
		return nil
	case errors.As(err, &verr):
		fmt.Fprintf(w, "%s %s: %d key(s) missing\n", failStyle.Render("✗"), path, len(verr.Missing))
		for _, m := range verr.Missing {
			fmt.Fprintf(w, "  - %s\n", m.Error())
		}
		return err
	default:
		return err
	}
}

// writeEnv prints the merged sections as sorted, shell-quoted KEY=VALUE lines.
func writeEnv(w io.Writer, doc *pubconfig.Document, sections []pubconfig.Section) error {
	for _, s := range sections {
		if !doc.HasSection(s) {
			return fmt.Errorf("%w: no %s section in %s", pubconfig.ErrConfigurationKeyMissing, s, doc.Path())
		}
	}

	env := doc.Flatten(sections...)
	keys := pubconfig.SortedKeys(env)
	for _, key := range keys {
		if !syntax.ValidName(string(key)) {
			return fmt.Errorf("%w: %q is not a shell variable name", pubconfig.ErrValueType, key)
		}
	}
	for _, key := range keys {
		quoted, err := syntax.Quote(env[key].String(), syntax.LangPOSIX)
		if err != nil {
			return fmt.Errorf("quote %s: %w", key, err)
		}
		fmt.Fprintf(w, "%s=%s\n", key, quoted)
	}
	return nil
}

func showPaths(w io.Writer, ws *workspace) {
	settings := ws.cfg.Source
	if settings == "" {
		settings = mutedStyle.Render("(using defaults)")
	}
	dir, err := config.ConfigDir()
	if err != nil {
		dir = mutedStyle.Render("(unavailable)")
	}
	rows := [][2]string{
		{"Settings file", settings},
		{"Settings directory", dir},
		{"Repository root", ws.root},
		{"Document", ws.docPath},
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s:%s %s\n", keyStyle.Render(r[0]), strings.Repeat(" ", width-len(r[0])), r[1])
	}
}

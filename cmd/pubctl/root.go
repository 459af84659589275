// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/pubpublica/pubctl/internal/dispatch"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the pubctl command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "pubctl",
		Short: "Operations front-end for a pubpublica checkout",
		Long: titleStyle.Render("pubctl") + mutedStyle.Render(" - Operations front-end for a pubpublica checkout") + `

pubctl runs the repository's Python tooling (tests, link checks, publication
validation, provisioning and deployment) inside its virtual environment, and
reads the pubpublica configuration document those scripts share.

` + mutedStyle.Render("Examples:") + `
  pubctl list                    List the available operations
  pubctl check docs/ --strict    Check links under docs/
  pubctl deploy prod1            Deploy to host prod1
  pubctl config get DEPLOY USER  Print one configuration value
  pubctl serve                   Accept operations over SSH`,
		// An unknown first word is dispatched, so it is reported as an
		// unknown operation with the list of known ones.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return executeOperation(cmd, app, rootFlags, &dispatchFlagValues{}, dispatch.OperationName(args[0]), args[1:])
		},
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.SilenceUsage = true
		return usageError(err)
	})

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&rootFlags.configPath, "pc-config", "", "pubctl settings file (default: pubctl.cue at the root, then the user config dir)")
	pf.StringVar(&rootFlags.documentPath, "pc-document", "", "configuration document (default: pubpublica.json at the root)")
	pf.StringVar(&rootFlags.rootPath, "pc-root", "", "repository root (default: discovered from the working directory)")

	rootCmd.AddGroup(&cobra.Group{ID: operationsGroupID, Title: "Operations:"})
	for _, op := range dispatch.DefaultOperations() {
		rootCmd.AddCommand(newOperationCommand(app, rootFlags, op))
	}

	rootCmd.AddCommand(
		newRunCommand(app, rootFlags),
		newListCommand(app),
		newConfigCommand(app, rootFlags),
		newServeCommand(app, rootFlags),
	)

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the root command and exits with its exit code. This is
// called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			if alreadyReported(err) {
				return
			}
			fang.DefaultErrorHandler(w, styles, err)
		}),
	)
	os.Exit(int(exitCodeOf(err)))
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/issue"

	"github.com/spf13/cobra"
)

const operationsGroupID = "operations"

// dispatchFlagValues holds the flags of commands that dispatch an operation.
type dispatchFlagValues struct {
	dryRun  bool
	runtime string
	watch   bool
}

// newOperationCommand creates the subcommand for one table operation.
// Flag parsing stops at the first positional so script flags pass through.
func newOperationCommand(app *App, rootFlags *rootFlagValues, op dispatch.Operation) *cobra.Command {
	flags := &dispatchFlagValues{}
	cmd := &cobra.Command{
		Use:     op.Usage(),
		Short:   op.Description,
		GroupID: operationsGroupID,
		Long: op.Description + "\n\n" +
			mutedStyle.Render("Runs: ") + keyStyle.Render(op.Target.String()) + "\n" +
			mutedStyle.Render("Arguments after the first positional are passed to the script verbatim."),
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeOperation(cmd, app, rootFlags, flags, op.Name, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	addDispatchFlags(cmd, flags)
	return cmd
}

// newRunCommand creates `pubctl run <operation> [ARGS...]`.
func newRunCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &dispatchFlagValues{}
	cmd := &cobra.Command{
		Use:   "run <operation> [ARGS...]",
		Short: "Run an operation by name",
		Long: `Run an operation by name.

This is the same as the operation's own subcommand, for callers that hold the
operation name in a variable.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeOperation(cmd, app, rootFlags, flags, dispatch.OperationName(args[0]), args[1:])
		},
	}
	cmd.Flags().SetInterspersed(false)
	addDispatchFlags(cmd, flags)
	return cmd
}

// newListCommand creates `pubctl list`.
func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available operations",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			listOperations(app, dispatch.DefaultTable())
			return nil
		},
	}
}

func addDispatchFlags(cmd *cobra.Command, flags *dispatchFlagValues) {
	cmd.Flags().BoolVar(&flags.dryRun, "pc-dry-run", false, "print the resolved invocation without running it")
	cmd.Flags().StringVar(&flags.runtime, "pc-runtime", "", "runtime to use (native, virtual, tty)")
	cmd.Flags().BoolVar(&flags.watch, "pc-watch", false, "re-run the operation when files under its path change")
}

// executeOperation resolves and runs one operation, or hands over to dry-run
// or watch mode.
func executeOperation(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *dispatchFlagValues, name dispatch.OperationName, args []string) error {
	if flags.dryRun && flags.watch {
		return app.fail(cmd, nil, usageError(errors.New("--pc-watch and --pc-dry-run cannot be used together")), 0)
	}

	ctx := cmd.Context()
	ws, err := app.loadWorkspace(ctx, rootFlags)
	if err != nil {
		return app.fail(cmd, nil, err, issue.ConfigLoadFailedId)
	}

	d, err := app.dispatcher(ws, flags.runtime)
	if err != nil {
		return app.fail(cmd, ws, err, issue.ScriptExecutionFailedId)
	}

	if flags.dryRun {
		inv, resolveErr := d.Resolve(name, args)
		if resolveErr != nil {
			return app.fail(cmd, ws, resolveErr, 0)
		}
		return renderDryRun(app.stdout, inv, d.Mode())
	}

	if flags.watch {
		return runWatchMode(cmd, app, ws, d, name, args)
	}

	if _, err := d.Dispatch(ctx, name, args); err != nil {
		return app.fail(cmd, ws, err, issue.ScriptExecutionFailedId)
	}
	return nil
}

func listOperations(app *App, table *dispatch.Table) {
	ops := table.Operations()
	width := 0
	for _, op := range ops {
		width = max(width, len(op.Usage()))
	}

	fmt.Fprintln(app.stdout, titleStyle.Render("Operations"))
	fmt.Fprintln(app.stdout)
	for _, op := range ops {
		usage := op.Usage()
		fmt.Fprintf(app.stdout, "  %s%s  %s\n",
			keyStyle.Render(usage),
			strings.Repeat(" ", width-len(usage)),
			op.Description)
		fmt.Fprintf(app.stdout, "  %s  %s\n",
			strings.Repeat(" ", width),
			detailStyle.Render(op.Target.String()))
	}
}

// usageArgs reports positional argument errors with the usage exit code.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			cmd.SilenceUsage = true
			return usageError(err)
		}
		return nil
	}
}

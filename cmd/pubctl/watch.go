// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/issue"
	"github.com/pubpublica/pubctl/internal/watch"

	"github.com/spf13/cobra"
)

// runWatchMode runs the operation once, then again whenever files under its
// path argument change. Operations without a path watch the whole
// repository. It blocks until the context is cancelled (Ctrl+C).
func runWatchMode(cmd *cobra.Command, app *App, ws *workspace, d *dispatch.Dispatcher, name dispatch.OperationName, args []string) error {
	// Argument errors fail now rather than on every change.
	inv, err := d.Resolve(name, args)
	if err != nil {
		return app.fail(cmd, ws, err, 0)
	}

	path, _ := inv.Param(dispatch.ParamPath)
	baseDir, patterns, err := watch.Target(ws.root, path)
	if err != nil {
		return app.fail(cmd, ws, err, 0)
	}

	arrow := keyStyle.Render("→")
	handler := func(ctx context.Context, changed []string) error {
		if changed == nil {
			fmt.Fprintf(app.stdout, "%s Watch mode: initial run of '%s'\n", arrow, name)
		} else {
			fmt.Fprintf(app.stdout, "%s Detected %d change(s). Re-running '%s'...\n", arrow, len(changed), name)
		}

		res, runErr := d.Dispatch(ctx, name, args)
		switch {
		case errors.Is(runErr, dispatch.ErrChildProcessFailure):
			fmt.Fprintf(app.stderr, "%s '%s' exited with status %d\n", warnStyle.Render("!"), name, res.ExitCode)
		case runErr != nil:
			fmt.Fprintf(app.stderr, "%s '%s' failed: %v\n", warnStyle.Render("!"), name, runErr)
		default:
			fmt.Fprintf(app.stdout, "%s '%s' finished in %s\n", okStyle.Render("✓"), name, res.Duration.Round(time.Millisecond))
		}
		fmt.Fprintf(app.stdout, "\n%s Watching %s for changes (Ctrl+C to stop)...\n\n", arrow, baseDir)
		return runErr
	}

	w, err := watch.New(watch.Options{
		BaseDir:    baseDir,
		Patterns:   patterns,
		Ignore:     ws.cfg.Watch.Ignore,
		Debounce:   ws.cfg.Watch.Debounce,
		RunOnStart: true,
		Stdout:     app.stdout,
		Logger:     ws.logger,
	}, handler)
	if err != nil {
		return app.fail(cmd, ws, fmt.Errorf("failed to start watcher: %w", err), 0)
	}

	if err := w.Run(cmd.Context()); err != nil {
		return app.fail(cmd, ws, err, issue.ScriptExecutionFailedId)
	}
	return nil
}

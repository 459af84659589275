// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/runtime"
)

// renderDryRun prints the resolved invocation without starting a process:
// everything needed to see what pubctl would run.
func renderDryRun(w io.Writer, inv *dispatch.Invocation, mode runtime.Mode) error {
	fmt.Fprintln(w, titleStyle.Render("Dry Run"))
	fmt.Fprintln(w)

	label := func(s string) string { return keyStyle.Render(s) }

	fmt.Fprintf(w, "  %s %s\n", label("Operation:"), inv.Operation.Name)
	fmt.Fprintf(w, "  %s %s\n", label("Target:"), inv.Operation.Target)
	fmt.Fprintf(w, "  %s %s\n", label("Runtime:"), mode)
	fmt.Fprintf(w, "  %s %s\n", label("WorkDir:"), inv.Dir)
	if inv.Venv != "" {
		fmt.Fprintf(w, "  %s %s\n", label("Venv:"), inv.Venv)
	} else {
		fmt.Fprintf(w, "  %s %s\n", label("Venv:"), mutedStyle.Render("(activation disabled)"))
	}

	if len(inv.Params) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, label("  Parameters:"))
		for _, p := range inv.Params {
			fmt.Fprintf(w, "    %s=%s\n", p.Name, p.Value)
		}
	}
	if len(inv.RawArgs) > 0 {
		fmt.Fprintf(w, "  %s %s\n", label("Passed through:"), strings.Join(inv.RawArgs, " "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, label("  Command:"))
	if mode == runtime.ModeVirtual {
		recipe, err := runtime.Recipe(&runtime.ExecutionContext{
			Argv:     inv.Argv,
			ExtraEnv: inv.Env,
			Venv:     inv.Venv,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "    %s\n", recipe)
	} else {
		fmt.Fprintf(w, "    %s\n", strings.Join(inv.Argv, " "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, label("  Environment:"))
	for _, k := range slices.Sorted(maps.Keys(inv.Env)) {
		fmt.Fprintf(w, "    %s=%s\n", k, inv.Env[k])
	}
	if inv.Venv != "" && mode != runtime.ModeVirtual {
		fmt.Fprintf(w, "    %s=%s\n", runtime.EnvVirtualEnv, inv.Venv)
		fmt.Fprintf(w, "    %s=%s%s$%s\n", runtime.EnvPath, runtime.VenvBinDir(inv.Venv), string(os.PathListSeparator), runtime.EnvPath)
		fmt.Fprintf(w, "    %s %s\n", runtime.EnvPythonHome, mutedStyle.Render("(unset)"))
	}

	fmt.Fprintln(w)
	return nil
}

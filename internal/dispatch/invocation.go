// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
)

type (
	// Settings are the repository facts an invocation is resolved against.
	Settings struct {
		// Root is the repository root. Children run here.
		Root string
		// Venv is the virtual environment directory, relative to Root or
		// absolute. Empty disables activation.
		Venv string
		// Interpreter is the program that runs targets, e.g. "python3".
		Interpreter string
		// ModuleRootVar is set to Root in every child, e.g. "PYTHONPATH".
		ModuleRootVar string
	}

	// BoundParam is a declared parameter with the argument bound to it.
	BoundParam struct {
		Name  ParamName
		Value string
	}

	// Invocation is a fully resolved plan for one child process. It is not
	// modified after Resolve returns it.
	Invocation struct {
		// ID identifies the execution in logs.
		ID        string
		Operation Operation
		Params    []BoundParam
		// RawArgs are trailing flags passed through verbatim.
		RawArgs []string
		// Argv is the interpreter followed by its arguments.
		Argv []string
		// Dir is the working directory (the repository root).
		Dir string
		// Env holds the variables added to the child environment.
		Env map[string]string
		// Venv is the absolute venv directory, or "" without activation.
		Venv string
	}
)

// ErrInvalidSettings is returned by Settings.Validate.
var ErrInvalidSettings = errors.New("invalid dispatch settings")

// Validate checks that the settings can resolve invocations.
func (s Settings) Validate() error {
	switch {
	case s.Root == "" || !filepath.IsAbs(s.Root):
		return fmt.Errorf("%w: repository root %q must be an absolute path", ErrInvalidSettings, s.Root)
	case s.Interpreter == "":
		return fmt.Errorf("%w: interpreter is empty", ErrInvalidSettings)
	case s.ModuleRootVar == "":
		return fmt.Errorf("%w: module root variable is empty", ErrInvalidSettings)
	}
	return nil
}

// VenvPath returns the absolute venv directory, or "" when activation is
// disabled.
func (s Settings) VenvPath() string {
	if s.Venv == "" {
		return ""
	}
	if filepath.IsAbs(s.Venv) {
		return filepath.Clean(s.Venv)
	}
	return filepath.Join(s.Root, s.Venv)
}

// Resolve binds args to the operation's parameters and builds its
// invocation. It never starts a process.
func Resolve(table *Table, settings Settings, name OperationName, args []string) (*Invocation, error) {
	op, ok := table.Lookup(name)
	if !ok {
		return nil, &UnknownOperationError{Name: name, Known: table.Names()}
	}

	if len(args) < len(op.Params) {
		missing := len(args)
		return nil, &MissingArgumentError{
			Operation: op.Name,
			Param:     op.Params[missing],
			Position:  missing + 1,
			Usage:     op.Usage(),
		}
	}

	rest := args[len(op.Params):]
	if len(rest) > 0 && !op.Variadic {
		return nil, &UnexpectedArgumentError{
			Operation: op.Name,
			Args:      slices.Clone(rest),
			Usage:     op.Usage(),
		}
	}

	params := make([]BoundParam, len(op.Params))
	for i, p := range op.Params {
		params[i] = BoundParam{Name: p, Value: args[i]}
	}
	rawArgs := slices.Clone(rest)
	if rawArgs == nil {
		rawArgs = []string{}
	}

	argv := make([]string, 0, 2+len(args))
	argv = append(argv, settings.Interpreter)
	argv = append(argv, op.Target.args()...)
	argv = append(argv, args[:len(op.Params)]...)
	argv = append(argv, rawArgs...)

	return &Invocation{
		ID:        uuid.NewString(),
		Operation: op,
		Params:    params,
		RawArgs:   rawArgs,
		Argv:      argv,
		Dir:       settings.Root,
		Env:       map[string]string{settings.ModuleRootVar: settings.Root},
		Venv:      settings.VenvPath(),
	}, nil
}

// Param returns the argument bound to name.
func (inv *Invocation) Param(name ParamName) (string, bool) {
	for _, p := range inv.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Args returns the positional values followed by the raw args, i.e. what
// follows the target on the command line.
func (inv *Invocation) Args() []string {
	out := make([]string, 0, len(inv.Params)+len(inv.RawArgs))
	for _, p := range inv.Params {
		out = append(out, p.Value)
	}
	return append(out, inv.RawArgs...)
}

// EnvKeys returns the names of the added environment variables, sorted.
func (inv *Invocation) EnvKeys() []string {
	return slices.Sorted(maps.Keys(inv.Env))
}

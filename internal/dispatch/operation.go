// SPDX-License-Identifier: MPL-2.0

package dispatch

import "slices"

const (
	// TargetScript is a script path relative to the repository root.
	TargetScript TargetKind = iota + 1
	// TargetModule is a Python module run with "-m".
	TargetModule
)

type (
	// OperationName is the dispatch key of an operation.
	OperationName string

	// ParamName names a required positional parameter.
	ParamName string

	// TargetKind says how a target is passed to the interpreter.
	TargetKind int

	// Target is what an operation runs.
	Target struct {
		Kind TargetKind
		// Path is the script path (TargetScript) or module name (TargetModule).
		Path string
	}

	// Operation is one entry of the operation table.
	Operation struct {
		Name OperationName
		// Params are the required positional parameters, in order.
		Params []ParamName
		// Variadic operations accept trailing raw flags after their params.
		Variadic bool
		Target   Target
		// Description is one line of help text.
		Description string
	}
)

// ScriptTarget returns a target for a script under the repository root.
func ScriptTarget(path string) Target {
	return Target{Kind: TargetScript, Path: path}
}

// ModuleTarget returns a target for a Python module.
func ModuleTarget(name string) Target {
	return Target{Kind: TargetModule, Path: name}
}

// String renders the target as it appears on the command line.
func (t Target) String() string {
	if t.Kind == TargetModule {
		return "-m " + t.Path
	}
	return t.Path
}

// args returns the interpreter arguments that select the target.
func (t Target) args() []string {
	if t.Kind == TargetModule {
		return []string{"-m", t.Path}
	}
	return []string{t.Path}
}

// String returns the operation name.
func (n OperationName) String() string { return string(n) }

// String returns the parameter name.
func (p ParamName) String() string { return string(p) }

// Usage renders the operation's argument synopsis, e.g. "check <path> [FLAGS...]".
func (op Operation) Usage() string {
	usage := string(op.Name)
	for _, p := range op.Params {
		usage += " <" + string(p) + ">"
	}
	if op.Variadic {
		usage += " [FLAGS...]"
	}
	return usage
}

// HasParam reports whether the operation declares param.
func (op Operation) HasParam(param ParamName) bool {
	return slices.Contains(op.Params, param)
}

func (op Operation) clone() Operation {
	op.Params = slices.Clone(op.Params)
	return op
}

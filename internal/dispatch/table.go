// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"fmt"
	"slices"
)

// Parameters of the default operations.
const (
	ParamPath ParamName = "path"
	ParamHost ParamName = "host"
)

// Table is an immutable set of operations keyed by name, in declaration order.
type Table struct {
	ops   []Operation
	index map[OperationName]int
}

// NewTable builds a table. Names must be unique and non-empty, and every
// operation needs a target.
func NewTable(ops ...Operation) (*Table, error) {
	t := &Table{index: make(map[OperationName]int, len(ops))}
	for _, op := range ops {
		if op.Name == "" {
			return nil, fmt.Errorf("operation with target %q has no name", op.Target)
		}
		if _, dup := t.index[op.Name]; dup {
			return nil, &DuplicateOperationError{Name: op.Name}
		}
		if op.Target.Path == "" || (op.Target.Kind != TargetScript && op.Target.Kind != TargetModule) {
			return nil, fmt.Errorf("operation %q has no target", op.Name)
		}
		t.index[op.Name] = len(t.ops)
		t.ops = append(t.ops, op.clone())
	}
	return t, nil
}

// DefaultOperations returns the pubpublica operations.
func DefaultOperations() []Operation {
	return []Operation{
		{
			Name:        "test",
			Target:      ModuleTarget("pytest"),
			Description: "Run the test suite",
		},
		{
			Name:        "check",
			Params:      []ParamName{ParamPath},
			Variadic:    true,
			Target:      ScriptTarget("tools/check_links.py"),
			Description: "Check links in the documents under a path",
		},
		{
			Name:        "validate",
			Params:      []ParamName{ParamPath},
			Variadic:    true,
			Target:      ScriptTarget("tools/validate_pubs.py"),
			Description: "Validate the publications under a path",
		},
		{
			Name:        "status",
			Params:      []ParamName{ParamHost},
			Variadic:    true,
			Target:      ScriptTarget("tools/status.py"),
			Description: "Show the deployment status of a host",
		},
		{
			Name:        "provision",
			Params:      []ParamName{ParamHost},
			Variadic:    true,
			Target:      ScriptTarget("tools/provision.py"),
			Description: "Install system dependencies on a host",
		},
		{
			Name:        "deploy",
			Params:      []ParamName{ParamHost},
			Variadic:    true,
			Target:      ScriptTarget("tools/deploy.py"),
			Description: "Deploy the application to a host",
		},
	}
}

// DefaultTable returns the table of pubpublica operations.
func DefaultTable() *Table {
	t, err := NewTable(DefaultOperations()...)
	if err != nil {
		panic(fmt.Sprintf("default operation table: %v", err))
	}
	return t
}

// Lookup returns the operation named name.
func (t *Table) Lookup(name OperationName) (Operation, bool) {
	i, ok := t.index[name]
	if !ok {
		return Operation{}, false
	}
	return t.ops[i].clone(), true
}

// Operations returns every operation in declaration order.
func (t *Table) Operations() []Operation {
	out := make([]Operation, len(t.ops))
	for i, op := range t.ops {
		out[i] = op.clone()
	}
	return out
}

// Names returns every operation name in declaration order.
func (t *Table) Names() []OperationName {
	out := make([]OperationName, len(t.ops))
	for i, op := range t.ops {
		out[i] = op.Name
	}
	return out
}

// SortedNames returns every operation name in lexical order.
func (t *Table) SortedNames() []OperationName {
	return slices.Sorted(slices.Values(t.Names()))
}

// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"slices"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	table := DefaultTable()

	want := []OperationName{"test", "check", "validate", "status", "provision", "deploy"}
	if got := table.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	for _, op := range table.Operations() {
		switch op.Name {
		case "test":
			if op.Variadic || len(op.Params) != 0 || op.Target.Kind != TargetModule {
				t.Errorf("test = %+v, want a non-variadic module target without params", op)
			}
		default:
			if !op.Variadic || len(op.Params) != 1 || op.Target.Kind != TargetScript {
				t.Errorf("%s = %+v, want a variadic script target with one param", op.Name, op)
			}
		}
		if op.Description == "" {
			t.Errorf("%s has no description", op.Name)
		}
	}
}

func TestTableLookupReturnsCopy(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	op, ok := table.Lookup("check")
	if !ok {
		t.Fatal("Lookup(check) not found")
	}
	op.Params[0] = "mutated"

	again, _ := table.Lookup("check")
	if again.Params[0] != ParamPath {
		t.Errorf("table changed through a returned operation: %v", again.Params)
	}

	if _, ok := table.Lookup("publish"); ok {
		t.Error("Lookup(publish) found an operation")
	}
}

func TestNewTableRejectsInvalidOperations(t *testing.T) {
	t.Parallel()

	_, err := NewTable(
		Operation{Name: "a", Target: ScriptTarget("a.py")},
		Operation{Name: "a", Target: ScriptTarget("b.py")},
	)
	if !errors.Is(err, ErrDuplicateOperation) {
		t.Errorf("duplicate error = %v, want ErrDuplicateOperation", err)
	}

	if _, err := NewTable(Operation{Name: "a"}); err == nil {
		t.Error("operation without target accepted")
	}
	if _, err := NewTable(Operation{Target: ScriptTarget("a.py")}); err == nil {
		t.Error("operation without name accepted")
	}
}

func TestOperationUsage(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	tests := map[OperationName]string{
		"test":   "test",
		"check":  "check <path> [FLAGS...]",
		"deploy": "deploy <host> [FLAGS...]",
	}
	for name, want := range tests {
		op, _ := table.Lookup(name)
		if got := op.Usage(); got != want {
			t.Errorf("%s.Usage() = %q, want %q", name, got, want)
		}
	}

	if got := ModuleTarget("pytest").String(); got != "-m pytest" {
		t.Errorf("ModuleTarget.String() = %q", got)
	}
}

func TestTailBuffer(t *testing.T) {
	t.Parallel()

	b := newTailBuffer(8)
	_, _ = b.Write([]byte("abc"))
	_, _ = b.Write([]byte("defgh"))
	if got := b.String(); got != "abcdefgh" {
		t.Errorf("String() = %q", got)
	}
	_, _ = b.Write([]byte("ij"))
	if got := b.String(); got != "cdefghij" {
		t.Errorf("String() = %q", got)
	}
	n, err := b.Write([]byte("0123456789"))
	if n != 10 || err != nil {
		t.Errorf("Write() = %d, %v", n, err)
	}
	if got := b.String(); got != "23456789" {
		t.Errorf("String() = %q", got)
	}
}

// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"slices"
	"strconv"
	"strings"
)

const (
	// KindString is a plain string value.
	KindString Kind = iota + 1
	// KindInt is an integer value.
	KindInt
	// KindList is an ordered list of strings.
	KindList
)

type (
	// Kind is the shape of a configuration value.
	Kind int

	// Value is a single configuration value: exactly one of a string, an
	// integer or an ordered list of strings. The zero Value is invalid.
	Value struct {
		kind Kind
		str  string
		num  int64
		list []string
	}
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// IntValue returns an integer Value.
func IntValue(n int64) Value {
	return Value{kind: KindInt, num: n}
}

// ListValue returns a list Value holding a copy of items. A nil or empty
// items slice yields a present, empty list.
func ListValue(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{kind: KindList, list: list}
}

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was built by one of the constructors.
func (v Value) IsValid() bool { return v.kind != 0 }

// AsString returns the string and true if v is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsInt returns the integer and true if v is an integer.
func (v Value) AsInt() (int64, bool) {
	return v.num, v.kind == KindInt
}

// AsList returns a copy of the list and true if v is a list.
func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Equal reports whether v and other hold the same kind and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindList:
		return slices.Equal(v.list, other.list)
	default:
		return true
	}
}

// String renders the value the way a shell-style KEY=VALUE line shows it:
// strings verbatim, integers in decimal, and lists joined by spaces.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindList:
		return strings.Join(v.list, " ")
	default:
		return ""
	}
}

// native returns the value as a plain Go value for encoders.
func (v Value) native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindList:
		return slices.Clone(v.list)
	default:
		return nil
	}
}

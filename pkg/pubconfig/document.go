// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"maps"
	"slices"
)

type (
	// Document is a loaded configuration document. It is safe for concurrent
	// readers because nothing mutates it after construction.
	Document struct {
		path     string
		sections []section
		index    map[Section]int
	}

	section struct {
		name    Section
		entries []entry
		index   map[Key]int
	}

	entry struct {
		key   Key
		value Value
	}

	// Builder assembles a Document in insertion order. Setting an existing
	// key replaces its value in place.
	Builder struct {
		doc *Document
	}
)

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{doc: &Document{index: make(map[Section]int)}}
}

// Section ensures name exists, so that empty sections survive.
func (b *Builder) Section(name Section) *Builder {
	b.section(name)
	return b
}

// Set stores value under section.key.
func (b *Builder) Set(name Section, key Key, value Value) *Builder {
	s := b.section(name)
	if i, ok := s.index[key]; ok {
		s.entries[i].value = value
		return b
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, entry{key: key, value: value})
	return b
}

// Path records where the document came from.
func (b *Builder) Path(path string) *Builder {
	b.doc.path = path
	return b
}

// Build returns the document. The Builder must not be used afterwards.
func (b *Builder) Build() *Document {
	doc := b.doc
	b.doc = nil
	return doc
}

func (b *Builder) section(name Section) *section {
	if i, ok := b.doc.index[name]; ok {
		return &b.doc.sections[i]
	}
	b.doc.index[name] = len(b.doc.sections)
	b.doc.sections = append(b.doc.sections, section{name: name, index: make(map[Key]int)})
	return &b.doc.sections[len(b.doc.sections)-1]
}

// Path returns the file the document was loaded from, or "" when it was
// parsed from memory.
func (d *Document) Path() string { return d.path }

// Sections returns section names in document order.
func (d *Document) Sections() []Section {
	out := make([]Section, len(d.sections))
	for i, s := range d.sections {
		out[i] = s.name
	}
	return out
}

// HasSection reports whether the section is present, even if empty.
func (d *Document) HasSection(name Section) bool {
	_, ok := d.index[name]
	return ok
}

// Keys returns the keys of a section in document order. An absent section
// has no keys.
func (d *Document) Keys(name Section) []Key {
	s := d.lookupSection(name)
	if s == nil {
		return nil
	}
	out := make([]Key, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.key
	}
	return out
}

// Lookup returns the value stored at section.key.
func (d *Document) Lookup(name Section, key Key) (Value, bool) {
	s := d.lookupSection(name)
	if s == nil {
		return Value{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Value{}, false
	}
	return s.entries[i].value, true
}

// String returns a string setting.
func (d *Document) String(name Section, key Key) (string, error) {
	v, err := d.require(name, key, KindString)
	if err != nil {
		return "", err
	}
	s, _ := v.AsString()
	return s, nil
}

// Int returns an integer setting.
func (d *Document) Int(name Section, key Key) (int, error) {
	v, err := d.require(name, key, KindInt)
	if err != nil {
		return 0, err
	}
	n, _ := v.AsInt()
	return int(n), nil
}

// List returns a copy of a list setting. A present empty list is returned
// as a non-nil empty slice.
func (d *Document) List(name Section, key Key) ([]string, error) {
	v, err := d.require(name, key, KindList)
	if err != nil {
		return nil, err
	}
	list, _ := v.AsList()
	return list, nil
}

// Flatten merges the named sections into a single key/value map. Keys from
// later sections replace keys from earlier ones. Absent sections contribute
// nothing.
func (d *Document) Flatten(names ...Section) map[Key]Value {
	out := make(map[Key]Value)
	for _, name := range names {
		s := d.lookupSection(name)
		if s == nil {
			continue
		}
		for _, e := range s.entries {
			out[e.key] = e.value
		}
	}
	return out
}

// Equal reports whether both documents hold the same sections, keys and
// values in the same order. The source path is ignored.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return slices.EqualFunc(d.sections, other.sections, func(a, b section) bool {
		return a.name == b.name && slices.EqualFunc(a.entries, b.entries, func(x, y entry) bool {
			return x.key == y.key && x.value.Equal(y.value)
		})
	})
}

// SortedKeys returns the keys of a flattened map in lexical order, for
// stable output.
func SortedKeys(m map[Key]Value) []Key {
	return slices.Sorted(maps.Keys(m))
}

func (d *Document) lookupSection(name Section) *section {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	return &d.sections[i]
}

func (d *Document) require(name Section, key Key, want Kind) (Value, error) {
	if !d.HasSection(name) {
		return Value{}, &ConfigurationKeyMissingError{Section: name, Key: key, SectionMissing: true}
	}
	v, ok := d.Lookup(name, key)
	if !ok {
		return Value{}, &ConfigurationKeyMissingError{Section: name, Key: key}
	}
	if v.Kind() != want {
		return Value{}, &ValueTypeError{Section: name, Key: key, Want: want, Got: v.Kind()}
	}
	return v, nil
}

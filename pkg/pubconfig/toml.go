// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

var bareTOMLKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// tomlOrder records the order sections and keys first appear in a TOML
// document. go-toml decodes into maps, which lose it.
type tomlOrder struct {
	sections []string
	keys     map[string][]string
}

func (o *tomlOrder) add(section, key string) {
	if _, ok := o.keys[section]; !ok {
		o.sections = append(o.sections, section)
		o.keys[section] = nil
	}
	if key != "" && !slices.Contains(o.keys[section], key) {
		o.keys[section] = append(o.keys[section], key)
	}
}

// scanTOMLOrder walks the top-level expressions of data. Tables set the
// current section; key/values are recorded under it, or under their first
// key part when written as a dotted key at the top level.
func scanTOMLOrder(data []byte) (*tomlOrder, error) {
	order := &tomlOrder{keys: make(map[string][]string)}

	var p unstable.Parser
	p.Reset(data)

	current := ""
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table:
			parts := keyParts(expr.Key())
			if len(parts) == 0 {
				continue
			}
			current = parts[0]
			order.add(current, "")
		case unstable.KeyValue:
			parts := keyParts(expr.Key())
			switch {
			case current != "" && len(parts) > 0:
				order.add(current, parts[0])
			case len(parts) > 1:
				order.add(parts[0], parts[1])
			case len(parts) == 1:
				order.add(parts[0], "")
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return order, nil
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// tomlToJSON decodes a TOML document and re-encodes it as JSON with the
// original section and key order, so it can go through the CUE schema check
// like any JSON document.
func tomlToJSON(data []byte) ([]byte, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if err := rejectTOMLDate(name, raw[name]); err != nil {
			return nil, err
		}
	}
	order, err := scanTOMLOrder(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range orderedNames(raw, order.sections) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		table, ok := raw[name].(map[string]any)
		if !ok {
			// Not a table. Encode as-is and let the schema reject it.
			encoded, err := json.Marshal(raw[name])
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
			continue
		}

		buf.WriteByte('{')
		for j, key := range orderedNames(table, order.keys[name]) {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(&buf, key); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			encoded, err := json.Marshal(table[key])
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// rejectTOMLDate fails on any date or time value under path. Documents have
// no date kind, and JSON would encode one as a string the schema accepts.
func rejectTOMLDate(path string, v any) error {
	switch v := v.(type) {
	case time.Time, toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return fmt.Errorf("%w: %s is a TOML date or time; quote it to use it as a string", ErrValueType, path)
	case []any:
		for i, item := range v {
			if err := rejectTOMLDate(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(v)) {
			if err := rejectTOMLDate(path+"."+key, v[key]); err != nil {
				return err
			}
		}
	}
	return nil
}

// orderedNames returns the keys of m: those in seen first, in that order,
// then any others sorted.
func orderedNames[V any](m map[string]V, seen []string) []string {
	out := make([]string, 0, len(m))
	for _, name := range seen {
		if _, ok := m[name]; ok {
			out = append(out, name)
		}
	}
	var rest []string
	for name := range m {
		if !slices.Contains(out, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (d *Document) marshalTOML() ([]byte, error) {
	var buf bytes.Buffer
	for i, s := range d.sections {
		if i > 0 {
			buf.WriteByte('\n')
		}
		header, err := tomlKey(string(s.name))
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "[%s]\n", header)
		for _, e := range s.entries {
			line, err := toml.Marshal(map[string]any{string(e.key): e.value.native()})
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.name, e.key, err)
			}
			buf.Write(line)
		}
	}
	return buf.Bytes(), nil
}

func tomlKey(name string) (string, error) {
	if bareTOMLKey.MatchString(name) {
		return name, nil
	}
	var buf bytes.Buffer
	if err := writeJSONString(&buf, name); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue/format"
	cuejson "cuelang.org/go/encoding/json"
)

const jsonIndent = "    "

// Marshal serializes the document. JSON output is canonical: four-space
// indentation, document order, and a trailing newline. TOML and CUE output
// keep document order as well.
func (d *Document) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return d.marshalJSON()
	case FormatTOML:
		return d.marshalTOML()
	case FormatCUE:
		return d.marshalCUE()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// MarshalJSON implements json.Marshaler with the canonical layout.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.marshalJSON()
}

func (d *Document) marshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if len(d.sections) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, s := range d.sections {
		buf.WriteString(jsonIndent)
		if err := writeJSONString(&buf, string(s.name)); err != nil {
			return nil, err
		}
		buf.WriteString(": ")
		if len(s.entries) == 0 {
			buf.WriteString("{}")
		} else {
			buf.WriteString("{\n")
			for j, e := range s.entries {
				buf.WriteString(jsonIndent + jsonIndent)
				if err := writeJSONString(&buf, string(e.key)); err != nil {
					return nil, err
				}
				buf.WriteString(": ")
				if err := writeJSONValue(&buf, e.value); err != nil {
					return nil, err
				}
				writeSeparator(&buf, j, len(s.entries))
			}
			buf.WriteString(jsonIndent + "}")
		}
		writeSeparator(&buf, i, len(d.sections))
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeSeparator(buf *bytes.Buffer, i, n int) {
	if i < n-1 {
		buf.WriteByte(',')
	}
	buf.WriteByte('\n')
}

func writeJSONValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return writeJSONString(buf, s)
	case KindInt:
		buf.WriteString(v.String())
		return nil
	case KindList:
		items, _ := v.AsList()
		if len(items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range items {
			buf.WriteString(jsonIndent + jsonIndent + jsonIndent)
			if err := writeJSONString(buf, item); err != nil {
				return err
			}
			writeSeparator(buf, i, len(items))
		}
		buf.WriteString(jsonIndent + jsonIndent + "]")
		return nil
	default:
		return fmt.Errorf("cannot encode %s value", v.Kind())
	}
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode always terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func (d *Document) marshalCUE() ([]byte, error) {
	data, err := d.marshalJSON()
	if err != nil {
		return nil, err
	}
	expr, err := cuejson.Extract("document", data)
	if err != nil {
		return nil, err
	}
	out, err := format.Node(expr)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}

// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/pubpublica/pubctl/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/format"
	cuejson "cuelang.org/go/encoding/json"
)

// DefaultFileName is the document name the deployment tooling expects at the
// repository root.
const DefaultFileName = "pubpublica.json"

//go:embed document_schema.cue
var documentSchema []byte

// Schema returns the embedded CUE schema documents are checked against.
func Schema() []byte {
	out := make([]byte, len(documentSchema))
	copy(out, documentSchema)
	return out
}

// Load reads and validates the document at path. The format follows the
// file extension.
func Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration document: %w", err)
	}
	if info.Size() > cueutil.DefaultMaxFileSize {
		return nil, fmt.Errorf("%s: file size %d exceeds maximum %d", path, info.Size(), cueutil.DefaultMaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration document: %w", err)
	}

	doc, err := Parse(data, f, path)
	if err != nil {
		return nil, err
	}
	doc.path = path
	return doc, nil
}

// Parse validates data in the given format against the document schema and
// builds a Document from it. filename only labels error messages.
func Parse(data []byte, f Format, filename string) (*Document, error) {
	if filename == "" {
		filename = "<input>"
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	src, err := toCUE(data, f, filename)
	if err != nil {
		return nil, err
	}

	checked, err := cueutil.NewSchema(documentSchema, "#Document").
		Check(src, cueutil.Named(filename), cueutil.LimitSize(cueutil.DefaultMaxFileSize*2))
	if err != nil {
		return nil, err
	}

	return fromCUE(checked.User, filename)
}

// toCUE converts the input to CUE source so every format goes through the
// same schema check. JSON and TOML are extracted to a CUE AST first, which
// keeps field order.
func toCUE(data []byte, f Format, filename string) ([]byte, error) {
	switch f {
	case FormatCUE:
		return data, nil
	case FormatJSON:
		return jsonToCUE(data, filename)
	case FormatTOML:
		asJSON, err := tomlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return jsonToCUE(asJSON, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func jsonToCUE(data []byte, filename string) ([]byte, error) {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return nil, cueutil.FormatError(err, filename)
	}
	src, err := format.Node(expr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return src, nil
}

func fromCUE(v cue.Value, filename string) (*Document, error) {
	b := NewBuilder()

	sections, err := v.Fields()
	if err != nil {
		return nil, cueutil.FormatError(err, filename)
	}
	for sections.Next() {
		name := Section(sections.Selector().Unquoted())
		b.Section(name)

		keys, err := sections.Value().Fields()
		if err != nil {
			return nil, cueutil.FormatError(err, filename)
		}
		for keys.Next() {
			key := Key(keys.Selector().Unquoted())
			value, err := decodeValue(keys.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %s.%s: %w", filename, name, key, err)
			}
			b.Set(name, key, value)
		}
	}

	return b.Build(), nil
}

func decodeValue(v cue.Value) (Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return Value{}, err
		}
		items := []string{}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return Value{}, err
			}
			items = append(items, s)
		}
		return ListValue(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value kind %s", v.Kind())
	}
}

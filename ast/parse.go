package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotNode is returned when a decoded value has no kind.
	ErrNotNode = errors.New("not an ast node")
	// ErrUnknownFormat is returned by ParseFile for unsupported extensions.
	ErrUnknownFormat = errors.New("unknown ast format")
)

// object is a decoded mapping that remembers key order.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) kind() string {
	for _, k := range []string{"type", "kind"} {
		if s, ok := o.vals[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ParseFile reads an AST dump, choosing the decoder by extension.
func ParseFile(filename string) (*Node, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	var n *Node
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		n, err = ParseJSON(data)
	case ".yaml", ".yml":
		n, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return n, nil
}

// ParseJSON decodes a JSON AST dump.
func ParseJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after ast")
	}
	return toNode(v)
}

func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := &object{vals: map[string]any{}}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				v, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := o.vals[key]; !dup {
					o.keys = append(o.keys, key)
				}
				o.vals[key] = v
			}
			_, err := dec.Token()
			return o, err
		case '[':
			list := []any{}
			for dec.More() {
				v, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			_, err := dec.Token()
			return list, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

// ParseYAML decodes a YAML AST dump.
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrNotNode)
	}
	v, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, err
	}
	return toNode(v)
}

func fromYAML(y *yaml.Node) (any, error) {
	switch y.Kind {
	case yaml.MappingNode:
		o := &object{vals: map[string]any{}}
		for i := 0; i+1 < len(y.Content); i += 2 {
			key := y.Content[i].Value
			v, err := fromYAML(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			if _, dup := o.vals[key]; !dup {
				o.keys = append(o.keys, key)
			}
			o.vals[key] = v
		}
		return o, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(y.Content))
		for _, c := range y.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	default:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return v, nil
	}
}

// Decode converts a generic decoded value (maps, slices, scalars) into a
// node. Map keys are taken in sorted order.
func Decode(v any) (*Node, error) {
	return toNode(fromGeneric(v))
}

func fromGeneric(v any) any {
	switch t := v.(type) {
	case map[string]any:
		o := &object{vals: make(map[string]any, len(t))}
		for k, fv := range t {
			o.keys = append(o.keys, k)
			o.vals[k] = fromGeneric(fv)
		}
		slices.Sort(o.keys)
		return o
	case []any:
		list := make([]any, len(t))
		for i, e := range t {
			list[i] = fromGeneric(e)
		}
		return list
	default:
		return v
	}
}

func toNode(v any) (*Node, error) {
	o, ok := v.(*object)
	if !ok || o.kind() == "" {
		return nil, fmt.Errorf("%w: %T", ErrNotNode, v)
	}
	n := &Node{Kind: o.kind()}
	for _, k := range o.keys {
		fv := o.vals[k]
		switch k {
		case "type", "kind":
			continue
		case "name":
			if s, ok := fv.(string); ok {
				n.Name = s
				continue
			}
		case "line":
			if l, ok := toInt(fv); ok {
				n.Line = l
				continue
			}
		case "loc":
			if l, ok := locLine(fv); ok {
				n.Line = l
			}
		}
		cv, err := convertField(fv)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", n.Kind, k, err)
		}
		n.Set(k, cv)
	}
	return n, nil
}

func convertField(v any) (any, error) {
	switch t := v.(type) {
	case *object:
		if t.kind() != "" {
			return toNode(t)
		}
		return plain(t), nil
	case []any:
		nodes := make([]*Node, 0, len(t))
		for _, e := range t {
			if e == nil {
				nodes = append(nodes, nil)
				continue
			}
			o, ok := e.(*object)
			if !ok || o.kind() == "" {
				return plain(t), nil
			}
			c, err := toNode(o)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, c)
		}
		return nodes, nil
	default:
		return v, nil
	}
}

// plain turns decoded objects back into maps for non-node values.
func plain(v any) any {
	switch t := v.(type) {
	case *object:
		m := make(map[string]any, len(t.vals))
		for k, fv := range t.vals {
			m[k] = plain(fv)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	}
	return 0, false
}

func locLine(v any) (int, bool) {
	o, ok := v.(*object)
	if !ok {
		return 0, false
	}
	start, ok := o.vals["start"].(*object)
	if !ok {
		return 0, false
	}
	return toInt(start.vals["line"])
}

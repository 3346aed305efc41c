// Package ast holds generic expression trees: nodes identified by a kind
// string carrying named fields, as produced by ESTree-style parsers.
package ast

import (
	"fmt"
	"slices"
)

// KindIdentifier is the kind of identifier leaf nodes.
const KindIdentifier = "Identifier"

// Node is one expression tree node. Field values are *Node, []*Node,
// identifier name strings or scalars.
type Node struct {
	Kind   string
	Name   string
	Line   int
	Fields map[string]any

	order []string
}

// New builds a node from alternating field names and values, keeping
// field order. It panics on a malformed pair list.
func New(kind string, kv ...any) *Node {
	if len(kv)%2 != 0 {
		panic("ast.New: odd number of field arguments")
	}
	n := &Node{Kind: kind}
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("ast.New: field name %v is not a string", kv[i]))
		}
		n.Set(name, kv[i+1])
	}
	return n
}

// Ident returns an identifier node.
func Ident(name string) *Node { return &Node{Kind: KindIdentifier, Name: name} }

// Set assigns a field, appending it to the field order when new.
func (n *Node) Set(name string, v any) {
	if n.Fields == nil {
		n.Fields = make(map[string]any)
	}
	if _, ok := n.Fields[name]; !ok {
		n.order = append(n.order, name)
	}
	n.Fields[name] = v
}

// Get returns a field value.
func (n *Node) Get(name string) (any, bool) {
	v, ok := n.Fields[name]
	return v, ok
}

// Keys returns field names in insertion order. Fields assigned directly
// to the map are appended in sorted order.
func (n *Node) Keys() []string {
	keys := slices.Clone(n.order)
	var extra []string
	for k := range n.Fields {
		if !slices.Contains(keys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// Children returns the child nodes of n in field order.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, k := range n.Keys() {
		switch v := n.Fields[k].(type) {
		case *Node:
			if v != nil {
				out = append(out, v)
			}
		case []*Node:
			for _, c := range v {
				if c != nil {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// IsIdent reports whether n is an identifier leaf.
func (n *Node) IsIdent() bool { return n != nil && n.Kind == KindIdentifier }

func (n *Node) String() string {
	s := n.Kind
	if n.Name != "" {
		s += "(" + n.Name + ")"
	}
	if n.Line > 0 {
		s += fmt.Sprintf("@%d", n.Line)
	}
	return s
}

// Inspect traverses the tree in pre-order, calling fn for each node. When
// fn returns false the node's children are skipped.
func Inspect(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, fn)
	}
}

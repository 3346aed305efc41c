// Package tree assembles level-tagged lines into an indentation tree and
// walks it with pre/post-order hooks.
package tree

import (
	"errors"
	"fmt"
)

// ErrMalformedTree is returned when a flat list skips a level.
var ErrMalformedTree = errors.New("malformed tree")

// LevelError reports an item whose level skips past the level expected
// at its position.
type LevelError struct {
	Item Item
	Want int
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("%s: line %d has level %d, expected %d", ErrMalformedTree, e.Item.Line, e.Item.Level, e.Want)
}

func (e *LevelError) Unwrap() error { return ErrMalformedTree }

// Item is one entry of a flat, level-tagged list.
type Item struct {
	Level   int
	Line    int
	Payload any
}

// Node is a tree node. Ownership runs from parent to children only.
type Node struct {
	Payload  any
	Line     int
	Children []*Node
}

// Treeify drains items from the front of the list while the head level is
// at least atLevel, building one node per item at atLevel and recursing
// for deeper items. It returns nil when no item qualifies.
func Treeify(items *[]Item, atLevel int) ([]*Node, error) {
	var out []*Node
	for len(*items) > 0 {
		head := (*items)[0]
		if head.Level < atLevel {
			break
		}
		if head.Level != atLevel {
			return nil, &LevelError{Item: head, Want: atLevel}
		}
		*items = (*items)[1:]
		n := &Node{Payload: head.Payload, Line: head.Line}
		children, err := Treeify(items, atLevel+1)
		if err != nil {
			return nil, err
		}
		n.Children = children
		out = append(out, n)
	}
	return out, nil
}

// Flatten returns the pre-order, level-tagged list of the tree rooted at
// nodes. It is the inverse of Treeify.
func Flatten(nodes []*Node) []Item {
	var items []Item
	var rec func(ns []*Node, level int)
	rec = func(ns []*Node, level int) {
		for _, n := range ns {
			items = append(items, Item{Level: level, Line: n.Line, Payload: n.Payload})
			rec(n.Children, level+1)
		}
	}
	rec(nodes, 0)
	return items
}

// Depth returns the number of levels in the tree.
func Depth(nodes []*Node) int {
	d := 0
	for _, n := range nodes {
		if cd := Depth(n.Children) + 1; cd > d {
			d = cd
		}
	}
	return d
}

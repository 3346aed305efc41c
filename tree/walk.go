package tree

import "errors"

// SkipChildren may be returned by Hooks.Visit to leave a node's children
// unvisited. EndVisit still runs for the node.
var SkipChildren = errors.New("skip children")

// Hooks receive walk events. Any error other than SkipChildren aborts the
// walk.
//
// The node being visited is on top of the stack during Visit and EndVisit.
type Hooks interface {
	BeginLevel(level int) error
	Visit(n *Node, st *Stack) error
	EndVisit(n *Node, st *Stack) error
	EndLevel(level int) error
}

// BaseHooks implements Hooks with no-ops. Embed it and override what you
// need.
type BaseHooks struct{}

func (BaseHooks) BeginLevel(int) error         { return nil }
func (BaseHooks) Visit(*Node, *Stack) error    { return nil }
func (BaseHooks) EndVisit(*Node, *Stack) error { return nil }
func (BaseHooks) EndLevel(int) error           { return nil }

// Walk visits roots depth first.
func Walk(roots []*Node, h Hooks) error {
	return walkLevel(roots, 0, nil, h, &Stack{})
}

func walkLevel(nodes []*Node, level int, parent *Node, h Hooks, st *Stack) error {
	if len(nodes) == 0 {
		return nil
	}
	if err := h.BeginLevel(level); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := st.Push(Frame{Node: n, Level: level, User: &UserData{Parent: parent, Vars: map[string]any{}}}); err != nil {
			return err
		}
		err := h.Visit(n, st)
		switch {
		case err == nil:
			if err := walkLevel(n.Children, level+1, n, h, st); err != nil {
				return err
			}
		case errors.Is(err, SkipChildren):
		default:
			return err
		}
		if err := h.EndVisit(n, st); err != nil {
			return err
		}
		st.Pop()
	}
	return h.EndLevel(level)
}

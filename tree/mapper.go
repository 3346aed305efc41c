package tree

import "github.com/rubiojr/treeline/source"

// NodeGetter yields mapped line nodes, nil at end of input.
type NodeGetter interface {
	Get() (*source.Node, error)
}

// TreeMapper builds a tree from a single-pass node stream. Node payloads
// are the *source.Node values read from the stream.
type TreeMapper struct {
	src   NodeGetter
	tree  []*Node
	err   error
	built bool
}

// NewTreeMapper returns a TreeMapper reading from src.
func NewTreeMapper(src NodeGetter) *TreeMapper {
	return &TreeMapper{src: src}
}

// Tree drains the stream and builds the tree on the first call. Later
// calls return the same slice, or the same error: the stream cannot be
// read twice.
func (tm *TreeMapper) Tree() ([]*Node, error) {
	if !tm.built {
		tm.tree, tm.err = tm.build()
		tm.built = true
	}
	return tm.tree, tm.err
}

func (tm *TreeMapper) build() ([]*Node, error) {
	var items []Item
	for {
		n, err := tm.src.Get()
		if err != nil {
			return nil, err
		}
		if n == nil {
			break
		}
		items = append(items, Item{Level: n.Level, Line: n.LineNum, Payload: n})
	}
	return Treeify(&items, 0)
}

// Walk builds the tree if needed and walks it.
func (tm *TreeMapper) Walk(h Hooks) error {
	t, err := tm.Tree()
	if err != nil {
		return err
	}
	return Walk(t, h)
}

// SourceNode returns the line node carried by a tree node built by a
// TreeMapper, or nil.
func SourceNode(n *Node) *source.Node {
	sn, _ := n.Payload.(*source.Node)
	return sn
}

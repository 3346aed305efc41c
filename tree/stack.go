package tree

import (
	"errors"
	"fmt"
)

// ErrBadFrame is returned by Stack.Push for a frame without user data.
var ErrBadFrame = errors.New("bad stack frame")

// UserData is the per-frame bundle hooks use to reach the parent node and
// to keep state between Visit and EndVisit.
type UserData struct {
	Parent *Node
	Vars   map[string]any
}

// Frame is one entry of the ancestor stack.
type Frame struct {
	Node  *Node
	Level int
	User  *UserData
}

// Stack is the explicit ancestor stack maintained during a walk.
type Stack struct {
	frames []Frame
}

// Push adds a frame. Frames must carry a node and user data.
func (s *Stack) Push(f Frame) error {
	if f.Node == nil {
		return fmt.Errorf("%w: nil node", ErrBadFrame)
	}
	if f.User == nil {
		return fmt.Errorf("%w: line %d has no user data", ErrBadFrame, f.Node.Line)
	}
	s.frames = append(s.frames, f)
	return nil
}

// Pop removes and returns the top frame.
func (s *Stack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Top returns the top frame, or nil when the stack is empty.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// Parent returns the parent of the node on top, nil at the root.
func (s *Stack) Parent() *Node {
	if f := s.Top(); f != nil {
		return f.User.Parent
	}
	return nil
}

// Ancestors returns the nodes below the top frame, innermost first.
func (s *Stack) Ancestors() []*Node {
	if len(s.frames) < 2 {
		return nil
	}
	out := make([]*Node, 0, len(s.frames)-1)
	for i := len(s.frames) - 2; i >= 0; i-- {
		out = append(out, s.frames[i].Node)
	}
	return out
}

// Depth returns the number of frames.
func (s *Stack) Depth() int { return len(s.frames) }

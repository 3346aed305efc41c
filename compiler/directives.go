package compiler

import (
	"fmt"
	"strings"

	"github.com/rubiojr/treeline/preprocess"
	"github.com/rubiojr/treeline/source"
)

// Conditional is the payload of an ifdef or ifndef line. When Keep is
// false the guarded block has already been consumed.
type Conditional struct {
	Name   string
	Negate bool
	Keep   bool
}

func (c Conditional) String() string {
	cmd := "#ifdef"
	if c.Negate {
		cmd = "#ifndef"
	}
	return cmd + " " + c.Name
}

// CodeUnit is the payload of a code line: the block below it, captured
// verbatim for the code compiler.
type CodeUnit struct {
	Name string
	Text string
}

func (u CodeUnit) String() string { return strings.TrimSpace("#code " + u.Name) }

// conditional returns the handler for ifdef (negate false) and ifndef.
// A false condition drains the guarded block from the live source so
// nothing inside it is mapped, defines included.
func conditional(negate bool) preprocess.MapFunc {
	return func(m *preprocess.Mapper, n *source.Node) (any, error) {
		name, _, _ := strings.Cut(strings.TrimSpace(n.Args), " ")
		if name == "" {
			return nil, ErrBadConditional
		}
		_, defined := m.Constant(name)
		c := Conditional{Name: name, Negate: negate, Keep: defined != negate}
		if !c.Keep {
			block, err := m.CaptureBlock(n.Level)
			if err != nil {
				return nil, err
			}
			log.Debugf("%s: %s false, skipped %d line(s)", n.Location, c, len(block))
		}
		return c, nil
	}
}

// captureCode handles "#code [name]" by capturing the block below it.
func captureCode(unit string) preprocess.MapFunc {
	return func(m *preprocess.Mapper, n *source.Node) (any, error) {
		block, err := m.CaptureBlock(n.Level)
		if err != nil {
			return nil, err
		}
		if len(block) == 0 {
			return nil, fmt.Errorf("code directive without a block")
		}
		return CodeUnit{Name: n.Args, Text: preprocess.BlockText(block, n.Level+1, unit)}, nil
	}
}

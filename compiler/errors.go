package compiler

import (
	"errors"
	"fmt"

	"github.com/rubiojr/treeline/preprocess"
	"github.com/rubiojr/treeline/source"
	"github.com/rubiojr/treeline/tree"
)

// ErrBadConditional is returned for ifdef/ifndef without a name.
var ErrBadConditional = errors.New("conditional needs a name")

// SourceError is a failure tied to an input position. Text holds the
// offending line when known.
type SourceError struct {
	Location string
	Line     int
	Text     string
	Err      error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Location, e.Err)
	if e.Text != "" {
		msg += "\n\t" + e.Text
	}
	return msg
}

func (e *SourceError) Unwrap() error { return e.Err }

// CodeError is returned by code compilers for malformed embedded code.
type CodeError struct {
	Source string
	Msg    string
	Line   int
}

func (e *CodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("code error at line %d: %s", e.Line, e.Msg)
	}
	return "code error: " + e.Msg
}

func nodeError(n *source.Node, err error) *SourceError {
	return &SourceError{Location: n.Location.String(), Line: n.LineNum, Text: n.Text, Err: err}
}

// sourceError attaches the best position available to err.
func sourceError(name string, err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	var le *preprocess.LineError
	if errors.As(err, &le) {
		return nodeError(le.Node, le.Err)
	}
	var lv *tree.LevelError
	if errors.As(err, &lv) {
		if n, ok := lv.Item.Payload.(*source.Node); ok {
			return nodeError(n, err)
		}
	}
	return &SourceError{Location: name, Err: err}
}

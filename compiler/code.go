package compiler

import (
	"strings"

	"github.com/rubiojr/treeline/ast"
)

// Options describe one embedded code unit.
type Options struct {
	Name string // unit name given on the code directive
	File string
	Line int
}

// CodeCompiler translates embedded code units. Parse must be idempotent
// and report malformed input as *CodeError.
type CodeCompiler interface {
	Compile(src string, opts Options) (string, error)
	Parse(src string, opts Options) (*ast.Node, error)
}

// PassThrough emits code unchanged and parses serialized ASTs (JSON, or
// YAML when the text does not start with a brace).
type PassThrough struct{}

func (PassThrough) Compile(src string, _ Options) (string, error) { return src, nil }

func (PassThrough) Parse(src string, opts Options) (*ast.Node, error) {
	var (
		n   *ast.Node
		err error
	)
	if strings.HasPrefix(strings.TrimSpace(src), "{") {
		n, err = ast.ParseJSON([]byte(src))
	} else {
		n, err = ast.ParseYAML([]byte(src))
	}
	if err != nil {
		return nil, &CodeError{Source: src, Msg: err.Error(), Line: opts.Line}
	}
	return n, nil
}

// Package compiler drives the pipeline: lines are read with nested
// includes, mapped by the directive mapper, assembled into a tree and
// written back out, and expression trees are analyzed for symbols.
package compiler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rubiojr/treeline/config"
	"github.com/rubiojr/treeline/preprocess"
	"github.com/rubiojr/treeline/source"
	"github.com/rubiojr/treeline/tree"
)

var log = logging.Logger("treeline/compiler")

// Compiler holds the collaborators of the pipeline. A Compiler may be
// shared by goroutines expanding different inputs.
type Compiler struct {
	Config   *config.Config
	Includer source.Includer
	Env      preprocess.EnvSink
	Plugins  []preprocess.Plugin
	Code     CodeCompiler
	// Commands adds or overrides directive handlers.
	Commands map[string]preprocess.MapFunc
}

// Result holds the output of an expansion.
type Result struct {
	Name     string
	Text     string
	Lines    int // input lines consumed, includes counted
	Tree     []*tree.Node
	Warnings []string
}

// New creates a Compiler for cfg, resolving includes from the file system.
func New(cfg *config.Config) (*Compiler, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	inc, err := source.NewFileIncluder(cfg.IncludePaths(), cfg.Extensions, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Compiler{
		Config:   cfg,
		Includer: inc,
		Env:      preprocess.OSEnv{},
		Code:     PassThrough{},
	}, nil
}

func (c *Compiler) config() *config.Config {
	if c.Config == nil {
		return config.Default()
	}
	return c.Config
}

// ExpandFile expands the file at path.
func (c *Compiler) ExpandFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()
	return c.Expand(path, f)
}

// Expand reads r as the source named name and returns the expanded text.
func (c *Compiler) Expand(name string, r io.Reader) (*Result, error) {
	cfg := c.config()
	src := source.FromReader(name, r,
		source.WithIncluder(c.Includer),
		source.WithDir(filepath.Dir(name)),
		source.WithIndent(cfg.IndentUnit()),
		source.WithMaxDepth(cfg.MaxDepth),
	)
	defer src.Close()

	tm := tree.NewTreeMapper(c.newMapper(src))
	roots, err := tm.Tree()
	if err != nil {
		return nil, sourceError(name, err)
	}
	e := &expander{
		code: c.Code,
		out:  &textWriter{unit: cfg.IndentUnit()},
	}
	if e.code == nil {
		e.code = PassThrough{}
	}
	if err := tm.Walk(e); err != nil {
		return nil, sourceError(name, err)
	}
	log.Debugf("%s: %d line(s) in, %d out", name, src.Total(), e.out.lines)
	return &Result{
		Name:     name,
		Text:     e.out.String(),
		Lines:    src.Total(),
		Tree:     roots,
		Warnings: e.warnings,
	}, nil
}

// Tree reads r and returns the mapped line tree without expanding it.
func (c *Compiler) Tree(name string, r io.Reader) ([]*tree.Node, error) {
	res, err := c.Expand(name, r)
	if err != nil {
		return nil, err
	}
	return res.Tree, nil
}

func (c *Compiler) newMapper(src *source.LineSource) *preprocess.Mapper {
	cfg := c.config()
	opts := []preprocess.Option{
		preprocess.WithConstants(cfg.Constants),
		preprocess.WithEnvPrefix(cfg.EnvPrefix),
		preprocess.WithPlugins(c.Plugins...),
	}
	if c.Env != nil {
		opts = append(opts, preprocess.WithEnv(c.Env))
	}
	m := preprocess.New(src, opts...)
	m.Commands["ifdef"] = conditional(false)
	m.Commands["ifndef"] = conditional(true)
	m.Commands["code"] = captureCode(cfg.IndentUnit())
	for name, h := range c.Commands {
		m.Commands[name] = h
	}
	return m
}

const dedentVar = "dedent"

// expander writes kept tree nodes back out as text.
type expander struct {
	tree.BaseHooks
	code     CodeCompiler
	out      *textWriter
	warnings []string
}

func (e *expander) Visit(n *tree.Node, st *tree.Stack) error {
	sn := tree.SourceNode(n)
	if sn == nil {
		return fmt.Errorf("tree node at line %d carries no source line", n.Line)
	}
	switch p := sn.Payload.(type) {
	case string:
		e.out.Line(sn.Level, p)
	case Conditional:
		if !p.Keep {
			return tree.SkipChildren
		}
		e.out.Dedent()
		st.Top().User.Vars[dedentVar] = true
	case CodeUnit:
		text, err := e.code.Compile(p.Text, Options{Name: p.Name, File: sn.Location.FileID, Line: sn.LineNum})
		if err != nil {
			return nodeError(sn, err)
		}
		for _, line := range source.SplitLines(text) {
			e.out.Line(sn.Level, line)
		}
		return tree.SkipChildren
	case preprocess.Command:
		msg := fmt.Sprintf("%s: unknown command #%s", sn.Location, p.Name)
		log.Warnf("%s", msg)
		e.warnings = append(e.warnings, msg)
		e.out.Line(sn.Level, strings.TrimSpace("#"+p.Name+" "+p.Args))
	default:
		e.out.Line(sn.Level, fmt.Sprint(p))
	}
	return nil
}

func (e *expander) EndVisit(_ *tree.Node, st *tree.Stack) error {
	if st.Top().User.Vars[dedentVar] == true {
		e.out.Indent()
	}
	return nil
}

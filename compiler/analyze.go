package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/rubiojr/treeline/ast"
	"github.com/rubiojr/treeline/report"
	"github.com/rubiojr/treeline/symbols"
)

// Analyze classifies the symbols of prog and synthesizes import lines for
// missing names listed in the configured import table.
func (c *Compiler) Analyze(name string, prog *ast.Node) (*report.Report, error) {
	cfg := c.config()
	w := symbols.NewWalker(symbols.NewContext(cfg.Builtins...))
	if err := w.Walk(prog); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	rep := report.FromWalker(name, w)
	rep.Imports = SynthesizeImports(rep, cfg.Imports)
	return rep, nil
}

// AnalyzeCode parses src with the code compiler and analyzes the result.
func (c *Compiler) AnalyzeCode(name, src string) (*report.Report, error) {
	code := c.Code
	if code == nil {
		code = PassThrough{}
	}
	prog, err := code.Parse(src, Options{File: name})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c.Analyze(name, prog)
}

// SynthesizeImports returns one import line per module providing missing
// names of rep, modules sorted, names in first-seen order.
func SynthesizeImports(rep *report.Report, table map[string]string) []string {
	known := lo.Filter(rep.Missing, func(name string, _ int) bool {
		_, ok := table[name]
		return ok
	})
	groups := lo.GroupBy(known, func(name string) string { return table[name] })
	mods := lo.Keys(groups)
	slices.Sort(mods)
	var lines []string
	for _, mod := range mods {
		lines = append(lines, fmt.Sprintf("import { %s } from %q;", strings.Join(groups[mod], ", "), mod))
	}
	return lines
}

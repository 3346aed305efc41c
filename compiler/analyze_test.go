package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/treeline/report"
	"github.com/rubiojr/treeline/symbols"
)

const program = `{
  "type": "Program",
  "body": [
    {"type": "ImportDeclaration", "specifiers": [
      {"type": "ImportSpecifier", "local": {"type": "Identifier", "name": "unused"}}
    ]},
    {"type": "ExpressionStatement", "expression": {
      "type": "CallExpression",
      "callee": {"type": "Identifier", "name": "debounce"},
      "arguments": [
        {"type": "Identifier", "name": "handler"},
        {"type": "Identifier", "name": "render"},
        {"type": "Identifier", "name": "window"}
      ]
    }}
  ]
}`

func TestAnalyzeCode(t *testing.T) {
	c := testCompiler(nil)
	c.Config.Builtins = []string{"window"}
	c.Config.Imports = map[string]string{"debounce": "lodash", "render": "./view", "throttle": "lodash"}

	rep, err := c.AnalyzeCode("app.json", program)
	require.NoError(t, err)
	assert.Equal(t, "app.json", rep.Source)
	assert.Equal(t, []string{"debounce", "handler", "render"}, rep.Missing)
	assert.Equal(t, []string{"unused"}, rep.NotNeeded)
	assert.Equal(t, []string{
		`import { render } from "./view";`,
		`import { debounce } from "lodash";`,
	}, rep.Imports)
}

func TestAnalyze_WalkError(t *testing.T) {
	_, err := testCompiler(nil).AnalyzeCode("bad.yaml", "kind: Program\nbody: 3\n")
	assert.ErrorIs(t, err, symbols.ErrUnexpectedNodeShape)
	assert.ErrorContains(t, err, "bad.yaml")
}

func TestSynthesizeImports(t *testing.T) {
	rep := &report.Report{Missing: []string{"b", "x", "a", "c"}}
	table := map[string]string{"a": "m1", "b": "m1", "c": "m0"}
	assert.Equal(t, []string{
		`import { c } from "m0";`,
		`import { b, a } from "m1";`,
	}, SynthesizeImports(rep, table))
	assert.Nil(t, SynthesizeImports(&report.Report{}, table))
}

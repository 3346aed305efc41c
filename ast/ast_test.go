package ast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fnJSON = `{
  "type": "FunctionDeclaration",
  "id": {"type": "Identifier", "name": "add", "loc": {"start": {"line": 3}}},
  "params": [{"type": "Identifier", "name": "a"}, {"type": "Identifier", "name": "b"}],
  "body": {"type": "BlockStatement", "body": [
    {"type": "ReturnStatement", "argument": {
      "type": "BinaryExpression", "operator": "+",
      "left": {"type": "Identifier", "name": "a"},
      "right": {"type": "Identifier", "name": "b"}}}
  ]},
  "async": false,
  "line": 3
}`

func TestParseJSON(t *testing.T) {
	n, err := ParseJSON([]byte(fnJSON))
	require.NoError(t, err)
	assert.Equal(t, "FunctionDeclaration", n.Kind)
	assert.Equal(t, 3, n.Line)
	assert.Equal(t, []string{"id", "params", "body", "async"}, n.Keys())

	id, ok := n.Fields["id"].(*Node)
	require.True(t, ok)
	assert.True(t, id.IsIdent())
	assert.Equal(t, "add", id.Name)
	assert.Equal(t, 3, id.Line)

	params, ok := n.Fields["params"].([]*Node)
	require.True(t, ok)
	require.Len(t, params, 2)
	assert.Equal(t, "b", params[1].Name)
	assert.Equal(t, false, n.Fields["async"])
}

func TestParseYAML(t *testing.T) {
	n, err := ParseYAML([]byte(`
kind: CallExpression
callee: {kind: Identifier, name: print}
arguments:
  - {kind: Literal, value: 1}
  - x
`))
	require.NoError(t, err)
	assert.Equal(t, "CallExpression", n.Kind)
	assert.Equal(t, []string{"callee", "arguments"}, n.Keys())
	assert.Equal(t, "print", n.Fields["callee"].(*Node).Name)
	// mixed lists stay plain values
	assert.Equal(t, []any{map[string]any{"kind": "Literal", "value": 1}, "x"}, n.Fields["arguments"])
}

func TestParse_NotANode(t *testing.T) {
	_, err := ParseJSON([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrNotNode)
	_, err = ParseJSON([]byte(`{"a": 1}`))
	assert.ErrorIs(t, err, ErrNotNode)
	_, err = ParseJSON([]byte(`{"type": "X"} {}`))
	assert.Error(t, err)
	_, err = ParseYAML([]byte(""))
	assert.ErrorIs(t, err, ErrNotNode)
}

func TestParse_NullArrayHoles(t *testing.T) {
	n, err := ParseJSON([]byte(`{"type": "ArrayPattern", "elements": [null, {"type": "Identifier", "name": "b"}]}`))
	require.NoError(t, err)
	elems := n.Fields["elements"].([]*Node)
	require.Len(t, elems, 2)
	assert.Nil(t, elems[0])
	assert.Equal(t, []*Node{elems[1]}, n.Children())
}

func TestDecode_Generic(t *testing.T) {
	n, err := Decode(map[string]any{
		"type":       "ExpressionStatement",
		"expression": map[string]any{"type": "Identifier", "name": "x"},
		"extra":      map[string]any{"raw": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"expression", "extra"}, n.Keys())
	assert.Equal(t, map[string]any{"raw": "x"}, n.Fields["extra"])
	assert.Equal(t, "x", n.Fields["expression"].(*Node).Name)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "prog.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(fnJSON), 0o644))
	n, err := ParseFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "FunctionDeclaration", n.Kind)

	ymlPath := filepath.Join(dir, "prog.yml")
	require.NoError(t, os.WriteFile(ymlPath, []byte("type: Program\nbody: []\n"), 0o644))
	n, err = ParseFile(ymlPath)
	require.NoError(t, err)
	assert.Equal(t, []*Node{}, n.Fields["body"])

	_, err = ParseFile(filepath.Join(dir, "prog.txt"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInspect(t *testing.T) {
	prog := New("Program", "body", []*Node{
		New("ExpressionStatement", "expression", New("CallExpression",
			"callee", Ident("f"),
			"arguments", []*Node{Ident("a"), New("FunctionExpression", "body", Ident("hidden"))})),
	})
	var seen []string
	Inspect(prog, func(n *Node) bool {
		seen = append(seen, n.String())
		return n.Kind != "FunctionExpression"
	})
	assert.Equal(t, []string{
		"Program", "ExpressionStatement", "CallExpression",
		"Identifier(f)", "Identifier(a)", "FunctionExpression",
	}, seen)
}

func TestNew_PanicsOnBadPairs(t *testing.T) {
	assert.Panics(t, func() { New("X", "a") })
	assert.Panics(t, func() { New("X", 1, 2) })
}

func TestKeys_DirectMapAssignment(t *testing.T) {
	n := New("X", "b", 1)
	n.Fields["a"] = 2
	assert.Equal(t, []string{"b", "a"}, n.Keys())
	v, ok := n.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/rubiojr/treeline/report"
)

type project struct {
	dir    string
	config string
}

func newProject(t *testing.T, toml string, files map[string]string) *project {
	t.Helper()
	dir := t.TempDir()
	p := &project{dir: dir, config: filepath.Join(dir, "treeline.toml")}
	require.NoError(t, os.WriteFile(p.config, []byte(toml), 0o644))
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	return p
}

func (p *project) path(name string) string { return filepath.Join(p.dir, name) }

func (p *project) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"treeline", "--no-color", "--config", p.config}, args...)
	err := Run(context.Background(), argv, &stdout, &stderr, "test")
	return stdout.String(), stderr.String(), err
}

func TestExpandCommand(t *testing.T) {
	p := newProject(t, `
include_dirs = ["lib"]

[constants]
TARGET = "web"
`, map[string]string{
		"main.tl":       "#include banner\n#ifdef TARGET\n\tbuild __TARGET__\n#ifdef OTHER\n\tnever\n#note keep\n",
		"lib/banner.tl": "# banner\nhello\n",
	})
	out, errOut, err := p.run(t, "expand", p.path("main.tl"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nbuild web\n#note keep\n", out)
	assert.Contains(t, errOut, "unknown command #note")
}

func TestExpandCommand_OutputDirAndErrors(t *testing.T) {
	p := newProject(t, "", map[string]string{
		"src/a.tl":   "a\n\tb\n",
		"src/b.tl":   "x\n",
		"src/bad.tl": "#include missing\n",
	})
	outDir := p.path("out")
	_, _, err := p.run(t, "expand", "-o", outDir, "-j", "2", p.path("src"))
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `include "missing" not found`)

	data, err := os.ReadFile(filepath.Join(outDir, "a"))
	require.NoError(t, err)
	assert.Equal(t, "a\n\tb\n", string(data))
	data, err = os.ReadFile(filepath.Join(outDir, "b"))
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
	assert.NoFileExists(t, filepath.Join(outDir, "bad"))
}

func TestExpandCommand_Usage(t *testing.T) {
	p := newProject(t, "", nil)
	_, _, err := p.run(t, "expand")
	assert.ErrorContains(t, err, "usage:")
}

func TestTreeCommand(t *testing.T) {
	p := newProject(t, "", map[string]string{"main.tl": "root\n\tchild\n\t\tleaf\nnext\n"})
	out, _, err := p.run(t, "tree", "--format", "json", p.path("main.tl"))
	require.NoError(t, err)

	var recs []report.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 4)
	assert.Equal(t, report.Record{Level: 2, Line: 3, Location: p.path("main.tl") + "/3", Text: "leaf"}, recs[2])

	_, _, err = p.run(t, "tree", "--format", "xml", p.path("main.tl"))
	assert.ErrorContains(t, err, "unknown format")
}

const programYAML = `
type: Program
body:
  - type: ExpressionStatement
    expression:
      type: CallExpression
      callee: {type: Identifier, name: debounce}
      arguments:
        - {type: Identifier, name: console}
        - {type: Identifier, name: helper}
`

func TestSymbolsCommand(t *testing.T) {
	p := newProject(t, `
builtins = ["console"]

[imports]
debounce = "lodash"
`, map[string]string{"prog.yaml": programYAML})

	out, _, err := p.run(t, "symbols", "--imports", p.path("prog.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "prog.yaml\n")
	assert.Contains(t, out, "debounce, helper")
	assert.Contains(t, out, `import { debounce } from "lodash";`)

	out, _, err = p.run(t, "symbols", "--format", "json", p.path("prog.yaml"))
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []string{"debounce", "helper"}, rep.Missing)
	assert.Empty(t, rep.Imports)
}

func TestBadConfig(t *testing.T) {
	p := newProject(t, "indent = \"tabs\"\n", map[string]string{"main.tl": "x\n"})
	_, _, err := p.run(t, "expand", p.path("main.tl"))
	assert.Error(t, err)
}

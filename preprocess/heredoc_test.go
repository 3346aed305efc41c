package preprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeredoc_QuotesPlainBlock(t *testing.T) {
	m := newMapper("x = <<<\n\tline \"one\"\n\t\tindented\nafter")
	nodes := mapAll(t, m)
	require.Len(t, nodes, 2)
	assert.Equal(t, `x = "line \"one\"\n	indented"`, nodes[0].Payload)
	assert.Equal(t, "after", nodes[1].Payload)
	assert.Equal(t, 4, nodes[1].LineNum)
}

func TestHeredoc_MultipleMarkers(t *testing.T) {
	m := newMapper("f(<<<, <<<)\n\tfirst\n\n\tsecond\n\tmore\n\nnext")
	nodes := mapAll(t, m)
	require.Len(t, nodes, 2)
	assert.Equal(t, `f("first", "second\nmore")`, nodes[0].Payload)
	assert.Equal(t, "next", nodes[1].Payload)
}

func TestHeredoc_JSONBlock(t *testing.T) {
	m := newMapper("data = <<<\n\t{\"a\": 1,\n\t \"b\": [1, 2]}")
	nodes := mapAll(t, m)
	require.Len(t, nodes, 1)
	assert.Equal(t, `data = {"a":1,"b":[1,2]}`, nodes[0].Payload)
}

func TestHeredoc_YAMLBlock(t *testing.T) {
	m := newMapper("cfg = <<<\n\t---\n\tname: demo\n\ttags:\n\t  - a\n\t  - b")
	nodes := mapAll(t, m)
	require.Len(t, nodes, 1)
	assert.Equal(t, `cfg = {"name":"demo","tags":["a","b"]}`, nodes[0].Payload)
}

func TestHeredoc_RawBlock(t *testing.T) {
	m := newMapper("s = <<<\n\t$$$\n\tit's\n\tdone")
	nodes := mapAll(t, m)
	require.Len(t, nodes, 1)
	assert.Equal(t, `s = ('it\'s' + "\n" + 'done')`, nodes[0].Payload)
}

func TestHeredoc_MarkerCountMismatch(t *testing.T) {
	_, err := newMapper("f(<<<, <<<)\n\tonly one").Get()
	assert.ErrorIs(t, err, ErrHeredoc)

	_, err = newMapper("f(<<<)\nnot indented").Get()
	assert.ErrorIs(t, err, ErrHeredoc)
}

func TestHeredoc_TrailingBlankLinesPushedBack(t *testing.T) {
	m := newMapper("x = <<<\n\tbody\n\n\ny")
	nodes := mapAll(t, m)
	require.Len(t, nodes, 2)
	assert.Equal(t, `x = "body"`, nodes[0].Payload)
	assert.Equal(t, 5, nodes[1].LineNum)
	assert.Equal(t, 5, m.Source().Total())
}

type upperPlugin struct{}

func (upperPlugin) Name() string                { return "upper" }
func (upperPlugin) Recognize(block string) bool { return strings.HasPrefix(block, "{") }
func (upperPlugin) Render(block string) (Rendered, error) {
	return Rendered{Text: strings.ToUpper(block)}, nil
}

func TestPlugins_LastAddedWins(t *testing.T) {
	m := newMapper("x = <<<\n\t{\"k\": \"v\"}", WithPlugins(upperPlugin{}))
	assert.Equal(t, []string{"upper", "raw", "yaml", "json"}, m.Plugins().Names())

	nodes := mapAll(t, m)
	require.Len(t, nodes, 1)
	assert.Equal(t, `x = {"K": "V"}`, nodes[0].Payload)
}

func TestPlugins_RenderError(t *testing.T) {
	p := &Plugins{}
	p.Add(YAMLPlugin{})
	_, err := p.Render("---\n: : bad: [")
	assert.ErrorIs(t, err, ErrHeredoc)
}

func TestStripCommonIndent(t *testing.T) {
	got := stripCommonIndent([]string{"    a", "", "      b"})
	assert.Equal(t, []string{"a", "", "  b"}, got)
	assert.Equal(t, []string{"a", " b"}, stripCommonIndent([]string{"a", " b"}))
}

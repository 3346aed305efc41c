package preprocess

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rubiojr/treeline/source"
)

// HeredocMarker in a plain line is replaced by the rendering of the
// following indented block.
const HeredocMarker = "<<<"

// Rendered is the output of a HEREDOC plugin: the text spliced into the
// line and the decoded value, if the plugin produces one.
type Rendered struct {
	Text  string
	Value any
}

// Plugin renders one HEREDOC block.
type Plugin interface {
	Name() string
	Recognize(block string) bool
	Render(block string) (Rendered, error)
}

// Plugins is an ordered plugin list. The most recently added plugin that
// recognizes a block renders it; unrecognized blocks are quoted.
type Plugins struct {
	list []Plugin
}

// DefaultPlugins returns a list with the bundled JSON, YAML and raw
// renderers.
func DefaultPlugins() *Plugins {
	p := &Plugins{}
	p.Add(JSONPlugin{})
	p.Add(YAMLPlugin{})
	p.Add(RawPlugin{})
	return p
}

// Add registers a plugin with priority over those already present.
func (p *Plugins) Add(pl Plugin) { p.list = append(p.list, pl) }

// Names returns plugin names in consultation order.
func (p *Plugins) Names() []string {
	names := make([]string, 0, len(p.list))
	for i := len(p.list) - 1; i >= 0; i-- {
		names = append(names, p.list[i].Name())
	}
	return names
}

// Render renders block with the first plugin, newest first, that
// recognizes it.
func (p *Plugins) Render(block string) (Rendered, error) {
	for i := len(p.list) - 1; i >= 0; i-- {
		pl := p.list[i]
		if pl.Recognize(block) {
			r, err := pl.Render(block)
			if err != nil {
				return Rendered{}, fmt.Errorf("%w: %s: %v", ErrHeredoc, pl.Name(), err)
			}
			return r, nil
		}
	}
	return QuoteBlock(block), nil
}

// QuoteBlock renders block as a double-quoted literal with \n between
// lines.
func QuoteBlock(block string) Rendered {
	lines := strings.Split(block, "\n")
	var sb strings.Builder
	sb.WriteByte('"')
	for i, l := range lines {
		sb.WriteString(escapeForDoubleQuote(l))
		if i < len(lines)-1 {
			sb.WriteString(`\n`)
		}
	}
	sb.WriteByte('"')
	return Rendered{Text: sb.String(), Value: block}
}

// JSONPlugin renders blocks holding a JSON object or array as compact JSON.
type JSONPlugin struct{}

func (JSONPlugin) Name() string { return "json" }

func (JSONPlugin) Recognize(block string) bool {
	b := strings.TrimSpace(block)
	if b == "" || (b[0] != '{' && b[0] != '[') {
		return false
	}
	return json.Valid([]byte(b))
}

func (JSONPlugin) Render(block string) (Rendered, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(strings.TrimSpace(block))); err != nil {
		return Rendered{}, err
	}
	var v any
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		return Rendered{}, err
	}
	return Rendered{Text: buf.String(), Value: v}, nil
}

// YAMLPlugin renders blocks starting with a "---" line. The document is
// decoded and spliced in as JSON.
type YAMLPlugin struct{}

func (YAMLPlugin) Name() string { return "yaml" }

func (YAMLPlugin) Recognize(block string) bool {
	first, _, _ := strings.Cut(block, "\n")
	return strings.TrimSpace(first) == "---"
}

func (YAMLPlugin) Render(block string) (Rendered, error) {
	var v any
	if err := yaml.Unmarshal([]byte(block), &v); err != nil {
		return Rendered{}, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Text: string(out), Value: v}, nil
}

// RawPlugin renders blocks whose first line is "$$$" as single-quoted
// segments joined with newlines, so no interpolation applies downstream.
type RawPlugin struct{}

func (RawPlugin) Name() string { return "raw" }

func (RawPlugin) Recognize(block string) bool {
	first, _, _ := strings.Cut(block, "\n")
	return strings.TrimSpace(first) == "$$$"
}

func (RawPlugin) Render(block string) (Rendered, error) {
	_, body, _ := strings.Cut(block, "\n")
	if body == "" {
		return Rendered{Text: "''", Value: ""}, nil
	}
	lines := strings.Split(body, "\n")
	var parts []string
	for i, l := range lines {
		parts = append(parts, "'"+escapeForSingleQuote(l)+"'")
		if i < len(lines)-1 {
			parts = append(parts, `"\n"`)
		}
	}
	return Rendered{Text: "(" + strings.Join(parts, " + ") + ")", Value: body}, nil
}

// expandHeredocs replaces each marker in text with the rendering of one
// section of the indented block following n. Sections are separated by
// blank lines and consumed left to right.
func (m *Mapper) expandHeredocs(n *source.Node, text string) (any, error) {
	want := strings.Count(text, HeredocMarker)
	block, err := m.CaptureBlock(n.Level)
	if err != nil {
		return nil, err
	}
	sections := splitSections(block, n.Level+1)
	if len(sections) != want {
		return nil, fmt.Errorf("%w: %d marker(s) but %d block(s)", ErrHeredoc, want, len(sections))
	}
	parts := strings.Split(text, HeredocMarker)
	var sb strings.Builder
	sb.WriteString(parts[0])
	for i, sec := range sections {
		r, err := m.plugins.Render(strings.Join(stripCommonIndent(sec), "\n"))
		if err != nil {
			return nil, err
		}
		sb.WriteString(r.Text)
		sb.WriteString(parts[i+1])
	}
	return sb.String(), nil
}

// CaptureBlock pulls every following node indented deeper than level,
// along with blank lines inside the block. The first node outside the
// block and any trailing blank lines are pushed back. Captured nodes are
// not mapped.
func (m *Mapper) CaptureBlock(level int) ([]*source.Node, error) {
	var block []*source.Node
	for {
		nd, err := m.src.Fetch()
		if err != nil {
			return nil, err
		}
		if nd == nil {
			break
		}
		if nd.Text != "" && nd.Level <= level {
			if err := m.src.Unfetch(nd); err != nil {
				return nil, err
			}
			break
		}
		block = append(block, nd)
	}
	for len(block) > 0 && block[len(block)-1].Text == "" {
		if err := m.src.Unfetch(block[len(block)-1]); err != nil {
			return nil, err
		}
		block = block[:len(block)-1]
	}
	return block, nil
}

// BlockText joins captured block lines, rebuilding indentation relative
// to base with unit.
func BlockText(block []*source.Node, base int, unit string) string {
	lines := make([]string, 0, len(block))
	for _, nd := range block {
		if nd.Text == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, strings.Repeat(unit, max(nd.Level-base, 0))+nd.Text)
	}
	return strings.Join(lines, "\n")
}

// splitSections groups block lines into blank-separated sections and
// rebuilds each line's indentation relative to base.
func splitSections(block []*source.Node, base int) [][]string {
	var sections [][]string
	var cur []string
	for _, nd := range block {
		if nd.Text == "" {
			if cur != nil {
				sections = append(sections, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.Repeat("\t", nd.Level-base)+nd.Text)
	}
	if cur != nil {
		sections = append(sections, cur)
	}
	return sections
}

// stripCommonIndent removes the indentation shared by all non-blank
// lines. A tab counts as four columns. Blank lines come back empty.
func stripCommonIndent(lines []string) []string {
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if w, _ := indentWidth(l, math.MaxInt); common < 0 || w < common {
			common = w
		}
	}
	if common <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		_, cut := indentWidth(l, common)
		out[i] = l[cut:]
	}
	return out
}

// indentWidth measures leading whitespace of l in columns, stopping once
// limit columns are reached. It also returns the byte offset reached.
func indentWidth(l string, limit int) (cols, offset int) {
	for offset < len(l) && cols < limit {
		switch l[offset] {
		case ' ':
			cols++
		case '\t':
			cols += 4
		default:
			return cols, offset
		}
		offset++
	}
	return cols, offset
}

func escapeForDoubleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func escapeForSingleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// Package preprocess classifies and rewrites input lines before they are
// assembled into a tree.
//
// The Mapper pulls nodes from a source.LineSource and runs each through an
// ordered registry of special line types. By default blank lines and
// comments are dropped, "#define" commands set constants, other commands
// are passed through for the caller to interpret, and plain lines get
// constant substitution and HEREDOC capture.
package preprocess

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rubiojr/treeline/source"
)

var log = logging.Logger("treeline/preprocess")

var (
	// ErrBadDefine is returned for a define command without a valid name.
	ErrBadDefine = errors.New("bad define")
	// ErrHeredoc is returned when HEREDOC markers and blocks do not line up.
	ErrHeredoc = errors.New("heredoc")
)

// LineError is a mapping failure attributed to one input line.
type LineError struct {
	Node *source.Node
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("%s: %v", e.Node.Location, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Command is the payload of a command line passed through to the caller.
type Command struct {
	Name string
	Args string
}

// MapFunc transforms a recognized node. A nil result drops the line.
// The mapper is live: a MapFunc may fetch further nodes from
// m.Source() before returning, and push back what it does not use.
type MapFunc func(m *Mapper, n *source.Node) (any, error)

// SpecialType is one entry of the line type registry.
type SpecialType struct {
	Name      string
	Recognize func(n *source.Node) bool
	Map       MapFunc
}

// DefaultEnvPrefix marks define names that go to the environment sink.
const DefaultEnvPrefix = "env."

var (
	commandRe = regexp.MustCompile(`^#([A-Za-z_][A-Za-z0-9_]*)(?:\s+(.*))?$`)
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	constRe   = regexp.MustCompile(`__([A-Za-z][A-Za-z0-9_]*?)__`)
)

// Option configures a Mapper.
type Option func(*Mapper)

// WithEnv sets the sink receiving environment defines.
func WithEnv(env EnvSink) Option { return func(m *Mapper) { m.env = env } }

// WithEnvPrefix changes the define name prefix that selects the
// environment sink.
func WithEnvPrefix(prefix string) Option { return func(m *Mapper) { m.envPrefix = prefix } }

// WithConstants seeds the constant table.
func WithConstants(consts map[string]string) Option {
	return func(m *Mapper) {
		for k, v := range consts {
			m.consts[k] = v
		}
	}
}

// WithPlugins registers HEREDOC renderers after the bundled ones.
func WithPlugins(plugins ...Plugin) Option {
	return func(m *Mapper) {
		for _, p := range plugins {
			m.plugins.Add(p)
		}
	}
}

// Mapper is the directive mapper.
type Mapper struct {
	src       *source.LineSource
	types     []SpecialType
	consts    map[string]string
	env       EnvSink
	envPrefix string
	plugins   *Plugins

	// Commands maps command names to handlers. Commands without a handler
	// pass through with a Command payload.
	Commands map[string]MapFunc
}

// New creates a Mapper reading from src with the default registry
// (empty, comment, command) and the bundled HEREDOC plugins.
func New(src *source.LineSource, opts ...Option) *Mapper {
	m := &Mapper{
		src:       src,
		consts:    make(map[string]string),
		env:       OSEnv{},
		envPrefix: DefaultEnvPrefix,
		plugins:   DefaultPlugins(),
		Commands:  map[string]MapFunc{"define": mapDefine},
	}
	m.types = []SpecialType{
		{Name: source.TypeEmpty, Recognize: isEmpty, Map: dropLine},
		{Name: source.TypeComment, Recognize: isComment, Map: dropLine},
		{Name: source.TypeCommand, Recognize: isCommand, Map: mapCommand},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Source returns the live line source.
func (m *Mapper) Source() *source.LineSource { return m.src }

// Plugins returns the HEREDOC plugin registry.
func (m *Mapper) Plugins() *Plugins { return m.plugins }

// Types returns a copy of the registry in consultation order.
func (m *Mapper) Types() []SpecialType { return append([]SpecialType(nil), m.types...) }

// Register appends a special line type; it is consulted after the
// existing ones.
func (m *Mapper) Register(t SpecialType) { m.types = append(m.types, t) }

// Prepend adds a special line type consulted before all others.
func (m *Mapper) Prepend(t SpecialType) { m.types = append([]SpecialType{t}, m.types...) }

// Replace swaps the registered type with the same name. It reports
// whether a type was replaced.
func (m *Mapper) Replace(t SpecialType) bool {
	for i := range m.types {
		if m.types[i].Name == t.Name {
			m.types[i] = t
			return true
		}
	}
	return false
}

// Define sets a constant.
func (m *Mapper) Define(name, value string) { m.consts[name] = value }

// Constant returns a constant's value.
func (m *Mapper) Constant(name string) (string, bool) {
	v, ok := m.consts[name]
	return v, ok
}

// LineNum returns the current line number of the live source.
func (m *Mapper) LineNum() int { return m.src.LineNum() }

// Get returns the next mapped node, or nil at end of input.
func (m *Mapper) Get() (*source.Node, error) {
	for {
		n, err := m.src.Fetch()
		if err != nil || n == nil {
			return nil, err
		}
		payload, err := m.mapNode(n)
		if err != nil {
			return nil, &LineError{Node: n, Err: err}
		}
		if payload == nil {
			continue
		}
		n.Payload = payload
		return n, nil
	}
}

func (m *Mapper) mapNode(n *source.Node) (any, error) {
	for _, t := range m.types {
		if t.Recognize(n) {
			n.Type = t.Name
			return t.Map(m, n)
		}
	}
	n.Type = source.TypePlain
	return m.MapPlain(n)
}

// MapPlain substitutes constants in a plain line and expands HEREDOC
// markers. It returns the resulting text.
func (m *Mapper) MapPlain(n *source.Node) (any, error) {
	text := m.Substitute(n, n.Text)
	if strings.Contains(text, HeredocMarker) {
		return m.expandHeredocs(n, text)
	}
	return text, nil
}

// Substitute replaces __NAME__ references in text with constant values.
// The built-ins __line__ and __file__ name the position of n, the line
// being mapped, which may differ from the live source position after
// lines were pushed back.
func (m *Mapper) Substitute(n *source.Node, text string) string {
	return Substitute(text, func(name string) (string, bool) {
		switch name {
		case "line":
			return strconv.Itoa(n.LineNum), true
		case "file":
			if n.Location != nil {
				return n.Location.FileID, true
			}
			return m.src.FileID(), true
		}
		v, ok := m.consts[name]
		return v, ok
	})
}

// Substitute replaces every __NAME__ in text for which lookup reports a
// value. Unknown names are left as written.
func Substitute(text string, lookup func(name string) (string, bool)) string {
	if !strings.Contains(text, "__") {
		return text
	}
	return constRe.ReplaceAllStringFunc(text, func(ref string) string {
		if v, ok := lookup(ref[2 : len(ref)-2]); ok {
			return v
		}
		return ref
	})
}

func isEmpty(n *source.Node) bool { return n.Text == "" }

func isComment(n *source.Node) bool {
	t := n.Text
	return t == "#" || strings.HasPrefix(t, "# ") || strings.HasPrefix(t, "#\t")
}

func isCommand(n *source.Node) bool {
	sm := commandRe.FindStringSubmatch(n.Text)
	if sm == nil {
		return false
	}
	n.Cmd = sm[1]
	n.Args = strings.TrimSpace(sm[2])
	return true
}

func dropLine(*Mapper, *source.Node) (any, error) { return nil, nil }

func mapCommand(m *Mapper, n *source.Node) (any, error) {
	if h, ok := m.Commands[n.Cmd]; ok {
		return h(m, n)
	}
	return Command{Name: n.Cmd, Args: m.Substitute(n, n.Args)}, nil
}

// mapDefine handles "#define NAME value". Names carrying the env prefix
// are written to the environment sink instead of the constant table;
// with OSEnv that is process wide and outlives the mapper.
func mapDefine(m *Mapper, n *source.Node) (any, error) {
	name, value := n.Args, ""
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name, value = name[:i], strings.TrimSpace(name[i+1:])
	}
	value = m.Substitute(n, value)
	if m.envPrefix != "" && strings.HasPrefix(name, m.envPrefix) {
		key := strings.TrimPrefix(name, m.envPrefix)
		if !identRe.MatchString(key) {
			return nil, fmt.Errorf("%w: bad environment name %q", ErrBadDefine, name)
		}
		log.Debugf("%s: setenv %s", n.Location, key)
		if err := m.env.Setenv(key, value); err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
		return nil, nil
	}
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrBadDefine, n.Args)
	}
	if old, ok := m.consts[name]; ok && old != value {
		log.Debugf("%s: redefining %s", n.Location, name)
	}
	m.consts[name] = value
	return nil, nil
}

// Package source turns raw text into a stream of line records.
//
// A LineSource reads lines from a string, a slice, an io.Reader or an
// iterator, measures their indentation level, and hands them out one at a
// time. Lines can be pushed back, the stream can be cut short with an
// explicit end marker, and "#include name" lines transparently splice in
// the lines of another file at the include line's indentation.
package source

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"regexp"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rubiojr/treeline/scanner"
)

var log = logging.Logger("treeline/source")

// EndMarker is the reserved line that forces end of input.
const EndMarker = "__END__"

// DefaultMaxDepth bounds include nesting.
const DefaultMaxDepth = 16

var includeRe = regexp.MustCompile(`^#include\s+(\S+)$`)

// IncludeName returns the target of an include directive, or "" when text
// is not one. The name may be wrapped in <> or double quotes.
func IncludeName(text string) string {
	m := includeRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	name := m[1]
	if len(name) >= 2 && (name[0] == '<' && name[len(name)-1] == '>' || name[0] == '"' && name[len(name)-1] == '"') {
		name = name[1 : len(name)-1]
	}
	return name
}

// Option configures a LineSource.
type Option func(*LineSource)

// WithIncluder sets the resolver used for include directives.
func WithIncluder(inc Includer) Option { return func(s *LineSource) { s.includer = inc } }

// WithDir sets the directory searched first for includes.
func WithDir(dir string) Option { return func(s *LineSource) { s.dir = dir } }

// WithLevelOffset raises the level of every produced line by n.
func WithLevelOffset(n int) Option { return func(s *LineSource) { s.offset = n } }

// WithIndent sets the indentation unit: "\t" (the default) or a run of
// spaces.
func WithIndent(unit string) Option {
	return func(s *LineSource) {
		if unit != "" {
			s.indent = unit
		}
	}
}

// WithParent sets the location of the include directive that created
// this source.
func WithParent(loc *Location) Option { return func(s *LineSource) { s.parent = loc } }

// WithMaxDepth bounds include nesting below this source.
func WithMaxDepth(n int) Option { return func(s *LineSource) { s.maxDepth = n } }

func withDepth(n int) Option { return func(s *LineSource) { s.depth = n } }

// LineSource produces Nodes from an origin of raw lines.
//
// Fetch consults, in order: pushed-back nodes, the active include child,
// and the origin. A LineSource is not safe for concurrent use.
type LineSource struct {
	id       string
	dir      string
	indent   string
	offset   int
	parent   *Location
	depth    int
	maxDepth int
	includer Includer

	next  func() (string, bool, error)
	close func()

	nodes    *scanner.Getter[*Node]
	child    *LineSource
	lineNum  int // own lines consumed
	included int // lines consumed by finished children
	eof      bool
}

func newLineSource(id string, next func() (string, bool, error), closer func(), opts []Option) *LineSource {
	s := &LineSource{
		id:       id,
		indent:   "\t",
		maxDepth: DefaultMaxDepth,
		next:     next,
		close:    closer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.nodes = scanner.New(s.pull)
	return s
}

// FromLines creates a LineSource over lines. The slice is not modified.
func FromLines(id string, lines []string, opts ...Option) *LineSource {
	i := 0
	next := func() (string, bool, error) {
		if i >= len(lines) {
			return "", false, nil
		}
		line := lines[i]
		i++
		return line, true, nil
	}
	return newLineSource(id, next, nil, opts)
}

// FromString creates a LineSource over the lines of text.
func FromString(id, text string, opts ...Option) *LineSource {
	return FromLines(id, SplitLines(text), opts...)
}

// FromReader creates a LineSource reading lines from r.
func FromReader(id string, r io.Reader, opts ...Option) *LineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	next := func() (string, bool, error) {
		if sc.Scan() {
			return strings.TrimSuffix(sc.Text(), "\r"), true, nil
		}
		if err := sc.Err(); err != nil {
			return "", false, fmt.Errorf("reading %s: %w", id, err)
		}
		return "", false, nil
	}
	return newLineSource(id, next, nil, opts)
}

// FromSeq creates a LineSource pulling lines from seq. Call Close when
// abandoning the source before it is exhausted.
func FromSeq(id string, seq iter.Seq[string], opts ...Option) *LineSource {
	pull, stop := iter.Pull(seq)
	next := func() (string, bool, error) {
		line, ok := pull()
		return line, ok, nil
	}
	return newLineSource(id, next, stop, opts)
}

// ID returns the source identifier used in diagnostics.
func (s *LineSource) ID() string { return s.id }

// Dir returns the directory searched first for includes.
func (s *LineSource) Dir() string { return s.dir }

// Fetch returns the next line, or nil at end of input.
func (s *LineSource) Fetch() (*Node, error) {
	fromPending := s.nodes.Buffered() > 0
	n, ok, err := s.nodes.Get()
	if err != nil || !ok {
		return nil, err
	}
	if fromPending {
		if n.owner == s {
			s.lineNum++
		} else {
			s.included++
		}
	}
	return n, nil
}

// Unfetch pushes n back so the next Fetch returns it. Nodes that came
// from an active include are handed back to that include so ordering is
// preserved.
func (s *LineSource) Unfetch(n *Node) error {
	if n == nil {
		return fmt.Errorf("unfetch: nil node")
	}
	if IncludeName(n.Text) != "" {
		return fmt.Errorf("%w: %s", ErrInvalidInclude, n.Location)
	}
	if s.child != nil && n.owner != s {
		return s.child.Unfetch(n)
	}
	s.nodes.Unget(n)
	if n.owner == s {
		s.lineNum--
	} else {
		s.included--
	}
	return nil
}

// ForceEOF makes later fetches report end of input once pushed-back
// lines are drained. An active include is abandoned.
func (s *LineSource) ForceEOF() {
	s.eof = true
	if s.child != nil {
		s.child.Close()
		s.included += s.child.Total()
		s.child = nil
	}
	if s.close != nil {
		s.close()
		s.close = nil
	}
}

// Close releases the origin. It is only needed for iterator origins that
// are abandoned early.
func (s *LineSource) Close() {
	if s.child != nil {
		s.child.Close()
	}
	if s.close != nil {
		s.close()
		s.close = nil
	}
}

// LineNum returns the line number of the line most recently fetched
// from the innermost active source.
func (s *LineSource) LineNum() int {
	if s.child != nil {
		return s.child.LineNum()
	}
	return s.lineNum
}

// FileID returns the identifier of the innermost active source.
func (s *LineSource) FileID() string {
	if s.child != nil {
		return s.child.FileID()
	}
	return s.id
}

// Total returns the number of physical lines consumed by this source and
// every include it has spliced in, net of pushed-back lines.
func (s *LineSource) Total() int {
	total := s.lineNum + s.included
	if s.child != nil {
		total += s.child.Total()
	}
	return total
}

// pull feeds the lookahead buffer: the active child first, then the origin.
func (s *LineSource) pull() (*Node, bool, error) {
	for {
		if s.child != nil {
			n, err := s.child.Fetch()
			if err != nil {
				return nil, false, err
			}
			if n != nil {
				return n, true, nil
			}
			log.Debugf("%s: include %s done (%d lines)", s.id, s.child.id, s.child.Total())
			s.included += s.child.Total()
			s.child.Close()
			s.child = nil
		}
		if s.eof {
			return nil, false, nil
		}

		raw, ok, err := s.next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.eof = true
			return nil, false, nil
		}
		s.lineNum++

		level, text, err := splitIndent(raw, s.indent)
		if err != nil {
			return nil, false, fmt.Errorf("%s/%d: %w", s.id, s.lineNum, err)
		}
		if text == EndMarker {
			s.ForceEOF()
			return nil, false, nil
		}
		n := &Node{
			Text:        text,
			Level:       level,
			SourceLevel: level,
			LineNum:     s.lineNum,
			Location:    &Location{FileID: s.id, Line: s.lineNum, Parent: s.parent},
			owner:       s,
		}
		n.Level += s.offset

		if name := IncludeName(text); name != "" {
			if err := s.startInclude(name, n); err != nil {
				return nil, false, err
			}
			continue
		}
		return n, true, nil
	}
}

func (s *LineSource) startInclude(name string, at *Node) error {
	if s.depth+1 > s.maxDepth {
		return fmt.Errorf("%w: %q at %s (max %d)", ErrIncludeDepth, name, at.Location, s.maxDepth)
	}
	if s.includer == nil {
		return &IncludeError{Name: name, Dir: s.dir}
	}
	path, err := s.includer.Resolve(name, s.dir)
	if err != nil {
		return err
	}
	lines, err := s.includer.Load(path)
	if err != nil {
		return &IncludeError{Name: name, Dir: s.dir, Err: err}
	}
	log.Debugf("%s: including %s at level %d", at.Location, path, at.Level)
	s.child = FromLines(path, lines,
		WithIncluder(s.includer),
		WithDir(filepath.Dir(path)),
		WithIndent(s.indent),
		WithLevelOffset(at.Level),
		WithParent(at.Location),
		WithMaxDepth(s.maxDepth),
		withDepth(s.depth+1),
	)
	return nil
}

// splitIndent measures the leading indentation of line in units of
// indent and strips trailing whitespace. Blank lines are level 0.
func splitIndent(line, indent string) (int, string, error) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" {
		return 0, "", nil
	}
	level := 0
	rest := line
	for strings.HasPrefix(rest, indent) {
		level++
		rest = rest[len(indent):]
	}
	if indent != "\t" {
		ws := rest[:len(rest)-len(strings.TrimLeft(rest, " \t"))]
		if strings.Contains(ws, "\t") {
			return 0, "", fmt.Errorf("%w: tab in space-indented line", ErrBadIndent)
		}
	}
	return level, rest, nil
}

package source

import (
	"fmt"
	"strings"
)

// Location identifies where a line came from. Parent points at the
// location of the include directive that pulled the file in, so a line
// from a nested include can report the whole chain. It is only used for
// diagnostics.
type Location struct {
	FileID string
	Line   int
	Parent *Location
}

// String renders the location chain innermost first, e.g.
// "util.tl/3 < main.tl/12".
func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	var parts []string
	for loc := l; loc != nil; loc = loc.Parent {
		parts = append(parts, fmt.Sprintf("%s/%d", loc.FileID, loc.Line))
	}
	return strings.Join(parts, " < ")
}

// Line types assigned by the directive mapper's recognizers.
const (
	TypePlain   = ""
	TypeEmpty   = "empty"
	TypeComment = "comment"
	TypeCommand = "cmd"
)

// Node is one logical input line.
type Node struct {
	Text        string // without indentation or trailing whitespace
	Level       int    // may be raised when spliced into an include site
	SourceLevel int    // indentation level as written in its own file
	Location    *Location
	LineNum     int

	// Type is set by the directive mapper. For commands, Cmd and Args hold
	// the parsed command name and its raw argument string.
	Type string
	Cmd  string
	Args string

	// Payload is the mapped value attached by the directive mapper.
	Payload any

	owner *LineSource
}

// IsEmpty reports whether the line has no content.
func (n *Node) IsEmpty() bool { return n.Text == "" }

// Indented returns the text prefixed with level copies of unit.
func (n *Node) Indented(unit string) string {
	return strings.Repeat(unit, n.Level) + n.Text
}

func (n *Node) String() string {
	return fmt.Sprintf("[%d] %q (%s)", n.Level, n.Text, n.Location)
}

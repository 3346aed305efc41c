package compiler

import "strings"

// textWriter accumulates expanded output. Each line is written at its
// tree level shifted by the current indent, which kept conditional
// lines lower for their children.
type textWriter struct {
	sb     strings.Builder
	unit   string
	indent int
	lines  int
}

// Line writes text at level with a trailing newline. Empty text is
// written without indentation.
func (w *textWriter) Line(level int, text string) {
	w.lines++
	if text != "" {
		w.sb.WriteString(strings.Repeat(w.unit, max(level+w.indent, 0)))
		w.sb.WriteString(text)
	}
	w.sb.WriteByte('\n')
}

// Indent increases the indentation shift.
func (w *textWriter) Indent() { w.indent++ }

// Dedent decreases the indentation shift.
func (w *textWriter) Dedent() { w.indent-- }

// String returns the accumulated output.
func (w *textWriter) String() string { return w.sb.String() }

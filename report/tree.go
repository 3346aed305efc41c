package report

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/rubiojr/treeline/preprocess"
	"github.com/rubiojr/treeline/source"
	"github.com/rubiojr/treeline/tree"
)

// Record is one line of a tree dump.
type Record struct {
	Level    uint32 `json:"level" yaml:"level" msgpack:"l"`
	Line     uint32 `json:"line" yaml:"line" msgpack:"n"`
	Location string `json:"location,omitempty" yaml:"location,omitempty" msgpack:"o,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" msgpack:"t,omitempty"`
	Text     string `json:"text" yaml:"text" msgpack:"x"`
}

// Dump flattens a tree built from line nodes into records.
func Dump(roots []*tree.Node) ([]Record, error) {
	items := tree.Flatten(roots)
	out := make([]Record, 0, len(items))
	for _, it := range items {
		level, err := safecast.Conv[uint32](it.Level)
		if err != nil {
			return nil, fmt.Errorf("level of line %d: %w", it.Line, err)
		}
		line, err := safecast.Conv[uint32](it.Line)
		if err != nil {
			return nil, fmt.Errorf("line number %d: %w", it.Line, err)
		}
		rec := Record{Level: level, Line: line}
		switch p := it.Payload.(type) {
		case *source.Node:
			rec.Text = payloadText(p.Payload, p.Text)
			rec.Type = p.Type
			if p.Location != nil {
				rec.Location = p.Location.String()
			}
		default:
			rec.Text = payloadText(p, "")
		}
		out = append(out, rec)
	}
	return out, nil
}

func payloadText(p any, fallback string) string {
	switch v := p.(type) {
	case string:
		return v
	case preprocess.Command:
		return strings.TrimSpace("#" + v.Name + " " + v.Args)
	case fmt.Stringer:
		return v.String()
	case nil:
		return fallback
	}
	return fmt.Sprint(p)
}

var locColor = color.New(color.FgHiBlack)

// WriteTree renders records as an indented listing with an aligned
// location column.
func WriteTree(w io.Writer, recs []Record, useColor bool) error {
	width := 0
	for _, r := range recs {
		width = max(width, runewidth.StringWidth(r.Location))
	}
	var sb strings.Builder
	for _, r := range recs {
		loc := runewidth.FillRight(r.Location, width)
		fmt.Fprintf(&sb, "%s  %s%s\n", paint(locColor, useColor, loc), strings.Repeat("  ", int(r.Level)), r.Text)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteDump renders records in format f.
func WriteDump(w io.Writer, f Format, recs []Record, useColor bool) error {
	if f == Text {
		return WriteTree(w, recs, useColor)
	}
	return Encode(w, f, recs)
}

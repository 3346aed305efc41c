package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/rubiojr/treeline/symbols"
)

// Scope is a closed scope and the names it held.
type Scope struct {
	Name    string   `json:"name" yaml:"name" msgpack:"name"`
	Symbols []string `json:"symbols" yaml:"symbols" msgpack:"symbols"`
}

// Report is the result of a symbol analysis.
type Report struct {
	Source    string   `json:"source" yaml:"source" msgpack:"source"`
	Imported  []string `json:"imported" yaml:"imported" msgpack:"imported"`
	Exported  []string `json:"exported" yaml:"exported" msgpack:"exported"`
	Used      []string `json:"used" yaml:"used" msgpack:"used"`
	Missing   []string `json:"missing" yaml:"missing" msgpack:"missing"`
	NotNeeded []string `json:"not_needed" yaml:"not_needed" msgpack:"not_needed"`
	Defined   []string `json:"defined" yaml:"defined" msgpack:"defined"`
	Scopes    []Scope  `json:"scopes" yaml:"scopes" msgpack:"scopes"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty" msgpack:"warnings,omitempty"`
	// Imports holds import lines synthesized for missing names.
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty" msgpack:"imports,omitempty"`
}

// FromWalker collects the lists of a finished walk.
func FromWalker(source string, w *symbols.Walker) *Report {
	r := &Report{
		Source:    source,
		Imported:  nonNil(w.Imported()),
		Exported:  nonNil(w.Exported()),
		Used:      nonNil(w.Used()),
		Missing:   nonNil(w.Missing()),
		NotNeeded: nonNil(w.NotNeeded()),
		Defined:   nonNil(w.Defined()),
		Scopes:    []Scope{},
		Warnings:  w.Warnings(),
	}
	for _, s := range w.Scopes() {
		r.Scopes = append(r.Scopes, Scope{Name: s.Name, Symbols: nonNil(s.Names())})
	}
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

var (
	headColor    = color.New(color.FgCyan, color.Bold)
	missingColor = color.New(color.FgRed, color.Bold)
	unusedColor  = color.New(color.FgYellow)
	warnColor    = color.New(color.FgYellow, color.Bold)
)

func paint(c *color.Color, on bool, s string) string {
	if !on {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// WriteText renders the report for terminals. Colors are used when
// useColor is set.
func (r *Report) WriteText(w io.Writer, useColor bool) error {
	rows := []struct {
		label string
		names []string
		c     *color.Color
	}{
		{"imported", r.Imported, nil},
		{"exported", r.Exported, nil},
		{"used", r.Used, nil},
		{"missing", r.Missing, missingColor},
		{"not needed", r.NotNeeded, unusedColor},
		{"defined", r.Defined, nil},
	}
	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row.label))
	}
	var sb strings.Builder
	if r.Source != "" {
		fmt.Fprintf(&sb, "%s\n", paint(headColor, useColor, r.Source))
	}
	for _, row := range rows {
		list := "-"
		if len(row.names) > 0 {
			list = strings.Join(row.names, ", ")
			if row.c != nil {
				list = paint(row.c, useColor, list)
			}
		}
		fmt.Fprintf(&sb, "  %s  %s\n", runewidth.FillRight(row.label, width), list)
	}
	if len(r.Scopes) > 0 {
		fmt.Fprintf(&sb, "%s\n", paint(headColor, useColor, "scopes"))
		for _, s := range r.Scopes {
			fmt.Fprintf(&sb, "  %s: %s\n", s.Name, strings.Join(s.Symbols, ", "))
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "%s\n", paint(warnColor, useColor, "warnings"))
		for _, msg := range r.Warnings {
			fmt.Fprintf(&sb, "  %s\n", msg)
		}
	}
	if len(r.Imports) > 0 {
		fmt.Fprintf(&sb, "%s\n", paint(headColor, useColor, "imports"))
		for _, line := range r.Imports {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Write renders the report in format f.
func (r *Report) Write(w io.Writer, f Format, useColor bool) error {
	if f == Text {
		return r.WriteText(w, useColor)
	}
	return Encode(w, f, r)
}

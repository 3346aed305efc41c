// Package report renders symbol reports and tree dumps as text, JSON,
// YAML or MessagePack.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format selects an encoding.
type Format string

const (
	Text    Format = "text"
	JSON    Format = "json"
	YAML    Format = "yaml"
	MsgPack Format = "msgpack"
)

// Formats lists the accepted format names.
var Formats = []Format{Text, JSON, YAML, MsgPack}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return Text, nil
	case Text, JSON, YAML, MsgPack:
		return f, nil
	case "yml":
		return YAML, nil
	case "mp", "msgp":
		return MsgPack, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json, yaml or msgpack)", s)
}

// Encode writes v in one of the structured formats.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case MsgPack:
		return msgpack.NewEncoder(w).Encode(v)
	}
	return fmt.Errorf("format %q has no structured encoding", f)
}

// Decode reads v back from one of the structured formats.
func Decode(r io.Reader, f Format, v any) error {
	switch f {
	case JSON:
		return json.NewDecoder(r).Decode(v)
	case YAML:
		return yaml.NewDecoder(r).Decode(v)
	case MsgPack:
		return msgpack.NewDecoder(r).Decode(v)
	}
	return fmt.Errorf("format %q has no structured decoding", f)
}

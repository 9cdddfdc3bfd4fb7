// Package format renders evaluation results as text for display.
//
// The default formatter turns structured values into indented JSON with
// sorted keys, collapses containers nested deeper than a configured depth,
// and colorizes the output for a terminal. Strings are shown verbatim so a
// result that is already text is not quoted.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// DefaultDepth is the nesting depth shown before containers collapse.
const DefaultDepth = 3

// Placeholders for collapsed containers.
const (
	CollapsedObject = "[Object]"
	CollapsedArray  = "[Array]"
)

// Options configures a Pretty formatter.
type Options struct {
	// Depth is the deepest nesting level rendered in full. Containers
	// below it collapse to a placeholder. Negative means unlimited.
	Depth int

	// Indent is the per-level indentation.
	Indent string

	// Width is the line width under which short arrays and objects are
	// kept on a single line.
	Width int

	// SortKeys orders object keys.
	SortKeys bool

	// Colors enables terminal colors.
	Colors bool

	// Theme overrides the default colors.
	Theme Theme
}

// DefaultOptions returns the options of the default formatter.
func DefaultOptions() Options {
	return Options{
		Depth:    DefaultDepth,
		Indent:   "  ",
		Width:    80,
		SortKeys: true,
		Colors:   true,
	}
}

// Pretty formats results as colorized, depth-limited JSON.
type Pretty struct {
	opts  Options
	style *pretty.Style
}

// New creates a formatter. It fails when the theme holds an invalid color.
func New(opts Options) (*Pretty, error) {
	style, err := opts.Theme.Style()
	if err != nil {
		return nil, err
	}
	return &Pretty{opts: opts, style: style}, nil
}

var defaultPretty = &Pretty{opts: DefaultOptions(), style: pretty.TerminalStyle}

// Default returns the shared default formatter.
func Default() *Pretty {
	return defaultPretty
}

// Format renders result as text. A nil result renders as empty text.
func (p *Pretty) Format(result any) (string, error) {
	raw, text, err := encode(result)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return text, nil
	}

	raw = limitDepth(gjson.ParseBytes(raw), 0, p.opts.Depth)

	out := pretty.PrettyOptions(raw, &pretty.Options{
		Width:    p.opts.Width,
		Indent:   p.opts.Indent,
		SortKeys: p.opts.SortKeys,
	})
	out = bytes.TrimRight(out, "\n")

	if p.opts.Colors {
		out = pretty.Color(out, p.style)
	}
	return string(out), nil
}

// encode returns either raw JSON for structured values or plain text.
func encode(result any) (raw []byte, text string, err error) {
	switch v := result.(type) {
	case nil:
		return nil, "", nil
	case string:
		return nil, v, nil
	case gjson.Result:
		if !v.Exists() {
			return nil, "", nil
		}
		if v.Type == gjson.String {
			return nil, v.Str, nil
		}
		return []byte(v.Raw), "", nil
	case json.RawMessage:
		if !gjson.ValidBytes(v) {
			return nil, string(v), nil
		}
		return v, "", nil
	case []byte:
		if !gjson.ValidBytes(v) {
			return nil, string(v), nil
		}
		return v, "", nil
	case fmt.Stringer:
		return nil, v.String(), nil
	}

	if isNil(result) {
		return nil, "", nil
	}

	raw, err = json.Marshal(result)
	if err != nil {
		return nil, "", fmt.Errorf("format %T: %w", result, err)
	}
	return raw, "", nil
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// limitDepth re-encodes r, replacing non-empty containers nested deeper
// than maxDepth with a placeholder string.
func limitDepth(r gjson.Result, level, maxDepth int) []byte {
	if !r.IsObject() && !r.IsArray() {
		return []byte(r.Raw)
	}

	empty := true
	r.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	if empty {
		return []byte(r.Raw)
	}

	if maxDepth >= 0 && level > maxDepth {
		if r.IsArray() {
			return []byte(`"` + CollapsedArray + `"`)
		}
		return []byte(`"` + CollapsedObject + `"`)
	}

	var b bytes.Buffer
	open, end := byte('{'), byte('}')
	if r.IsArray() {
		open, end = '[', ']'
	}

	b.WriteByte(open)
	first := true
	r.ForEach(func(k, v gjson.Result) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		if open == '{' {
			b.WriteString(k.Raw)
			b.WriteByte(':')
		}
		b.Write(limitDepth(v, level+1, maxDepth))
		return true
	})
	b.WriteByte(end)

	return b.Bytes()
}

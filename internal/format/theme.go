package format

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tidwall/pretty"
)

const sgrReset = "\x1b[0m"

// Theme holds hex colors ("#rrggbb") for JSON token classes. Empty fields
// keep the terminal default style.
type Theme struct {
	Key    string `toml:"key" yaml:"key"`
	String string `toml:"string" yaml:"string"`
	Number string `toml:"number" yaml:"number"`
	True   string `toml:"true" yaml:"true"`
	False  string `toml:"false" yaml:"false"`
	Null   string `toml:"null" yaml:"null"`
}

// IsZero reports whether no color is set.
func (t Theme) IsZero() bool {
	return t == Theme{}
}

// Style converts the theme into a pretty.Style built on the default
// terminal style.
func (t Theme) Style() (*pretty.Style, error) {
	if t.IsZero() {
		return pretty.TerminalStyle, nil
	}

	style := *pretty.TerminalStyle
	fields := []struct {
		name string
		hex  string
		dst  *[2]string
	}{
		{"key", t.Key, &style.Key},
		{"string", t.String, &style.String},
		{"number", t.Number, &style.Number},
		{"true", t.True, &style.True},
		{"false", t.False, &style.False},
		{"null", t.Null, &style.Null},
	}

	for _, f := range fields {
		if f.hex == "" {
			continue
		}
		seq, err := foreground(f.hex)
		if err != nil {
			return nil, fmt.Errorf("theme %s: %w", f.name, err)
		}
		*f.dst = [2]string{seq, sgrReset}
	}

	return &style, nil
}

// foreground returns the truecolor SGR sequence for a hex color.
func foreground(hex string) (string, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", err
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b), nil
}

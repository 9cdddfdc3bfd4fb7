package console

import (
	"bytes"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Fallback viewport size when the output is not a terminal.
const (
	DefaultColumns = 80
	DefaultRows    = 24
)

// OutputOption configures an Output.
type OutputOption func(*Output)

// WithSize fixes the reported viewport size.
func WithSize(cols, rows int) OutputOption {
	return func(o *Output) {
		o.cols, o.rows = cols, rows
	}
}

// WithRaw sets whether line feeds are written as CR LF.
func WithRaw(raw bool) OutputOption {
	return func(o *Output) {
		o.raw = raw
	}
}

// Output is the terminal stream a console draws on.
type Output struct {
	mu   sync.Mutex
	w    io.Writer
	raw  bool
	cols int
	rows int
}

// NewOutput wraps w.
func NewOutput(w io.Writer, opts ...OutputOption) *Output {
	o := &Output{w: w}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetRaw sets whether line feeds are written as CR LF. A terminal in raw
// mode no longer returns the carriage on a line feed.
func (o *Output) SetRaw(raw bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.raw = raw
}

// Write writes p, translating bare line feeds in raw mode.
func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	raw := o.raw
	o.mu.Unlock()

	if !raw || bytes.IndexByte(p, '\n') < 0 {
		return o.w.Write(p)
	}

	buf := make([]byte, 0, len(p)+8)
	for i, b := range p {
		if b == '\n' && (i == 0 || p[i-1] != '\r') {
			buf = append(buf, '\r')
		}
		buf = append(buf, b)
	}
	if _, err := o.w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Size returns the viewport size: a fixed size if one was set, the size
// of the underlying terminal or sizer, or DefaultColumns x DefaultRows.
func (o *Output) Size() (cols, rows int) {
	if o.cols > 0 && o.rows > 0 {
		return o.cols, o.rows
	}
	switch w := o.w.(type) {
	case interface{ Size() (int, int) }:
		return w.Size()
	case *os.File:
		if c, r, err := term.GetSize(int(w.Fd())); err == nil && c > 0 && r > 0 {
			return c, r
		}
	}
	return DefaultColumns, DefaultRows
}

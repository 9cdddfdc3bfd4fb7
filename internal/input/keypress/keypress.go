// Package keypress attaches a key press listener to an input stream.
//
// When the stream is a terminal it is switched to raw mode so that every
// key is delivered as it is pressed, and restored on Close.
package keypress

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/dshills/peek/internal/input/key"
)

// Handler receives each decoded key press. Text is the printable character
// of the press, empty for control keys.
type Handler func(text string, ev key.Event)

// ErrNilHandler is returned by Listen when no handler is given.
var ErrNilHandler = errors.New("keypress: nil handler")

// Option configures a Listener.
type Option func(*Listener)

// WithRawMode controls whether a terminal input is switched to raw mode.
// It is on by default.
func WithRawMode(enabled bool) Option {
	return func(l *Listener) {
		l.raw = enabled
	}
}

// WithBufferSize sets the read buffer size.
func WithBufferSize(n int) Option {
	return func(l *Listener) {
		if n > 0 {
			l.bufSize = n
		}
	}
}

// Listener reads key presses from an input stream.
type Listener struct {
	in      io.Reader
	handler Handler
	raw     bool
	bufSize int

	mu     sync.Mutex
	closed bool
	state  *term.State
	fd     int

	done chan struct{}
	err  error
}

// Listen starts delivering key presses read from in to handler. The handler
// runs on the listener's reader goroutine.
func Listen(in io.Reader, handler Handler, opts ...Option) (*Listener, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	l := &Listener{
		in:      in,
		handler: handler,
		raw:     true,
		bufSize: 256,
		fd:      -1,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if f, ok := in.(*os.File); ok && l.raw && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		l.fd = fd
		l.state = state
	}

	go l.read()
	return l, nil
}

// IsRaw reports whether the listener switched its input to raw mode.
func (l *Listener) IsRaw() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state != nil
}

// Done is closed when the input reaches EOF or fails.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Err returns the read error that stopped the listener, if any.
// It is nil after EOF and only valid once Done is closed.
func (l *Listener) Err() error {
	return l.err
}

// Close detaches the handler and restores the terminal mode.
// A read already blocked on the input is not interrupted, but its keys are
// no longer delivered.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.state == nil {
		return nil
	}
	state := l.state
	l.state = nil
	return term.Restore(l.fd, state)
}

func (l *Listener) deliver(presses []key.Press) {
	for _, p := range presses {
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return
		}
		l.handler(p.Text, p.Event)
	}
}

func (l *Listener) read() {
	defer close(l.done)

	var dec key.Decoder
	buf := make([]byte, l.bufSize)
	for {
		n, err := l.in.Read(buf)
		if n > 0 {
			l.deliver(dec.Decode(buf[:n]))
		}
		if err != nil {
			l.deliver(dec.Flush())
			if !errors.Is(err, io.EOF) {
				l.err = err
			}
			return
		}
	}
}

package adapter

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/peek/internal/eval"
	"github.com/dshills/peek/internal/input/key"
	"github.com/dshills/peek/internal/logging"
	"github.com/dshills/peek/internal/preview"
)

// Evaluator computes results asynchronously. done must run after Evaluate
// returns.
type Evaluator interface {
	Evaluate(input string, done eval.Callback)
}

// Previewer draws a result under the console input.
type Previewer interface {
	Preview(con preview.Console, result any, opts ...preview.Option)
}

// LineSetter is implemented by consoles whose line can be replaced.
type LineSetter interface {
	SetLine(line string)
}

// ScreenClearer is implemented by consoles that can clear the screen
// below the input.
type ScreenClearer interface {
	ClearBelow()
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBindings replaces the default key bindings.
func WithBindings(b Bindings) Option {
	return func(a *Adapter) {
		a.bindings = b
	}
}

// WithLogger sets the logger for evaluation errors.
func WithLogger(l *logging.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHistory seeds the history.
func WithHistory(entries []string) Option {
	return func(a *Adapter) {
		a.history = append([]string(nil), entries...)
		a.index = len(a.history)
	}
}

// Adapter turns key presses into evaluations and previews. All methods
// must be called from the event loop.
type Adapter struct {
	con      preview.Console
	ev       Evaluator
	view     Previewer
	bindings Bindings
	logger   *logging.Logger

	buffer  []string
	history []string
	index   int
}

// New creates an Adapter.
func New(con preview.Console, ev Evaluator, view Previewer, opts ...Option) *Adapter {
	a := &Adapter{
		con:      con,
		ev:       ev,
		view:     view,
		bindings: DefaultBindings(),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithComponent("adapter")
	return a
}

// OnKey handles one key press. text is the printable content of the key.
func (a *Adapter) OnKey(text string, ev key.Event) {
	action := a.bindings.Lookup(ev)
	if action == ActionNone && ev.IsModified() {
		return
	}

	switch action {
	case ActionCommit:
		if line := a.Buffer(); line != "" {
			a.history = append(a.history, line)
		}
		a.buffer = a.buffer[:0]
		a.index = len(a.history)
		if c, ok := a.con.(ScreenClearer); ok {
			c.ClearBelow()
		}

	case ActionCancel:
		if len(a.buffer) == 0 {
			return
		}
		a.buffer = a.buffer[:len(a.buffer)-1]

	case ActionHistoryPrev:
		a.recall(a.index - 1)

	case ActionHistoryNext:
		a.recall(a.index + 1)

	default:
		if text != "" {
			a.buffer = append(a.buffer, text)
		}
	}

	a.evaluate(action == ActionCommit)
}

// recall moves the history index to i, clamped to the history, and loads
// that entry into the buffer.
func (a *Adapter) recall(i int) {
	if len(a.history) == 0 {
		return
	}
	a.index = max(0, min(len(a.history)-1, i))
	entry := a.history[a.index]
	a.setBuffer(entry)
	if s, ok := a.con.(LineSetter); ok {
		s.SetLine(entry)
	}
}

// Sync replaces the buffer with line when they differ and previews it
// again. Call it after the console applied an edit the adapter does not
// track, such as a deletion in the middle of the line or a cursor move.
func (a *Adapter) Sync(line string) {
	if a.Buffer() != line {
		a.setBuffer(line)
	}
	a.evaluate(false)
}

func (a *Adapter) setBuffer(line string) {
	a.buffer = a.buffer[:0]
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		a.buffer = append(a.buffer, g.Str())
	}
}

func (a *Adapter) evaluate(commit bool) {
	input := a.Buffer()
	a.ev.Evaluate(input, func(result any, err error) {
		if err != nil {
			if !eval.IsIncomplete(err) {
				a.logger.Warn("evaluate %q: %v", input, err)
			}
			// Clear the last preview so it does not describe other input.
			a.view.Preview(a.con, nil)
			return
		}
		if eval.Empty(result) {
			return
		}
		a.view.Preview(a.con, result, preview.WithTruncate(!commit))
	})
}

// Buffer returns the buffered input.
func (a *Adapter) Buffer() string {
	return strings.Join(a.buffer, "")
}

// History returns a copy of the committed lines.
func (a *Adapter) History() []string {
	return append([]string(nil), a.history...)
}

// Index returns the history position. It equals len(History()) when no
// entry is recalled.
func (a *Adapter) Index() int {
	return a.index
}

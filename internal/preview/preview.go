package preview

import (
	"io"
	"reflect"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/dshills/peek/internal/geometry"
	"github.com/dshills/peek/internal/logging"
)

// TruncateMargin is the number of cells kept free at the right edge when
// truncating, so preview lines never reach the last column and wrap.
const TruncateMargin = 8

// Ellipsis marks a truncated line.
const Ellipsis = "…"

// Terminal is the output stream of a console.
type Terminal interface {
	io.Writer
	// Size returns the current viewport size in cells.
	Size() (cols, rows int)
}

// Console is the host line editor a preview is drawn under.
type Console interface {
	geometry.State
	// Output returns the terminal the console draws on.
	Output() Terminal
}

// Scheduler defers work until the current event handler returns.
type Scheduler interface {
	NextTick(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// NextTick calls f(fn).
func (f SchedulerFunc) NextTick(fn func()) {
	f(fn)
}

// Renderer draws previews. It holds only configuration.
type Renderer struct {
	sched  Scheduler
	opts   Options
	logger *logging.Logger
}

// New creates a renderer that defers through sched. The options become the
// defaults for every render and can be overridden per call.
func New(sched Scheduler, opts ...Option) *Renderer {
	return &Renderer{
		sched:  sched,
		opts:   DefaultOptions().apply(opts),
		logger: logging.NullLogger,
	}
}

// SetLogger sets the logger used for render diagnostics.
func (r *Renderer) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.NullLogger
	}
	r.logger = l.WithComponent("preview")
}

// Preview schedules a render of result under con on the next tick. A nil
// result clears the preview region.
func (r *Renderer) Preview(con Console, result any, opts ...Option) {
	r.sched.NextTick(func() {
		r.Render(con, result, opts...)
	})
}

// Render draws result under con immediately. Failures go to the OnError
// handler; the default handler panics.
func (r *Renderer) Render(con Console, result any, opts ...Option) {
	o := r.opts.apply(opts)
	if err := r.render(con, result, o); err != nil {
		r.logger.Debug("render failed: %v", err)
		o.OnError(err)
	}
}

// Preview schedules a render through sched with default options.
func Preview(sched Scheduler, con Console, result any, opts ...Option) {
	New(sched).Preview(con, result, opts...)
}

// Render draws result under con immediately with default options.
func Render(con Console, result any, opts ...Option) {
	New(nil).Render(con, result, opts...)
}

func (r *Renderer) render(con Console, result any, o Options) error {
	if con == nil {
		return ErrNoConsole
	}
	out := con.Output()
	if out == nil {
		return ErrNoConsole
	}

	geo := geometry.Resolve(con)
	colsDelta, rowsDelta := geo.Delta()
	termCols, termRows := out.Size()

	// Format before touching the terminal so a failing formatter leaves
	// the screen and the cursor untouched.
	var lines []string
	var used int
	if !absent(result) {
		text, err := pretty(o.Pretty, result)
		if err != nil {
			return &RenderError{Stage: StageFormat, Err: err}
		}
		lines, used = layout(text, termCols, termRows-rowsDelta-1, o.Truncate)
	}

	head := moveCursor(colsDelta, rowsDelta) + ansi.EraseScreenBelow
	var body, tail string
	if len(lines) == 0 {
		tail = moveCursor(-colsDelta, -rowsDelta)
	} else {
		body = "\n" + strings.Join(lines, "\n")
		tail = ansi.CursorHorizontalAbsolute(geo.Cursor.Cols+1) + moveCursor(0, -rowsDelta-used)
	}

	if n, err := io.WriteString(out, head+body+tail); err != nil {
		r.restore(out, geo, termCols, head, body, n)
		return &RenderError{Stage: StageWrite, Err: err}
	}

	r.logger.Debug("rendered %d lines in %d rows (delta %d,%d, viewport %dx%d)",
		len(lines), used, colsDelta, rowsDelta, termCols, termRows)
	return nil
}

// restore moves the cursor back to the caret after a write that stopped
// n bytes into head+body. Nothing is sent when the cursor move at the
// start of head was cut short, since the cursor position is then unknown.
func (r *Renderer) restore(out io.Writer, geo geometry.Result, cols int, head, body string, n int) {
	if n <= 0 || n < len(head)-len(ansi.EraseScreenBelow) {
		return
	}
	colsDelta, rowsDelta := geo.Delta()

	var seq string
	if written := body[:min(max(n-len(head), 0), len(body))]; written == "" {
		seq = moveCursor(-colsDelta, -rowsDelta)
	} else {
		seq = ansi.CursorHorizontalAbsolute(geo.Cursor.Cols+1) + moveCursor(0, -rowsDelta-rowsDown(written, cols))
	}
	if _, err := io.WriteString(out, seq); err != nil {
		r.logger.Debug("restore after failed write: %v", err)
	}
}

// rowsDown returns how many rows below its first row the cursor ends up
// after text is written.
func rowsDown(text string, cols int) int {
	end := geometry.Measurer{Columns: cols}.DisplayPos(text)
	if strings.HasSuffix(text, "\n") {
		return end.Rows
	}
	return rowsOccupied(end) - 1
}

// layout splits text into the lines that fit below the input: at most
// budget terminal rows, each line clipped to cols-TruncateMargin cells when
// truncate is set. It returns the kept lines and the rows they occupy,
// which differ from the line count only when untruncated lines wrap.
func layout(text string, cols, budget int, truncate bool) ([]string, int) {
	if text == "" || budget <= 0 {
		return nil, 0
	}

	lines := strings.Split(text, "\n")
	if len(lines) > budget {
		lines = lines[:budget]
	}

	if truncate {
		for i, line := range lines {
			lines[i] = clip(strings.TrimSuffix(line, "\r"), cols-TruncateMargin)
		}
		return lines, len(lines)
	}

	m := geometry.Measurer{Columns: cols}
	used := 0
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		n := rowsOccupied(m.DisplayPos(line))
		if used+n > budget {
			return lines[:i], used
		}
		lines[i] = line
		used += n
	}
	return lines, used
}

// rowsOccupied returns how many rows a line ending at end fills. A line
// that ends exactly at the right edge leaves the cursor on its last row.
func rowsOccupied(end geometry.Position) int {
	if end.Cols == 0 && end.Rows > 0 {
		return end.Rows
	}
	return end.Rows + 1
}

// clip truncates line to width display cells, keeping escape sequences
// intact and ending with Ellipsis when anything was cut.
func clip(line string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(line, width, Ellipsis)
}

// pretty calls the formatter, converting a panic into an error.
func pretty(f Formatter, result any) (text string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return f(result)
}

// moveCursor returns the relative movement sequence for (dx, dy). Zero
// components emit nothing.
func moveCursor(dx, dy int) string {
	var b strings.Builder
	switch {
	case dx < 0:
		b.WriteString(ansi.CursorBackward(-dx))
	case dx > 0:
		b.WriteString(ansi.CursorForward(dx))
	}
	switch {
	case dy < 0:
		b.WriteString(ansi.CursorUp(-dy))
	case dy > 0:
		b.WriteString(ansi.CursorDown(dy))
	}
	return b.String()
}

// absent reports whether result is the absent marker: nil, or a nil
// pointer, map, slice or interface.
func absent(result any) bool {
	if result == nil {
		return true
	}
	rv := reflect.ValueOf(result)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

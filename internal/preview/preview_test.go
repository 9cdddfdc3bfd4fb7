package preview

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/dshills/peek/internal/geometry"
	"github.com/dshills/peek/internal/loop"
	"github.com/dshills/peek/internal/vtest"
)

type fakeConsole struct {
	geometry.Measurer
	prompt string
	line   string
	cursor int
	screen *vtest.Screen
	out    Terminal
}

func (c *fakeConsole) Prompt() string { return c.prompt }
func (c *fakeConsole) Line() string   { return c.line }
func (c *fakeConsole) Cursor() int    { return c.cursor }

func (c *fakeConsole) Output() Terminal {
	if c.out != nil {
		return c.out
	}
	return c.screen
}

// newConsole draws prompt+line on a fresh screen starting at startRow and
// leaves the cursor on the caret cell.
func newConsole(cols, rows, startRow int, prompt, line string, cursor int) *fakeConsole {
	s := vtest.New(cols, rows)
	s.NewlineMode = true
	c := &fakeConsole{
		Measurer: geometry.Measurer{Columns: cols},
		prompt:   prompt,
		line:     line,
		cursor:   cursor,
		screen:   s,
	}

	s.MoveTo(0, startRow)
	s.Write([]byte(prompt + line))
	geo := geometry.Resolve(c)
	if geo.Display.Cols == 0 && geo.Display.Rows > 0 {
		// Leave the pending-wrap state the way a console host does.
		s.Write([]byte(" \r"))
	}
	top := startRow - s.Scrolled
	s.MoveTo(geo.Cursor.Cols, top+geo.Cursor.Rows)
	s.Reset()
	return c
}

func text(s string) Formatter {
	return func(any) (string, error) { return s, nil }
}

func collect(errs *[]error) Option {
	return WithOnError(func(err error) { *errs = append(*errs, err) })
}

func TestRenderScenario(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "1+1", 3)

	Render(con, 2, WithPretty(text("2")))

	want := "\x1b[J" + "\n2" + "\x1b[6G" + "\x1b[A"
	if got := con.screen.Output(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if got := con.screen.Line(0); got != "> 1+1" {
		t.Errorf("Line(0) = %q, want %q", got, "> 1+1")
	}
	if got := con.screen.Line(1); got != "2" {
		t.Errorf("Line(1) = %q, want %q", got, "2")
	}
	if x, y := con.screen.Cursor(); x != 5 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (5, 0)", x, y)
	}
}

func TestRenderEmptyTextClears(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "1+1", 3)
	Render(con, "stale\nlines")
	con.screen.Reset()

	Render(con, "")

	if got := con.screen.Output(); got != "\x1b[J" {
		t.Errorf("output = %q, want only erase below", got)
	}
	if got := con.screen.String(); got != "> 1+1" {
		t.Errorf("screen = %q, want only the input", got)
	}
	if x, y := con.screen.Cursor(); x != 5 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (5, 0)", x, y)
	}
}

func TestRenderAbsentClears(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abcdef", 2)
	Render(con, "one\ntwo\nthree")

	if got := con.screen.Line(3); got != "three" {
		t.Fatalf("Line(3) = %q, want %q", got, "three")
	}

	con.screen.Reset()
	Render(con, nil)

	want := "\x1b[4C" + "\x1b[J" + "\x1b[4D"
	if got := con.screen.Output(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if got := con.screen.String(); got != "> abcdef" {
		t.Errorf("screen = %q, want only the input", got)
	}
	if x, y := con.screen.Cursor(); x != 4 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (4, 0)", x, y)
	}
}

func TestRenderTypedNilIsAbsent(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "x", 1)
	called := false
	Render(con, []string(nil), WithPretty(func(any) (string, error) {
		called = true
		return "nope", nil
	}))

	if called {
		t.Error("formatter called for nil slice")
	}
	if got := con.screen.Output(); got != "\x1b[J" {
		t.Errorf("output = %q, want only erase below", got)
	}
}

func TestRenderZeroValueIsPresent(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "0", 1)
	Render(con, 0)

	if got := con.screen.Line(1); got != "0" {
		t.Errorf("Line(1) = %q, want %q", got, "0")
	}
}

func TestRenderMidLineCursor(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abcdef", 2)

	Render(con, "x", WithPretty(text("2")))

	want := "\x1b[4C" + "\x1b[J" + "\n2" + "\x1b[5G" + "\x1b[A"
	if got := con.screen.Output(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if x, y := con.screen.Cursor(); x != 4 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (4, 0)", x, y)
	}
}

func TestRenderRestoresCursor(t *testing.T) {
	long := strings.Repeat("abcdefghij", 5)
	wide := "日本語のテキストと😀"
	results := []string{
		"short",
		strings.Repeat("line\n", 40),
		strings.Repeat(strings.Repeat("w", 120)+"\n", 10),
		strings.Repeat(strings.Repeat("日", 70)+"\n", 5),
	}

	for _, cols := range []int{12, 20, 80} {
		for _, rows := range []int{3, 6, 24} {
			for _, prompt := range []string{"> ", "long prompt >>> "} {
				for _, line := range []string{"", "abc", wide, long} {
					n := len([]rune(line))
					for _, cursor := range []int{0, n / 2, n} {
						for ri, result := range results {
							for _, startRow := range []int{0, rows - 1} {
								name := fmt.Sprintf("%dx%d/%q/%q/%d/r%d/s%d", cols, rows, prompt, line, cursor, ri, startRow)
								con := newConsole(cols, rows, startRow, prompt, line, cursor)
								if geometry.Resolve(con).Display.Rows >= rows {
									continue // input taller than the screen
								}
								before := con.screen.Scrolled
								x0, y0 := con.screen.Cursor()

								var errs []error
								Render(con, result, WithPretty(text(result)), collect(&errs))

								if len(errs) > 0 {
									t.Fatalf("%s: unexpected errors %v", name, errs)
								}
								scrolled := con.screen.Scrolled - before
								x, y := con.screen.Cursor()
								if x != x0 || y != y0-scrolled {
									t.Fatalf("%s: cursor = (%d, %d), want (%d, %d)", name, x, y, x0, y0-scrolled)
								}
							}
						}
					}
				}
			}
		}
	}
}

func TestRenderIdempotent(t *testing.T) {
	result := strings.Repeat("row with some text 日本\n", 30)
	con := newConsole(40, 12, 0, "> ", "query", 3)

	Render(con, result, WithPretty(text(result)))
	first := con.screen.String()
	firstOut := con.screen.Output()
	x1, y1 := con.screen.Cursor()

	con.screen.Reset()
	Render(con, result, WithPretty(text(result)))

	if got := con.screen.String(); got != first {
		t.Errorf("second render screen differs:\n%s\n---\n%s", got, first)
	}
	if got := con.screen.Output(); got != firstOut {
		t.Errorf("second render output = %q, want %q", got, firstOut)
	}
	if x, y := con.screen.Cursor(); x != x1 || y != y1 {
		t.Errorf("Cursor = (%d, %d), want (%d, %d)", x, y, x1, y1)
	}
}

func TestRenderRowBudget(t *testing.T) {
	result := strings.TrimSuffix(strings.Repeat("x\n", 40), "\n")

	tests := []struct {
		name   string
		cols   int
		line   string
		cursor int
		want   int
	}{
		{"single row input", 80, "abc", 3, 23},
		{"cursor one row above end", 10, "0123456789ab", 0, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			con := newConsole(tt.cols, 24, 0, "> ", tt.line, tt.cursor)
			Render(con, result, WithPretty(text(result)))

			if got := strings.Count(con.screen.Output(), "\n"); got != tt.want {
				t.Errorf("lines written = %d, want %d", got, tt.want)
			}
			if con.screen.Scrolled != 0 {
				t.Errorf("screen scrolled %d rows", con.screen.Scrolled)
			}
		})
	}
}

func TestRenderNoRoomClearsOnly(t *testing.T) {
	con := newConsole(80, 1, 0, "> ", "abc", 3)
	Render(con, "x", WithPretty(text("x")))

	if got := con.screen.Output(); got != "\x1b[J" {
		t.Errorf("output = %q, want only erase below", got)
	}
}

func TestRenderTruncatesToWidth(t *testing.T) {
	result := strings.Join([]string{
		strings.Repeat("x", 200),
		strings.Repeat("日", 100),
		"\x1b[32m" + strings.Repeat("g", 100) + "\x1b[0m",
		"short",
	}, "\n")

	con := newConsole(80, 24, 0, "> ", "q", 1)
	Render(con, result, WithPretty(text(result)))

	for y := 1; y <= 4; y++ {
		line := con.screen.Line(y)
		if w := ansi.StringWidth(line); w > 72 {
			t.Errorf("Line(%d) width = %d, want <= 72", y, w)
		}
	}
	for y := 1; y <= 3; y++ {
		if line := con.screen.Line(y); !strings.HasSuffix(line, Ellipsis) {
			t.Errorf("Line(%d) = %q, want ellipsis suffix", y, line)
		}
	}
	if got := con.screen.Line(4); got != "short" {
		t.Errorf("Line(4) = %q, want %q", got, "short")
	}
}

func TestRenderWithoutTruncation(t *testing.T) {
	long := strings.Repeat("z", 100)
	con := newConsole(80, 24, 0, "> ", "q", 1)

	Render(con, long, WithPretty(text(long)), WithTruncate(false))

	if !strings.Contains(con.screen.Output(), long) {
		t.Error("untruncated line missing from output")
	}
	if x, y := con.screen.Cursor(); x != 3 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (3, 0)", x, y)
	}
}

func TestRenderWithoutTruncationBudgetsWrappedRows(t *testing.T) {
	result := strings.TrimSuffix(strings.Repeat(strings.Repeat("q", 100)+"\n", 30), "\n")
	con := newConsole(80, 24, 0, "> ", "q", 1)

	Render(con, result, WithPretty(text(result)), WithTruncate(false))

	if con.screen.Scrolled != 0 {
		t.Errorf("screen scrolled %d rows", con.screen.Scrolled)
	}
	if got := strings.Count(con.screen.Output(), "\n"); got != 11 {
		t.Errorf("lines written = %d, want 11", got)
	}
	if x, y := con.screen.Cursor(); x != 3 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (3, 0)", x, y)
	}
}

func TestLayoutExactWidthLine(t *testing.T) {
	lines, rows := layout(strings.Repeat("a", 10)+"\nb", 10, 10, false)
	if len(lines) != 2 || rows != 2 {
		t.Errorf("layout = %d lines in %d rows, want 2 in 2", len(lines), rows)
	}
}

func TestRenderTinyTerminalTruncatesToNothing(t *testing.T) {
	con := newConsole(6, 10, 0, "> ", "", 0)
	Render(con, "abc", WithPretty(text("abc")))

	if got := con.screen.Line(1); got != "" {
		t.Errorf("Line(1) = %q, want empty", got)
	}
	if x, y := con.screen.Cursor(); x != 2 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (2, 0)", x, y)
	}
}

func TestRenderFormatErrorLeavesScreen(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abc", 1)
	boom := errors.New("boom")

	var errs []error
	Render(con, "x", WithPretty(func(any) (string, error) { return "", boom }), collect(&errs))

	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one", errs)
	}
	var re *RenderError
	if !errors.As(errs[0], &re) || re.Stage != StageFormat {
		t.Errorf("error = %v, want format RenderError", errs[0])
	}
	if !errors.Is(errs[0], boom) {
		t.Error("RenderError should unwrap to the formatter error")
	}
	if got := con.screen.Output(); got != "" {
		t.Errorf("output = %q, want nothing", got)
	}
}

func TestRenderFormatterPanic(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abc", 3)

	var errs []error
	Render(con, "x", WithPretty(func(any) (string, error) { panic("bad value") }), collect(&errs))

	var re *RenderError
	if len(errs) != 1 || !errors.As(errs[0], &re) || re.Stage != StageFormat {
		t.Fatalf("errors = %v, want format RenderError", errs)
	}
	var pe *PanicError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("error = %v, want it to wrap PanicError", errs[0])
	}
	if pe.Value != "bad value" {
		t.Errorf("Value = %v", pe.Value)
	}
}

type failingTerminal struct{ err error }

func (f failingTerminal) Write([]byte) (int, error) { return 0, f.err }
func (f failingTerminal) Size() (int, int)          { return 80, 24 }

func TestRenderWriteError(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abc", 3)
	broken := errors.New("broken pipe")
	con.out = failingTerminal{err: broken}

	var errs []error
	Render(con, "x", collect(&errs))

	var re *RenderError
	if len(errs) != 1 || !errors.As(errs[0], &re) || re.Stage != StageWrite {
		t.Fatalf("errors = %v, want write RenderError", errs)
	}
	if !errors.Is(errs[0], broken) {
		t.Error("RenderError should unwrap to the write error")
	}
}

// shortTerminal fails the first write after keep bytes reach the screen
// and passes later writes through.
type shortTerminal struct {
	*vtest.Screen
	keep   int
	failed bool
	writes int
}

func (s *shortTerminal) Write(p []byte) (int, error) {
	s.writes++
	if s.failed {
		return s.Screen.Write(p)
	}
	s.failed = true
	n, _ := s.Screen.Write(p[:min(s.keep, len(p))])
	return n, errors.New("short write")
}

func TestRenderWriteErrorRestoresCursor(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abcd", 2)
	head := ansi.CursorForward(2) + ansi.EraseScreenBelow
	term := &shortTerminal{Screen: con.screen, keep: len(head) + len("\nl1")}
	con.out = term

	var errs []error
	Render(con, "x", WithPretty(text("l1\nl2")), collect(&errs))

	var re *RenderError
	if len(errs) != 1 || !errors.As(errs[0], &re) || re.Stage != StageWrite {
		t.Fatalf("errors = %v, want write RenderError", errs)
	}
	if got := con.screen.Line(1); got != "l1" {
		t.Errorf("Line(1) = %q, want %q", got, "l1")
	}
	x, y := con.screen.Cursor()
	if x != 4 || y != 0 {
		t.Errorf("cursor = (%d, %d), want (4, 0)", x, y)
	}
}

func TestRenderWriteErrorCursorUnknown(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "abcd", 2)
	term := &shortTerminal{Screen: con.screen, keep: 1}
	con.out = term

	var errs []error
	Render(con, "x", WithPretty(text("l1")), collect(&errs))

	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one", errs)
	}
	if term.writes != 1 {
		t.Errorf("writes = %d, want 1", term.writes)
	}
}

func TestRenderNoConsole(t *testing.T) {
	var errs []error
	Render(nil, "x", collect(&errs))

	if len(errs) != 1 || !errors.Is(errs[0], ErrNoConsole) {
		t.Errorf("errors = %v, want ErrNoConsole", errs)
	}
}

func TestDefaultOnErrorRaises(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoConsole) {
			t.Errorf("recovered %v, want ErrNoConsole", r)
		}
	}()
	Render(nil, "x")
	t.Error("Render should have panicked")
}

func TestPreviewDefersToNextTick(t *testing.T) {
	l := loop.New()
	con := newConsole(80, 24, 0, "> ", "1+1", 3)
	r := New(l, WithPretty(text("2")))

	var during int
	l.Post(func() {
		r.Preview(con, 2)
		during = len(con.screen.Writes)
	})
	if err := l.Drain(); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	if during != 0 {
		t.Errorf("render wrote %d times inside the handler, want 0", during)
	}
	if got := con.screen.Line(1); got != "2" {
		t.Errorf("Line(1) = %q, want %q", got, "2")
	}
}

func TestPreviewBackToBack(t *testing.T) {
	l := loop.New()
	con := newConsole(80, 24, 0, "> ", "a", 1)

	l.Post(func() {
		Preview(l, con, "first\nfirst\nfirst", WithPretty(text("first\nfirst\nfirst")))
		Preview(l, con, "second", WithPretty(text("second")))
	})
	if err := l.Drain(); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	if got := con.screen.String(); got != "> a\nsecond" {
		t.Errorf("screen = %q, want latest render only", got)
	}
	if x, y := con.screen.Cursor(); x != 3 || y != 0 {
		t.Errorf("Cursor = (%d, %d), want (3, 0)", x, y)
	}
}

func TestPreviewPanicReachesLoop(t *testing.T) {
	l := loop.New()
	l.Post(func() {
		Preview(l, nil, "x")
	})

	err := l.Drain()
	if !errors.Is(err, ErrNoConsole) {
		t.Errorf("Drain = %v, want panic wrapping ErrNoConsole", err)
	}
}

func TestRendererDefaultsOverridable(t *testing.T) {
	con := newConsole(80, 24, 0, "> ", "a", 1)
	r := New(nil, WithPretty(text("base")))

	r.Render(con, "x")
	if got := con.screen.Line(1); got != "base" {
		t.Errorf("Line(1) = %q, want base", got)
	}

	r.Render(con, "x", WithPretty(text("override")))
	if got := con.screen.Line(1); got != "override" {
		t.Errorf("Line(1) = %q, want override", got)
	}
}

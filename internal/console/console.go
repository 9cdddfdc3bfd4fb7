package console

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"github.com/dshills/peek/internal/geometry"
	"github.com/dshills/peek/internal/input/key"
	"github.com/dshills/peek/internal/preview"
)

// DefaultPrompt is shown before the line.
const DefaultPrompt = "> "

// CommitFunc receives a committed line. Anything it prints appears
// between the committed input and the next prompt.
type CommitFunc func(line string)

// Option configures a Console.
type Option func(*Console)

// WithPrompt sets the prompt.
func WithPrompt(prompt string) Option {
	return func(c *Console) {
		c.prompt = prompt
	}
}

// WithCommit sets the handler for committed lines.
func WithCommit(fn CommitFunc) Option {
	return func(c *Console) {
		c.onCommit = fn
	}
}

// WithQuit sets the handler called when the user asks to leave with
// Ctrl+C or Ctrl+D on an empty line.
func WithQuit(fn func()) Option {
	return func(c *Console) {
		c.onQuit = fn
	}
}

// WithTabSize sets the tab stop interval used to measure the input.
func WithTabSize(n int) Option {
	return func(c *Console) {
		c.tabSize = n
	}
}

// Console edits a single line under a prompt. It is not safe for
// concurrent use; drive it from the event loop.
type Console struct {
	out      *Output
	prompt   string
	line     []rune
	cursor   int
	tabSize  int
	caretRow int

	onCommit CommitFunc
	onQuit   func()
}

// New creates a console drawing on out.
func New(out *Output, opts ...Option) *Console {
	c := &Console{out: out, prompt: DefaultPrompt}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prompt returns the prompt.
func (c *Console) Prompt() string { return c.prompt }

// Line returns the current line.
func (c *Console) Line() string { return string(c.line) }

// Cursor returns the caret offset in runes.
func (c *Console) Cursor() int { return c.cursor }

// Output returns the terminal the console draws on.
func (c *Console) Output() preview.Terminal { return c.out }

// DisplayPos measures text against the current terminal width.
func (c *Console) DisplayPos(text string) geometry.Position {
	cols, _ := c.out.Size()
	return geometry.Measurer{Columns: cols, TabSize: c.tabSize}.DisplayPos(text)
}

// Start draws the prompt on the current row.
func (c *Console) Start() {
	c.write(c.draw())
}

// SetLine replaces the line, moves the caret to its end and redraws.
func (c *Console) SetLine(line string) {
	c.line = []rune(line)
	c.cursor = len(c.line)
	c.refresh()
}

// ClearBelow erases the screen below the caret row.
func (c *Console) ClearBelow() {
	c.write(ansi.EraseScreenBelow)
}

// Print writes text followed by a line break. Use it from a CommitFunc.
func (c *Console) Print(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	c.write(text)
}

// HandleKey applies a key press to the line and redraws it. It reports
// whether the key was used.
func (c *Console) HandleKey(text string, ev key.Event) bool {
	if text != "" && !ev.IsModified() {
		c.insert([]rune(text))
		c.refresh()
		return true
	}

	if ev.Modifiers.HasCtrl() && ev.Key == key.KeyRune {
		return c.handleCtrl(ev.Rune)
	}
	if ev.Modifiers != key.ModNone {
		return false
	}

	switch ev.Key {
	case key.KeyEnter:
		c.commit()
		return true
	case key.KeyBackspace:
		if c.cursor > 0 {
			c.line = append(c.line[:c.cursor-1], c.line[c.cursor:]...)
			c.cursor--
		}
	case key.KeyDelete:
		if c.cursor < len(c.line) {
			c.line = append(c.line[:c.cursor], c.line[c.cursor+1:]...)
		}
	case key.KeyLeft:
		c.cursor = max(0, c.cursor-1)
	case key.KeyRight:
		c.cursor = min(len(c.line), c.cursor+1)
	case key.KeyHome:
		c.cursor = 0
	case key.KeyEnd:
		c.cursor = len(c.line)
	default:
		return false
	}
	c.refresh()
	return true
}

func (c *Console) handleCtrl(r rune) bool {
	switch r {
	case 'a':
		c.cursor = 0
	case 'e':
		c.cursor = len(c.line)
	case 'b':
		c.cursor = max(0, c.cursor-1)
	case 'f':
		c.cursor = min(len(c.line), c.cursor+1)
	case 'u':
		c.line = append([]rune(nil), c.line[c.cursor:]...)
		c.cursor = 0
	case 'k':
		c.line = c.line[:c.cursor]
	case 'w':
		start := c.cursor
		for start > 0 && unicode.IsSpace(c.line[start-1]) {
			start--
		}
		for start > 0 && !unicode.IsSpace(c.line[start-1]) {
			start--
		}
		c.line = append(c.line[:start], c.line[c.cursor:]...)
		c.cursor = start
	case 'c':
		if len(c.line) == 0 {
			c.quit()
			return true
		}
		c.interrupt()
		return true
	case 'd':
		if len(c.line) == 0 {
			c.quit()
			return true
		}
		if c.cursor < len(c.line) {
			c.line = append(c.line[:c.cursor], c.line[c.cursor+1:]...)
		}
	default:
		return false
	}
	c.refresh()
	return true
}

func (c *Console) insert(rs []rune) {
	line := make([]rune, 0, len(c.line)+len(rs))
	line = append(line, c.line[:c.cursor]...)
	line = append(line, rs...)
	line = append(line, c.line[c.cursor:]...)
	c.line = line
	c.cursor += len(rs)
}

// refresh redraws the prompt and line in place.
func (c *Console) refresh() {
	var b strings.Builder
	if c.caretRow > 0 {
		b.WriteString(ansi.CursorUp(c.caretRow))
	}
	b.WriteString("\r")
	b.WriteString(ansi.EraseScreenBelow)
	b.WriteString(c.draw())
	c.write(b.String())
}

// draw returns the prompt and line followed by the moves that bring the
// cursor to the caret, and records the caret row.
func (c *Console) draw() string {
	var b strings.Builder
	b.WriteString(c.prompt)
	b.WriteString(string(c.line))

	geo := geometry.Resolve(c)
	if geo.Display.Cols == 0 && geo.Display.Rows > 0 {
		// The input ends at the right edge; force the pending wrap.
		b.WriteString(" \r")
	}
	if _, dy := geo.Delta(); dy > 0 {
		b.WriteString(ansi.CursorUp(dy))
	}
	if geo.Cursor != geo.Display {
		b.WriteString(ansi.CursorHorizontalAbsolute(geo.Cursor.Cols + 1))
	}
	c.caretRow = geo.Cursor.Rows
	return b.String()
}

// leave moves below the input, erasing anything drawn under it, and
// resets the line.
func (c *Console) leave(mark string) string {
	geo := geometry.Resolve(c)
	var b strings.Builder
	if _, dy := geo.Delta(); dy > 0 {
		b.WriteString(ansi.CursorDown(dy))
	}
	if geo.Cursor != geo.Display {
		b.WriteString(ansi.CursorHorizontalAbsolute(geo.Display.Cols + 1))
	}
	b.WriteString(mark)
	b.WriteString(ansi.EraseScreenBelow)
	b.WriteString("\n")

	c.line = nil
	c.cursor = 0
	c.caretRow = 0
	return b.String()
}

// Finish leaves the input as typed and moves below it. Use it when input
// ends without a quit key.
func (c *Console) Finish() {
	c.write(c.leave(""))
}

func (c *Console) commit() {
	line := string(c.line)
	c.write(c.leave(""))
	if c.onCommit != nil {
		c.onCommit(line)
	}
	c.write(c.draw())
}

func (c *Console) interrupt() {
	c.write(c.leave("^C"))
	c.write(c.draw())
}

func (c *Console) quit() {
	c.write(c.leave(""))
	if c.onQuit != nil {
		c.onQuit()
	}
}

func (c *Console) write(s string) {
	// Write errors surface again on the next render, which reports them.
	_, _ = c.out.Write([]byte(s))
}

package geometry

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

// DefaultTabSize is the tab stop interval used when a Measurer has none.
const DefaultTabSize = 8

// Position is a zero-based cell offset relative to the start of the prompt.
type Position struct {
	Cols int
	Rows int
}

// State is the read-only view of a console host needed to resolve geometry.
type State interface {
	// Prompt returns the prompt text as rendered before the line.
	Prompt() string
	// Line returns the current input line.
	Line() string
	// Cursor returns the caret offset within Line, in runes.
	Cursor() int
	// DisplayPos returns the wrap-aware end position of rendered text.
	DisplayPos(text string) Position
}

// Result is the outcome of Resolve.
type Result struct {
	// Cursor is where the caret currently sits.
	Cursor Position
	// Display is where the caret would sit at the end of the input.
	Display Position
}

// Delta returns the offset from the cursor to the end of the display.
func (r Result) Delta() (cols, rows int) {
	return r.Display.Cols - r.Cursor.Cols, r.Display.Rows - r.Cursor.Rows
}

// Measurer measures rendered text against a terminal width.
type Measurer struct {
	// Columns is the terminal width. Zero or less disables wrapping.
	Columns int
	// TabSize is the tab stop interval. Zero means DefaultTabSize.
	TabSize int
}

// DisplayPos returns the position of the cell following text when it is
// written starting at the top-left cell, wrapping the way a terminal does.
func (m Measurer) DisplayPos(text string) Position {
	tab := m.TabSize
	if tab <= 0 {
		tab = DefaultTabSize
	}

	text = ansi.Strip(text)

	offset, rows := 0, 0
	state := -1
	for len(text) > 0 {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)

		switch cluster {
		case "\n", "\r\n":
			rows += m.rowsFor(offset)
			offset = 0
			continue
		case "\t":
			offset += m.tabAdvance(offset, tab)
			continue
		}

		// A wide cluster never straddles the right edge; the terminal
		// moves it to the next row and leaves the last cell blank.
		if width > 1 && m.Columns > 0 && (offset+1)%m.Columns == 0 {
			offset++
		}
		offset += width
	}

	if m.Columns <= 0 {
		return Position{Cols: offset, Rows: rows}
	}
	cols := offset % m.Columns
	rows += (offset - cols) / m.Columns
	return Position{Cols: cols, Rows: rows}
}

// tabAdvance returns how many cells a tab at offset moves the cursor.
// Stops are counted from the start of the current row, and a tab never
// wraps: with no stop left it stops at the last column.
func (m Measurer) tabAdvance(offset, tab int) int {
	if m.Columns <= 0 {
		return tab - offset%tab
	}
	col := offset % m.Columns
	next := min(col+tab-col%tab, m.Columns-1)
	return max(next-col, 0)
}

// rowsFor returns how many rows a hard line break consumes after offset
// cells of content. An empty row still consumes one.
func (m Measurer) rowsFor(offset int) int {
	if m.Columns <= 0 || offset == 0 {
		return 1
	}
	return (offset + m.Columns - 1) / m.Columns
}

// Resolve computes the caret and end-of-input positions for a console.
// When the caret is at the end of the line the display measurement is
// reused for the cursor.
func Resolve(s State) Result {
	prompt := s.Prompt()
	line := []rune(s.Line())

	display := s.DisplayPos(prompt + string(line))

	cursor := s.Cursor()
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(line) {
		return Result{Cursor: display, Display: display}
	}

	return Result{
		Cursor:  s.DisplayPos(prompt + string(line[:cursor])),
		Display: display,
	}
}

// Package vtest provides an in-memory terminal screen for tests.
//
// Screen interprets the subset of VT sequences the console and the preview
// renderer emit (cursor movement, horizontal absolute positioning, erase in
// display and line, carriage return and line feed) and keeps a grid of
// cells with wide-character and pending-wrap semantics, so tests can assert
// on what a user would actually see.
package vtest

import (
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// Screen is a fixed-size virtual terminal. It is not safe for concurrent use.
type Screen struct {
	cols, rows int
	grid       [][]string
	x, y       int
	pending    bool

	// NewlineMode makes a line feed also return the carriage, the way a
	// cooked terminal with output post-processing behaves.
	NewlineMode bool

	// Scrolled counts rows that scrolled off the top.
	Scrolled int

	// Writes records every Write call in order.
	Writes []string

	esc []byte
}

// New creates a blank screen of the given size with the cursor at the origin.
func New(cols, rows int) *Screen {
	s := &Screen{cols: cols, rows: rows}
	s.grid = make([][]string, rows)
	for i := range s.grid {
		s.grid[i] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []string {
	row := make([]string, cols)
	for i := range row {
		row[i] = " "
	}
	return row
}

// Size returns the screen dimensions.
func (s *Screen) Size() (cols, rows int) {
	return s.cols, s.rows
}

// Resize changes the reported size and reallocates the grid, keeping the
// cursor inside the new bounds.
func (s *Screen) Resize(cols, rows int) {
	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = blankRow(cols)
		if i < len(s.grid) {
			copy(grid[i], s.grid[i])
		}
	}
	s.cols, s.rows, s.grid = cols, rows, grid
	s.x = min(s.x, cols-1)
	s.y = min(s.y, rows-1)
	s.pending = false
}

// Cursor returns the cursor cell.
func (s *Screen) Cursor() (x, y int) {
	return s.x, s.y
}

// MoveTo places the cursor without writing anything.
func (s *Screen) MoveTo(x, y int) {
	s.x, s.y = clamp(x, 0, s.cols-1), clamp(y, 0, s.rows-1)
	s.pending = false
}

// Line returns row y with trailing blanks removed.
func (s *Screen) Line(y int) string {
	if y < 0 || y >= s.rows {
		return ""
	}
	return strings.TrimRight(strings.Join(s.grid[y], ""), " ")
}

// Lines returns every row with trailing blanks removed.
func (s *Screen) Lines() []string {
	out := make([]string, s.rows)
	for y := range out {
		out[y] = s.Line(y)
	}
	return out
}

// String returns the visible screen with trailing empty rows dropped.
func (s *Screen) String() string {
	lines := s.Lines()
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Write interprets p as terminal output.
func (s *Screen) Write(p []byte) (int, error) {
	s.Writes = append(s.Writes, string(p))

	var text []byte
	flush := func() {
		if len(text) > 0 {
			s.print(string(text))
			text = text[:0]
		}
	}

	for _, b := range p {
		if s.esc != nil {
			s.feedEscape(b)
			continue
		}
		switch {
		case b == 0x1b:
			flush()
			s.esc = []byte{}
		case b == '\r':
			flush()
			s.x, s.pending = 0, false
		case b == '\n':
			flush()
			s.lineFeed()
			if s.NewlineMode {
				s.x = 0
			}
		case b == '\b':
			flush()
			s.x, s.pending = max(0, s.x-1), false
		case b < 0x20 || b == 0x7f:
			flush()
		default:
			text = append(text, b)
		}
	}
	flush()

	return len(p), nil
}

// Output returns everything written so far as one string.
func (s *Screen) Output() string {
	return strings.Join(s.Writes, "")
}

// Reset forgets recorded writes.
func (s *Screen) Reset() {
	s.Writes = nil
}

func (s *Screen) print(text string) {
	state := -1
	for len(text) > 0 {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if width == 0 {
			continue
		}
		if s.pending || s.x+width > s.cols {
			s.x, s.pending = 0, false
			s.lineFeed()
		}
		s.grid[s.y][s.x] = cluster
		for i := 1; i < width && s.x+i < s.cols; i++ {
			s.grid[s.y][s.x+i] = ""
		}
		s.x += width
		if s.x >= s.cols {
			s.x = s.cols - 1
			s.pending = true
		}
	}
}

func (s *Screen) lineFeed() {
	s.pending = false
	if s.y < s.rows-1 {
		s.y++
		return
	}
	copy(s.grid, s.grid[1:])
	s.grid[s.rows-1] = blankRow(s.cols)
	s.Scrolled++
}

func (s *Screen) feedEscape(b byte) {
	if len(s.esc) == 0 {
		if b != '[' {
			// Two-byte sequence; nothing the tests depend on.
			s.esc = nil
			return
		}
		s.esc = append(s.esc, b)
		return
	}
	if b < 0x40 || b > 0x7e {
		s.esc = append(s.esc, b)
		return
	}

	params := string(s.esc[1:])
	s.esc = nil
	s.csi(params, b)
}

func (s *Screen) csi(params string, final byte) {
	n := 1
	if params != "" && !strings.HasPrefix(params, "?") {
		if v, err := strconv.Atoi(strings.Split(params, ";")[0]); err == nil {
			n = v
		}
	}

	switch final {
	case 'A':
		s.y = max(0, s.y-max(n, 1))
	case 'B':
		s.y = min(s.rows-1, s.y+max(n, 1))
	case 'C':
		s.x = min(s.cols-1, s.x+max(n, 1))
	case 'D':
		s.x = max(0, s.x-max(n, 1))
	case 'G':
		s.x = clamp(max(n, 1)-1, 0, s.cols-1)
	case 'J':
		if params == "" {
			n = 0
		}
		s.eraseDisplay(n)
	case 'K':
		if params == "" {
			n = 0
		}
		s.eraseLine(n)
	default:
		// SGR and other modes do not move the cursor.
		return
	}
	s.pending = false
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseLine(0)
		for y := s.y + 1; y < s.rows; y++ {
			s.grid[y] = blankRow(s.cols)
		}
	case 2, 3:
		for y := range s.grid {
			s.grid[y] = blankRow(s.cols)
		}
	}
}

func (s *Screen) eraseLine(mode int) {
	row := s.grid[s.y]
	switch mode {
	case 0:
		for x := s.x; x < s.cols; x++ {
			row[x] = " "
		}
	case 2:
		s.grid[s.y] = blankRow(s.cols)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

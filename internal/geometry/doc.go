// Package geometry computes where text lands on a terminal screen.
//
// A console host renders a prompt followed by the current input line. The
// terminal wraps that text at its column width, so a logical offset in the
// line maps to a (column, row) cell relative to the start of the prompt.
// This package performs that mapping:
//
//   - Measurer.DisplayPos measures any rendered text, wrap-aware, counting
//     grapheme clusters by display width (wide characters take two cells).
//   - Resolve combines a console State into the current caret position and
//     the position of the end of the rendered input.
//
// All functions are pure and never fail.
package geometry

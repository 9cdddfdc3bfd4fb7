// Package preview draws a live, discardable rendering of a result below
// the input line of an interactive console.
//
// A render is a fixed sequence of terminal operations:
//
//  1. Resolve the caret and end-of-input positions (package geometry).
//  2. Move to the end of the input and erase everything below it.
//  3. Write the formatted result, one row below the input, clipped to the
//     rows left in the viewport and, when truncation is on, to the
//     terminal width minus a margin.
//  4. Return the cursor to the cell it started on.
//
// The renderer keeps no state between renders. Each render erases the
// previous preview wholesale, so renders scheduled back to back converge
// on the latest result without any diffing.
//
// Preview defers the render to the scheduler's next tick so terminal
// writes never interleave with the console's handling of the keystroke
// that triggered them. Render performs the same work synchronously.
package preview

// Package console is a minimal line editor for an inline prompt.
//
// The Console owns the prompt, the line being edited and the caret. It
// redraws the input in place after every edit, leaving the rest of the
// screen to whoever draws below it, and reports committed lines to a
// handler. Output wraps the terminal stream, translating line feeds while
// the terminal is in raw mode and reporting the viewport size.
package console

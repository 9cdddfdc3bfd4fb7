// Package adapter connects key presses to evaluation and preview.
//
// The Adapter keeps its own buffer of typed text alongside the console
// line. After every key it hands the buffer to an evaluator and, when the
// evaluator produces a result, asks the preview renderer to draw it below
// the input. A small history of committed lines can be recalled with the
// history keys.
//
// Evaluation errors that only mean "keep typing" are ignored; other
// evaluation errors are logged and leave the preview alone.
package adapter

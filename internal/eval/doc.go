// Package eval defines how console input is turned into a result value.
//
// An Evaluator computes a result synchronously. Async adapts one to the
// callback form used by the key adapter, delivering the result on the next
// tick of the event loop. Input that is merely unfinished, such as an open
// bracket, is reported with an error wrapping ErrIncomplete so callers can
// stay quiet while the user is still typing.
//
// Concrete evaluators live in the query and lua subpackages.
package eval

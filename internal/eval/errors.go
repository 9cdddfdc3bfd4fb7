package eval

import (
	"errors"
	"fmt"
)

// Sentinel errors for evaluation.
var (
	// ErrIncomplete marks input that may become valid as more is typed.
	ErrIncomplete = errors.New("incomplete input")

	// ErrSyntax marks input that cannot become valid by appending to it.
	ErrSyntax = errors.New("syntax error")
)

// Error describes a failed evaluation.
type Error struct {
	// Input is the text that was evaluated.
	Input string

	// Pos is the byte offset in Input the failure refers to, or -1.
	Pos int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("eval %q at %d: %v", e.Input, e.Pos, e.Err)
	}
	return fmt.Sprintf("eval %q: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Incomplete returns an *Error for unfinished input.
func Incomplete(input string, pos int) *Error {
	return &Error{Input: input, Pos: pos, Err: ErrIncomplete}
}

// Syntax returns an *Error for malformed input at pos.
func Syntax(input string, pos int, msg string) *Error {
	return &Error{Input: input, Pos: pos, Err: fmt.Errorf("%w: %s", ErrSyntax, msg)}
}

// IsIncomplete reports whether err marks unfinished input.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

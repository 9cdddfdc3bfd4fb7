package preview

import (
	"errors"
	"fmt"
)

// Errors returned by the renderer.
var (
	// ErrNoConsole indicates a render was requested without a console or
	// without a terminal to write to.
	ErrNoConsole = errors.New("no console output")
)

// Render stages reported in RenderError.
const (
	StageFormat = "format"
	StageWrite  = "write"
)

// RenderError reports the stage of a render that failed.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("preview %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PanicError wraps a panic raised by a formatter.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("formatter panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Raise is the default error handler. It panics with err, making a render
// failure fatal to whoever drives the scheduler.
func Raise(err error) {
	panic(err)
}

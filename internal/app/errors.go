package app

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyRunning is returned by Run while another Run is active.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrUnknownLang is returned for an eval.lang with no evaluator.
	ErrUnknownLang = errors.New("unknown evaluation language")
)

// ComponentError is a failure inside a running component, such as the
// loop or the data watcher.
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

// NewComponentError wraps err with the component and action it came from.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	parts := []string{e.Component}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InitError is returned by New when a component cannot be built.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

package adapter

import (
	"fmt"

	"github.com/dshills/peek/internal/input/key"
)

// Action is what a bound key does to the adapter state.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionCommit
	ActionCancel
	ActionHistoryPrev
	ActionHistoryNext
)

// String returns the configuration name of the action.
func (a Action) String() string {
	switch a {
	case ActionCommit:
		return "commit"
	case ActionCancel:
		return "cancel"
	case ActionHistoryPrev:
		return "history_prev"
	case ActionHistoryNext:
		return "history_next"
	default:
		return "none"
	}
}

// Binding maps a key press to an action.
type Binding struct {
	Key    key.Event
	Spec   string
	Action Action
}

// Bindings is an ordered set of key bindings. The first match wins.
type Bindings []Binding

// DefaultBindings returns Enter to commit, Backspace to cancel and the
// arrow keys, plus Ctrl+P and Ctrl+N, for history.
func DefaultBindings() Bindings {
	b, err := NewBindings(map[Action][]string{
		ActionCommit:      {"Enter"},
		ActionCancel:      {"Backspace"},
		ActionHistoryPrev: {"Up", "Ctrl+P"},
		ActionHistoryNext: {"Down", "Ctrl+N"},
	})
	if err != nil {
		panic(err)
	}
	return b
}

// NewBindings parses key specifications for each action.
func NewBindings(specs map[Action][]string) (Bindings, error) {
	var b Bindings
	for _, action := range []Action{ActionCommit, ActionCancel, ActionHistoryPrev, ActionHistoryNext} {
		for _, spec := range specs[action] {
			ev, err := key.Parse(spec)
			if err != nil {
				return nil, fmt.Errorf("binding %s: %w", action, err)
			}
			b = append(b, Binding{Key: ev, Spec: spec, Action: action})
		}
	}
	return b, nil
}

// Lookup returns the action bound to ev, or ActionNone.
func (b Bindings) Lookup(ev key.Event) Action {
	for _, binding := range b {
		if binding.Key.Equals(ev) {
			return binding.Action
		}
	}
	return ActionNone
}

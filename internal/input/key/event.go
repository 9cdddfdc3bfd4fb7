package key

import (
	"fmt"
	"strings"
	"unicode"
)

// Event is one decoded key press. Rune is set only for KeyRune.
type Event struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// NewRuneEvent returns the event for character r.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent returns the event for a named key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar reports whether the event types a printable character.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune)
}

// IsModified reports whether Ctrl, Alt or Meta is held. Shift only counts
// for named keys, since for characters it is already part of the rune.
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != ModNone
	}
	return e.Modifiers != ModNone
}

// String formats the event so that Parse reads it back, e.g. "Ctrl+P" or
// "Shift+Up".
func (e Event) String() string {
	mods := e.Modifiers
	if e.IsRune() {
		mods &^= ModShift
	}

	var name string
	switch {
	case e.Key != KeyRune:
		name = e.Key.String()
	case e.Rune == ' ':
		name = "Space"
	case e.Rune == '+':
		name = "Plus"
	default:
		name = string(e.Rune)
	}

	if mods == ModNone {
		return name
	}
	return mods.String() + "+" + name
}

// Equals reports whether e and other are the same key press.
func (e Event) Equals(other Event) bool {
	return e == other
}

// Matches reports whether e is the key press described by spec.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	return err == nil && e == parsed
}

func (e Event) GoString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "key.Event{%s", e.Key)
	if e.Key == KeyRune {
		fmt.Fprintf(&b, " %q", e.Rune)
	}
	if e.Modifiers != ModNone {
		fmt.Fprintf(&b, " %s", e.Modifiers)
	}
	b.WriteString("}")
	return b.String()
}

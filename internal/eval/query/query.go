// Package query evaluates path expressions against a JSON document.
//
// Input is either a slash path such as "/home/user/notes.txt", where every
// segment is a literal key except the wildcards "*" and "?", or a gjson
// path such as "users.#.name". A lone "/" selects the whole document.
package query

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/peek/internal/eval"
)

// Mode selects what an evaluation returns.
type Mode string

const (
	// ModeValue returns the matched JSON value as a gjson.Result.
	ModeValue Mode = "value"

	// ModePaths returns the slash paths of the leaves below the match.
	ModePaths Mode = "paths"
)

// ErrInvalidDocument is returned for a document that is not valid JSON.
var ErrInvalidDocument = errors.New("query: invalid JSON document")

// ErrUnknownMode is returned by New for an unrecognized mode.
var ErrUnknownMode = errors.New("query: unknown mode")

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMode sets the evaluation mode. The default is ModePaths.
func WithMode(m Mode) Option {
	return func(e *Evaluator) {
		e.mode = m
	}
}

// Evaluator evaluates queries against a document. It is safe for
// concurrent use; SetDocument may be called while queries run.
type Evaluator struct {
	mu   sync.RWMutex
	doc  []byte
	mode Mode
}

// New returns an Evaluator over doc.
func New(doc []byte, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{mode: ModePaths}
	for _, opt := range opts {
		opt(e)
	}
	if e.mode != ModeValue && e.mode != ModePaths {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, e.mode)
	}
	if err := e.SetDocument(doc); err != nil {
		return nil, err
	}
	return e, nil
}

// Mode returns the evaluation mode.
func (e *Evaluator) Mode() Mode {
	return e.mode
}

// SetDocument replaces the document queries run against.
func (e *Evaluator) SetDocument(doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return ErrInvalidDocument
	}
	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()
	return nil
}

// Eval evaluates input. Blank input and paths that match nothing yield a
// nil result. Unbalanced brackets or quotes yield an error wrapping
// eval.ErrIncomplete; a stray closer yields eval.ErrSyntax.
func (e *Evaluator) Eval(input string) (any, error) {
	input = norm.NFC.String(strings.TrimSpace(input))
	if err := checkBalance(input); err != nil {
		return nil, err
	}

	path := Normalize(input)
	if path == "" {
		return nil, nil
	}

	e.mu.RLock()
	doc := e.doc
	e.mu.RUnlock()

	r := gjson.GetBytes(doc, path)
	if !r.Exists() {
		return nil, nil
	}
	if e.mode == ModeValue {
		return r, nil
	}
	return Paths(input, r), nil
}

// Normalize converts input to a gjson path. Slash paths have their
// segments escaped and joined with dots; other input loses a trailing
// separator. The document root is "@this".
func Normalize(input string) string {
	input = strings.TrimSpace(input)
	if isSlashPath(input) {
		var segs []string
		for _, seg := range strings.Split(strings.TrimRight(input, "."), "/") {
			if seg != "" {
				segs = append(segs, escape(seg))
			}
		}
		if len(segs) == 0 {
			return "@this"
		}
		return strings.Join(segs, ".")
	}
	return strings.TrimRight(input, ".|")
}

// isSlashPath reports whether input uses "/" as its separator.
func isSlashPath(input string) bool {
	if strings.HasPrefix(input, "/") {
		return true
	}
	return strings.Contains(input, "/") && !strings.ContainsAny(input, `#@|()[]{}"=`)
}

// escape makes a key literal for gjson while keeping the "*" and "?"
// wildcards.
func escape(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		switch r {
		case '.', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// checkBalance verifies that brackets and quotes in input are balanced.
func checkBalance(input string) error {
	var stack []byte
	inString := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '\\':
			i++
		case '"':
			inString = true
		case '(', '[', '{':
			stack = append(stack, closers[c])
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return eval.Syntax(input, i, "unexpected "+string(c))
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString || len(stack) > 0 {
		return eval.Incomplete(input, len(input))
	}
	return nil
}

// Paths lists the slash paths below r, rooted at dirname. Objects
// contribute one entry per leaf or empty container, arrays contribute the
// paths of their elements under the same dirname, and a leaf lists dirname
// itself. Duplicates and empty paths are dropped.
func Paths(dirname string, r gjson.Result) []string {
	all := []string{dirname}
	switch {
	case r.IsArray():
		r.ForEach(func(_, v gjson.Result) bool {
			all = append(all, Paths(dirname, v)...)
			return true
		})
	case r.IsObject():
		r.ForEach(func(k, v gjson.Result) bool {
			all = append(all, Paths(join(dirname, k.String()), v)...)
			return true
		})
	}
	if len(all) > 1 {
		all = all[1:]
	}

	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, p := range all {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// join appends key to the slash path dirname.
func join(dirname, key string) string {
	var segs []string
	for _, seg := range strings.Split(dirname, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return "/" + strings.Join(append(segs, key), "/")
}

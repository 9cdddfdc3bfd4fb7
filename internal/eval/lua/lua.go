// Package lua evaluates Lua expressions with the loaded document bound to
// the global "data".
//
// Each line is first compiled as "return <line>" so that bare expressions
// produce a value; statements such as assignments fall back to running the
// line as a chunk. Eval runs against a scratch environment, so previews
// never change globals; Exec keeps assignments for later lines. Only the
// base, table, string and math libraries are available.
package lua

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/peek/internal/eval"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 2 * time.Second

// ErrClosed is returned after Close.
var ErrClosed = errors.New("lua: evaluator closed")

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout sets the per-evaluation time limit. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// Evaluator runs Lua input in a single sandboxed state.
type Evaluator struct {
	mu      sync.Mutex
	L       *glua.LState
	timeout time.Duration
	closed  bool
}

// New creates an Evaluator with doc, a JSON document, bound to "data".
func New(doc []byte, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	L := glua.NewState(glua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	e.L = L

	if err := e.SetDocument(doc); err != nil {
		L.Close()
		return nil, err
	}
	return e, nil
}

// openSafeLibraries opens the libraries that cannot reach the host.
func openSafeLibraries(L *glua.LState) {
	glua.OpenBase(L)
	glua.OpenTable(L)
	glua.OpenString(L)
	glua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module", "require"} {
		L.SetGlobal(name, glua.LNil)
	}
}

// SetDocument rebinds "data" to doc.
func (e *Evaluator) SetDocument(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("lua: decode document: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.L.SetGlobal("data", toLua(e.L, v))
	return nil
}

// Eval evaluates input and converts the first returned value to Go:
// nil, bool, int64 or float64, string, []any or map[string]any.
// Input the parser rejects at end of input yields eval.ErrIncomplete.
// Statements run for their effect and return nil. Global assignments land
// in a scratch environment and are discarded.
func (e *Evaluator) Eval(input string) (any, error) {
	return e.run(input, true)
}

// Exec is Eval with global assignments kept for later evaluations.
func (e *Evaluator) Exec(input string) (any, error) {
	return e.run(input, false)
}

func (e *Evaluator) run(input string, scratch bool) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	fn, err := e.L.LoadString("return " + input)
	if err != nil {
		var chunkErr error
		fn, chunkErr = e.L.LoadString(input)
		if chunkErr != nil {
			return nil, compileError(input, err, chunkErr)
		}
	}
	if scratch {
		fn.Env = e.scratchEnv()
	}

	if e.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.L.SetContext(ctx)
		defer e.L.RemoveContext()
	}

	top := e.L.GetTop()
	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		e.L.SetTop(top)
		return nil, &eval.Error{Input: input, Pos: -1, Err: err}
	}
	ret := e.L.Get(-1)
	e.L.SetTop(top)
	return fromLua(ret, map[*glua.LTable]bool{}), nil
}

// scratchEnv returns an empty table that reads through to the globals.
// "_G" resolves to the table itself so writes through it stay local.
func (e *Evaluator) scratchEnv() *glua.LTable {
	env := e.L.NewTable()
	mt := e.L.NewTable()
	mt.RawSetString("__index", e.L.G.Global)
	e.L.SetMetatable(env, mt)
	env.RawSetString("_G", env)
	return env
}

// compileError classifies the failures of both compile attempts. Input
// either form rejects at end of input may still be completed.
func compileError(input string, exprErr, chunkErr error) error {
	if atEOF(exprErr) || atEOF(chunkErr) {
		return eval.Incomplete(input, len(input))
	}
	return &eval.Error{Input: input, Pos: -1, Err: fmt.Errorf("%w: %v", eval.ErrSyntax, strings.TrimSpace(chunkErr.Error()))}
}

func atEOF(err error) bool {
	return strings.Contains(err.Error(), " at EOF:")
}

// Close releases the Lua state.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.L.Close()
	return nil
}

// toLua converts a decoded JSON value into a Lua value owned by L.
func toLua(L *glua.LState, v any) glua.LValue {
	switch val := v.(type) {
	case nil:
		return glua.LNil
	case bool:
		return glua.LBool(val)
	case float64:
		return glua.LNumber(val)
	case string:
		return glua.LString(val)
	case []any:
		t := L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	default:
		return glua.LString(fmt.Sprint(val))
	}
}

// fromLua converts a Lua value to Go. Tables with keys 1..n become slices,
// other tables become maps keyed by the string form of each key. A table
// that contains itself converts to nil at the cycle.
func fromLua(lv glua.LValue, visiting map[*glua.LTable]bool) any {
	switch v := lv.(type) {
	case glua.LBool:
		return bool(v)
	case glua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case glua.LString:
		return string(v)
	case *glua.LTable:
		if visiting[v] {
			return nil
		}
		visiting[v] = true
		defer delete(visiting, v)
		return tableToGo(v, visiting)
	case *glua.LFunction:
		return v.String()
	default:
		return nil
	}
}

func tableToGo(t *glua.LTable, visiting map[*glua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ glua.LValue) { count++ })

	if n > 0 && count == n {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = fromLua(t.RawGetInt(i), visiting)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v glua.LValue) {
		m[tableKey(k)] = fromLua(v, visiting)
	})
	return m
}

func tableKey(k glua.LValue) string {
	if n, ok := k.(glua.LNumber); ok {
		f := float64(n)
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return k.String()
}

package eval

import (
	"fmt"
	"reflect"
)

// Evaluator computes the result of a line of input.
type Evaluator interface {
	Eval(input string) (any, error)
}

// Executor is implemented by evaluators whose committed lines may change
// state that Eval leaves alone.
type Executor interface {
	Exec(input string) (any, error)
}

// Func adapts a plain function to Evaluator.
type Func func(input string) (any, error)

// Eval calls f.
func (f Func) Eval(input string) (any, error) {
	return f(input)
}

// Scheduler queues work to run after the current task.
type Scheduler interface {
	NextTick(fn func())
}

// Callback receives the outcome of an asynchronous evaluation.
type Callback func(result any, err error)

// AsyncEvaluator runs an Evaluator and reports through a callback.
type AsyncEvaluator struct {
	sched Scheduler
	ev    Evaluator
}

// Async wraps ev so that results are delivered on the next tick of sched.
func Async(sched Scheduler, ev Evaluator) *AsyncEvaluator {
	return &AsyncEvaluator{sched: sched, ev: ev}
}

// Evaluate computes the result of input now and calls done on the next
// tick. A panic in the evaluator is delivered to done as an error.
func (a *AsyncEvaluator) Evaluate(input string, done Callback) {
	result, err := Safe(a.ev, input)
	if done == nil {
		return
	}
	a.sched.NextTick(func() {
		done(result, err)
	})
}

// Safe calls ev.Eval, turning a panic into an *Error.
func Safe(ev Evaluator, input string) (result any, err error) {
	defer recoverPanic(input, &result, &err)
	return ev.Eval(input)
}

// SafeExec is Safe for a committed line: it calls Exec when ev is an
// Executor and Eval otherwise.
func SafeExec(ev Evaluator, input string) (result any, err error) {
	x, ok := ev.(Executor)
	if !ok {
		return Safe(ev, input)
	}
	defer recoverPanic(input, &result, &err)
	return x.Exec(input)
}

func recoverPanic(input string, result *any, err *error) {
	if r := recover(); r != nil {
		*result = nil
		*err = &Error{Input: input, Pos: -1, Err: fmt.Errorf("evaluator panic: %v", r)}
	}
}

// Empty reports whether result has nothing worth showing: nil, a nil
// pointer, map, slice or interface, an empty string, slice or map, or a
// value whose Exists method reports false.
func Empty(result any) bool {
	if result == nil {
		return true
	}
	if e, ok := result.(interface{ Exists() bool }); ok {
		return !e.Exists()
	}
	v := reflect.ValueOf(result)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Map, reflect.Slice, reflect.String, reflect.Array:
		return v.Len() == 0
	}
	return false
}

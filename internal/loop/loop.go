// Package loop provides the single-threaded event loop that drives the
// console.
//
// Work arrives as tasks posted from any goroutine (key presses, file
// change notifications). Tasks run one at a time, in arrival order, on the
// goroutine that called Run. While a task runs it may defer follow-up work
// with NextTick; ticks run after the task returns and before the next task
// starts, so a key handler can schedule terminal output that must not
// interleave with the handler's own bookkeeping.
package loop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned by Post after the loop has stopped.
var ErrStopped = errors.New("loop stopped")

// PanicError wraps a panic raised by a task or tick.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("panic in loop task: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if e == nil {
		return nil
	}
	err, _ := e.Value.(error)
	return err
}

// Loop is a cooperative task queue with a next-tick queue.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	stopped bool
	stopCh  chan struct{}

	// ticks is only touched from the loop goroutine.
	ticks []func()
}

// New creates an idle loop.
func New() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Post queues fn to run as its own task. It is safe to call from any
// goroutine.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// NextTick queues fn to run after the current task returns and before the
// next task begins. It must be called from the loop goroutine.
func (l *Loop) NextTick(fn func()) {
	l.ticks = append(l.ticks, fn)
}

// Stop ends Run after the current task and its ticks complete.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stopCh)
}

// Run processes tasks until Stop is called, ctx is done, or a task panics.
// A panic is returned as *PanicError.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := l.Drain(); err != nil {
			l.Stop()
			return err
		}

		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stopCh:
			return nil
		case <-l.wake:
		}
	}
}

// Drain runs every queued task, each followed by its ticks, until the queue
// is empty. It returns the first panic as *PanicError and leaves the rest
// of the queue in place.
func (l *Loop) Drain() error {
	for {
		task, ok := l.next()
		if !ok {
			return nil
		}
		if err := l.runTask(task); err != nil {
			return err
		}
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 || l.stopped {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *Loop) runTask(task func()) error {
	if err := call(task); err != nil {
		l.ticks = nil
		return err
	}
	for len(l.ticks) > 0 {
		tick := l.ticks[0]
		l.ticks[0] = nil
		l.ticks = l.ticks[1:]
		if err := call(tick); err != nil {
			l.ticks = nil
			return err
		}
	}
	return nil
}

func call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	fn()
	return nil
}

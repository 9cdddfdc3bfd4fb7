package loop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTicksRunBeforeNextTask(t *testing.T) {
	l := New()
	var order []string

	l.Post(func() {
		order = append(order, "task1")
		l.NextTick(func() {
			order = append(order, "tick1")
			l.NextTick(func() { order = append(order, "tick1.1") })
		})
		l.NextTick(func() { order = append(order, "tick2") })
	})
	l.Post(func() { order = append(order, "task2") })

	if err := l.Drain(); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	want := "task1,tick1,tick2,tick1.1,task2"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestPanicBecomesError(t *testing.T) {
	l := New()
	boom := errors.New("boom")
	ran := false

	l.Post(func() {
		l.NextTick(func() { panic(boom) })
	})
	l.Post(func() { ran = true })

	err := l.Drain()
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Drain error = %v, want *PanicError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("PanicError should unwrap to the panic value")
	}
	if ran {
		t.Error("task after a panic should not run")
	}
	if l.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", l.Pending())
	}
}

func TestRunStops(t *testing.T) {
	l := New()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	got := make(chan int, 1)
	if err := l.Post(func() { got <- 42 }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	select {
	case v := <-got:
		if v != 42 {
			t.Errorf("got %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}

	l.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if err := l.Post(func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Post after Stop = %v, want ErrStopped", err)
	}
}

func TestRunContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestRunReturnsPanic(t *testing.T) {
	l := New()
	l.Post(func() { panic("bad") })

	err := l.Run(context.Background())
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Run = %v, want *PanicError", err)
	}
	if pe.Value != "bad" {
		t.Errorf("Value = %v, want bad", pe.Value)
	}
}

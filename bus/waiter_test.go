package bus

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/tonika/tonika-bus/errors"
)

func TestWaitFor_ResolvesWithEmittedEvent(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	got := make(chan Event, 1)
	errs := make(chan error, 1)
	go func() {
		evt, err := b.WaitFor(context.Background(), "database:ready", 2*time.Second)
		errs <- err
		got <- evt
	}()

	// Let the waiter install its slot before emitting.
	waitUntil(t, func() bool { return b.waiterCount("database:ready") == 1 })

	b.Emit(context.Background(), "database:ready", map[string]any{"tables": 3})

	if err := <-errs; err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
	evt := <-got
	if evt.Type != "database:ready" {
		t.Errorf("type = %q", evt.Type)
	}
	if got := b.waiterCount("database:ready"); got != 0 {
		t.Errorf("waiter table still holds %d slots after resolution", got)
	}
}

func TestWaitFor_TimesOut(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	start := time.Now()
	_, err := b.WaitFor(context.Background(), "database:ready", 50*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("returned after %v, before the deadline", elapsed)
	}
	if !apperrors.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if got := b.waiterCount("database:ready"); got != 0 {
		t.Fatalf("waiter table still holds %d slots after timeout", got)
	}

	// A later emission must not resume anything.
	b.Emit(context.Background(), "database:ready", nil)
}

func TestWaitFor_ZeroTimeoutFailsWhenNothingQueued(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	_, err := b.WaitFor(context.Background(), "never:emitted", 0)
	if !apperrors.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if got := b.waiterCount("never:emitted"); got != 0 {
		t.Fatalf("waiter table still holds %d slots", got)
	}
}

func TestWaitFor_CancellationRemovesSlot(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := b.WaitFor(ctx, "x", NoTimeout)
		errs <- err
	}()

	waitUntil(t, func() bool { return b.waiterCount("x") == 1 })
	cancel()

	err := <-errs
	if !apperrors.IsCanceled(err) {
		t.Fatalf("err = %v, want canceled", err)
	}
	waitUntil(t, func() bool { return b.waiterCount("x") == 0 })
}

func TestWaitFor_ResolvesAfterSyncHandlers(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	handlerDone := make(chan struct{}, 1)
	b.Subscribe("seq", func(ctx context.Context, evt Event) error {
		handlerDone <- struct{}{}
		return nil
	})

	resolved := make(chan struct{})
	go func() {
		_, _ = b.WaitFor(context.Background(), "seq", 2*time.Second)
		close(resolved)
	}()
	waitUntil(t, func() bool { return b.waiterCount("seq") == 1 })

	b.Emit(context.Background(), "seq", nil)

	select {
	case <-handlerDone:
	default:
		t.Fatal("handler did not run before emit returned")
	}
	select {
	case <-resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resolved")
	}
}

func TestWaitFor_MultipleWaitersAllResolve(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	const waiters = 3
	resolved := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, err := b.WaitFor(context.Background(), "fanout", 2*time.Second)
			resolved <- err
		}()
	}
	waitUntil(t, func() bool { return b.waiterCount("fanout") == waiters })

	b.Emit(context.Background(), "fanout", nil)

	for i := 0; i < waiters; i++ {
		select {
		case err := <-resolved:
			if err != nil {
				t.Fatalf("waiter %d failed: %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter %d never resolved", i)
		}
	}
	if got := b.waiterCount("fanout"); got != 0 {
		t.Fatalf("waiter table still holds %d slots", got)
	}
}

// waitUntil polls cond for up to two seconds.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}

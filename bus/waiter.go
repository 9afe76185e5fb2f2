package bus

import (
	"context"
	"time"

	apperrors "github.com/tonika/tonika-bus/errors"
	"github.com/tonika/tonika-bus/metrics"
)

// NoTimeout makes WaitFor wait until the event arrives or ctx is canceled.
// Discouraged outside tests and startup sequencing: prefer a deadline.
const NoTimeout = time.Duration(-1)

// waiterSlot is a one-shot completion slot. Resolution sends on ch, which
// is buffered so the resolver never blocks.
type waiterSlot struct {
	id uint64
	ch chan Event
}

// WaitFor suspends until an event of eventType is emitted, then returns it.
//
// A timeout >= 0 races the slot against a timer; losing the race fails
// with a timeout AppError. NoTimeout waits indefinitely. Either way the
// slot is removed from the waiter table before an error surfaces, so
// abandoned waits never accumulate.
func (b *Bus) WaitFor(ctx context.Context, eventType string, timeout time.Duration) (Event, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	slot := &waiterSlot{id: b.nextID.Add(1), ch: make(chan Event, 1)}
	b.mu.Lock()
	b.waiters[eventType] = append(b.waiters[eventType], slot)
	b.mu.Unlock()

	if b.collector != nil {
		b.collector.AddGauge(metrics.WaitersActive, 1, nil)
		defer b.collector.AddGauge(metrics.WaitersActive, -1, nil)
	}

	var timerC <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case evt := <-slot.ch:
		return evt, nil

	case <-timerC:
		b.removeWaiter(eventType, slot.id)
		// An emit may have resolved the slot between the timer firing
		// and the removal; the event wins.
		select {
		case evt := <-slot.ch:
			return evt, nil
		default:
		}
		return Event{}, apperrors.NewTimeout(eventType)

	case <-ctx.Done():
		b.removeWaiter(eventType, slot.id)
		select {
		case evt := <-slot.ch:
			return evt, nil
		default:
		}
		return Event{}, apperrors.NewCanceled(eventType, ctx.Err())
	}
}

// resolveWaiters completes and removes every pending slot for eventType.
// Runs after handler dispatch for the triggering emit.
func (b *Bus) resolveWaiters(eventType string, evt Event) {
	b.mu.Lock()
	slots := b.waiters[eventType]
	delete(b.waiters, eventType)
	b.mu.Unlock()

	for _, slot := range slots {
		slot.ch <- evt
	}
}

// removeWaiter drops the slot with the given id from the waiter table.
func (b *Bus) removeWaiter(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	slots := b.waiters[eventType]
	for i, slot := range slots {
		if slot.id == id {
			b.waiters[eventType] = append(slots[:i], slots[i+1:]...)
			if len(b.waiters[eventType]) == 0 {
				delete(b.waiters, eventType)
			}
			return
		}
	}
}

// waiterCount returns the number of pending slots for eventType.
func (b *Bus) waiterCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.waiters[eventType])
}

// Package events carries record change notifications from the ledger to
// background consumers, over AMQP or an in-process queue.
package events

import (
	"context"
	"errors"
	"sync"
)

// Publisher sends change events. Publish must not block for long; callers
// treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e *RecordEvent) error
	Close() error
}

// Handler processes one event. Returning an error asks for redelivery.
type Handler func(ctx context.Context, e *RecordEvent) error

// Consumer delivers events to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, h Handler) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, *RecordEvent) error { return nil }
func (Nop) Close() error                                { return nil }

var (
	ErrQueueClosed = errors.New("event queue closed")
	ErrQueueFull   = errors.New("event queue full")
)

// Local is an in-process, buffered queue implementing both Publisher and
// Consumer. It is used when no broker is configured.
type Local struct {
	mu     sync.RWMutex
	ch     chan *RecordEvent
	closed bool
}

func NewLocal(buffer int) *Local {
	if buffer < 1 {
		buffer = 1
	}
	return &Local{ch: make(chan *RecordEvent, buffer)}
}

// Publish enqueues e without waiting. A full buffer drops the event and
// returns ErrQueueFull.
func (l *Local) Publish(ctx context.Context, e *RecordEvent) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume runs h for every event. A failed event is retried once and
// then dropped.
func (l *Local) Consume(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-l.ch:
			if !ok {
				return ErrQueueClosed
			}
			if err := h(ctx, e); err != nil {
				if err := h(ctx, e); err != nil {
					continue
				}
			}
		}
	}
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
	return nil
}

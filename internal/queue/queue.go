// Package queue implements the bounded fan-in queue between capture workers
// and the decode pump.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/zMarques/albion-network/internal/core"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 4096

// Policy decides what happens when a producer pushes onto a full queue.
type Policy uint8

const (
	// Block makes the producer wait for free space.
	Block Policy = iota
	// DropTail discards the item being pushed.
	DropTail
	// DropHead discards the oldest queued item to make room.
	DropHead
)

func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropTail:
		return "tail"
	case DropHead:
		return "head"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy converts a config value into a Policy. Empty means Block.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "block":
		return Block, nil
	case "tail":
		return DropTail, nil
	case "head":
		return DropHead, nil
	default:
		return Block, fmt.Errorf("%w: unknown drop policy %q", core.ErrConfigInvalid, s)
	}
}

// Option configures a Queue.
type Option func(*options)

type options struct {
	onDrop func()
}

// WithDropHook registers fn to be called once per discarded item.
func WithDropHook(fn func()) Option {
	return func(o *options) {
		o.onDrop = fn
	}
}

// Queue is a bounded multi-producer single-consumer FIFO. Pushes from one
// producer keep their relative order; pushes from different producers are
// interleaved in arrival order.
type Queue[T any] struct {
	items  chan T
	policy Policy
	onDrop func()

	// Producers hold the read side while sending so Close never races a send.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once

	// Serializes evict-then-push under DropHead.
	headMu sync.Mutex
}

// New creates a Queue holding at most capacity items.
func New[T any](capacity int, policy Policy, opts ...Option) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{
		items:  make(chan T, capacity),
		policy: policy,
		onDrop: o.onDrop,
		done:   make(chan struct{}),
	}
}

// Push enqueues v according to the queue policy.
//
// It returns core.ErrQueueClosed once Close has been called, core.ErrQueueFull
// when DropTail rejects v, and ctx.Err() when a blocked push is cancelled.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return core.ErrQueueClosed
	}

	switch q.policy {
	case DropTail:
		select {
		case q.items <- v:
			return nil
		default:
			q.dropped()
			return core.ErrQueueFull
		}

	case DropHead:
		q.headMu.Lock()
		defer q.headMu.Unlock()
		for {
			select {
			case q.items <- v:
				return nil
			default:
			}
			select {
			case <-q.items:
				q.dropped()
			default:
			}
		}

	default:
		select {
		case q.items <- v:
			return nil
		case <-q.done:
			return core.ErrQueueClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Out returns the receive side. It is closed after Close once every queued
// item has been received.
func (q *Queue[T]) Out() <-chan T {
	return q.items
}

// Pop blocks until an item is available. It returns core.ErrQueueClosed when
// the queue is closed and drained.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case v, ok := <-q.items:
		if !ok {
			var zero T
			return zero, core.ErrQueueClosed
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Close stops accepting items and releases blocked producers. Items already
// queued remain readable. Close is idempotent.
func (q *Queue[T]) Close() {
	q.once.Do(func() {
		close(q.done)

		q.mu.Lock()
		q.closed = true
		close(q.items)
		q.mu.Unlock()
	})
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}

// Policy returns the overload policy.
func (q *Queue[T]) Policy() Policy {
	return q.policy
}

func (q *Queue[T]) dropped() {
	if q.onDrop != nil {
		q.onDrop()
	}
}

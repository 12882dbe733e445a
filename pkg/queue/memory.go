package queue

import (
	"context"
	"time"
)

// MemoryQueue is a channel-backed Queue for tests and single-process use.
type MemoryQueue struct {
	items chan []byte
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an in-memory queue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryQueue{items: make(chan []byte, capacity)}
}

// Push appends a payload without blocking; a full queue is reported as a
// connection failure to match the remote implementation's contract.
func (q *MemoryQueue) Push(ctx context.Context, payload []byte) error {
	select {
	case q.items <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrConnectionFailed
	}
}

// Pop waits up to timeout for the oldest payload.
func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case payload := <-q.items:
		return payload, nil
	case <-t.C:
		return nil, ErrEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of buffered payloads.
func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.items)), nil
}

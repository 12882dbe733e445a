// Package queue provides the inbound FIFO boundary between producers and
// the batch accumulator: non-blocking push, blocking pop with a bounded
// timeout.
package queue

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrEmpty is returned by Pop when the timeout elapses with no item.
	ErrEmpty = errors.New("queue: empty")

	// ErrConnectionFailed wraps transport-level failures reaching the queue.
	ErrConnectionFailed = errors.New("queue: connection failed")
)

// Queue is a FIFO channel of serialized records.
type Queue interface {
	// Push appends a payload to the tail of the queue.
	Push(ctx context.Context, payload []byte) error

	// Pop removes and returns the oldest payload, waiting at most timeout.
	// Returns ErrEmpty when nothing arrives within the timeout.
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)

	// Len returns the current queue depth.
	Len(ctx context.Context) (int64, error)
}

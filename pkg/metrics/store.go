package metrics

import (
	"context"
	"time"
)

// Store is the exposed-counter surface polled by external relays. The
// accumulator is the sole writer; values never go negative because they
// are only derived from successful commits.
type Store interface {
	// Init seeds the counters so relays read zeros instead of nils.
	Init(ctx context.Context) error

	// PublishSnapshot writes the post-commit metrics.
	PublishSnapshot(ctx context.Context, snap Snapshot) error

	// SetBufferState reports current buffer occupancy and the active
	// batch start time. A zero start time clears the active batch.
	SetBufferState(ctx context.Context, size int, batchStart time.Time) error

	// MarkPersisted moves tracking IDs from the queued ledger to the
	// persisted ledger after a successful commit.
	MarkPersisted(ctx context.Context, ids []string) error
}

// NopStore discards all writes. Useful in tests and when no relay exists.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) Init(context.Context) error                           { return nil }
func (NopStore) PublishSnapshot(context.Context, Snapshot) error      { return nil }
func (NopStore) SetBufferState(context.Context, int, time.Time) error { return nil }
func (NopStore) MarkPersisted(context.Context, []string) error        { return nil }

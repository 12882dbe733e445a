// Package notifier builds and publishes batch-completion events.
// Publication is fire-and-forget with a last-value cache for late joiners;
// there is no replay.
package notifier

import (
	"context"

	"github.com/huynhanx03/batch-ingestor/pkg/encoding"
	"github.com/huynhanx03/batch-ingestor/pkg/unique"
)

// Publisher delivers events to whatever transport relays subscribe on.
type Publisher interface {
	// Publish broadcasts the event and caches it as the most recent one.
	Publish(ctx context.Context, event Event) error

	// Last returns the most recently published event, or ok=false when
	// none has been published yet.
	Last(ctx context.Context) (Event, bool, error)
}

// Bridge mints batch identifiers and publishes completion events.
type Bridge struct {
	ids *unique.Node
	pub Publisher
}

// NewBridge wires the ID generator to a publisher.
func NewBridge(ids *unique.Node, pub Publisher) *Bridge {
	return &Bridge{ids: ids, pub: pub}
}

// MintBatchID returns a fresh short identifier. Batch identity exists only
// from the moment of a successful commit, so this is called exactly once
// per flush that succeeded.
func (b *Bridge) MintBatchID() string {
	return encoding.Base62Encode(b.ids.Generate())
}

// Publish sends the completion event once. Subscribers not listening at
// publish time receive nothing beyond the cached last value.
func (b *Bridge) Publish(ctx context.Context, event Event) error {
	return b.pub.Publish(ctx, event)
}

// Last exposes the cached event for newly joining subscribers.
func (b *Bridge) Last(ctx context.Context) (Event, bool, error) {
	return b.pub.Last(ctx)
}

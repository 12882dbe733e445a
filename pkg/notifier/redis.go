package notifier

import (
	"context"
	"encoding/json"
	"time"

	redisV9 "github.com/redis/go-redis/v9"
)

const (
	// Channel is the pub/sub channel carrying batch-completion events.
	Channel = "batch_notifications"

	// LastEventKey caches the most recent event for late joiners.
	LastEventKey = "last_batch_event"

	// Per-field copies of the last batch, polled by simple relays.
	LastBatchIDKey   = "last_batch_id"
	LastBatchSizeKey = "last_batch_size"
	LastBatchTimeKey = "last_batch_time"
)

// RedisPublisher broadcasts events over Redis pub/sub and mirrors the most
// recent one into plain keys.
type RedisPublisher struct {
	client *redisV9.Client
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher wraps an already connected client.
func NewRedisPublisher(client *redisV9.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish broadcasts the event and updates the last-value cache in one
// pipeline. Subscribers that are not listening miss the broadcast; only
// the cache survives for them.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, Channel, payload)
	pipe.Set(ctx, LastEventKey, payload, 0)
	pipe.Set(ctx, LastBatchIDKey, event.BatchID, 0)
	pipe.Set(ctx, LastBatchSizeKey, event.BatchSize, 0)
	pipe.Set(ctx, LastBatchTimeKey, event.Timestamp.UTC().Format(time.RFC3339Nano), 0)
	_, err = pipe.Exec(ctx)
	return err
}

// Last fetches the cached event.
func (p *RedisPublisher) Last(ctx context.Context) (Event, bool, error) {
	payload, err := p.client.Get(ctx, LastEventKey).Bytes()
	if err == redisV9.Nil {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, false, err
	}
	return event, true, nil
}

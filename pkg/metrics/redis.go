package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisV9 "github.com/redis/go-redis/v9"

	"github.com/huynhanx03/batch-ingestor/pkg/queue"
)

// Redis keys polled by external relays. The worker is the only writer.
const (
	KeyTotalMessages = "total_messages"
	KeyTotalBatches  = "total_batches"
	KeyCurrentRPS    = "current_rps"
	KeyAvgLatencyMS  = "avg_latency_ms"
	KeyP95LatencyMS  = "p95_latency_ms"
	KeyP99LatencyMS  = "p99_latency_ms"
	KeyBufferSize    = "worker_buffer_size"
	KeyBatchStart    = "batch_start_time"

	// PersistedIDsKey holds recently persisted tracking IDs, newest first.
	PersistedIDsKey = "persisted_message_ids"

	// LastPersistedIDsKey caches the last batch's IDs as one JSON blob.
	LastPersistedIDsKey = "last_persisted_ids"

	maxPersistedIDs = 200
)

// RedisStore publishes the exposed counters to Redis keys.
type RedisStore struct {
	client *redisV9.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an already connected client.
func NewRedisStore(client *redisV9.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Init seeds the cumulative counters when absent so relays never read nil.
func (s *RedisStore) Init(ctx context.Context) error {
	for _, key := range []string{KeyTotalMessages, KeyTotalBatches, KeyCurrentRPS} {
		if err := s.client.SetNX(ctx, key, 0, 0).Err(); err != nil {
			return err
		}
	}
	return nil
}

// PublishSnapshot writes the post-commit metrics in one pipeline.
func (s *RedisStore) PublishSnapshot(ctx context.Context, snap Snapshot) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, KeyTotalMessages, snap.TotalMessages, 0)
	pipe.Set(ctx, KeyTotalBatches, snap.TotalBatches, 0)
	pipe.Set(ctx, KeyCurrentRPS, fmt.Sprintf("%.2f", snap.Throughput), 0)
	pipe.Set(ctx, KeyAvgLatencyMS, fmt.Sprintf("%.2f", snap.AvgLatencyMS), 0)
	pipe.Set(ctx, KeyP95LatencyMS, fmt.Sprintf("%.2f", snap.P95LatencyMS), 0)
	pipe.Set(ctx, KeyP99LatencyMS, fmt.Sprintf("%.2f", snap.P99LatencyMS), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// SetBufferState reports buffer occupancy; a zero batchStart clears the
// active-batch marker. The start time is written as epoch seconds, the
// format relays polling this key parse.
func (s *RedisStore) SetBufferState(ctx context.Context, size int, batchStart time.Time) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, KeyBufferSize, size, 0)
	if batchStart.IsZero() {
		pipe.Del(ctx, KeyBatchStart)
	} else {
		pipe.Set(ctx, KeyBatchStart, batchStart.Unix(), 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// MarkPersisted records the committed tracking IDs and removes them from
// the queued ledger.
func (s *RedisStore) MarkPersisted(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	blob, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.LPush(ctx, PersistedIDsKey, id)
		pipe.LRem(ctx, queue.QueuedIDsKey, 0, id)
	}
	pipe.LTrim(ctx, PersistedIDsKey, 0, maxPersistedIDs-1)
	pipe.Set(ctx, LastPersistedIDsKey, blob, 0)
	_, err = pipe.Exec(ctx)
	return err
}

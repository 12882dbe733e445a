package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	redisV9 "github.com/redis/go-redis/v9"

	"github.com/huynhanx03/batch-ingestor/pkg/settings"
)

const (
	// ListKey is the Redis list holding pending record payloads.
	ListKey = "pending_messages"

	// QueuedIDsKey tracks the tracking IDs currently queued, newest first.
	QueuedIDsKey = "queued_message_ids"

	maxQueuedIDs = 1000

	defaultPoolSize        = 10
	defaultMinIdleConns    = 5
	defaultPoolTimeout     = 5
	defaultDialTimeout     = 5
	defaultReadTimeout     = 3
	defaultWriteTimeout    = 3
	defaultMaxRetries      = 3
	defaultMinRetryBackoff = 300 // millis
	defaultMaxRetryBackoff = 500 // millis
)

// RedisQueue implements Queue on a Redis list: LPUSH at the head,
// BRPOP from the tail, so arrival order is preserved.
type RedisQueue struct {
	client *redisV9.Client
	config *settings.Redis
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue connects to Redis and verifies the connection with a ping.
func NewRedisQueue(cfg *settings.Redis) (*RedisQueue, error) {
	q := &RedisQueue{config: cfg}
	if err := q.connect(); err != nil {
		return nil, errors.Wrapf(ErrConnectionFailed, "%v", err)
	}
	return q, nil
}

func (q *RedisQueue) connect() error {
	q.setDefaultConfig()

	addr := q.config.Host
	if q.config.Port > 0 {
		addr = fmt.Sprintf("%s:%d", addr, q.config.Port)
	}

	q.client = redisV9.NewClient(&redisV9.Options{
		Addr:            addr,
		Password:        q.config.Password,
		DB:              q.config.Database,
		PoolSize:        q.config.PoolSize,
		MinIdleConns:    q.config.MinIdleConns,
		MaxRetries:      q.config.MaxRetries,
		DialTimeout:     time.Duration(q.config.DialTimeout) * time.Second,
		ReadTimeout:     time.Duration(q.config.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(q.config.WriteTimeout) * time.Second,
		PoolTimeout:     time.Duration(q.config.PoolTimeout) * time.Second,
		MinRetryBackoff: time.Duration(q.config.MinRetryBackoff) * time.Millisecond,
		MaxRetryBackoff: time.Duration(q.config.MaxRetryBackoff) * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) setDefaultConfig() {
	if q.config.PoolSize == 0 {
		q.config.PoolSize = defaultPoolSize
	}
	if q.config.MinIdleConns == 0 {
		q.config.MinIdleConns = defaultMinIdleConns
	}
	if q.config.PoolTimeout == 0 {
		q.config.PoolTimeout = defaultPoolTimeout
	}
	if q.config.DialTimeout == 0 {
		q.config.DialTimeout = defaultDialTimeout
	}
	if q.config.ReadTimeout == 0 {
		q.config.ReadTimeout = defaultReadTimeout
	}
	if q.config.WriteTimeout == 0 {
		q.config.WriteTimeout = defaultWriteTimeout
	}
	if q.config.MaxRetries == 0 {
		q.config.MaxRetries = defaultMaxRetries
	}
	if q.config.MinRetryBackoff == 0 {
		q.config.MinRetryBackoff = defaultMinRetryBackoff
	}
	if q.config.MaxRetryBackoff == 0 {
		q.config.MaxRetryBackoff = defaultMaxRetryBackoff
	}
}

// Push appends a payload to the queue.
func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, ListKey, payload).Err(); err != nil {
		return errors.Wrapf(ErrConnectionFailed, "push: %v", err)
	}
	return nil
}

// Pop blocks up to timeout for the oldest payload.
// BRPOP's read must be allowed to outlive the client read timeout.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, timeout, ListKey).Result()
	if err == redisV9.Nil {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, errors.Wrapf(ErrConnectionFailed, "pop: %v", err)
	}
	// res is [key, value]
	if len(res) != 2 {
		return nil, ErrEmpty
	}
	return []byte(res[1]), nil
}

// Len returns the queue depth.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, ListKey).Result()
	if err != nil {
		return 0, errors.Wrapf(ErrConnectionFailed, "len: %v", err)
	}
	return n, nil
}

// TrackQueued records tracking IDs of freshly queued messages so external
// relays can display lifecycle state. The ledger is capped.
func (q *RedisQueue) TrackQueued(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	pipe := q.client.Pipeline()
	for _, id := range ids {
		pipe.LPush(ctx, QueuedIDsKey, id)
	}
	pipe.LTrim(ctx, QueuedIDsKey, 0, maxQueuedIDs-1)
	_, err := pipe.Exec(ctx)
	return err
}

// QueuedIDs returns up to limit queued tracking IDs, newest first.
func (q *RedisQueue) QueuedIDs(ctx context.Context, limit int64) ([]string, error) {
	return q.client.LRange(ctx, QueuedIDsKey, 0, limit-1).Result()
}

// Close releases the underlying client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Client returns the underlying redis client (escape hatch).
func (q *RedisQueue) Client() *redisV9.Client {
	return q.client
}

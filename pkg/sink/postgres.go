package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/huynhanx03/batch-ingestor/pkg/record"
	"github.com/huynhanx03/batch-ingestor/pkg/settings"
)

const (
	insertSQL = `INSERT INTO messages (user_id, channel_id, content, created_at) VALUES ($1, $2, $3, $4)`

	createTableSQL = `CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		channel_id BIGINT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
)

// PostgresSink persists record batches into the messages table. A batch
// is written inside a single transaction so a failure leaves the store
// exactly as before the call.
type PostgresSink struct {
	pool *pgxpool.Pool
}

var _ Sink = (*PostgresSink)(nil)

// NewPostgresSink connects a pool and verifies it with a ping.
func NewPostgresSink(ctx context.Context, cfg *settings.Database) (*PostgresSink, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=%d",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectTimeout,
	)

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "sink: parse postgres config")
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "sink: create pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "sink: ping postgres")
	}

	return &PostgresSink{pool: pool}, nil
}

// EnsureSchema creates the messages table when it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTableSQL)
	return errors.Wrap(err, "sink: ensure schema")
}

// Commit inserts the batch in order inside one transaction.
func (s *PostgresSink) Commit(ctx context.Context, batch []record.Record) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrapf(ErrPersistence, "begin: %v", err)
	}
	defer tx.Rollback(ctx)

	var b pgx.Batch
	for _, r := range batch {
		b.Queue(insertSQL, r.UserID, r.ChannelID, r.Content, r.CreatedAt)
	}

	br := tx.SendBatch(ctx, &b)
	for range batch {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, errors.Wrapf(ErrPersistence, "insert: %v", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, errors.Wrapf(ErrPersistence, "close batch: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrapf(ErrPersistence, "commit: %v", err)
	}

	return len(batch), nil
}

// Recent returns the last limit persisted records, newest first.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]PersistedMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, channel_id, content, created_at, inserted_at
		FROM messages
		ORDER BY inserted_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "sink: query recent")
	}
	defer rows.Close()

	var out []PersistedMessage
	for rows.Next() {
		var m PersistedMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.ChannelID, &m.Content, &m.CreatedAt, &m.InsertedAt); err != nil {
			return nil, errors.Wrap(err, "sink: scan row")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Truncate removes all persisted messages. Demo/reset surface only.
func (s *PostgresSink) Truncate(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, errors.Wrap(err, "sink: truncate")
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}

// PersistedMessage is a row of the messages table as read back by the API.
type PersistedMessage struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ChannelID  int64     `json:"channel_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	InsertedAt time.Time `json:"inserted_at"`
}

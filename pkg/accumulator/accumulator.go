// Package accumulator owns the in-memory batch buffer and the flush-timing
// state machine: dequeue one record at a time, flush on size or age, commit
// transactionally, then report metrics and publish the completion event.
package accumulator

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/huynhanx03/batch-ingestor/pkg/metrics"
	"github.com/huynhanx03/batch-ingestor/pkg/notifier"
	"github.com/huynhanx03/batch-ingestor/pkg/queue"
	"github.com/huynhanx03/batch-ingestor/pkg/record"
	"github.com/huynhanx03/batch-ingestor/pkg/settings"
	"github.com/huynhanx03/batch-ingestor/pkg/sink"
	"github.com/huynhanx03/batch-ingestor/pkg/timer"
)

// State of the accumulator. Flushing is transient: it exists only for the
// duration of a commit attempt on the sequential poll path.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

const transientPause = time.Second

// Accumulator is the single consumer of the inbound queue. All mutation
// happens on the sequential Poll path, so it carries no locking; running
// two instances against one queue is unsupported.
type Accumulator struct {
	queue  queue.Queue
	sink   sink.Sink
	engine *metrics.Engine
	store  metrics.Store
	bridge *notifier.Bridge
	clock  timer.Timer
	log    *zap.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration

	buffer     []record.Record
	batchStart time.Time
	flushing   bool
	dropped    int64
}

// New builds an accumulator from worker settings and its collaborators.
func New(
	cfg *settings.Worker,
	q queue.Queue,
	s sink.Sink,
	engine *metrics.Engine,
	store metrics.Store,
	bridge *notifier.Bridge,
	clock timer.Timer,
	log *zap.Logger,
) *Accumulator {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	batchTimeout := time.Duration(cfg.BatchTimeout) * time.Second
	if batchTimeout <= 0 {
		batchTimeout = 30 * time.Second
	}
	pollTimeout := time.Duration(cfg.PollTimeout) * time.Second
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}

	return &Accumulator{
		queue:        q,
		sink:         s,
		engine:       engine,
		store:        store,
		bridge:       bridge,
		clock:        clock,
		log:          log,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		pollTimeout:  pollTimeout,
		buffer:       make([]record.Record, 0, batchSize),
	}
}

// State reports the current lifecycle state.
func (a *Accumulator) State() State {
	switch {
	case a.flushing:
		return StateFlushing
	case len(a.buffer) > 0:
		return StateAccumulating
	default:
		return StateIdle
	}
}

// BufferLen returns the current buffer occupancy.
func (a *Accumulator) BufferLen() int { return len(a.buffer) }

// Dropped returns how many malformed payloads have been discarded.
func (a *Accumulator) Dropped() int64 { return a.dropped }

// Poll performs one iteration of the control loop: a single bounded wait
// on the queue, at most one dequeue, then a flush-predicate evaluation.
// The bounded wait is what lets timeout flushes fire with no arrivals;
// Poll never blocks longer than the poll timeout plus one commit.
func (a *Accumulator) Poll(ctx context.Context) error {
	payload, err := a.queue.Pop(ctx, a.pollTimeout)
	switch {
	case err == nil:
		a.ingest(ctx, payload)
	case errors.Is(err, queue.ErrEmpty):
		// No arrival; fall through to re-check the timeout condition.
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return err
	}

	if a.shouldFlush() {
		return a.Flush(ctx)
	}
	return nil
}

// ingest decodes and buffers one payload. A malformed payload is dropped
// and logged: explicit data loss, never retried.
func (a *Accumulator) ingest(ctx context.Context, payload []byte) {
	rec, err := record.Decode(payload)
	if err != nil {
		a.dropped++
		a.log.Error("dropping malformed payload",
			zap.Error(err),
			zap.Int64("dropped_total", a.dropped),
		)
		return
	}

	if len(a.buffer) == 0 {
		// The flush timeout runs from the first record of the batch.
		a.batchStart = a.clock.Now()
	}
	a.buffer = append(a.buffer, rec)

	if err := a.store.SetBufferState(ctx, len(a.buffer), a.batchStart); err != nil {
		a.log.Warn("failed to report buffer state", zap.Error(err))
	}

	a.log.Debug("record buffered",
		zap.String("tracking_id", rec.TrackingID),
		zap.Int("buffer", len(a.buffer)),
		zap.Int("batch_size", a.batchSize),
	)
}

// shouldFlush evaluates the flush predicate. The size check takes
// precedence; either condition alone is sufficient.
func (a *Accumulator) shouldFlush() bool {
	if len(a.buffer) >= a.batchSize {
		return true
	}
	if len(a.buffer) > 0 && a.clock.Now().Sub(a.batchStart) >= a.batchTimeout {
		return true
	}
	return false
}

// Flush attempts to commit the current batch. On success the buffer and
// batch timer are cleared, counters advance and exactly one completion
// event is published. On failure everything is left as it was before the
// attempt, including the batch start time: with a persistent downstream
// outage the timeout condition stays true and the next poll retries
// immediately with no backoff.
func (a *Accumulator) Flush(ctx context.Context) error {
	if len(a.buffer) == 0 {
		return nil
	}

	a.flushing = true
	defer func() { a.flushing = false }()

	size := len(a.buffer)
	persisted, err := a.sink.Commit(ctx, a.buffer)
	if err != nil {
		return errors.Wrapf(err, "flush of %d records", size)
	}

	now := a.clock.Now()
	ids := make([]string, 0, size)
	latencies := make([]float64, 0, size)
	for _, r := range a.buffer {
		ids = append(ids, r.TrackingID)
		latencies = append(latencies, float64(now.Sub(r.CreatedAt))/float64(time.Millisecond))
	}

	// Counters move only here, after the sink reported success.
	snap := a.engine.RecordBatch(size, latencies)

	if err := a.store.PublishSnapshot(ctx, snap); err != nil {
		a.log.Warn("failed to publish metrics snapshot", zap.Error(err))
	}
	if err := a.store.MarkPersisted(ctx, ids); err != nil {
		a.log.Warn("failed to record persisted ids", zap.Error(err))
	}

	event := notifier.Event{
		Type:          notifier.EventTypePersisted,
		BatchID:       a.bridge.MintBatchID(),
		BatchSize:     size,
		IDs:           ids,
		TotalBatches:  snap.TotalBatches,
		TotalMessages: snap.TotalMessages,
		Timestamp:     now.UTC(),
	}
	if err := a.bridge.Publish(ctx, event); err != nil {
		a.log.Warn("failed to publish completion event", zap.Error(err))
	}

	a.buffer = a.buffer[:0]
	a.batchStart = time.Time{}
	if err := a.store.SetBufferState(ctx, 0, time.Time{}); err != nil {
		a.log.Warn("failed to reset buffer state", zap.Error(err))
	}

	a.log.Info("batch committed",
		zap.String("batch_id", event.BatchID),
		zap.Int("size", persisted),
		zap.Int64("total_messages", snap.TotalMessages),
		zap.Int64("total_batches", snap.TotalBatches),
		zap.Float64("rps", snap.Throughput),
	)
	return nil
}

// Run drives Poll until the context is cancelled, applying the error
// taxonomy: transient queue errors pause briefly and retry, persistence
// failures are logged and retried on the next iteration without backoff.
// On shutdown a best-effort final flush drains any non-empty buffer.
func (a *Accumulator) Run(ctx context.Context) error {
	a.log.Info("accumulator started",
		zap.Int("batch_size", a.batchSize),
		zap.Duration("batch_timeout", a.batchTimeout),
		zap.Duration("poll_timeout", a.pollTimeout),
	)

	for {
		select {
		case <-ctx.Done():
			a.finalFlush()
			return ctx.Err()
		default:
		}

		err := a.Poll(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			// Cancelled mid-poll; the next select runs the final flush.
		case errors.Is(err, sink.ErrPersistence):
			a.log.Error("commit failed, batch retained",
				zap.Error(err),
				zap.Int("buffer", len(a.buffer)),
			)
		case errors.Is(err, queue.ErrConnectionFailed):
			a.log.Error("queue unavailable, pausing", zap.Error(err))
			a.pause(ctx)
		default:
			a.log.Error("poll error", zap.Error(err))
			a.pause(ctx)
		}
	}
}

func (a *Accumulator) pause(ctx context.Context) {
	t := time.NewTimer(transientPause)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// finalFlush attempts to drain the buffer once during shutdown. Not
// guaranteed: records still buffered after a failed final commit are lost.
func (a *Accumulator) finalFlush() {
	if len(a.buffer) == 0 {
		return
	}

	a.log.Info("flushing remaining records before shutdown", zap.Int("buffer", len(a.buffer)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Flush(ctx); err != nil {
		a.log.Error("final flush failed, buffered records lost",
			zap.Error(err),
			zap.Int("lost", len(a.buffer)),
		)
	}
}

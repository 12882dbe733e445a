// Package metrics implements the throughput estimator and latency
// percentile tracker fed by the accumulator after each successful commit.
package metrics

import (
	"sort"
	"time"

	"github.com/huynhanx03/batch-ingestor/pkg/settings"
	"github.com/huynhanx03/batch-ingestor/pkg/timer"
)

// interimFloor guards the early-window rate against division by
// near-zero elapsed time.
const interimFloor = 100 * time.Millisecond

// Snapshot is the read-only view published after each commit.
type Snapshot struct {
	TotalMessages int64
	TotalBatches  int64
	Throughput    float64 // records per second
	AvgLatencyMS  float64 // current batch only
	P95LatencyMS  float64 // full sample ring
	P99LatencyMS  float64 // full sample ring
}

// Engine tracks cumulative totals, a reset-on-expiry throughput window and
// a bounded latency sample ring. It has exactly one caller (the
// accumulator's sequential path) and therefore no internal locking.
//
// The throughput estimator is intentionally approximate: the running count
// resets when the window expires, so the reported rate is bursty at window
// boundaries. Callers must not smooth it.
type Engine struct {
	clock  timer.Timer
	window time.Duration

	totalMessages int64
	totalBatches  int64

	windowCount int64
	windowStart time.Time

	samples *sampleRing
}

// NewEngine builds an engine from worker settings.
func NewEngine(cfg *settings.Worker, clock timer.Timer) *Engine {
	window := time.Duration(cfg.ThroughputWindow) * time.Second
	if window <= 0 {
		window = 10 * time.Second
	}
	capacity := cfg.LatencySamples
	if capacity <= 0 {
		capacity = 100
	}

	return &Engine{
		clock:       clock,
		window:      window,
		windowStart: clock.Now(),
		samples:     newSampleRing(capacity),
	}
}

// RecordBatch folds one successfully committed batch into the totals,
// throughput window and latency ring, and returns the resulting snapshot.
// It must be called only after the sink reports success: counters move
// nowhere else.
//
// The average latency is computed from this batch's samples alone, while
// p95/p99 come from the full ring. The asymmetry is contractual.
func (e *Engine) RecordBatch(size int, latencies []float64) Snapshot {
	e.totalMessages += int64(size)
	e.totalBatches++

	now := e.clock.Now()
	e.windowCount += int64(size)

	var throughput float64
	elapsed := now.Sub(e.windowStart)
	if elapsed >= e.window {
		throughput = float64(e.windowCount) / elapsed.Seconds()
		e.windowCount = 0
		e.windowStart = now
	} else {
		if elapsed < interimFloor {
			elapsed = interimFloor
		}
		throughput = float64(e.windowCount) / elapsed.Seconds()
	}

	var avg float64
	if len(latencies) > 0 {
		var sum float64
		for _, l := range latencies {
			sum += l
			e.samples.Push(l)
		}
		avg = sum / float64(len(latencies))
	}

	return Snapshot{
		TotalMessages: e.totalMessages,
		TotalBatches:  e.totalBatches,
		Throughput:    throughput,
		AvgLatencyMS:  avg,
		P95LatencyMS:  e.percentile(0.95),
		P99LatencyMS:  e.percentile(0.99),
	}
}

// Totals returns the cumulative counters.
func (e *Engine) Totals() (messages, batches int64) {
	return e.totalMessages, e.totalBatches
}

// SampleCount returns the number of retained latency samples.
func (e *Engine) SampleCount() int {
	return e.samples.Len()
}

// percentile selects the nearest-rank value at index floor(p*len) over
// the sorted ring. No interpolation: the selection must stay exactly as
// specified to keep metric semantics stable.
func (e *Engine) percentile(p float64) float64 {
	values := e.samples.Values()
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)

	idx := int(p * float64(len(values)))
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

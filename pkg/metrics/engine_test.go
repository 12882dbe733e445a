package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/huynhanx03/batch-ingestor/pkg/settings"
)

// fakeClock is a manually advanced timer.Timer.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Stop()                   {}
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(clock *fakeClock, windowSec, samples int) *Engine {
	return NewEngine(&settings.Worker{
		ThroughputWindow: windowSec,
		LatencySamples:   samples,
	}, clock)
}

// --- Totals ---

func TestRecordBatch_TotalsMonotone(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	var prevMsgs, prevBatches int64
	for _, size := range []int{3, 1, 50, 7} {
		clock.Advance(time.Second)
		snap := e.RecordBatch(size, nil)

		if snap.TotalMessages < prevMsgs || snap.TotalBatches < prevBatches {
			t.Fatalf("totals went backwards: %+v", snap)
		}
		if snap.TotalMessages != prevMsgs+int64(size) {
			t.Errorf("TotalMessages = %d, want %d", snap.TotalMessages, prevMsgs+int64(size))
		}
		if snap.TotalBatches != prevBatches+1 {
			t.Errorf("TotalBatches = %d, want %d", snap.TotalBatches, prevBatches+1)
		}
		prevMsgs, prevBatches = snap.TotalMessages, snap.TotalBatches
	}
}

// --- Throughput ---

func TestThroughput_InterimFloor(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	// No time elapsed since window start: the floor must prevent a spike.
	snap := e.RecordBatch(10, nil)

	want := 10.0 / 0.1
	if math.Abs(snap.Throughput-want) > 1e-9 {
		t.Errorf("Throughput = %v, want %v (floored elapsed)", snap.Throughput, want)
	}
}

func TestThroughput_InterimRate(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	clock.Advance(5 * time.Second)
	snap := e.RecordBatch(20, nil)

	if math.Abs(snap.Throughput-4.0) > 1e-9 {
		t.Errorf("interim Throughput = %v, want 4.0", snap.Throughput)
	}
}

func TestThroughput_ResetOnExpiry(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	clock.Advance(4 * time.Second)
	e.RecordBatch(40, nil)

	// Window expires: rate covers the full elapsed interval, then resets.
	clock.Advance(6 * time.Second)
	snap := e.RecordBatch(60, nil)
	if math.Abs(snap.Throughput-10.0) > 1e-9 {
		t.Errorf("expiry Throughput = %v, want 10.0", snap.Throughput)
	}

	// The next batch starts a fresh window: the old count is gone.
	clock.Advance(5 * time.Second)
	snap = e.RecordBatch(5, nil)
	if math.Abs(snap.Throughput-1.0) > 1e-9 {
		t.Errorf("post-reset Throughput = %v, want 1.0", snap.Throughput)
	}
}

func TestThroughput_ConvergesToUniformRate(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	// 100 records spread uniformly over the 10s window: 10 batches of 10,
	// one per second. At expiry the rate must converge to R/W = 10.
	var snap Snapshot
	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		snap = e.RecordBatch(10, nil)
	}

	if math.Abs(snap.Throughput-10.0) > 0.5 {
		t.Errorf("Throughput = %v, want ~10.0", snap.Throughput)
	}
}

// --- Latency ---

func TestLatency_AverageIsBatchLocal(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	// First batch with high latencies fills the ring.
	clock.Advance(time.Second)
	e.RecordBatch(3, []float64{1000, 1000, 1000})

	// Second batch is fast: its average must ignore the earlier samples,
	// while percentiles still see them.
	clock.Advance(time.Second)
	snap := e.RecordBatch(2, []float64{10, 20})

	if math.Abs(snap.AvgLatencyMS-15.0) > 1e-9 {
		t.Errorf("AvgLatencyMS = %v, want 15.0 (batch-local)", snap.AvgLatencyMS)
	}
	if snap.P99LatencyMS != 1000 {
		t.Errorf("P99LatencyMS = %v, want 1000 (ring-wide)", snap.P99LatencyMS)
	}
}

func TestLatency_NearestRankSelection(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	// 10 samples 1..10 sorted: p95 index = floor(0.95*10) = 9, p99 index =
	// floor(0.99*10) = 9 -> both read 10. No interpolation.
	latencies := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	snap := e.RecordBatch(len(latencies), latencies)

	if snap.P95LatencyMS != 10 {
		t.Errorf("P95LatencyMS = %v, want 10", snap.P95LatencyMS)
	}
	if snap.P99LatencyMS != 10 {
		t.Errorf("P99LatencyMS = %v, want 10", snap.P99LatencyMS)
	}
}

func TestLatency_P99AtLeastP95(t *testing.T) {
	tests := []struct {
		name      string
		latencies []float64
	}{
		{"uniform", []float64{5, 5, 5, 5, 5}},
		{"ascending", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"single", []float64{42}},
		{"spiky", []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			e := newTestEngine(clock, 10, 100)

			snap := e.RecordBatch(len(tt.latencies), tt.latencies)
			if snap.P99LatencyMS < snap.P95LatencyMS {
				t.Errorf("p99 (%v) < p95 (%v)", snap.P99LatencyMS, snap.P95LatencyMS)
			}
		})
	}
}

func TestLatency_RingBoundedAcrossBatches(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 5)

	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		e.RecordBatch(2, []float64{float64(i), float64(i)})
	}

	if e.SampleCount() != 5 {
		t.Errorf("SampleCount() = %d, want 5 (K)", e.SampleCount())
	}
}

func TestRecordBatch_NoLatencies(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock, 10, 100)

	snap := e.RecordBatch(1, nil)
	if snap.AvgLatencyMS != 0 || snap.P95LatencyMS != 0 || snap.P99LatencyMS != 0 {
		t.Errorf("expected zero latency metrics, got %+v", snap)
	}
}

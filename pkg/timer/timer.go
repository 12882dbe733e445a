package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer abstracts wall-clock access so timing logic stays testable.
type Timer interface {
	Now() time.Time
	Stop()
}

// SystemTimer reads the real clock on every call.
type SystemTimer struct{}

func NewSystemTimer() *SystemTimer { return &SystemTimer{} }

func (SystemTimer) Now() time.Time { return time.Now() }

func (SystemTimer) Stop() {}

// CachedTimer trades precision for cost: it advances a cached timestamp on
// a fixed tick instead of reading the clock on every call. Suitable for ID
// generation where millisecond drift is acceptable.
type CachedTimer struct {
	now    atomic.Value
	step   time.Duration
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewCachedTimer(step time.Duration) *CachedTimer {
	t := &CachedTimer{
		step:   step,
		ticker: time.NewTicker(step),
		done:   make(chan struct{}),
	}
	t.now.Store(time.Now())

	t.wg.Add(1)
	go t.run()

	return t
}

func (t *CachedTimer) run() {
	defer t.wg.Done()

	current := t.Now()

	for {
		select {
		case <-t.ticker.C:
			current = current.Add(t.step)
			t.now.Store(current)
		case <-t.done:
			t.ticker.Stop()
			return
		}
	}
}

func (t *CachedTimer) Now() time.Time {
	return t.now.Load().(time.Time)
}

func (t *CachedTimer) Stop() {
	close(t.done)
	t.wg.Wait()
}

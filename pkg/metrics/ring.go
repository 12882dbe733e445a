package metrics

// sampleRing is a fixed-capacity ring of latency samples. Once full, each
// push overwrites the oldest sample, so at most cap values are retained
// across batches.
type sampleRing struct {
	buf  []float64
	head int
	size int
}

func newSampleRing(capacity int) *sampleRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &sampleRing{buf: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest when full.
func (r *sampleRing) Push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// Len returns the number of retained samples.
func (r *sampleRing) Len() int {
	return r.size
}

// Values returns a copy of the retained samples. Order is not meaningful;
// percentile selection sorts its own copy.
func (r *sampleRing) Values() []float64 {
	out := make([]float64, r.size)
	if r.size < len(r.buf) {
		copy(out, r.buf[:r.size])
		return out
	}
	// Full ring: head points at the oldest sample.
	n := copy(out, r.buf[r.head:])
	copy(out[n:], r.buf[:r.head])
	return out
}

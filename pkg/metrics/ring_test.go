package metrics

import "testing"

func TestSampleRing_NeverExceedsCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushes   int
		wantLen  int
	}{
		{"under_capacity", 10, 5, 5},
		{"exact_capacity", 10, 10, 10},
		{"over_capacity", 10, 25, 10},
		{"capacity_one", 1, 100, 1},
		{"zero_capacity_clamped", 0, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSampleRing(tt.capacity)
			for i := 0; i < tt.pushes; i++ {
				r.Push(float64(i))
			}
			if r.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", r.Len(), tt.wantLen)
			}
		})
	}
}

func TestSampleRing_KeepsMostRecent(t *testing.T) {
	r := newSampleRing(3)
	for i := 1; i <= 5; i++ {
		r.Push(float64(i))
	}

	// 1 and 2 must have been evicted.
	got := map[float64]bool{}
	for _, v := range r.Values() {
		got[v] = true
	}
	for _, want := range []float64{3, 4, 5} {
		if !got[want] {
			t.Errorf("expected sample %v retained, got %v", want, r.Values())
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 distinct samples, got %v", r.Values())
	}
}

func TestSampleRing_ValuesPartial(t *testing.T) {
	r := newSampleRing(10)
	r.Push(1.5)
	r.Push(2.5)

	values := r.Values()
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0] != 1.5 || values[1] != 2.5 {
		t.Errorf("unexpected values %v", values)
	}
}

func TestSampleRing_ValuesIsCopy(t *testing.T) {
	r := newSampleRing(4)
	r.Push(1)

	values := r.Values()
	values[0] = 999

	if r.Values()[0] != 1 {
		t.Error("Values() must return a copy")
	}
}

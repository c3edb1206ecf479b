package ring

import (
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	r := New[int](4)
	idx := r.PutBegin()
	if idx < 0 {
		t.Fatal("expected a free slot")
	}
	r.PutCommit(idx, 42, time.Now(), true)

	gi, _, err := r.GetBegin()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Value(gi); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	r.GetCommit(gi)

	if _, _, err := r.GetBegin(); err != ErrNoImage {
		t.Fatalf("got %v, want ErrNoImage", err)
	}
}

func TestPutCommitFailureReturnsSlotToFree(t *testing.T) {
	r := New[int](1)
	idx := r.PutBegin()
	r.PutCommit(idx, 0, time.Now(), false)

	idx2 := r.PutBegin()
	if idx2 != idx {
		t.Fatalf("expected slot %d to be reusable, got %d", idx, idx2)
	}
}

func TestDropOldestNeverEvictsReading(t *testing.T) {
	r := New[int](2)
	i0 := r.PutBegin()
	r.PutCommit(i0, 0, time.Now(), true)
	i1 := r.PutBegin()
	r.PutCommit(i1, 1, time.Now(), true)

	// Borrow the oldest slot (seq 0) as a reader.
	gi, _, err := r.GetBegin()
	if err != nil {
		t.Fatal(err)
	}
	if gi != i0 {
		t.Fatalf("expected to read slot %d (seq 0), got %d", i0, gi)
	}

	// Buffer is full (one Reading, one Full); a new put must not evict the
	// Reading slot.
	i2 := r.PutBegin()
	if i2 == gi {
		t.Fatal("drop-oldest evicted a slot currently being read")
	}
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	r := New[int](4)
	var last int64 = -1
	for n := 0; n < 10; n++ {
		idx := r.PutBegin()
		r.PutCommit(idx, n, time.Now(), true)

		gi, _, err := r.GetBegin()
		if err != nil {
			t.Fatal(err)
		}
		got := r.Value(gi)
		if int64(got) <= last {
			t.Fatalf("sequence not strictly increasing: got %d after %d", got, last)
		}
		last = int64(got)
		r.GetCommit(gi)
	}
}

func TestRecommendedCapacity(t *testing.T) {
	// Recommended capacity bounds for typical pipeline throughput.
	for _, c := range []int{4, 16} {
		r := New[int](c)
		if r.Cap() != c {
			t.Fatalf("Cap() = %d, want %d", r.Cap(), c)
		}
	}
}

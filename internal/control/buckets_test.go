package control

import (
	"testing"
	"time"
)

func TestObserveIncrementsEveryBucketAtOrAboveDuration(t *testing.T) {
	c := newBucketCounter(map[float64]int64{0.1: 0, 0.5: 0, 1: 0})
	c.observe(300 * time.Millisecond)

	snap := c.snapshot()
	if snap[0.1] != 0 {
		t.Fatalf("0.1s bucket = %d, want 0 (0.3s exceeds it)", snap[0.1])
	}
	if snap[0.5] != 1 || snap[1] != 1 {
		t.Fatalf("snapshot = %+v, want 0.5 and 1 buckets incremented", snap)
	}
}

func TestSnapshotIsACopyNotALiveView(t *testing.T) {
	c := newBucketCounter(map[float64]int64{1: 0})
	snap := c.snapshot()
	snap[1] = 99

	fresh := c.snapshot()
	if fresh[1] != 0 {
		t.Fatalf("mutating a returned snapshot leaked into the counter: got %d, want 0", fresh[1])
	}
}

func TestObserveAboveAllBucketsIncrementsNone(t *testing.T) {
	c := newBucketCounter(map[float64]int64{0.1: 0, 0.5: 0})
	c.observe(10 * time.Second)

	snap := c.snapshot()
	if snap[0.1] != 0 || snap[0.5] != 0 {
		t.Fatalf("snapshot = %+v, want all buckets at 0", snap)
	}
}

package geohex

import "testing"

func TestIndexCachesAgreeWithRaw(t *testing.T) {
	idx := NewIndex()
	a := packCell(1, 2)
	b := packCell(-3, 4)

	if got, want := idx.GridDistance(a, b), gridDistanceRaw(a, b); got != want {
		t.Fatalf("GridDistance = %d, want %d", got, want)
	}
	if got, want := idx.HaversineKM(a, b), haversineRaw(a, b); got != want {
		t.Fatalf("HaversineKM = %f, want %f", got, want)
	}
	disk := idx.GridDisk(a, 2)
	raw := gridDiskRaw(a, 2)
	if len(disk) != len(raw) {
		t.Fatalf("GridDisk len = %d, want %d", len(disk), len(raw))
	}
}

func TestIndexGridDistanceSymmetricRegardlessOfCallOrder(t *testing.T) {
	idx := NewIndex()
	a := packCell(10, -5)
	b := packCell(-2, 8)

	ab := idx.GridDistance(a, b)
	ba := idx.GridDistance(b, a)
	if ab != ba {
		t.Fatalf("GridDistance(a,b)=%d != GridDistance(b,a)=%d", ab, ba)
	}
}

func TestIndexDiskCacheHitReturnsSameResult(t *testing.T) {
	idx := NewIndex()
	origin := packCell(0, 0)
	first := idx.GridDisk(origin, 3)
	second := idx.GridDisk(origin, 3)
	if len(first) != len(second) {
		t.Fatalf("cached GridDisk result length changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached GridDisk result differs at index %d", i)
		}
	}
}

package telemetry

import (
	"testing"

	"turbodriver/internal/geohex"
	"turbodriver/internal/world"
)

func TestRecordCompletedTripIncrementsCounterAndAppendsRecord(t *testing.T) {
	c := NewCollector(10)
	c.RecordCompletedTrip(CompletedTripRecord{TripID: 1, Fare: 10})
	c.RecordCompletedTrip(CompletedTripRecord{TripID: 2, Fare: 20})

	if c.Counters.RidersCompletedTotal != 2 {
		t.Fatalf("RidersCompletedTotal = %d, want 2", c.Counters.RidersCompletedTotal)
	}
	if len(c.Trips) != 2 {
		t.Fatalf("len(Trips) = %d, want 2", len(c.Trips))
	}
}

func TestAddRevenueAccumulates(t *testing.T) {
	c := NewCollector(10)
	c.AddRevenue(2, 10)
	c.AddRevenue(3, 15)
	if c.Counters.PlatformRevenueTotal != 5 {
		t.Fatalf("PlatformRevenueTotal = %f, want 5", c.Counters.PlatformRevenueTotal)
	}
	if c.Counters.TotalFaresCollected != 25 {
		t.Fatalf("TotalFaresCollected = %f, want 25", c.Counters.TotalFaresCollected)
	}
}

func TestRecordCancelledTracksPickupTimeoutSubset(t *testing.T) {
	c := NewCollector(10)
	c.RecordCancelled(true)
	c.RecordCancelled(false)
	if c.Counters.RidersCancelledTotal != 2 {
		t.Fatalf("RidersCancelledTotal = %d, want 2", c.Counters.RidersCancelledTotal)
	}
	if c.Counters.RidersCancelledPickupTimeout != 1 {
		t.Fatalf("RidersCancelledPickupTimeout = %d, want 1", c.Counters.RidersCancelledPickupTimeout)
	}
}

func TestRecordAbandonedBucketsByReason(t *testing.T) {
	c := NewCollector(10)
	c.RecordAbandoned(world.RejectPriceTooHigh)
	c.RecordAbandoned(world.RejectEtaTooLong)
	c.RecordAbandoned(world.RejectStochastic)

	if c.Counters.RidersAbandonedTotal != 3 {
		t.Fatalf("RidersAbandonedTotal = %d, want 3", c.Counters.RidersAbandonedTotal)
	}
	if c.Counters.RidersAbandonedPrice != 1 || c.Counters.RidersAbandonedEta != 1 || c.Counters.RidersAbandonedStochastic != 1 {
		t.Fatalf("abandon reason counters = %+v, want one each", c.Counters)
	}
}

func TestSnapshotRingDiscardsOldestOnceFull(t *testing.T) {
	w := world.New()
	c := NewCollector(2)

	c.Snapshot(100, w)
	c.Snapshot(200, w)
	c.Snapshot(300, w)

	snaps := c.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("len(Snapshots()) = %d, want 2", len(snaps))
	}
	if snaps[0].TimestampMS != 200 || snaps[1].TimestampMS != 300 {
		t.Fatalf("expected oldest snapshot evicted, got timestamps %d, %d", snaps[0].TimestampMS, snaps[1].TimestampMS)
	}
}

func TestSnapshotBeforeFullPreservesChronologicalOrder(t *testing.T) {
	w := world.New()
	c := NewCollector(5)
	c.Snapshot(10, w)
	c.Snapshot(20, w)

	snaps := c.Snapshots()
	if len(snaps) != 2 || snaps[0].TimestampMS != 10 || snaps[1].TimestampMS != 20 {
		t.Fatalf("snapshots out of order: %+v", snaps)
	}
}

func TestSnapshotCapturesWaitingRidersAndDrivers(t *testing.T) {
	w := world.New()
	cell := geohex.CellAt(37.75, -122.42)
	r := w.SpawnRider(cell, 0)
	w.SetRiderState(r.ID, world.RiderWaiting)
	w.SpawnDriver(cell, world.Earnings{}, world.Fatigue{})

	c := NewCollector(1)
	c.Snapshot(0, w)
	snaps := c.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
	if len(snaps[0].Agents) != 2 {
		t.Fatalf("expected 2 agents in snapshot, got %d", len(snaps[0].Agents))
	}
}

func TestNewCollectorClampsNonPositiveCapacity(t *testing.T) {
	c := NewCollector(0)
	w := world.New()
	c.Snapshot(1, w)
	c.Snapshot(2, w)
	if len(c.Snapshots()) != 1 {
		t.Fatalf("expected capacity clamped to 1, got %d snapshots", len(c.Snapshots()))
	}
}

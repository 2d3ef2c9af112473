package world

import (
	"testing"

	"turbodriver/internal/geohex"
)

func TestSpawnRiderAllocatesIncreasingIDs(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r1 := w.SpawnRider(cell, 0)
	r2 := w.SpawnRider(cell, 0)
	if r1.ID == r2.ID || r2.ID != r1.ID+1 {
		t.Fatalf("expected sequential rider ids, got %d, %d", r1.ID, r2.ID)
	}
	if r1.State != RiderBrowsing {
		t.Fatalf("new rider state = %v, want Browsing", r1.State)
	}
}

func TestSpawnDriverStartsIdle(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	d := w.SpawnDriver(cell, Earnings{Target: 100}, Fatigue{ThresholdMS: 1000})
	if d.State != DriverIdle {
		t.Fatalf("new driver state = %v, want Idle", d.State)
	}
	if d.Earnings.Target != 100 {
		t.Fatalf("expected earnings target preserved")
	}
}

func TestSpawnTripStartsEnRouteAndRecordsTiming(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	dest := geohex.CellAt(37.78, -122.40)
	r := w.SpawnRider(cell, 0)
	d := w.SpawnDriver(cell, Earnings{}, Fatigue{})
	trip := w.SpawnTrip(r.ID, d.ID, cell, dest, 100, 200)

	if trip.State != TripEnRoute {
		t.Fatalf("new trip state = %v, want EnRoute", trip.State)
	}
	if trip.Timing.RequestedAtMS != 100 || trip.Timing.MatchedAtMS != 200 {
		t.Fatalf("trip timing = %+v, want requested=100 matched=200", trip.Timing)
	}
}

func TestDespawnRiderLeavesTripsIntact(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r := w.SpawnRider(cell, 0)
	d := w.SpawnDriver(cell, Earnings{}, Fatigue{})
	trip := w.SpawnTrip(r.ID, d.ID, cell, cell, 0, 0)

	w.DespawnRider(r.ID)
	if _, ok := w.Rider(r.ID); ok {
		t.Fatalf("expected rider removed")
	}
	if _, ok := w.Trip(trip.ID); !ok {
		t.Fatalf("expected trip to remain as audit record after rider despawn")
	}
}

func TestMustRiderPanicsOnMissingID(t *testing.T) {
	w := New()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustRider to panic for an unknown id")
		}
	}()
	w.MustRider(999)
}

func TestSetRiderStateUpdatesTheSingleMarker(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r := w.SpawnRider(cell, 0)
	w.SetRiderState(r.ID, RiderWaiting)
	if r.State != RiderWaiting {
		t.Fatalf("rider state = %v, want Waiting", r.State)
	}
}

func TestIdleDriversExcludesNonIdleAndSortsByID(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	d1 := w.SpawnDriver(cell, Earnings{}, Fatigue{})
	d2 := w.SpawnDriver(cell, Earnings{}, Fatigue{})
	d3 := w.SpawnDriver(cell, Earnings{}, Fatigue{})
	w.SetDriverState(d2.ID, DriverOnTrip)

	idle := w.IdleDrivers()
	if len(idle) != 2 {
		t.Fatalf("IdleDrivers returned %d, want 2", len(idle))
	}
	if idle[0].ID != d1.ID || idle[1].ID != d3.ID {
		t.Fatalf("IdleDrivers not sorted by id: got %d, %d", idle[0].ID, idle[1].ID)
	}
}

func TestWaitingRidersExcludesAlreadyMatched(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r1 := w.SpawnRider(cell, 0)
	w.SetRiderState(r1.ID, RiderWaiting)
	r2 := w.SpawnRider(cell, 0)
	w.SetRiderState(r2.ID, RiderWaiting)
	r2.MatchedDriverID = 7

	waiting := w.WaitingRiders()
	if len(waiting) != 1 || waiting[0].ID != r1.ID {
		t.Fatalf("WaitingRiders = %v, want only unmatched r1", waiting)
	}
}

func TestAllRidersBrowsingOrWaitingExcludesTerminalStates(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r1 := w.SpawnRider(cell, 0) // Browsing
	r2 := w.SpawnRider(cell, 0)
	w.SetRiderState(r2.ID, RiderWaiting)
	r3 := w.SpawnRider(cell, 0)
	w.SetRiderState(r3.ID, RiderCompleted)

	active := w.AllRidersBrowsingOrWaiting()
	if len(active) != 2 {
		t.Fatalf("AllRidersBrowsingOrWaiting returned %d, want 2", len(active))
	}
	if active[0].ID != r1.ID || active[1].ID != r2.ID {
		t.Fatalf("unexpected active set: %v", active)
	}
}

func TestTripForRiderResolvesAssignedTrip(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r := w.SpawnRider(cell, 0)
	d := w.SpawnDriver(cell, Earnings{}, Fatigue{})
	trip := w.SpawnTrip(r.ID, d.ID, cell, cell, 0, 0)
	r.AssignedTripID = trip.ID

	got, ok := w.TripForRider(r.ID)
	if !ok || got.ID != trip.ID {
		t.Fatalf("TripForRider = %v, %v, want %d", got, ok, trip.ID)
	}
}

func TestTripForRiderNoAssignedTripReturnsFalse(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r := w.SpawnRider(cell, 0)

	if _, ok := w.TripForRider(r.ID); ok {
		t.Fatalf("expected no trip for a rider without AssignedTripID")
	}
}

func TestCountsReflectSpawnsAndDespawns(t *testing.T) {
	w := New()
	cell := geohex.CellAt(37.75, -122.42)
	r := w.SpawnRider(cell, 0)
	w.SpawnDriver(cell, Earnings{}, Fatigue{})
	w.SpawnTrip(r.ID, 1, cell, cell, 0, 0)

	if w.RiderCount() != 1 || w.DriverCount() != 1 || w.TripCount() != 1 {
		t.Fatalf("counts = %d,%d,%d, want 1,1,1", w.RiderCount(), w.DriverCount(), w.TripCount())
	}
	w.DespawnRider(r.ID)
	if w.RiderCount() != 0 {
		t.Fatalf("RiderCount after despawn = %d, want 0", w.RiderCount())
	}
}

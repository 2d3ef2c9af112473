package world

import (
	"fmt"
	"sort"

	"turbodriver/internal/geohex"
)

// World owns every rider, driver and trip in a single run. It is not safe
// for concurrent use; the engine drives it from one goroutine (spec.md §5).
// Modeled on the teacher's dispatch.Store, generalized from a ride-dispatch
// map-of-mutexes into the simulation's single authoritative entity owner.
type World struct {
	riders  map[int64]*Rider
	drivers map[int64]*Driver
	trips   map[int64]*Trip

	nextRiderID  int64
	nextDriverID int64
	nextTripID   int64
}

func New() *World {
	return &World{
		riders:  make(map[int64]*Rider),
		drivers: make(map[int64]*Driver),
		trips:   make(map[int64]*Trip),
	}
}

// SpawnRider allocates a new rider id and inserts a Browsing rider at cell.
func (w *World) SpawnRider(cell geohex.Cell, nowMS int64) *Rider {
	w.nextRiderID++
	r := &Rider{
		ID:          w.nextRiderID,
		Cell:        cell,
		FirstSeenMS: nowMS,
		State:       RiderBrowsing,
	}
	w.riders[r.ID] = r
	return r
}

// SpawnDriver allocates a new driver id and inserts an Idle driver at cell.
func (w *World) SpawnDriver(cell geohex.Cell, earnings Earnings, fatigue Fatigue) *Driver {
	w.nextDriverID++
	d := &Driver{
		ID:       w.nextDriverID,
		Cell:     cell,
		State:    DriverIdle,
		Earnings: earnings,
		Fatigue:  fatigue,
	}
	w.drivers[d.ID] = d
	return d
}

// SpawnTrip allocates a new trip id, binding a rider and a driver together.
func (w *World) SpawnTrip(riderID, driverID int64, pickup, dropoff geohex.Cell, requestedAtMS, matchedAtMS int64) *Trip {
	w.nextTripID++
	t := &Trip{
		ID:       w.nextTripID,
		RiderID:  riderID,
		DriverID: driverID,
		Pickup:   pickup,
		Dropoff:  dropoff,
		Timing: Timing{
			RequestedAtMS: requestedAtMS,
			MatchedAtMS:   matchedAtMS,
		},
		State: TripEnRoute,
	}
	w.trips[t.ID] = t
	return t
}

// DespawnRider removes a rider from the world. Its trips, if any, are left
// intact as the audit record.
func (w *World) DespawnRider(id int64) { delete(w.riders, id) }

// DespawnDriver removes a driver from the world.
func (w *World) DespawnDriver(id int64) { delete(w.drivers, id) }

// Rider looks up a rider by id.
func (w *World) Rider(id int64) (*Rider, bool) {
	r, ok := w.riders[id]
	return r, ok
}

// Driver looks up a driver by id.
func (w *World) Driver(id int64) (*Driver, bool) {
	d, ok := w.drivers[id]
	return d, ok
}

// Trip looks up a trip by id.
func (w *World) Trip(id int64) (*Trip, bool) {
	t, ok := w.trips[id]
	return t, ok
}

// MustRider panics if the rider is missing: callers use it only when the
// caller itself just validated existence via an event subject, so a miss
// is an engine bug, not a normal-flow condition.
func (w *World) MustRider(id int64) *Rider {
	r, ok := w.riders[id]
	if !ok {
		panic(fmt.Sprintf("world: rider %d not found", id))
	}
	return r
}

func (w *World) MustDriver(id int64) *Driver {
	d, ok := w.drivers[id]
	if !ok {
		panic(fmt.Sprintf("world: driver %d not found", id))
	}
	return d
}

func (w *World) MustTrip(id int64) *Trip {
	t, ok := w.trips[id]
	if !ok {
		panic(fmt.Sprintf("world: trip %d not found", id))
	}
	return t
}

// SetRiderState is the sole entry point for transitioning a rider's state
// marker. Centralizing it here keeps "exactly one state marker at a time"
// an invariant of the type rather than something every caller must honor.
func (w *World) SetRiderState(id int64, s RiderState) {
	w.MustRider(id).State = s
}

// SetDriverState is the sole entry point for transitioning a driver's state
// marker.
func (w *World) SetDriverState(id int64, s DriverState) {
	w.MustDriver(id).State = s
}

func (w *World) SetTripState(id int64, s TripState) {
	w.MustTrip(id).State = s
}

// RiderCount, DriverCount, TripCount report current population sizes.
func (w *World) RiderCount() int  { return len(w.riders) }
func (w *World) DriverCount() int { return len(w.drivers) }
func (w *World) TripCount() int   { return len(w.trips) }

// IdleDrivers returns every driver currently Idle (eligible for matching),
// in ascending id order for determinism.
func (w *World) IdleDrivers() []*Driver {
	out := make([]*Driver, 0, len(w.drivers))
	for _, d := range w.drivers {
		if d.State == DriverIdle {
			out = append(out, d)
		}
	}
	sortDriversByID(out)
	return out
}

// WaitingRiders returns every rider currently Waiting (quote accepted, not
// yet matched), in ascending id order for determinism.
func (w *World) WaitingRiders() []*Rider {
	out := make([]*Rider, 0, len(w.riders))
	for _, r := range w.riders {
		if r.State == RiderWaiting && r.MatchedDriverID == 0 {
			out = append(out, r)
		}
	}
	sortRidersByID(out)
	return out
}

// AllDrivers returns every driver in ascending id order, for periodic scans
// such as CheckDriverOffDuty.
func (w *World) AllDrivers() []*Driver {
	out := make([]*Driver, 0, len(w.drivers))
	for _, d := range w.drivers {
		out = append(out, d)
	}
	sortDriversByID(out)
	return out
}

// AllRidersBrowsingOrWaiting returns every rider counted as active demand
// for surge purposes: Browsing or Waiting (spec.md §4.6).
func (w *World) AllRidersBrowsingOrWaiting() []*Rider {
	out := make([]*Rider, 0, len(w.riders))
	for _, r := range w.riders {
		if r.State == RiderBrowsing || r.State == RiderWaiting {
			out = append(out, r)
		}
	}
	sortRidersByID(out)
	return out
}

// TripForRider resolves a rider's assigned trip in O(1).
func (w *World) TripForRider(riderID int64) (*Trip, bool) {
	r, ok := w.riders[riderID]
	if !ok || r.AssignedTripID == 0 {
		return nil, false
	}
	return w.Trip(r.AssignedTripID)
}

func sortDriversByID(ds []*Driver) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
}

func sortRidersByID(rs []*Rider) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}

// Package movement implements the per-hop driver/rider position update
// during a trip's EnRoute and OnTrip phases (spec.md §4.10).
package movement

import (
	"turbodriver/internal/geohex"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/simrand"
	"turbodriver/internal/world"
)

const msPerHour = 3_600_000.0

// MoveStep handles the MoveStep event, branching on the trip's state.
func MoveStep(c *simctx.Ctx, tripID int64) bool {
	t, ok := c.World.Trip(tripID)
	if !ok {
		return false
	}
	switch t.State {
	case world.TripEnRoute:
		return moveEnRoute(c, t)
	case world.TripOnTrip:
		return moveOnTrip(c, t)
	default:
		return false
	}
}

func sampleSpeedKMH(c *simctx.Ctx, t *world.Trip) float64 {
	seed := simrand.VehicleSpeedSeed(c.SpeedModelSeed(), t.ID, t.LiveData.StepCount)
	t.LiveData.StepCount++
	return simrand.Uniform(seed, c.Config.MinKMH, c.Config.MaxKMH)
}

func hopMS(hopKM, speedKMH float64) int64 {
	ms := int64(hopKM / speedKMH * msPerHour)
	if ms < 1000 {
		ms = 1000
	}
	return ms
}

func moveEnRoute(c *simctx.Ctx, t *world.Trip) bool {
	d, ok := c.World.Driver(t.DriverID)
	if !ok || d.State != world.DriverEnRoute {
		return false
	}

	prevCell := d.Cell
	d.Cell = geohex.StepToward(d.Cell, t.Pickup)
	hopKM := c.Index.HaversineKM(prevCell, d.Cell)
	speed := sampleSpeedKMH(c, t)

	remainingKM := c.Index.HaversineKM(d.Cell, t.Pickup)
	etaMS := int64(remainingKM / speed * msPerHour)
	if etaMS < 1000 {
		etaMS = 1000
	}
	t.LiveData.PickupEtaMS = etaMS
	c.Clock.ScheduleIn(0, simclock.PickupEtaUpdated, simclock.TripSubject(t.ID))

	if d.Cell != t.Pickup {
		c.Clock.ScheduleIn(hopMS(hopKM, speed), simclock.MoveStep, simclock.TripSubject(t.ID))
		return true
	}
	c.Clock.ScheduleIn(1000, simclock.TripStarted, simclock.TripSubject(t.ID))
	return true
}

func moveOnTrip(c *simctx.Ctx, t *world.Trip) bool {
	d, ok := c.World.Driver(t.DriverID)
	if !ok || d.State != world.DriverOnTrip {
		return false
	}
	r, ok := c.World.Rider(t.RiderID)
	if !ok {
		return false
	}

	prevCell := d.Cell
	d.Cell = geohex.StepToward(d.Cell, t.Dropoff)
	r.Cell = d.Cell // the rider is in the vehicle
	hopKM := c.Index.HaversineKM(prevCell, d.Cell)
	speed := sampleSpeedKMH(c, t)

	if d.Cell != t.Dropoff {
		c.Clock.ScheduleIn(hopMS(hopKM, speed), simclock.MoveStep, simclock.TripSubject(t.ID))
		return true
	}
	c.Clock.ScheduleIn(1000, simclock.TripCompleted, simclock.TripSubject(t.ID))
	return true
}

// Package triplife implements the trip state machine once a driver has
// accepted a match: TripStarted, TripCompleted, the pickup-ETA patience
// check, rider cancellation, and the periodic driver off-duty scan
// (spec.md §4.11, §4.12).
package triplife

import (
	"turbodriver/internal/pricing"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/telemetry"
	"turbodriver/internal/world"
)

const checkOffDutyIntervalMS = 5 * 60 * 1000

// TripStarted handles the TripStarted event: the driver has reached the
// rider's pickup cell.
func TripStarted(c *simctx.Ctx, tripID int64) bool {
	t, ok := c.World.Trip(tripID)
	if !ok || t.State != world.TripEnRoute {
		return false
	}
	r, ok := c.World.Rider(t.RiderID)
	if !ok || r.State != world.RiderWaiting || r.MatchedDriverID != t.DriverID {
		return false
	}
	d, ok := c.World.Driver(t.DriverID)
	if !ok || d.Cell != r.Cell {
		return false
	}

	c.World.SetRiderState(r.ID, world.RiderInTransit)
	c.World.SetDriverState(d.ID, world.DriverOnTrip)
	c.World.SetTripState(t.ID, world.TripOnTrip)
	t.Timing.HasPickupAt = true
	t.Timing.PickupAtMS = c.Now()

	c.Clock.ScheduleIn(1000, simclock.MoveStep, simclock.TripSubject(t.ID))
	return true
}

// TripCompleted handles the TripCompleted event: the driver has reached
// the dropoff cell.
func TripCompleted(c *simctx.Ctx, tripID int64) bool {
	t, ok := c.World.Trip(tripID)
	if !ok || t.State != world.TripOnTrip {
		return false
	}
	d, ok := c.World.Driver(t.DriverID)
	if !ok {
		return false
	}
	r, ok := c.World.Rider(t.RiderID)

	fare := t.Financials.AgreedFare
	if !t.Financials.HasAgreedFare {
		distanceKM := c.Index.HaversineKM(t.Pickup, t.Dropoff)
		model := pricing.Model{BaseFare: c.Config.BaseFare, PerKMRate: c.Config.PerKMRate, CommissionPct: c.Config.CommissionRate}
		fare = model.BaseFareFor(distanceKM)
	}
	model := pricing.Model{CommissionPct: c.Config.CommissionRate}
	commission, driverNet := model.Split(fare)

	d.Earnings.Accrued += driverNet
	c.Telemetry.AddRevenue(commission, fare)

	c.World.SetDriverState(d.ID, world.DriverIdle)
	d.MatchedRiderID = 0
	d.AssignedTripID = 0
	c.Clock.ScheduleIn(0, simclock.CheckDriverOffDuty, simclock.NoSubject())

	t.Timing.HasDropoffAt = true
	t.Timing.DropoffAtMS = c.Now()
	c.World.SetTripState(t.ID, world.TripCompleted)

	surgeDistanceKM := c.Index.HaversineKM(t.Pickup, t.Dropoff)
	baseFare := pricing.Model{BaseFare: c.Config.BaseFare, PerKMRate: c.Config.PerKMRate}.BaseFareFor(surgeDistanceKM)

	c.Telemetry.RecordCompletedTrip(telemetry.CompletedTripRecord{
		TripID:                   t.ID,
		RiderID:                  t.RiderID,
		DriverID:                 t.DriverID,
		RequestedAtMS:            t.Timing.RequestedAtMS,
		MatchedAtMS:              t.Timing.MatchedAtMS,
		PickupAtMS:               t.Timing.PickupAtMS,
		DropoffAtMS:              t.Timing.DropoffAtMS,
		Fare:                     fare,
		SurgeImpact:              fare - baseFare,
		PickupDistanceKMAtAccept: t.Financials.PickupDistanceKMAtAccept,
	})

	if ok {
		c.World.SetRiderState(r.ID, world.RiderCompleted)
		r.MatchedDriverID = 0
		r.AssignedTripID = 0
		c.World.DespawnRider(r.ID)
	}
	return true
}

// PickupEtaUpdated handles the PickupEtaUpdated event: a read-only
// patience check that fires a cancel once the projected pickup time would
// exceed the rider's sampled cancel deadline.
func PickupEtaUpdated(c *simctx.Ctx, tripID int64) bool {
	t, ok := c.World.Trip(tripID)
	if !ok || t.State != world.TripEnRoute {
		return false
	}
	r, ok := c.World.Rider(t.RiderID)
	if !ok || r.State != world.RiderWaiting {
		return false
	}
	if c.Now()+t.LiveData.PickupEtaMS > r.CancelDeadlineMS {
		c.Clock.ScheduleIn(0, simclock.RiderCancel, simclock.RiderSubject(r.ID))
	}
	return true
}

// RiderCancel handles the RiderCancel event.
func RiderCancel(c *simctx.Ctx, riderID int64) bool {
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderWaiting {
		return false
	}

	c.World.SetRiderState(riderID, world.RiderCancelled)
	pickupTimeout := r.AssignedTripID != 0
	c.Telemetry.RecordCancelled(pickupTimeout)

	if r.AssignedTripID != 0 {
		t := c.World.MustTrip(r.AssignedTripID)
		c.World.SetTripState(t.ID, world.TripCancelled)
		t.Timing.HasCancelledAt = true
		t.Timing.CancelledAtMS = c.Now()

		if d, ok := c.World.Driver(t.DriverID); ok {
			c.World.SetDriverState(d.ID, world.DriverIdle)
			d.MatchedRiderID = 0
			d.AssignedTripID = 0
		}
	} else if r.MatchedDriverID != 0 {
		if d, ok := c.World.Driver(r.MatchedDriverID); ok {
			c.World.SetDriverState(d.ID, world.DriverIdle)
			d.MatchedRiderID = 0
		}
	}

	c.World.DespawnRider(riderID)
	return true
}

// CheckDriverOffDuty handles the periodic off-duty scan (spec.md §4.12).
func CheckDriverOffDuty(c *simctx.Ctx) bool {
	for _, d := range c.World.AllDrivers() {
		if d.State == world.DriverOffDuty {
			continue
		}
		sessionElapsed := c.Now() - d.Earnings.SessionStartMS
		if d.Earnings.Accrued >= d.Earnings.Target || sessionElapsed >= d.Fatigue.ThresholdMS {
			c.World.SetDriverState(d.ID, world.DriverOffDuty)
			d.Earnings.HasSessionEnd = true
			d.Earnings.SessionEndMS = c.Now()
		}
	}
	c.Clock.ScheduleIn(checkOffDutyIntervalMS, simclock.CheckDriverOffDuty, simclock.NoSubject())
	return true
}

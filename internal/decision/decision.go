// Package decision implements the driver's accept/reject evaluation of a
// proposed match: a logit-scored Bernoulli draw over fare, distance,
// earnings progress and fatigue (spec.md §4.9).
package decision

import (
	"math"

	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/simrand"
	"turbodriver/internal/world"
)

// DriverDecision handles the DriverDecision event.
func DriverDecision(c *simctx.Ctx, driverID int64) bool {
	d, ok := c.World.Driver(driverID)
	if !ok || d.State != world.DriverEvaluating {
		return false
	}
	r, ok := c.World.Rider(d.MatchedRiderID)
	if !ok {
		return false
	}
	cfg := c.Config

	pickupKM := c.Index.HaversineKM(d.Cell, r.Cell)
	tripKM := 0.0
	if r.HasDest {
		tripKM = c.Index.HaversineKM(r.Cell, r.Dest)
	}
	sessionElapsed := float64(c.Now()-d.Earnings.SessionStartMS)
	fatigueRatio := 0.0
	if d.Fatigue.ThresholdMS > 0 {
		fatigueRatio = sessionElapsed / float64(d.Fatigue.ThresholdMS)
	}
	earningsProgress := 0.0
	if d.Earnings.Target > 0 {
		earningsProgress = d.Earnings.Accrued / d.Earnings.Target
	}

	score := cfg.DecisionBase +
		cfg.FareWeight*r.AcceptedFare +
		cfg.PickupDistancePenalty*pickupKM +
		cfg.TripDistanceBonus*tripKM +
		cfg.EarningsProgressWeight*earningsProgress +
		cfg.FatiguePenalty*fatigueRatio

	pAccept := 1.0 / (1.0 + math.Exp(-score))
	seed := simrand.DriverDecisionSeed(c.DecisionCfgSeed(), driverID)

	if !r.HasDest {
		// Configuration error (spec.md §7): a rider without a destination
		// reaching DriverDecision cannot be honored. The driver rejects and
		// the rider is cleaned up through normal cancellation.
		reject(c, d, r)
		return true
	}

	if simrand.Bernoulli(seed, pAccept) {
		accept(c, d, r, pickupKM)
	} else {
		reject(c, d, r)
	}
	return true
}

func accept(c *simctx.Ctx, d *world.Driver, r *world.Rider, pickupKM float64) {
	c.World.SetDriverState(d.ID, world.DriverEnRoute)
	t := c.World.SpawnTrip(r.ID, d.ID, r.Cell, r.Dest, r.FirstSeenMS, c.Now())
	t.Financials.HasAgreedFare = true
	t.Financials.AgreedFare = r.AcceptedFare
	t.Financials.PickupDistanceKMAtAccept = pickupKM
	r.AssignedTripID = t.ID
	c.Clock.ScheduleIn(1000, simclock.MoveStep, simclock.TripSubject(t.ID))
}

func reject(c *simctx.Ctx, d *world.Driver, r *world.Rider) {
	c.World.SetDriverState(d.ID, world.DriverIdle)
	d.MatchedRiderID = 0
	c.Clock.ScheduleIn(0, simclock.MatchRejected, simclock.RiderSubject(r.ID))
}

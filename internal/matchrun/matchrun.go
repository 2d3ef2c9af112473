// Package matchrun wires the matching algorithms (internal/matching) into
// event handlers: TryMatch (per-request), BatchMatchRun (batch),
// MatchAccepted and MatchRejected (spec.md §4.8).
package matchrun

import (
	"turbodriver/internal/geohex"
	"turbodriver/internal/matching"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/world"
)

// TryMatch handles the TryMatch event. Active only when batch matching is
// disabled (spec.md §4.8); if it is enabled this is a configuration no-op.
func TryMatch(c *simctx.Ctx, riderID int64) bool {
	if c.Config.BatchMatchingEnabled {
		return false
	}
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderWaiting || r.MatchedDriverID != 0 {
		return false
	}

	candidates := matching.Candidates(c.Index, matching.Rider{RiderID: r.ID, Cell: r.Cell}, allIdleCandidates(c), c.Config.MatchRadius)
	m := matching.New(c.Config.Algorithm)
	d, found := m.FindMatch(c.Index, matching.Rider{RiderID: r.ID, Cell: r.Cell}, candidates, c.Config.EtaWeight)
	if !found {
		c.Clock.ScheduleIn(30_000, simclock.TryMatch, simclock.RiderSubject(riderID))
		return true
	}
	applyMatch(c, r.ID, d.DriverID)
	return true
}

// BatchMatchRun handles the periodic BatchMatchRun event. Active only when
// batch matching is enabled. Pairings returned by the solver whose rider
// and driver are more than MatchRadius grid cells apart are discarded; that
// rider stays Waiting for the next run.
func BatchMatchRun(c *simctx.Ctx) bool {
	if !c.Config.BatchMatchingEnabled {
		return false
	}

	waiting := c.World.WaitingRiders()
	riders := make([]matching.Rider, 0, len(waiting))
	for _, r := range waiting {
		if r.MatchedDriverID == 0 {
			riders = append(riders, matching.Rider{RiderID: r.ID, Cell: r.Cell})
		}
	}
	drivers := allIdleCandidates(c)
	riderCells := make(map[int64]geohex.Cell, len(riders))
	for _, r := range riders {
		riderCells[r.RiderID] = r.Cell
	}
	driverCells := make(map[int64]geohex.Cell, len(drivers))
	for _, d := range drivers {
		driverCells[d.DriverID] = d.Cell
	}

	m := matching.New(c.Config.Algorithm)
	pairings := m.FindBatchMatches(c.Index, riders, drivers, c.Config.EtaWeight)
	for _, p := range pairings {
		if c.Index.GridDistance(riderCells[p.RiderID], driverCells[p.DriverID]) > c.Config.MatchRadius {
			continue
		}
		applyMatch(c, p.RiderID, p.DriverID)
	}

	c.Clock.ScheduleIn(c.Config.BatchIntervalSecs*1000, simclock.BatchMatchRun, simclock.NoSubject())
	return true
}

// applyMatch binds rider and driver and moves the driver Idle -> Evaluating
// (spec.md §4.8), scheduling MatchAccepted at now+1s.
func applyMatch(c *simctx.Ctx, riderID, driverID int64) {
	r := c.World.MustRider(riderID)
	d := c.World.MustDriver(driverID)

	r.MatchedDriverID = driverID
	d.MatchedRiderID = riderID
	c.World.SetDriverState(driverID, world.DriverEvaluating)

	c.Clock.ScheduleIn(1000, simclock.MatchAccepted, simclock.DriverSubject(driverID))
}

// MatchAccepted handles the MatchAccepted event: the driver has been
// notified of a proposed match and now evaluates it (spec.md §4.9 runs as
// the DriverDecision handler immediately after).
func MatchAccepted(c *simctx.Ctx, driverID int64) bool {
	d, ok := c.World.Driver(driverID)
	if !ok || d.State != world.DriverEvaluating {
		return false
	}
	c.Clock.ScheduleIn(0, simclock.DriverDecision, simclock.DriverSubject(driverID))
	return true
}

// MatchRejected handles the MatchRejected event, fired when a driver
// declines a proposed match (spec.md §4.9).
func MatchRejected(c *simctx.Ctx, riderID int64) bool {
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderWaiting {
		return false
	}
	r.MatchedDriverID = 0
	if !c.Config.BatchMatchingEnabled {
		c.Clock.ScheduleIn(30_000, simclock.TryMatch, simclock.RiderSubject(riderID))
	}
	return true
}

func allIdleCandidates(c *simctx.Ctx) []matching.Candidate {
	idle := c.World.IdleDrivers()
	out := make([]matching.Candidate, 0, len(idle))
	for _, d := range idle {
		out = append(out, matching.Candidate{DriverID: d.ID, Cell: d.Cell})
	}
	return out
}

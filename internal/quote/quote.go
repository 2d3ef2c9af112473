// Package quote implements the rider quote funnel: ShowQuote, QuoteDecision,
// QuoteAccepted and QuoteRejected (spec.md §4.7).
package quote

import (
	"turbodriver/internal/pricing"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/simrand"
	"turbodriver/internal/world"

	"turbodriver/internal/geohex"
)

// nominalSpeedKMH converts the distance to the nearest Idle driver found
// within the wide lookup radius into an ETA estimate.
const nominalSpeedKMH = 30.0

// noDriverEtaMS is the ETA attached to a quote when no Idle driver exists
// anywhere in the wide lookup radius (spec.md §4.7).
const noDriverEtaMS = 300_000

// wideEtaRadiusCells bounds the search for a nearest Idle driver when
// estimating a quote's ETA.
const wideEtaRadiusCells = 50

// ShowQuote handles the ShowQuote event. Precondition: rider must be
// Browsing; a precondition failure is a silent no-op (spec.md §7).
func ShowQuote(c *simctx.Ctx, riderID int64) bool {
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderBrowsing {
		return false
	}
	model := pricingModel(c)

	demandD, supplyS := surgeCounts(c, r.Cell)
	distanceKM := 0.0
	if r.HasDest {
		distanceKM = c.Index.HaversineKM(r.Cell, r.Dest)
	}
	fare := model.Fare(distanceKM, demandD, supplyS)
	etaMS := nearestDriverEtaMS(c, r.Cell)

	r.Quote = &world.Quote{Fare: fare, EtaMS: etaMS}
	c.Clock.ScheduleIn(1000, simclock.QuoteDecision, simclock.RiderSubject(riderID))
	return true
}

// QuoteDecision handles the QuoteDecision event.
func QuoteDecision(c *simctx.Ctx, riderID int64) bool {
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderBrowsing || r.Quote == nil {
		return false
	}
	cfg := c.Config

	if r.Quote.Fare > cfg.MaxWillingnessToPay {
		r.LastReject = world.RejectPriceTooHigh
		c.Clock.ScheduleIn(0, simclock.QuoteRejected, simclock.RiderSubject(riderID))
		return true
	}
	if r.Quote.EtaMS > cfg.MaxAcceptableEtaMS {
		r.LastReject = world.RejectEtaTooLong
		c.Clock.ScheduleIn(0, simclock.QuoteRejected, simclock.RiderSubject(riderID))
		return true
	}

	seed := simrand.RiderQuoteDecisionSeed(c.QuoteCfgSeed(), riderID)
	if simrand.Bernoulli(seed, cfg.AcceptProbability) {
		c.Clock.ScheduleIn(0, simclock.QuoteAccepted, simclock.RiderSubject(riderID))
	} else {
		r.LastReject = world.RejectStochastic
		c.Clock.ScheduleIn(0, simclock.QuoteRejected, simclock.RiderSubject(riderID))
	}
	return true
}

// QuoteAccepted handles the QuoteAccepted event.
func QuoteAccepted(c *simctx.Ctx, riderID int64) bool {
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderBrowsing || r.Quote == nil {
		return false
	}
	cfg := c.Config

	r.HasAcceptedFare = true
	r.AcceptedFare = r.Quote.Fare
	r.Quote = nil
	c.World.SetRiderState(riderID, world.RiderWaiting)

	if !cfg.BatchMatchingEnabled {
		c.Clock.ScheduleIn(1000, simclock.TryMatch, simclock.RiderSubject(riderID))
	}

	seed := simrand.RiderCancelSampleSeed(c.CancelCfgSeed(), riderID)
	waitSec := simrand.Uniform(seed, float64(cfg.MinWaitSecs), float64(cfg.MaxWaitSecs))
	waitMS := int64(waitSec * 1000)
	r.CancelDeadlineMS = c.Now() + waitMS
	c.Clock.ScheduleIn(waitMS, simclock.RiderCancel, simclock.RiderSubject(riderID))
	return true
}

// QuoteRejected handles the QuoteRejected event.
func QuoteRejected(c *simctx.Ctx, riderID int64) bool {
	r, ok := c.World.Rider(riderID)
	if !ok || r.State != world.RiderBrowsing {
		return false
	}
	cfg := c.Config

	r.QuoteRejections++
	if r.QuoteRejections <= cfg.MaxQuoteRejections {
		c.Clock.ScheduleIn(cfg.ReQuoteDelaySecs*1000, simclock.ShowQuote, simclock.RiderSubject(riderID))
		return true
	}

	c.World.SetRiderState(riderID, world.RiderCancelled)
	c.Telemetry.RecordAbandoned(r.LastReject)
	c.World.DespawnRider(riderID)
	return true
}

func pricingModel(c *simctx.Ctx) pricing.Model {
	cfg := c.Config
	return pricing.Model{
		BaseFare:           cfg.BaseFare,
		PerKMRate:          cfg.PerKMRate,
		CommissionPct:      cfg.CommissionRate,
		SurgeEnabled:       cfg.SurgeEnabled,
		SurgeRadiusK:       cfg.SurgeRadiusK,
		SurgeMaxMultiplier: cfg.SurgeMaxMultiplier,
	}
}

// surgeCounts computes D (riders Browsing or Waiting) and S (Idle drivers)
// within surge_radius_k of cell (spec.md §4.6).
func surgeCounts(c *simctx.Ctx, cell geohex.Cell) (demandD, supplyS int) {
	disk := c.Index.GridDisk(cell, c.Config.SurgeRadiusK)
	inDisk := make(map[geohex.Cell]bool, len(disk))
	for _, cl := range disk {
		inDisk[cl] = true
	}
	for _, r := range c.World.AllRidersBrowsingOrWaiting() {
		if inDisk[r.Cell] {
			demandD++
		}
	}
	for _, d := range c.World.IdleDrivers() {
		if inDisk[d.Cell] {
			supplyS++
		}
	}
	return demandD, supplyS
}

// nearestDriverEtaMS estimates pickup ETA from the nearest Idle driver
// within a wide radius, falling back to a fixed default if none exists.
func nearestDriverEtaMS(c *simctx.Ctx, riderCell geohex.Cell) int64 {
	disk := c.Index.GridDisk(riderCell, wideEtaRadiusCells)
	inDisk := make(map[geohex.Cell]bool, len(disk))
	for _, cl := range disk {
		inDisk[cl] = true
	}
	best := -1.0
	for _, d := range c.World.IdleDrivers() {
		if !inDisk[d.Cell] {
			continue
		}
		km := c.Index.HaversineKM(riderCell, d.Cell)
		if best < 0 || km < best {
			best = km
		}
	}
	if best < 0 {
		return noDriverEtaMS
	}
	etaMS := int64(best / nominalSpeedKMH * 3_600_000)
	if etaMS < 1000 {
		etaMS = 1000
	}
	return etaMS
}

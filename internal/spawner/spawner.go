// Package spawner converts inter-arrival draws into rider and driver
// creation events (spec.md §4.5). The engine owns one Spawners value per
// run and passes it explicitly into each handler call.
package spawner

import (
	"turbodriver/internal/geohex"
	"turbodriver/internal/scenario"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/simrand"
	"turbodriver/internal/world"
)

// RiderSpawnerState tracks one run's rider-arrival process.
type RiderSpawnerState struct {
	NextSpawnTimeMS int64
	SpawnedCount    int64
	InitialCount    int
	MaxCount        int
	MinTripCells    int
	MaxTripCells    int
}

// DriverSpawnerState tracks one run's driver-arrival process.
type DriverSpawnerState struct {
	NextSpawnTimeMS int64
	SpawnedCount    int64
	InitialCount    int
	MaxCount        int
}

// Spawners bundles both arrival processes for a run.
type Spawners struct {
	Rider  RiderSpawnerState
	Driver DriverSpawnerState
}

// NewFromConfig seeds both spawners' bounds from the scenario config.
func NewFromConfig(cfg scenario.Config) Spawners {
	return Spawners{
		Rider: RiderSpawnerState{
			InitialCount: cfg.InitialRiderCount,
			MaxCount:     cfg.NumRiders,
			MinTripCells: cfg.MinTripCells,
			MaxTripCells: cfg.MaxTripCells,
		},
		Driver: DriverSpawnerState{
			InitialCount: cfg.InitialDriverCount,
			MaxCount:     cfg.NumDrivers,
		},
	}
}

// SimulationStarted handles the SimulationStarted event: spawns the
// initial populations, schedules the first SpawnRider/SpawnDriver events,
// and (if enabled) the first BatchMatchRun, plus the first
// CheckDriverOffDuty (spec.md §4.5).
func SimulationStarted(c *simctx.Ctx, s *Spawners) bool {
	for i := 0; i < s.Rider.InitialCount; i++ {
		spawnOneRider(c, s)
	}
	for i := 0; i < s.Driver.InitialCount; i++ {
		spawnOneDriver(c, s)
	}

	c.Clock.ScheduleIn(0, simclock.SpawnRider, simclock.NoSubject())
	c.Clock.ScheduleIn(0, simclock.SpawnDriver, simclock.NoSubject())
	if c.Config.BatchMatchingEnabled {
		c.Clock.ScheduleIn(0, simclock.BatchMatchRun, simclock.NoSubject())
	}
	c.Clock.ScheduleIn(0, simclock.CheckDriverOffDuty, simclock.NoSubject())
	return true
}

func shouldSpawnRider(c *simctx.Ctx, s *Spawners) bool {
	if c.Config.RequestWindowMS > 0 && c.Now() > c.Config.RequestWindowMS {
		return false
	}
	if s.Rider.MaxCount > 0 && int(s.Rider.SpawnedCount) >= s.Rider.MaxCount {
		return false
	}
	return true
}

func shouldSpawnDriver(c *simctx.Ctx, s *Spawners) bool {
	if c.Config.DriverSpreadMS > 0 && c.Now() > c.Config.DriverSpreadMS {
		return false
	}
	if s.Driver.MaxCount > 0 && int(s.Driver.SpawnedCount) >= s.Driver.MaxCount {
		return false
	}
	return true
}

// SpawnRider handles the SpawnRider event.
func SpawnRider(c *simctx.Ctx, s *Spawners) bool {
	if shouldSpawnRider(c, s) {
		spawnOneRider(c, s)
	}
	rate := effectiveRiderRate(c, s)
	delta := simrand.ExponentialDeltaMS(simrand.RiderSpawnSeed(c.ScenarioSeed, c.Now(), s.Rider.SpawnedCount), rate)
	s.Rider.NextSpawnTimeMS = c.Now() + delta
	c.Clock.ScheduleIn(delta, simclock.SpawnRider, simclock.NoSubject())
	return true
}

// SpawnDriver handles the SpawnDriver event.
func SpawnDriver(c *simctx.Ctx, s *Spawners) bool {
	if shouldSpawnDriver(c, s) {
		spawnOneDriver(c, s)
	}
	rate := effectiveDriverRate(c, s)
	delta := simrand.ExponentialDeltaMS(simrand.DriverSpawnSeed(c.ScenarioSeed, c.Now(), s.Driver.SpawnedCount), rate)
	s.Driver.NextSpawnTimeMS = c.Now() + delta
	c.Clock.ScheduleIn(delta, simclock.SpawnDriver, simclock.NoSubject())
	return true
}

func effectiveRiderRate(c *simctx.Ctx, s *Spawners) float64 {
	windowSec := float64(c.Config.RequestWindowMS) / 1000
	base := simrand.BaseRate(s.Rider.MaxCount, windowSec, simrand.RiderAvgMult)
	hour, weekday := simrand.HourAndWeekday(c.Config.EpochMS, c.Now())
	return base * simrand.TimeOfDayMultiplier(hour, weekday)
}

func effectiveDriverRate(c *simctx.Ctx, s *Spawners) float64 {
	windowSec := float64(c.Config.DriverSpreadMS) / 1000
	base := simrand.BaseRate(s.Driver.MaxCount, windowSec, simrand.DriverAvgMult)
	hour, weekday := simrand.HourAndWeekday(c.Config.EpochMS, c.Now())
	return base * simrand.TimeOfDayMultiplier(hour, weekday)
}

func spawnOneRider(c *simctx.Ctx, s *Spawners) {
	cell := randomCellInBounds(c, simrand.RiderSpawnSeed(c.ScenarioSeed, c.Now(), s.Rider.SpawnedCount))
	dest := pickDestination(c, cell, s.Rider.MinTripCells, s.Rider.MaxTripCells, s.Rider.SpawnedCount)

	r := c.World.SpawnRider(cell, c.Now())
	r.HasDest = true
	r.Dest = dest
	c.Clock.ScheduleIn(1000, simclock.ShowQuote, simclock.RiderSubject(r.ID))
	s.Rider.SpawnedCount++
}

func spawnOneDriver(c *simctx.Ctx, s *Spawners) {
	cell := randomCellInBounds(c, simrand.DriverSpawnSeed(c.ScenarioSeed, c.Now(), s.Driver.SpawnedCount))
	targetSeed := simrand.DriverEarningsTargetSeed(c.ScenarioSeed, s.Driver.SpawnedCount+1)
	fatigueSeed := simrand.DriverFatigueThresholdSeed(c.ScenarioSeed, s.Driver.SpawnedCount+1)

	target := simrand.Uniform(targetSeed, 100, 300)
	fatigueHours := simrand.Uniform(fatigueSeed, 8, 12)

	c.World.SpawnDriver(cell,
		world.Earnings{Target: target, SessionStartMS: c.Now()},
		world.Fatigue{ThresholdMS: int64(fatigueHours * 3_600_000)},
	)
	s.Driver.SpawnedCount++
}

func randomCellInBounds(c *simctx.Ctx, seed int64) geohex.Cell {
	lat := simrand.Uniform(seed, c.Config.LatMin, c.Config.LatMax)
	lng := simrand.Uniform(seed+1, c.Config.LngMin, c.Config.LngMax)
	return geohex.CellAt(lat, lng)
}

const smallDiskThreshold = 20
const rejectionSampleAttempts = 64

// pickDestination samples a cell at grid distance in [min,max] from
// pickup (spec.md §4.5). For small max it enumerates grid_disk(max) and
// filters by the distance band; for larger max it rejection-samples
// within the scenario's geographic bounds, falling back to the small-max
// enumeration with max capped at smallDiskThreshold (a random cell at
// distance [min, 20], or pickup if none qualifies) if sampling never lands
// in band.
func pickDestination(c *simctx.Ctx, pickup geohex.Cell, minCells, maxCells int, spawnCount int64) geohex.Cell {
	if maxCells <= 0 {
		return pickup
	}
	if maxCells <= smallDiskThreshold {
		disk := c.Index.GridDisk(pickup, maxCells)
		var candidates []geohex.Cell
		for _, cell := range disk {
			d := c.Index.GridDistance(pickup, cell)
			if d >= minCells && d <= maxCells {
				candidates = append(candidates, cell)
			}
		}
		if len(candidates) == 0 {
			return pickup
		}
		idx := int(simrand.Uniform(c.ScenarioSeed+spawnCount, 0, float64(len(candidates))))
		if idx >= len(candidates) {
			idx = len(candidates) - 1
		}
		return candidates[idx]
	}

	for attempt := 0; attempt < rejectionSampleAttempts; attempt++ {
		seed := c.ScenarioSeed + spawnCount*97 + int64(attempt)
		lat := simrand.Uniform(seed, c.Config.LatMin, c.Config.LatMax)
		lng := simrand.Uniform(seed+1, c.Config.LngMin, c.Config.LngMax)
		cand := geohex.CellAt(lat, lng)
		d := c.Index.GridDistance(pickup, cand)
		if d >= minCells && d <= maxCells {
			return cand
		}
	}
	return pickDestination(c, pickup, minCells, smallDiskThreshold, spawnCount)
}

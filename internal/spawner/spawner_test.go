package spawner

import (
	"testing"

	"turbodriver/internal/geohex"
	"turbodriver/internal/scenario"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/telemetry"
	"turbodriver/internal/world"
)

func newCtx(cfg scenario.Config) *simctx.Ctx {
	return &simctx.Ctx{
		World:        world.New(),
		Index:        geohex.NewIndex(),
		Clock:        simclock.NewClock(cfg.EpochMS),
		Telemetry:    telemetry.NewCollector(10),
		Config:       cfg,
		ScenarioSeed: 11,
	}
}

func TestSimulationStartedSpawnsInitialPopulations(t *testing.T) {
	cfg := scenario.Default()
	cfg.InitialRiderCount = 3
	cfg.InitialDriverCount = 2
	cfg.BatchMatchingEnabled = false
	c := newCtx(cfg)
	s := NewFromConfig(cfg)

	SimulationStarted(c, &s)

	if c.World.RiderCount() != 3 {
		t.Fatalf("RiderCount = %d, want 3", c.World.RiderCount())
	}
	if c.World.DriverCount() != 2 {
		t.Fatalf("DriverCount = %d, want 2", c.World.DriverCount())
	}
	if s.Rider.SpawnedCount != 3 {
		t.Fatalf("Rider.SpawnedCount = %d, want 3", s.Rider.SpawnedCount)
	}
	if s.Driver.SpawnedCount != 2 {
		t.Fatalf("Driver.SpawnedCount = %d, want 2", s.Driver.SpawnedCount)
	}
}

func TestSimulationStartedSchedulesBatchMatchRunOnlyWhenEnabled(t *testing.T) {
	cfg := scenario.Default()
	cfg.InitialRiderCount, cfg.InitialDriverCount = 0, 0
	cfg.BatchMatchingEnabled = true
	c := newCtx(cfg)
	s := NewFromConfig(cfg)

	SimulationStarted(c, &s)

	found := false
	for c.Clock.PendingCount() > 0 {
		ev, _ := c.Clock.Pop()
		if ev.Kind == simclock.BatchMatchRun {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected BatchMatchRun scheduled when BatchMatchingEnabled")
	}
}

func TestSpawnRiderStopsAfterRequestWindowCloses(t *testing.T) {
	cfg := scenario.Default()
	cfg.RequestWindowMS = 1000
	c := newCtx(cfg)
	s := NewFromConfig(cfg)

	// advance clock past the window
	c.Clock.ScheduleAt(2000, simclock.SimulationStarted, simclock.NoSubject())
	c.Clock.Pop()

	SpawnRider(c, &s)
	if c.World.RiderCount() != 0 {
		t.Fatalf("expected no rider spawned once request window has closed")
	}
}

func TestSpawnRiderStopsAtMaxCount(t *testing.T) {
	cfg := scenario.Default()
	cfg.NumRiders = 1
	c := newCtx(cfg)
	s := NewFromConfig(cfg)
	s.Rider.MaxCount = 1
	s.Rider.SpawnedCount = 1

	SpawnRider(c, &s)
	if c.World.RiderCount() != 0 {
		t.Fatalf("expected no additional rider spawned once MaxCount reached")
	}
}

func TestSpawnDriverStopsAtMaxCount(t *testing.T) {
	cfg := scenario.Default()
	c := newCtx(cfg)
	s := NewFromConfig(cfg)
	s.Driver.MaxCount = 1
	s.Driver.SpawnedCount = 1

	SpawnDriver(c, &s)
	if c.World.DriverCount() != 0 {
		t.Fatalf("expected no additional driver spawned once MaxCount reached")
	}
}

func TestSpawnOneRiderAssignsDestinationWithinTripCellBounds(t *testing.T) {
	cfg := scenario.Default()
	cfg.MinTripCells, cfg.MaxTripCells = 2, 5
	c := newCtx(cfg)
	s := NewFromConfig(cfg)

	spawnOneRider(c, &s)

	riders := c.World.AllRidersBrowsingOrWaiting()
	if len(riders) != 1 {
		t.Fatalf("expected exactly one spawned rider, got %d", len(riders))
	}
	r := riders[0]
	if !r.HasDest {
		t.Fatalf("expected destination assigned")
	}
	d := c.Index.GridDistance(r.Cell, r.Dest)
	if d < cfg.MinTripCells || d > cfg.MaxTripCells {
		t.Fatalf("destination distance = %d, want within [%d,%d]", d, cfg.MinTripCells, cfg.MaxTripCells)
	}
}

func TestPickDestinationZeroMaxCellsReturnsPickup(t *testing.T) {
	cfg := scenario.Default()
	c := newCtx(cfg)
	pickup := geohex.CellAt(37.75, -122.42)

	dest := pickDestination(c, pickup, 0, 0, 0)
	if dest != pickup {
		t.Fatalf("expected destination to equal pickup when MaxTripCells is 0")
	}
}

func TestSpawnOneDriverSetsEarningsTargetAndFatigueThreshold(t *testing.T) {
	cfg := scenario.Default()
	c := newCtx(cfg)
	s := NewFromConfig(cfg)

	spawnOneDriver(c, &s)

	drivers := c.World.AllDrivers()
	if len(drivers) != 1 {
		t.Fatalf("expected exactly one spawned driver, got %d", len(drivers))
	}
	d := drivers[0]
	if d.Earnings.Target < 100 || d.Earnings.Target > 300 {
		t.Fatalf("Earnings.Target = %f, want within [100,300]", d.Earnings.Target)
	}
	if d.Fatigue.ThresholdMS < 8*3_600_000 || d.Fatigue.ThresholdMS > 12*3_600_000 {
		t.Fatalf("Fatigue.ThresholdMS = %d, want within [8h,12h]", d.Fatigue.ThresholdMS)
	}
}

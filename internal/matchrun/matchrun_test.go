package matchrun

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
		ScenarioSeed: 5,
	}
}

func TestTryMatchNoopWhenBatchModeEnabled(t *testing.T) {
	cfg := scenario.Default()
	cfg.BatchMatchingEnabled = true
	c := newCtx(cfg)
	cell := geohex.CellAt(37.75, -122.42)
	r := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r.ID, world.RiderWaiting)

	if TryMatch(c, r.ID) {
		t.Fatalf("expected TryMatch to be a no-op when batch matching is enabled")
	}
}

func TestTryMatchFindsNearbyIdleDriverAndSchedulesMatchAccepted(t *testing.T) {
	cfg := scenario.Default()
	cfg.BatchMatchingEnabled = false
	c := newCtx(cfg)
	cell := geohex.CellAt(37.75, -122.42)
	r := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r.ID, world.RiderWaiting)
	d := c.World.SpawnDriver(cell, world.Earnings{}, world.Fatigue{})

	if !TryMatch(c, r.ID) {
		t.Fatalf("expected TryMatch to process the rider")
	}
	if r.MatchedDriverID != d.ID {
		t.Fatalf("MatchedDriverID = %d, want %d", r.MatchedDriverID, d.ID)
	}
	if d.State != world.DriverEvaluating {
		t.Fatalf("driver state = %v, want Evaluating", d.State)
	}
	ev, ok := c.Clock.Peek()
	if !ok || ev.Kind != simclock.MatchAccepted {
		t.Fatalf("expected MatchAccepted scheduled, got %v, %v", ev, ok)
	}
}

func TestTryMatchNoCandidatesRetriesLater(t *testing.T) {
	cfg := scenario.Default()
	c := newCtx(cfg)
	cell := geohex.CellAt(37.75, -122.42)
	r := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r.ID, world.RiderWaiting)

	if !TryMatch(c, r.ID) {
		t.Fatalf("expected TryMatch to process the rider even without a match")
	}
	if r.MatchedDriverID != 0 {
		t.Fatalf("expected rider to remain unmatched")
	}
	ev, ok := c.Clock.Peek()
	if !ok || ev.Kind != simclock.TryMatch {
		t.Fatalf("expected a retry TryMatch scheduled, got %v, %v", ev, ok)
	}
}

func TestBatchMatchRunPairsAllWaitingRidersWhenEnoughDrivers(t *testing.T) {
	cfg := scenario.Default()
	cfg.BatchMatchingEnabled = true
	c := newCtx(cfg)
	cell := geohex.CellAt(37.75, -122.42)
	r1 := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r1.ID, world.RiderWaiting)
	r2 := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r2.ID, world.RiderWaiting)
	c.World.SpawnDriver(cell, world.Earnings{}, world.Fatigue{})
	c.World.SpawnDriver(cell, world.Earnings{}, world.Fatigue{})

	if !BatchMatchRun(c) {
		t.Fatalf("expected BatchMatchRun to process when enabled")
	}
	if r1.MatchedDriverID == 0 || r2.MatchedDriverID == 0 {
		t.Fatalf("expected both riders matched, got r1=%d r2=%d", r1.MatchedDriverID, r2.MatchedDriverID)
	}
	foundNextRun := false
	for c.Clock.PendingCount() > 0 {
		ev, _ := c.Clock.Pop()
		if ev.Kind == simclock.BatchMatchRun && ev.TimestampMS == cfg.BatchIntervalSecs*1000 {
			foundNextRun = true
		}
	}
	if !foundNextRun {
		t.Fatalf("expected next BatchMatchRun scheduled at %dms", cfg.BatchIntervalSecs*1000)
	}
}

func TestBatchMatchRunNoopWhenDisabled(t *testing.T) {
	cfg := scenario.Default()
	cfg.BatchMatchingEnabled = false
	c := newCtx(cfg)

	if BatchMatchRun(c) {
		t.Fatalf("expected BatchMatchRun to no-op when batch matching disabled")
	}
}

func TestMatchAcceptedRequiresEvaluatingDriver(t *testing.T) {
	c := newCtx(scenario.Default())
	cell := geohex.CellAt(37.75, -122.42)
	d := c.World.SpawnDriver(cell, world.Earnings{}, world.Fatigue{})
	// leave driver Idle

	if MatchAccepted(c, d.ID) {
		t.Fatalf("expected MatchAccepted to no-op for a non-Evaluating driver")
	}
}

func TestMatchAcceptedSchedulesDriverDecision(t *testing.T) {
	c := newCtx(scenario.Default())
	cell := geohex.CellAt(37.75, -122.42)
	d := c.World.SpawnDriver(cell, world.Earnings{}, world.Fatigue{})
	c.World.SetDriverState(d.ID, world.DriverEvaluating)

	if !MatchAccepted(c, d.ID) {
		t.Fatalf("expected MatchAccepted to succeed")
	}
	ev, ok := c.Clock.Peek()
	if !ok || ev.Kind != simclock.DriverDecision {
		t.Fatalf("expected DriverDecision scheduled, got %v, %v", ev, ok)
	}
}

func TestMatchRejectedClearsMatchAndRetriesWhenNotBatch(t *testing.T) {
	cfg := scenario.Default()
	cfg.BatchMatchingEnabled = false
	c := newCtx(cfg)
	cell := geohex.CellAt(37.75, -122.42)
	r := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r.ID, world.RiderWaiting)
	r.MatchedDriverID = 42

	if !MatchRejected(c, r.ID) {
		t.Fatalf("expected MatchRejected to process the rider")
	}
	if r.MatchedDriverID != 0 {
		t.Fatalf("expected MatchedDriverID cleared")
	}
	ev, ok := c.Clock.Peek()
	if !ok || ev.Kind != simclock.TryMatch {
		t.Fatalf("expected a retry TryMatch scheduled, got %v, %v", ev, ok)
	}
}

func TestMatchRejectedDoesNotRetryInBatchMode(t *testing.T) {
	cfg := scenario.Default()
	cfg.BatchMatchingEnabled = true
	c := newCtx(cfg)
	cell := geohex.CellAt(37.75, -122.42)
	r := c.World.SpawnRider(cell, 0)
	c.World.SetRiderState(r.ID, world.RiderWaiting)
	r.MatchedDriverID = 42

	MatchRejected(c, r.ID)
	if c.Clock.PendingCount() != 0 {
		t.Fatalf("expected no retry scheduled in batch mode")
	}
}

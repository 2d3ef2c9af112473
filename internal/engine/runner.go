// Package engine drives the simulation: it pops events from the clock,
// installs each as the current event, and runs the fixed, kind-ordered
// handler schedule against it (spec.md §4.14).
package engine

import (
	"log"

	"turbodriver/internal/decision"
	"turbodriver/internal/geohex"
	"turbodriver/internal/matchrun"
	"turbodriver/internal/movement"
	"turbodriver/internal/quote"
	"turbodriver/internal/scenario"
	"turbodriver/internal/simclock"
	"turbodriver/internal/simctx"
	"turbodriver/internal/spawner"
	"turbodriver/internal/telemetry"
	"turbodriver/internal/triplife"
	"turbodriver/internal/world"
)

// Runner owns one run's full set of services and its spawner state, and
// executes the event loop.
type Runner struct {
	Ctx      *simctx.Ctx
	Spawners spawner.Spawners

	stepsRun       int
	lastSnapshotMS int64
	tookSnapshot   bool
}

// New constructs a Runner for cfg, with a freshly seeded world, clock and
// telemetry collector.
func New(cfg scenario.Config, snapshotRingCapacity int) *Runner {
	cfg = cfg.ApplyDefaults()
	clock := simclock.NewClock(cfg.EpochMS)
	if cfg.SimulationEndTimeMS != nil {
		clock.SetEndTime(*cfg.SimulationEndTimeMS)
	}

	scenarioSeed := int64(0)
	if cfg.Seed != nil {
		scenarioSeed = *cfg.Seed
	}

	ctx := &simctx.Ctx{
		World:        world.New(),
		Index:        geohex.NewIndex(),
		Clock:        clock,
		Telemetry:    telemetry.NewCollector(snapshotRingCapacity),
		Config:       cfg,
		ScenarioSeed: scenarioSeed,
	}

	r := &Runner{
		Ctx:      ctx,
		Spawners: spawner.NewFromConfig(cfg),
	}
	clock.ScheduleAt(0, simclock.SimulationStarted, simclock.NoSubject())
	return r
}

// RunNextEvent implements spec.md §4.14's run_next_event: pop, advance,
// dispatch, return whether a step actually ran.
func (r *Runner) RunNextEvent() bool {
	ev, ok := r.Ctx.Clock.Peek()
	if !ok {
		return false
	}
	if endMS, hasEnd := r.Ctx.Clock.EndTime(); hasEnd && ev.TimestampMS >= endMS {
		return false
	}
	ev, _ = r.Ctx.Clock.Pop()

	r.dispatch(ev)
	r.stepsRun++
	r.maybeSnapshot()
	return true
}

// maybeSnapshot records a telemetry snapshot once at least
// SnapshotIntervalMS of sim time has elapsed since the last one.
func (r *Runner) maybeSnapshot() {
	now := r.Ctx.Now()
	if !r.tookSnapshot || now-r.lastSnapshotMS >= r.Ctx.Config.SnapshotIntervalMS {
		r.Ctx.Telemetry.Snapshot(now, r.Ctx.World)
		r.lastSnapshotMS = now
		r.tookSnapshot = true
	}
}

// RunUntilEmpty implements run_until_empty: loops until the queue is
// drained, the end-time bound is hit, or maxSteps steps have executed.
func (r *Runner) RunUntilEmpty(maxSteps int) int {
	steps := 0
	for maxSteps <= 0 || steps < maxSteps {
		if !r.RunNextEvent() {
			break
		}
		steps++
	}
	return steps
}

// dispatch routes one event to its handler. Each event kind maps to
// exactly one handler, which itself is the run-if predicate: a handler
// returning false means its precondition failed and nothing ran
// (spec.md §7: precondition failures are silent no-ops, never errors).
func (r *Runner) dispatch(ev simclock.Event) {
	c := r.Ctx
	switch ev.Kind {
	case simclock.SimulationStarted:
		spawner.SimulationStarted(c, &r.Spawners)
	case simclock.SpawnRider:
		spawner.SpawnRider(c, &r.Spawners)
	case simclock.SpawnDriver:
		spawner.SpawnDriver(c, &r.Spawners)
	case simclock.ShowQuote:
		quote.ShowQuote(c, ev.Subject.ID)
	case simclock.QuoteDecision:
		quote.QuoteDecision(c, ev.Subject.ID)
	case simclock.QuoteAccepted:
		quote.QuoteAccepted(c, ev.Subject.ID)
	case simclock.QuoteRejected:
		quote.QuoteRejected(c, ev.Subject.ID)
	case simclock.TryMatch:
		matchrun.TryMatch(c, ev.Subject.ID)
	case simclock.BatchMatchRun:
		matchrun.BatchMatchRun(c)
	case simclock.MatchAccepted:
		matchrun.MatchAccepted(c, ev.Subject.ID)
	case simclock.DriverDecision:
		decision.DriverDecision(c, ev.Subject.ID)
	case simclock.MatchRejected:
		matchrun.MatchRejected(c, ev.Subject.ID)
	case simclock.MoveStep:
		movement.MoveStep(c, ev.Subject.ID)
	case simclock.PickupEtaUpdated:
		triplife.PickupEtaUpdated(c, ev.Subject.ID)
	case simclock.TripStarted:
		triplife.TripStarted(c, ev.Subject.ID)
	case simclock.TripCompleted:
		triplife.TripCompleted(c, ev.Subject.ID)
	case simclock.RiderCancel:
		triplife.RiderCancel(c, ev.Subject.ID)
	case simclock.CheckDriverOffDuty:
		triplife.CheckDriverOffDuty(c)
	default:
		log.Printf("engine: no handler registered for event kind %s", ev.Kind)
	}
}

// StepsRun reports how many events this Runner has executed so far.
func (r *Runner) StepsRun() int { return r.stepsRun }

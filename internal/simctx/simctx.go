// Package simctx bundles the services every event handler needs so that
// component packages (quote, matching, decision, movement, triplife,
// spawner) can depend on one shared context type without importing the
// engine package that wires them together.
package simctx

import (
	"turbodriver/internal/geohex"
	"turbodriver/internal/scenario"
	"turbodriver/internal/simclock"
	"turbodriver/internal/telemetry"
	"turbodriver/internal/world"
)

// Ctx is the per-run set of services a handler reads and mutates.
type Ctx struct {
	World     *world.World
	Index     *geohex.Index
	Clock     *simclock.Clock
	Telemetry *telemetry.Collector
	Config    scenario.Config

	// ScenarioSeed is the top-level seed every derived seed formula in
	// simrand starts from.
	ScenarioSeed int64

	// RiderSpawnCount/DriverSpawnCount feed the spawn-seed formulas
	// (spec.md §4.4) and are owned by the spawner package.
	RiderSpawnCount  int64
	DriverSpawnCount int64
}

// Now returns the clock's current simulation time.
func (c *Ctx) Now() int64 { return c.Clock.NowMS() }

// Sub-configuration seed offsets (spec.md §4.4 refers to quote_cfg.seed,
// cancel_cfg.seed, speed_model.seed and decision_cfg.seed as distinct
// seeds derived from the scenario seed; offsets keep them from colliding
// when the same entity id is hashed against more than one of them).
const (
	quoteCfgSeedOffset    = 0x51
	cancelCfgSeedOffset   = 0xCA
	speedModelSeedOffset  = 0x5D
	decisionCfgSeedOffset = 0xDC
)

func (c *Ctx) QuoteCfgSeed() int64    { return c.ScenarioSeed + quoteCfgSeedOffset }
func (c *Ctx) CancelCfgSeed() int64   { return c.ScenarioSeed + cancelCfgSeedOffset }
func (c *Ctx) SpeedModelSeed() int64  { return c.ScenarioSeed + speedModelSeedOffset }
func (c *Ctx) DecisionCfgSeed() int64 { return c.ScenarioSeed + decisionCfgSeedOffset }

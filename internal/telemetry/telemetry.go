// Package telemetry accumulates the counters, per-trip records and rolling
// position snapshots a run produces (spec.md §4.13).
package telemetry

import "turbodriver/internal/world"

// Counters is the in-memory counter tuple (spec.md §6).
type Counters struct {
	RidersCompletedTotal int64

	RidersCancelledTotal        int64
	RidersCancelledPickupTimeout int64

	RidersAbandonedTotal      int64
	RidersAbandonedPrice      int64
	RidersAbandonedEta        int64
	RidersAbandonedStochastic int64

	PlatformRevenueTotal float64
	TotalFaresCollected  float64
}

// CompletedTripRecord is the audit record appended on every TripCompleted.
type CompletedTripRecord struct {
	TripID                   int64
	RiderID                  int64
	DriverID                 int64
	RequestedAtMS            int64
	MatchedAtMS              int64
	PickupAtMS               int64
	DropoffAtMS              int64
	Fare                     float64
	SurgeImpact              float64
	PickupDistanceKMAtAccept float64
}

// AgentSnapshot is one agent's state at a snapshot instant.
type AgentSnapshot struct {
	Kind  string // "rider" or "driver"
	ID    int64
	Cell  int64
	State string
}

// Snapshot is one rolling-buffer sample (spec.md §4.13/§6).
type Snapshot struct {
	TimestampMS int64
	Counters    Counters
	Agents      []AgentSnapshot
}

// Collector owns the counters, the completed-trip log, and the rolling
// snapshot ring buffer for one run.
type Collector struct {
	Counters Counters
	Trips    []CompletedTripRecord

	ring     []Snapshot
	ringCap  int
	ringNext int
	ringLen  int
}

// NewCollector returns a Collector whose snapshot ring holds at most
// capacity samples, discarding the oldest once full.
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = 1
	}
	return &Collector{ring: make([]Snapshot, capacity), ringCap: capacity}
}

func (c *Collector) RecordCompletedTrip(r CompletedTripRecord) {
	c.Counters.RidersCompletedTotal++
	c.Trips = append(c.Trips, r)
}

// AddRevenue accrues a completed trip's commission and fare into the
// running platform totals (invariant: driver_net + commission = fare is
// enforced by the caller, not here).
func (c *Collector) AddRevenue(commission, fare float64) {
	c.Counters.PlatformRevenueTotal += commission
	c.Counters.TotalFaresCollected += fare
}

func (c *Collector) RecordCancelled(pickupTimeout bool) {
	c.Counters.RidersCancelledTotal++
	if pickupTimeout {
		c.Counters.RidersCancelledPickupTimeout++
	}
}

func (c *Collector) RecordAbandoned(reason world.RejectReason) {
	c.Counters.RidersAbandonedTotal++
	switch reason {
	case world.RejectPriceTooHigh:
		c.Counters.RidersAbandonedPrice++
	case world.RejectEtaTooLong:
		c.Counters.RidersAbandonedEta++
	case world.RejectStochastic:
		c.Counters.RidersAbandonedStochastic++
	}
}

// Snapshot appends a new sample to the rolling ring, overwriting the
// oldest entry once the buffer is full.
func (c *Collector) Snapshot(timestampMS int64, w *world.World) {
	agents := make([]AgentSnapshot, 0, w.RiderCount()+w.DriverCount())
	for _, r := range w.WaitingRiders() {
		agents = append(agents, AgentSnapshot{Kind: "rider", ID: r.ID, Cell: int64(r.Cell), State: r.State.String()})
	}
	for _, d := range w.AllDrivers() {
		agents = append(agents, AgentSnapshot{Kind: "driver", ID: d.ID, Cell: int64(d.Cell), State: d.State.String()})
	}
	snap := Snapshot{TimestampMS: timestampMS, Counters: c.Counters, Agents: agents}
	c.ring[c.ringNext] = snap
	c.ringNext = (c.ringNext + 1) % c.ringCap
	if c.ringLen < c.ringCap {
		c.ringLen++
	}
}

// Snapshots returns the buffered snapshots in chronological order.
func (c *Collector) Snapshots() []Snapshot {
	if c.ringLen < c.ringCap {
		out := make([]Snapshot, c.ringLen)
		copy(out, c.ring[:c.ringLen])
		return out
	}
	out := make([]Snapshot, c.ringCap)
	copy(out, c.ring[c.ringNext:])
	copy(out[c.ringCap-c.ringNext:], c.ring[:c.ringNext])
	return out
}

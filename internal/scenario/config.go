// Package scenario defines the engine's external configuration surface:
// every tunable listed in the scenario's configuration table, with the
// defaults a run falls back to when a field is left zero-valued in an
// input JSON document.
package scenario

import "turbodriver/internal/matching"

// Config is the full set of inputs to one simulation run.
type Config struct {
	// Counts.
	NumRiders          int `json:"num_riders"`
	NumDrivers         int `json:"num_drivers"`
	InitialRiderCount  int `json:"initial_rider_count"`
	InitialDriverCount int `json:"initial_driver_count"`

	// Windows.
	RequestWindowMS      int64  `json:"request_window_ms"`
	DriverSpreadMS       int64  `json:"driver_spread_ms"`
	SimulationEndTimeMS  *int64 `json:"simulation_end_time_ms,omitempty"`

	// Geography.
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LngMin float64 `json:"lng_min"`
	LngMax float64 `json:"lng_max"`

	// Trip distance bounds, in grid cells.
	MinTripCells int `json:"min_trip_cells"`
	MaxTripCells int `json:"max_trip_cells"`

	// Pricing.
	BaseFare           float64 `json:"base_fare"`
	PerKMRate          float64 `json:"per_km_rate"`
	CommissionRate     float64 `json:"commission_rate"`
	SurgeEnabled       bool    `json:"surge_enabled"`
	SurgeRadiusK       int     `json:"surge_radius_k"`
	SurgeMaxMultiplier float64 `json:"surge_max_multiplier"`

	// Matching.
	MatchRadius         int                 `json:"match_radius"`
	BatchMatchingEnabled bool               `json:"batch_matching_enabled"`
	BatchIntervalSecs   int64               `json:"batch_interval_secs"`
	EtaWeight           float64             `json:"eta_weight"`
	Algorithm           matching.Algorithm  `json:"algorithm"`

	// Rider quote.
	MaxQuoteRejections  int     `json:"max_quote_rejections"`
	ReQuoteDelaySecs    int64   `json:"re_quote_delay_secs"`
	AcceptProbability   float64 `json:"accept_probability"`
	MaxWillingnessToPay float64 `json:"max_willingness_to_pay"`
	MaxAcceptableEtaMS  int64   `json:"max_acceptable_eta_ms"`

	// Rider cancel.
	MinWaitSecs int64 `json:"min_wait_secs"`
	MaxWaitSecs int64 `json:"max_wait_secs"`

	// Driver decision logit weights.
	FareWeight              float64 `json:"fare_weight"`
	PickupDistancePenalty   float64 `json:"pickup_distance_penalty"`
	TripDistanceBonus       float64 `json:"trip_distance_bonus"`
	EarningsProgressWeight  float64 `json:"earnings_progress_weight"`
	FatiguePenalty          float64 `json:"fatigue_penalty"`
	DecisionBase            float64 `json:"decision_base"`

	// Speed model, km/h.
	MinKMH float64 `json:"min_kmh"`
	MaxKMH float64 `json:"max_kmh"`

	// Timing.
	EpochMS int64  `json:"epoch_ms"`
	Seed    *int64 `json:"seed,omitempty"`

	// Telemetry sampling interval; a collaborator-facing knob, not part of
	// the closed event-kind set (spec.md §4.13/§6).
	SnapshotIntervalMS int64 `json:"snapshot_interval_ms"`
}

// Default returns the scenario's out-of-the-box configuration, mirroring
// the defaults named throughout spec.md §4 and §6.
func Default() Config {
	return Config{
		NumRiders:          50,
		NumDrivers:         15,
		InitialRiderCount:  10,
		InitialDriverCount: 10,

		RequestWindowMS: 3_600_000,
		DriverSpreadMS:  1_800_000,

		LatMin: 37.70, LatMax: 37.80,
		LngMin: -122.45, LngMax: -122.38,

		MinTripCells: 1,
		MaxTripCells: 20,

		BaseFare:           2.50,
		PerKMRate:          1.50,
		CommissionRate:     0.20,
		SurgeEnabled:       true,
		SurgeRadiusK:       3,
		SurgeMaxMultiplier: 3.0,

		MatchRadius:          10,
		BatchMatchingEnabled: false,
		BatchIntervalSecs:    15,
		EtaWeight:            1.0,
		Algorithm:            matching.CostBased,

		MaxQuoteRejections:  2,
		ReQuoteDelaySecs:    10,
		AcceptProbability:   0.85,
		MaxWillingnessToPay: 40.0,
		MaxAcceptableEtaMS:  600_000,

		MinWaitSecs: 120,
		MaxWaitSecs: 600,

		FareWeight:             0.05,
		PickupDistancePenalty:  0.15,
		TripDistanceBonus:      0.05,
		EarningsProgressWeight: -1.0,
		FatiguePenalty:         -1.5,
		DecisionBase:           1.0,

		MinKMH: 20,
		MaxKMH: 60,

		EpochMS:            1_700_000_000_000,
		SnapshotIntervalMS: 60_000,
	}
}

// ApplyDefaults fills zero-valued fields of c from Default(). A scenario
// loaded from JSON typically only sets the fields it cares to override.
func (c Config) ApplyDefaults() Config {
	d := Default()
	if c.NumRiders == 0 {
		c.NumRiders = d.NumRiders
	}
	if c.NumDrivers == 0 {
		c.NumDrivers = d.NumDrivers
	}
	if c.InitialRiderCount == 0 {
		c.InitialRiderCount = d.InitialRiderCount
	}
	if c.InitialDriverCount == 0 {
		c.InitialDriverCount = d.InitialDriverCount
	}
	if c.RequestWindowMS == 0 {
		c.RequestWindowMS = d.RequestWindowMS
	}
	if c.DriverSpreadMS == 0 {
		c.DriverSpreadMS = d.DriverSpreadMS
	}
	if c.LatMin == 0 && c.LatMax == 0 {
		c.LatMin, c.LatMax = d.LatMin, d.LatMax
	}
	if c.LngMin == 0 && c.LngMax == 0 {
		c.LngMin, c.LngMax = d.LngMin, d.LngMax
	}
	if c.MaxTripCells == 0 {
		c.MinTripCells, c.MaxTripCells = d.MinTripCells, d.MaxTripCells
	}
	if c.BaseFare == 0 {
		c.BaseFare = d.BaseFare
	}
	if c.PerKMRate == 0 {
		c.PerKMRate = d.PerKMRate
	}
	if c.SurgeMaxMultiplier == 0 {
		c.SurgeMaxMultiplier = d.SurgeMaxMultiplier
	}
	if c.MatchRadius == 0 {
		c.MatchRadius = d.MatchRadius
	}
	if c.BatchIntervalSecs == 0 {
		c.BatchIntervalSecs = d.BatchIntervalSecs
	}
	if c.EtaWeight == 0 {
		c.EtaWeight = d.EtaWeight
	}
	if c.Algorithm == "" {
		c.Algorithm = d.Algorithm
	}
	if c.ReQuoteDelaySecs == 0 {
		c.ReQuoteDelaySecs = d.ReQuoteDelaySecs
	}
	if c.AcceptProbability == 0 {
		c.AcceptProbability = d.AcceptProbability
	}
	if c.MaxWillingnessToPay == 0 {
		c.MaxWillingnessToPay = d.MaxWillingnessToPay
	}
	if c.MaxAcceptableEtaMS == 0 {
		c.MaxAcceptableEtaMS = d.MaxAcceptableEtaMS
	}
	if c.MinWaitSecs == 0 && c.MaxWaitSecs == 0 {
		c.MinWaitSecs, c.MaxWaitSecs = d.MinWaitSecs, d.MaxWaitSecs
	}
	if c.MinKMH == 0 && c.MaxKMH == 0 {
		c.MinKMH, c.MaxKMH = d.MinKMH, d.MaxKMH
	}
	if c.EpochMS == 0 {
		c.EpochMS = d.EpochMS
	}
	if c.SnapshotIntervalMS == 0 {
		c.SnapshotIntervalMS = d.SnapshotIntervalMS
	}
	return c
}

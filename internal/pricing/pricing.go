// Package pricing computes fares: a base-plus-distance rate, surge
// modulated by local demand/supply, and the commission split applied at
// trip completion.
package pricing

// Model holds the fare parameters for a scenario (spec.md §6).
type Model struct {
	BaseFare      float64
	PerKMRate     float64
	CommissionPct float64 // platform's cut, in [0,1]

	SurgeEnabled       bool
	SurgeRadiusK       int
	SurgeMaxMultiplier float64
}

// Quote is the fare/eta pair shown to a rider before they decide.
type Quote struct {
	Fare  float64
	EtaMS int64
}

// BaseFareFor computes the undiscounted, pre-surge fare for a trip of the
// given distance (spec.md §4.6).
func (m Model) BaseFareFor(distanceKM float64) float64 {
	return m.BaseFare + m.PerKMRate*distanceKM
}

// SurgeMultiplier implements spec.md §4.6 exactly: D is the count of
// riders in {Browsing, Waiting} within grid_disk(pickup, surge_radius_k),
// S is the count of Idle (non-OffDuty) drivers in the same disk.
func (m Model) SurgeMultiplier(demandD, supplyS int) float64 {
	if !m.SurgeEnabled || m.SurgeRadiusK <= 0 {
		return 1.0
	}
	if demandD <= supplyS {
		return 1.0
	}
	if supplyS == 0 {
		return m.SurgeMaxMultiplier
	}
	mult := 1.0 + float64(demandD-supplyS)/float64(supplyS)
	if m.SurgeMaxMultiplier > 0 && mult > m.SurgeMaxMultiplier {
		mult = m.SurgeMaxMultiplier
	}
	return mult
}

// Fare computes the final quoted fare for a trip of the given distance
// under the given local demand/supply counts.
func (m Model) Fare(distanceKM float64, demandD, supplyS int) float64 {
	return m.BaseFareFor(distanceKM) * m.SurgeMultiplier(demandD, supplyS)
}

// SurgeImpact is the portion of a fare attributable to surge, used in
// telemetry per-trip records.
func (m Model) SurgeImpact(fare, distanceKM float64) float64 {
	return fare - m.BaseFareFor(distanceKM)
}

// Split divides a completed trip's fare into the platform's commission and
// the driver's net take (invariant: driver_net + commission = fare).
func (m Model) Split(fare float64) (commission, driverNet float64) {
	commission = fare * m.CommissionPct
	driverNet = fare - commission
	return commission, driverNet
}

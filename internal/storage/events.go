package storage

import (
	"context"
	"encoding/json"

	"turbodriver/internal/telemetry"
)

// FinishRunWithTrips closes out a run and its full completed-trip ledger in
// one transaction, mirroring the teacher's transactional
// update-then-append pattern for multi-row writes.
func (p *Postgres) FinishRunWithTrips(ctx context.Context, runID string, stepsRun int, counters telemetry.Counters, trips []telemetry.CompletedTripRecord) error {
	countersJSON, err := json.Marshal(counters)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
UPDATE runs SET status='completed', steps_run=$2, counters=$3, finished_at=NOW()
WHERE id=$1
`, runID, stepsRun, countersJSON); err != nil {
		return err
	}

	for _, r := range trips {
		if _, err := tx.Exec(ctx, `
INSERT INTO completed_trips (run_id, trip_id, rider_id, driver_id, requested_at_ms, matched_at_ms, pickup_at_ms, dropoff_at_ms, fare, surge_impact, pickup_distance_km_at_accept)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (run_id, trip_id) DO NOTHING
`, runID, r.TripID, r.RiderID, r.DriverID, r.RequestedAtMS, r.MatchedAtMS, r.PickupAtMS, r.DropoffAtMS, r.Fare, r.SurgeImpact, r.PickupDistanceKMAtAccept); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) CountCompletedTrips(ctx context.Context, runID string) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM completed_trips WHERE run_id = $1`, runID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

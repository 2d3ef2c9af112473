package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"turbodriver/internal/scenario"
	"turbodriver/internal/telemetry"
)

// Postgres persists one control plane's runs and the trips their engines
// complete, on top of the tables EnsureSchema installs.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema applies schema.sql, tracked by content hash so repeat calls
// across process restarts are idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return ApplySchema(ctx, pool)
}

// CreateRun records a newly started run with its resolved configuration.
func (p *Postgres) CreateRun(ctx context.Context, id string, cfg scenario.Config) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO runs (id, config, status)
VALUES ($1,$2,'running')
ON CONFLICT (id) DO NOTHING
`, id, cfgJSON)
	return err
}

// FinishRun marks a run complete and stores its final step count and
// counters snapshot.
func (p *Postgres) FinishRun(ctx context.Context, id string, stepsRun int, counters telemetry.Counters) error {
	countersJSON, err := json.Marshal(counters)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
UPDATE runs SET status='completed', steps_run=$2, counters=$3, finished_at=NOW()
WHERE id=$1
`, id, stepsRun, countersJSON)
	return err
}

// RunSummary is the persisted view of one run, returned by GetRun.
type RunSummary struct {
	ID       string
	Config   scenario.Config
	Status   string
	StepsRun int
	Counters json.RawMessage
}

func (p *Postgres) GetRun(ctx context.Context, id string) (RunSummary, bool, error) {
	var out RunSummary
	var cfgJSON []byte
	err := p.pool.QueryRow(ctx, `
SELECT id, config, status, steps_run, counters FROM runs WHERE id=$1
`, id).Scan(&out.ID, &cfgJSON, &out.Status, &out.StepsRun, &out.Counters)
	if err != nil {
		if err == pgx.ErrNoRows {
			return RunSummary{}, false, nil
		}
		return RunSummary{}, false, err
	}
	if err := json.Unmarshal(cfgJSON, &out.Config); err != nil {
		return RunSummary{}, false, err
	}
	return out, true, nil
}

// SaveCompletedTrip persists one of a run's telemetry.CompletedTripRecord
// rows.
func (p *Postgres) SaveCompletedTrip(ctx context.Context, runID string, r telemetry.CompletedTripRecord) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO completed_trips (run_id, trip_id, rider_id, driver_id, requested_at_ms, matched_at_ms, pickup_at_ms, dropoff_at_ms, fare, surge_impact, pickup_distance_km_at_accept)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (run_id, trip_id) DO NOTHING
`, runID, r.TripID, r.RiderID, r.DriverID, r.RequestedAtMS, r.MatchedAtMS, r.PickupAtMS, r.DropoffAtMS, r.Fare, r.SurgeImpact, r.PickupDistanceKMAtAccept)
	return err
}

func (p *Postgres) ListCompletedTrips(ctx context.Context, runID string, limit, offset int) ([]telemetry.CompletedTripRecord, error) {
	rows, err := p.pool.Query(ctx, `
SELECT trip_id, rider_id, driver_id, requested_at_ms, matched_at_ms, pickup_at_ms, dropoff_at_ms, fare, surge_impact, pickup_distance_km_at_accept
FROM completed_trips
WHERE run_id = $1
ORDER BY dropoff_at_ms ASC
LIMIT $2 OFFSET $3
`, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []telemetry.CompletedTripRecord
	for rows.Next() {
		var r telemetry.CompletedTripRecord
		if err := rows.Scan(&r.TripID, &r.RiderID, &r.DriverID, &r.RequestedAtMS, &r.MatchedAtMS, &r.PickupAtMS, &r.DropoffAtMS, &r.Fare, &r.SurgeImpact, &r.PickupDistanceKMAtAccept); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func DefaultPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	return pgxpool.NewWithConfig(ctx, cfg)
}

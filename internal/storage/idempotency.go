package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyStore persists idempotency keys with TTL.
type IdempotencyStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewIdempotencyStore(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &IdempotencyStore{pool: pool, ttl: ttl}
}

func (s *IdempotencyStore) TTL() time.Duration {
	return s.ttl
}

// EnsureSchema is a no-op beyond ApplySchema's idempotency_keys table; kept
// for callers that only need this one table and skip the full schema.
func (s *IdempotencyStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS idempotency_keys (
	key TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idempotency_keys_expires_idx ON idempotency_keys(expires_at);
`)
	return err
}

// Remember associates an idempotency key (e.g. the idempotencyKey field of
// a POST /runs request body) with the run id it produced.
func (s *IdempotencyStore) Remember(ctx context.Context, key, runID string) error {
	if key == "" || runID == "" {
		return nil
	}
	exp := time.Now().Add(s.ttl)
	_, err := s.pool.Exec(ctx, `
INSERT INTO idempotency_keys (key, run_id, expires_at)
VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET run_id=EXCLUDED.run_id, expires_at=EXCLUDED.expires_at
`, key, runID, exp)
	return err
}

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	var runID string
	var expires time.Time
	err := s.pool.QueryRow(ctx, `
SELECT run_id, expires_at FROM idempotency_keys WHERE key = $1
`, key).Scan(&runID, &expires)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return "", false, nil
		}
		return "", false, err
	}
	if time.Now().After(expires) {
		return "", false, nil
	}
	return runID, true, nil
}

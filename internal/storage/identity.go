package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"turbodriver/internal/auth"
)

// IdentityStore persists issued operator tokens so a control plane survives
// a restart without forcing every client to re-register.
type IdentityStore struct {
	pool *pgxpool.Pool
}

func NewIdentityStore(pool *pgxpool.Pool) *IdentityStore {
	return &IdentityStore{pool: pool}
}

func (s *IdentityStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS identities (
	id TEXT PRIMARY KEY,
	token TEXT UNIQUE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ
);
`)
	return err
}

func (s *IdentityStore) Save(ctx context.Context, ident auth.Identity) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO identities (id, token, expires_at)
VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
`, ident.ID, ident.Token, ident.ExpiresAt)
	return err
}

func (s *IdentityStore) Lookup(ctx context.Context, token string) (auth.Identity, bool, error) {
	var ident auth.Identity
	err := s.pool.QueryRow(ctx, `
SELECT id, token, expires_at FROM identities WHERE token = $1
`, token).Scan(&ident.ID, &ident.Token, &ident.ExpiresAt)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return auth.Identity{}, false, err
		}
		if err.Error() == "no rows in result set" {
			return auth.Identity{}, false, nil
		}
		return auth.Identity{}, false, err
	}
	if ident.ExpiresAt != nil && ident.ExpiresAt.Before(time.Now()) {
		return auth.Identity{}, false, nil
	}
	return ident, true, nil
}

func (s *IdentityStore) All(ctx context.Context) ([]auth.Identity, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, token, expires_at FROM identities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []auth.Identity
	for rows.Next() {
		var ident auth.Identity
		if err := rows.Scan(&ident.ID, &ident.Token, &ident.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

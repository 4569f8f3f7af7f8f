package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Revoked tokens only matter while the underlying JWT is still alive, so rows
// older than the token lifetime are pruned on the write path.
const revokedTokenTTL = 24 * time.Hour

type RevokedTokenRepo struct {
	pool *pgxpool.Pool
}

func NewRevokedTokenRepo(pool *pgxpool.Pool) *RevokedTokenRepo {
	return &RevokedTokenRepo{pool: pool}
}

func (r *RevokedTokenRepo) Revoke(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM revoked_tokens WHERE created_at < $1`, time.Now().Add(-revokedTokenTTL)); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (token, created_at) VALUES ($1, $2) ON CONFLICT (token) DO NOTHING`,
		token, time.Now())
	return err
}

func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1)`, token).Scan(&revoked)
	return revoked, err
}

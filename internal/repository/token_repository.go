package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo keeps the sessions behind /api/auth/refresh.  Only the SHA-256
// of a refresh token is stored; the raw value lives in the client.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh opens a session for userID until exp.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of a live session.  Revoked, expired
// and unknown tokens, and sessions of deactivated accounts, are ErrNotFound
// so the caller answers 401 without telling them apart.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID  uint64
		expira  time.Time
		revoked sql.NullTime
		activo  bool
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.user_id, t.expires_at, t.revoked_at, u.activo
		 FROM refresh_tokens t JOIN usuarios u ON u.id = t.user_id
		 WHERE t.token_hash = ? LIMIT 1`,
		tokenHash).Scan(&userID, &expira, &revoked, &activo)
	if err != nil {
		return 0, translate(err)
	}
	if revoked.Valid || !activo || !time.Now().UTC().Before(expira) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// RevokeByHash ends one session.  Revoking twice is a no-op.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser ends every session of a user, used when an account is
// deactivated or its password changes.  It returns how many were open.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeStale deletes sessions that expired or were revoked more than
// retention ago.  It backs the nightly token sweep.
func (r *TokenRepo) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)",
		cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrInvalidRefresh covers unknown, revoked and expired refresh tokens
// alike; callers answer all three with the same 401.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// TokenRepo stores refresh tokens of admin and staff users.  Only the
// sha256 of the raw token is kept.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, sqlTime(exp))
	return err
}

// ValidateRefresh returns the owner of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		owner   uint64
		expires dbTime
		revoked nullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`,
		tokenHash).Scan(&owner, &expires, &revoked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrInvalidRefresh
	case err != nil:
		return 0, err
	case revoked.Valid, !time.Now().UTC().Before(expires.T):
		return 0, ErrInvalidRefresh
	}
	return owner, nil
}

// RevokeByHash revokes one token.  Only one caller can revoke a given
// token: the others get ErrInvalidRefresh, so a token replayed by two
// concurrent refreshes is rotated once.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	n, err := r.revoke(ctx, `token_hash = ?`, tokenHash)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidRefresh
	}
	return nil
}

// RevokeAllForUser signs a user out of every device.  A user with no live
// token is not an error.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.revoke(ctx, `user_id = ?`, userID)
	return err
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE `+where+` AND revoked_at IS NULL`,
		sqlTime(time.Now()), arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"coachportal/models"
)

// PortalTokenRepository handles persistence of one-time portal handoff tokens.
type PortalTokenRepository struct {
	db *sql.DB
}

// NewPortalTokenRepository creates a new portal token repository.
func NewPortalTokenRepository(db *sql.DB) *PortalTokenRepository {
	return &PortalTokenRepository{db: db}
}

// Insert stores a freshly issued handoff token.
func (r *PortalTokenRepository) Insert(t *models.PortalToken) error {
	_, err := r.db.Exec(
		`INSERT INTO portal_tokens (token, user_id, return_url, used, created_at, expires_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		t.Token, t.UserID, t.ReturnURL, t.CreatedAt, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert portal token: %w", err)
	}
	return nil
}

// GetByToken returns the stored record for a token id, or nil if not found.
func (r *PortalTokenRepository) GetByToken(token string) (*models.PortalToken, error) {
	var t models.PortalToken
	err := r.db.QueryRow(
		`SELECT token, user_id, return_url, used, created_at, expires_at, used_at
		 FROM portal_tokens WHERE token = ?`, token,
	).Scan(&t.Token, &t.UserID, &t.ReturnURL, &t.Used, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan portal token: %w", err)
	}
	return &t, nil
}

// Consume atomically marks an unused, unexpired token as used. It reports
// whether this call won the token: when two redemptions race, the single
// conditional UPDATE guarantees exactly one sees consumed == true. Expired
// rows are never touched.
func (r *PortalTokenRepository) Consume(token string, now time.Time) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE portal_tokens SET used = 1, used_at = ? WHERE token = ? AND used = 0 AND expires_at > ?`,
		now, token, now,
	)
	if err != nil {
		return false, fmt.Errorf("consume portal token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteStale removes expired tokens, and used tokens created before the
// retention cutoff. Idempotent and safe to run alongside Insert/Consume: it
// only removes rows that are already expired or consumed long ago.
func (r *PortalTokenRepository) DeleteStale(now time.Time, retention time.Duration) (int64, error) {
	res, err := r.db.Exec(
		`DELETE FROM portal_tokens WHERE expires_at < ? OR (used = 1 AND created_at < ?)`,
		now, now.Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale portal tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

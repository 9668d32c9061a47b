package portal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"coachportal/internal/database"
	"coachportal/internal/token"
	"coachportal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired portal token")
)

const (
	// tokenLength is the number of random bytes in a handoff token id (256 bits).
	tokenLength = 32
	// DefaultTokenTTL is how long a handoff token stays redeemable.
	DefaultTokenTTL = 5 * time.Minute
	// DefaultUsedRetention is how long consumed tokens are kept before cleanup.
	DefaultUsedRetention = 24 * time.Hour
)

// Service implements the single-use cross-domain handoff. A handoff is two
// layers: a signed envelope that proves non-tampering and short validity
// without touching the database, wrapped around a stored opaque token id whose
// conditional update provides the exactly-once consumption a stateless signed
// token cannot.
type Service struct {
	repo      *database.PortalTokenRepository
	codec     *token.Codec
	ttl       time.Duration
	retention time.Duration
}

// NewService creates the portal handoff service.
func NewService(repo *database.PortalTokenRepository, codec *token.Codec, ttl, retention time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if retention <= 0 {
		retention = DefaultUsedRetention
	}
	return &Service{repo: repo, codec: codec, ttl: ttl, retention: retention}
}

// Issue creates a handoff token for the user and returns the signed envelope
// to carry across domains.
func (s *Service) Issue(ctx context.Context, userID, returnURL string) (string, error) {
	raw := make([]byte, tokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate portal token: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	record := &models.PortalToken{
		Token:     id,
		UserID:    userID,
		ReturnURL: returnURL,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Insert(record); err != nil {
		return "", err
	}

	envelope, err := s.codec.SignHandoff(id, userID)
	if err != nil {
		return "", err
	}
	return envelope, nil
}

// VerifyAndConsume redeems a handoff envelope exactly once. Bad signatures,
// expired envelopes, unknown token ids, store-side expiry, and replays all
// collapse to ErrInvalidToken; the distinguishing reason is only logged.
func (s *Service) VerifyAndConsume(ctx context.Context, envelope string) (userID, returnURL string, err error) {
	tokenID, envelopeUser, err := s.codec.VerifyHandoff(envelope)
	if err != nil {
		log.Debug().Err(err).Msg("portal envelope rejected")
		return "", "", ErrInvalidToken
	}

	// The conditional update is the atomic check-then-act: of two concurrent
	// redemptions, exactly one flips used 0 -> 1. Expired rows never match,
	// so they are left untouched.
	consumed, err := s.repo.Consume(tokenID, time.Now().UTC())
	if err != nil {
		return "", "", err
	}
	if !consumed {
		s.logConsumeFailure(tokenID)
		return "", "", ErrInvalidToken
	}

	record, err := s.repo.GetByToken(tokenID)
	if err != nil {
		return "", "", err
	}
	if record == nil || record.UserID != envelopeUser {
		// Envelope subject and stored owner must agree.
		log.Warn().Str("token", tokenID[:8]).Msg("portal token subject mismatch")
		return "", "", ErrInvalidToken
	}

	return record.UserID, record.ReturnURL, nil
}

// Cleanup deletes expired tokens and consumed tokens older than the retention
// window, returning the number of rows removed. Idempotent and safe to run
// concurrently with Issue and VerifyAndConsume.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteStale(time.Now().UTC(), s.retention)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("portal token cleanup")
	}
	return n, nil
}

func (s *Service) logConsumeFailure(tokenID string) {
	record, err := s.repo.GetByToken(tokenID)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("portal token lookup after failed consume")
	case record == nil:
		log.Debug().Msg("portal token not found")
	case record.Used:
		log.Warn().Str("user", record.UserID).Msg("portal token already used")
	case record.IsExpired():
		log.Debug().Str("user", record.UserID).Msg("portal token expired")
	}
}

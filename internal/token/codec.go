package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"coachportal/models"
)

var (
	ErrSecretRequired = errors.New("signing secret is required")
	ErrInvalidToken   = errors.New("invalid token")
	ErrUnknownRole    = errors.New("token carries an unknown role")
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	// DefaultSessionTTL is the validity window of a session token.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultHandoffTTL is the validity window of a portal handoff envelope.
	DefaultHandoffTTL = 5 * time.Minute
)

// Codec signs and verifies session tokens and portal handoff envelopes with a
// single shared HMAC secret. Both the main app and the portal process hold the
// same secret.
type Codec struct {
	secret     []byte
	sessionTTL time.Duration
	handoffTTL time.Duration
}

// NewCodec creates a codec. It fails if the secret is absent.
func NewCodec(secret string, sessionTTL, handoffTTL time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if handoffTTL <= 0 {
		handoffTTL = DefaultHandoffTTL
	}
	return &Codec{secret: []byte(secret), sessionTTL: sessionTTL, handoffTTL: handoffTTL}, nil
}

// Sign produces a compact session token for the given session payload.
func (c *Codec) Sign(s models.Session) (string, error) {
	now := NowTimeFunc().UTC()
	claims := jwtlib.MapClaims{
		"sub":               s.UserID,
		"role":              string(s.Role),
		"isPasswordChanged": s.IsPasswordChanged,
		"name":              s.Name,
		"email":             s.Email,
		"iat":               now.Unix(),
		"exp":               now.Add(c.sessionTTL).Unix(),
		"jti":               uuid.NewString(),
	}
	if s.AvatarURL != nil {
		claims["avatarUrl"] = *s.AvatarURL
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a session token. It returns the session payload
// only if the signature is valid, the token is not expired, the role is one of
// the recognized values, and the password-changed flag is a boolean.
func (c *Codec) Verify(tok string) (*models.SessionClaims, error) {
	claims := jwtlib.MapClaims{}
	parsed, err := jwtlib.ParseWithClaims(tok, claims, c.keyFunc,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	roleStr, _ := claims["role"].(string)
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return nil, ErrUnknownRole
	}

	passwordChanged, ok := claims["isPasswordChanged"].(bool)
	if !ok {
		return nil, ErrInvalidToken
	}

	sc := &models.SessionClaims{
		UserID:            sub,
		Role:              role,
		IsPasswordChanged: passwordChanged,
	}
	sc.Name, _ = claims["name"].(string)
	sc.Email, _ = claims["email"].(string)
	if avatar, ok := claims["avatarUrl"].(string); ok && avatar != "" {
		sc.AvatarURL = &avatar
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		sc.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sc.ExpiresAt = exp.Time
	}

	return sc, nil
}

// SignHandoff wraps a stored portal token id in a short-lived signed envelope
// bound to the owning user. The signature proves non-tampering without a
// database round trip; the stored row provides the one-time guarantee.
func (c *Codec) SignHandoff(tokenID, userID string) (string, error) {
	now := NowTimeFunc().UTC()
	claims := jwtlib.MapClaims{
		"sub": userID,
		"tid": tokenID,
		"iat": now.Unix(),
		"exp": now.Add(c.handoffTTL).Unix(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign handoff envelope: %w", err)
	}
	return signed, nil
}

// VerifyHandoff unwraps a handoff envelope, returning the stored token id and
// the user it is bound to.
func (c *Codec) VerifyHandoff(envelope string) (tokenID, userID string, err error) {
	claims := jwtlib.MapClaims{}
	parsed, err := jwtlib.ParseWithClaims(envelope, claims, c.keyFunc,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", "", ErrInvalidToken
	}

	tokenID, _ = claims["tid"].(string)
	userID, _ = claims["sub"].(string)
	if tokenID == "" || userID == "" {
		return "", "", ErrInvalidToken
	}
	return tokenID, userID, nil
}

func (c *Codec) keyFunc(t *jwtlib.Token) (any, error) {
	return c.secret, nil
}

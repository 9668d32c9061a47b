package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"coachportal/internal/token"
	"coachportal/models"
)

var (
	ErrNoSession      = errors.New("no session")
	ErrVerifyTimedOut = errors.New("session verification timed out")
)

// Config holds session cookie settings.
type Config struct {
	CookieName   string
	CookieDomain string // optional; set for cross-subdomain SSO
	TTL          time.Duration
	Secure       bool
}

// Service reconstructs trusted sessions from inbound request cookies and
// issues session cookies on login. It holds no per-request state; every
// resolve verifies the token afresh through the codec.
type Service struct {
	codec *token.Codec
	cfg   Config
}

// NewService creates a session service over the token codec.
func NewService(codec *token.Codec, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = token.DefaultSessionTTL
	}
	return &Service{codec: codec, cfg: cfg}
}

// Issue signs a session token for the user.
func (s *Service) Issue(user *models.User) (string, error) {
	return s.codec.Sign(models.Session{
		UserID:            user.ID,
		Role:              user.Role,
		IsPasswordChanged: user.IsPasswordChanged,
		Name:              user.Name,
		Email:             user.Email,
		AvatarURL:         user.AvatarURL,
	})
}

// Resolve reads the session cookie and verifies it. A missing cookie or any
// verification failure resolves to ErrNoSession; the cause is logged, never
// surfaced to the caller.
func (s *Service) Resolve(r *http.Request) (models.Session, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return models.Session{}, ErrNoSession
	}
	return s.verify(cookie.Value)
}

// HasCookie reports whether the request carries a session cookie at all,
// valid or not. The gateway uses this to decide whether a stale cookie needs
// clearing.
func (s *Service) HasCookie(r *http.Request) bool {
	cookie, err := r.Cookie(s.cfg.CookieName)
	return err == nil && cookie.Value != ""
}

// ResolveWithTimeout races Resolve against the deadline. Verification that
// does not complete in time resolves to no session; it is never left pending
// against the request.
func (s *Service) ResolveWithTimeout(ctx context.Context, r *http.Request, timeout time.Duration) (models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		session models.Session
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		session, err := s.Resolve(r)
		ch <- result{session, err}
	}()

	select {
	case res := <-ch:
		return res.session, res.err
	case <-ctx.Done():
		log.Warn().Str("path", r.URL.Path).Msg("session verification timed out")
		return models.Session{}, ErrVerifyTimedOut
	}
}

func (s *Service) verify(tok string) (models.Session, error) {
	claims, err := s.codec.Verify(tok)
	if err != nil {
		log.Debug().Err(err).Msg("session token rejected")
		return models.Session{}, ErrNoSession
	}
	return claims.Session(), nil
}

// SetCookie writes the session cookie on the response. The Domain attribute
// is only set when cross-subdomain SSO is configured.
func (s *Service) SetCookie(w http.ResponseWriter, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    tok,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.TTL.Seconds()),
	})
}

// ClearCookie removes the session cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

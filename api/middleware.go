package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/models"
	"coachportal/services/sessions"
)

const (
	loginPath          = "/login"
	forgotPasswordPath = "/forgot-password"
	resetPasswordPath  = "/reset-password"
)

// protectedPrefixes are the role-gated page areas, keyed by the role allowed in.
var protectedPrefixes = map[string]models.Role{
	"/admin":  models.RoleAdmin,
	"/coach":  models.RoleCoach,
	"/client": models.RoleClient,
}

// Gateway is the central policy enforcement point evaluated before every page
// request. Every outcome is a navigable response: allow, a redirect to login,
// onboarding, or the dashboard, or the generic not-found page. Authorization
// failures are served as not-found on purpose, so the existence of other
// roles' areas is not confirmed to unauthorized callers.
type Gateway struct {
	sessions      *sessions.Service
	verifyTimeout time.Duration
	notFound      http.Handler
}

// NewGateway creates the authorization gateway. notFound is the handler used
// to mask cross-role access; it must be indistinguishable from the router's
// handling of a nonexistent route.
func NewGateway(sessionsSvc *sessions.Service, verifyTimeout time.Duration, notFound http.Handler) *Gateway {
	if notFound == nil {
		notFound = http.NotFoundHandler()
	}
	return &Gateway{sessions: sessionsSvc, verifyTimeout: verifyTimeout, notFound: notFound}
}

// Middleware returns the gateway as mux middleware.
func (g *Gateway) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, next)
		})
	}
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path

	// API and asset routes carry their own session middleware; the gateway
	// only arbitrates page navigation.
	if pathHasPrefix(path, "/api") || pathHasPrefix(path, "/uploads") || path == "/health" {
		next.ServeHTTP(w, r)
		return
	}

	// Password-recovery pages are reachable no matter what the cookie holds.
	if pathHasPrefix(path, forgotPasswordPath) || pathHasPrefix(path, resetPasswordPath) {
		next.ServeHTTP(w, r)
		return
	}

	// Verification is bounded: a timeout or any verification error degrades
	// to "no session", never to a failed request.
	session, err := g.sessions.ResolveWithTimeout(r.Context(), r, g.verifyTimeout)
	hasSession := err == nil
	if err != nil && errors.Is(err, sessions.ErrVerifyTimedOut) {
		log.Warn().Str("path", path).Msg("gateway treating timed-out verification as unauthenticated")
	}

	if path == loginPath {
		if hasSession {
			http.Redirect(w, r, session.Role.DashboardPath(), http.StatusFound)
			return
		}
		// A cookie that did not verify is stale; clear it on the way through.
		if g.sessions.HasCookie(r) {
			g.sessions.ClearCookie(w)
		}
		next.ServeHTTP(w, r)
		return
	}

	prefix, role := matchProtectedPrefix(path)
	if prefix == "" {
		next.ServeHTTP(w, r)
		return
	}

	if !hasSession {
		if g.sessions.HasCookie(r) {
			g.sessions.ClearCookie(w)
		}
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	// Cross-role containment: a session may only enter its own prefix. The
	// mismatch is served as not-found, not 403.
	if session.Role != role {
		g.notFound.ServeHTTP(w, r)
		return
	}

	// Password-change gating. Coaches and clients created with a temporary
	// password are held on their onboarding page until they set their own;
	// once set, the onboarding page itself redirects away.
	if onboard := session.Role.OnboardingPath(); onboard != "" {
		onOnboardPage := pathHasPrefix(path, onboard)
		switch {
		case !session.IsPasswordChanged && !onOnboardPage:
			http.Redirect(w, r, onboard, http.StatusFound)
			return
		case session.IsPasswordChanged && onOnboardPage:
			http.Redirect(w, r, session.Role.DashboardPath(), http.StatusFound)
			return
		}
	}

	next.ServeHTTP(w, r)
}

// RequireSession validates the session cookie for API routes and injects the
// session into the request context. Unauthenticated requests get a 401.
func RequireSession(sessionsSvc *sessions.Service, verifyTimeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessionsSvc.ResolveWithTimeout(r.Context(), r, verifyTimeout)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), auth.ContextKeyUserID, session.UserID)
			ctx = context.WithValue(ctx, auth.ContextKeyRole, session.Role)
			ctx = context.WithValue(ctx, auth.ContextKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts an API subtree to one role. The refusal is a 404, the
// same policy the page gateway applies to cross-role access.
func RequireRole(role models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if auth.GetRole(r) != role {
				writeJSONError(w, http.StatusNotFound, "not found")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchProtectedPrefix(path string) (string, models.Role) {
	for prefix, role := range protectedPrefixes {
		if pathHasPrefix(path, prefix) {
			return prefix, role
		}
	}
	return "", ""
}

// pathHasPrefix matches on segment boundaries, so /client matches /client and
// /client/view but not /clientele.
func pathHasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

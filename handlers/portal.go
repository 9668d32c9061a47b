package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/services/portal"
	"coachportal/utils"
)

// PortalService is the handoff surface the portal handler needs.
type PortalService interface {
	Issue(ctx context.Context, userID, returnURL string) (string, error)
	VerifyAndConsume(ctx context.Context, envelope string) (userID, returnURL string, err error)
	Cleanup(ctx context.Context) (int64, error)
}

// PortalHandler handles single-use cross-domain handoff tokens.
type PortalHandler struct {
	portal    PortalService
	accounts  AccountsService
	sessions  SessionIssuer
	portalURL string
}

// NewPortalHandler creates a new portal handler. portalBaseURL is the base of
// the portal app the handoff link points at.
func NewPortalHandler(portalSvc PortalService, accountsSvc AccountsService, sessionsSvc SessionIssuer, portalBaseURL string) *PortalHandler {
	return &PortalHandler{
		portal:    portalSvc,
		accounts:  accountsSvc,
		sessions:  sessionsSvc,
		portalURL: strings.TrimSuffix(portalBaseURL, "/"),
	}
}

// IssueToken creates a handoff token for the authenticated user. The optional
// returnUrl must be a relative path; anything else falls back to the user's
// dashboard.
func (h *PortalHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		ReturnURL string `json:"returnUrl"`
	}
	if r.Body != nil {
		// Body is optional; a missing returnUrl means the dashboard.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	returnURL := utils.SanitizeReturnURL(req.ReturnURL, session.Role.DashboardPath())

	envelope, err := h.portal.Issue(r.Context(), session.UserID, returnURL)
	if err != nil {
		log.Error().Err(err).Str("user", session.UserID).Msg("issue portal token")
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	q := url.Values{}
	q.Set("token", envelope)
	if returnURL != session.Role.DashboardPath() {
		q.Set("return", returnURL)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token": envelope,
		"url":   h.portalURL + "/portal?" + q.Encode(),
	})
}

// VerifyResponse is the data payload returned on a successful token exchange.
type VerifyResponse struct {
	UserID            string `json:"userId"`
	Role              string `json:"role"`
	IsPasswordChanged bool   `json:"isPasswordChanged"`
	ReturnURL         string `json:"returnUrl"`
}

// VerifyToken redeems a handoff token. On success the session cookie is set
// and the caller learns where to navigate; every failure mode collapses to the
// same 401 so the response never reveals why a token was refused.
func (h *PortalHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "token is required",
		})
		return
	}

	userID, returnURL, err := h.portal.VerifyAndConsume(r.Context(), req.Token)
	if err != nil {
		if !errors.Is(err, portal.ErrInvalidToken) {
			log.Error().Err(err).Msg("portal token verification")
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   "invalid or expired token",
		})
		return
	}

	user, err := h.accounts.Get(userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("load user after token exchange")
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   "invalid or expired token",
		})
		return
	}

	sessionToken, err := h.sessions.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("issue session after token exchange")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to create session",
		})
		return
	}
	h.sessions.SetCookie(w, sessionToken)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": VerifyResponse{
			UserID:            user.ID,
			Role:              string(user.Role),
			IsPasswordChanged: user.IsPasswordChanged,
			ReturnURL:         utils.SanitizeReturnURL(returnURL, user.Role.DashboardPath()),
		},
	})
}

// Cleanup deletes expired and old consumed tokens, for external cron use.
func (h *PortalHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.portal.Cleanup(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("portal token cleanup")
		writeError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

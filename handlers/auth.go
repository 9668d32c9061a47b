package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/models"
	"coachportal/services/accounts"
)

// AccountsService is the slice of the accounts service the auth handler needs.
type AccountsService interface {
	Authenticate(email, password string) (*models.User, error)
	Get(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ChangePassword(id, newPassword string) error
	UpdateProfile(id, name string, avatarURL *string) error
}

// SessionIssuer signs session tokens and manages the session cookie.
type SessionIssuer interface {
	Issue(user *models.User) (string, error)
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
}

// IdentityProvider is the external provider consumed for password recovery.
type IdentityProvider interface {
	SendPasswordRecovery(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	accounts AccountsService
	sessions SessionIssuer
	identity IdentityProvider
	appURL   string
}

// NewAuthHandler creates a new auth handler. appBaseURL is where password
// reset links sent by the identity provider point back to.
func NewAuthHandler(accountsSvc AccountsService, sessionsSvc SessionIssuer, identitySvc IdentityProvider, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		accounts: accountsSvc,
		sessions: sessionsSvc,
		identity: identitySvc,
		appURL:   strings.TrimSuffix(appBaseURL, "/"),
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	UserID            string      `json:"userId"`
	Role              models.Role `json:"role"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	IsPasswordChanged bool        `json:"isPasswordChanged"`
	RedirectTo        string      `json:"redirectTo"`
}

// Login authenticates a user, sets the session cookie, and reports where the
// client should navigate next.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		log.Error().Err(err).Msg("issue session token")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessions.SetCookie(w, token)

	redirect := user.Role.DashboardPath()
	if !user.IsPasswordChanged {
		if onboard := user.Role.OnboardingPath(); onboard != "" {
			redirect = onboard
		}
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		UserID:            user.ID,
		Role:              user.Role,
		Name:              user.Name,
		Email:             user.Email,
		IsPasswordChanged: user.IsPasswordChanged,
		RedirectTo:        redirect,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the current authenticated session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ChangePasswordRequest represents the change-password request body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword sets a new password for the authenticated user and reissues
// the session so the password-changed flag in the token is current.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	user, err := h.accounts.Get(session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	// During onboarding the "current" password is the temporary one the
	// coach handed over; it is verified the same way.
	if _, err := h.accounts.Authenticate(user.Email, req.CurrentPassword); err != nil {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	if err := h.accounts.ChangePassword(user.ID, req.NewPassword); err != nil {
		if errors.Is(err, accounts.ErrPasswordRequired) {
			writeError(w, http.StatusBadRequest, "new password is required")
			return
		}
		log.Error().Err(err).Str("user", user.ID).Msg("change password")
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	updated, err := h.accounts.Get(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload user")
		return
	}
	token, err := h.sessions.Issue(updated)
	if err != nil {
		log.Error().Err(err).Msg("reissue session token")
		writeError(w, http.StatusInternalServerError, "failed to refresh session")
		return
	}
	h.sessions.SetCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "password changed",
		"redirectTo": updated.Role.DashboardPath(),
	})
}

// UpdateProfile changes the authenticated user's display name and avatar,
// then reissues the session so the token's profile claims stay current.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Name      string  `json:"name"`
		AvatarURL *string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.accounts.UpdateProfile(session.UserID, req.Name, req.AvatarURL); err != nil {
		log.Error().Err(err).Str("user", session.UserID).Msg("update profile")
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	updated, err := h.accounts.Get(session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload user")
		return
	}
	token, err := h.sessions.Issue(updated)
	if err != nil {
		log.Error().Err(err).Msg("reissue session token")
		writeError(w, http.StatusInternalServerError, "failed to refresh session")
		return
	}
	h.sessions.SetCookie(w, token)

	writeJSON(w, http.StatusOK, updated)
}

// ForgotPassword asks the identity provider to email a reset link. The
// response is identical whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if _, err := h.accounts.GetByEmail(req.Email); err == nil {
		if err := h.identity.SendPasswordRecovery(r.Context(), req.Email, h.appURL+"/reset-password"); err != nil {
			log.Error().Err(err).Msg("send password recovery")
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "if the email is registered, a reset link has been sent",
	})
}

// ResetPassword completes a provider-driven password reset and mirrors the
// new password into the local store so direct logins keep working.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "email and new password are required")
		return
	}

	user, err := h.accounts.GetByEmail(req.Email)
	if err != nil {
		// Same response as success; reset never confirms registration.
		writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
		return
	}

	if err := h.identity.UpdatePassword(r.Context(), user.ID, req.NewPassword); err != nil {
		log.Warn().Err(err).Msg("identity provider password update")
	}
	if err := h.accounts.ChangePassword(user.ID, req.NewPassword); err != nil {
		log.Error().Err(err).Str("user", user.ID).Msg("reset password")
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

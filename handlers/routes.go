package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"coachportal/api"
	"coachportal/models"
	"coachportal/services/sessions"
)

// RouterConfig collects the handlers and middleware inputs for route
// registration.
type RouterConfig struct {
	Auth      *AuthHandler
	Portal    *PortalHandler
	Clients   *ClientsHandler
	Photos    *PhotosHandler
	Documents *DocumentsHandler
	Messages  *MessagesHandler
	Admin     *AdminHandler

	Sessions      *sessions.Service
	VerifyTimeout time.Duration
}

// RegisterRoutes wires all API routes onto the router. Page-level gating is
// the gateway middleware's job; this only registers the API surface and its
// session/role middleware.
func RegisterRoutes(r *mux.Router, cfg RouterConfig) {
	// Login is the brute-force target; 5 attempts per minute per IP.
	loginLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)

	requireSession := api.RequireSession(cfg.Sessions, cfg.VerifyTimeout)

	// Public auth and handoff endpoints.
	r.Handle("/api/auth/login",
		api.RateLimitHandler(loginLimiter, http.HandlerFunc(cfg.Auth.Login))).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", cfg.Auth.Logout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/forgot-password", cfg.Auth.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/reset-password", cfg.Auth.ResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/api/portal/verify", cfg.Portal.VerifyToken).Methods(http.MethodPost)
	r.HandleFunc("/api/portal/cleanup", cfg.Portal.Cleanup).Methods(http.MethodPost)

	// Authenticated, role-agnostic.
	authed := r.PathPrefix("/api/auth").Subrouter()
	authed.Use(requireSession)
	authed.HandleFunc("/me", cfg.Auth.Me).Methods(http.MethodGet)
	authed.HandleFunc("/change-password", cfg.Auth.ChangePassword).Methods(http.MethodPost)
	authed.HandleFunc("/profile", cfg.Auth.UpdateProfile).Methods(http.MethodPut)

	msgs := r.PathPrefix("/api/messages").Subrouter()
	msgs.Use(requireSession)
	msgs.HandleFunc("", cfg.Messages.Send).Methods(http.MethodPost)
	msgs.HandleFunc("", cfg.Messages.Inbox).Methods(http.MethodGet)
	msgs.HandleFunc("/unread-count", cfg.Messages.UnreadCount).Methods(http.MethodGet)
	msgs.HandleFunc("/{otherID}", cfg.Messages.Conversation).Methods(http.MethodGet)
	msgs.HandleFunc("/{otherID}/read", cfg.Messages.MarkRead).Methods(http.MethodPost)

	// Coach area.
	coach := r.PathPrefix("/api/coach").Subrouter()
	coach.Use(requireSession, api.RequireRole(models.RoleCoach))
	coach.HandleFunc("/portal/token", cfg.Portal.IssueToken).Methods(http.MethodPost)
	coach.HandleFunc("/clients", cfg.Clients.Create).Methods(http.MethodPost)
	coach.HandleFunc("/clients", cfg.Clients.List).Methods(http.MethodGet)
	coach.HandleFunc("/clients/{clientID}", cfg.Clients.Get).Methods(http.MethodGet)
	coach.HandleFunc("/clients/{clientID}", cfg.Clients.Delete).Methods(http.MethodDelete)
	coach.HandleFunc("/clients/{clientID}/phases", cfg.Photos.CreatePhase).Methods(http.MethodPost)
	coach.HandleFunc("/clients/{clientID}/phases", cfg.Photos.ListPhases).Methods(http.MethodGet)
	coach.HandleFunc("/clients/{clientID}/phases/{phaseID}", cfg.Photos.DeletePhase).Methods(http.MethodDelete)
	coach.HandleFunc("/clients/{clientID}/phases/{phaseID}/photos", cfg.Photos.UploadPhoto).Methods(http.MethodPost)
	coach.HandleFunc("/clients/{clientID}/phases/{phaseID}/photos", cfg.Photos.ListPhotos).Methods(http.MethodGet)
	coach.HandleFunc("/clients/{clientID}/photos", cfg.Photos.ListAllPhotos).Methods(http.MethodGet)
	coach.HandleFunc("/clients/{clientID}/photos/{photoID}", cfg.Photos.DeletePhoto).Methods(http.MethodDelete)
	coach.HandleFunc("/documents", cfg.Documents.Create).Methods(http.MethodPost)
	coach.HandleFunc("/documents", cfg.Documents.List).Methods(http.MethodGet)
	coach.HandleFunc("/documents/{docID}", cfg.Documents.Get).Methods(http.MethodGet)
	coach.HandleFunc("/documents/{docID}", cfg.Documents.Update).Methods(http.MethodPut)
	coach.HandleFunc("/documents/{docID}", cfg.Documents.Delete).Methods(http.MethodDelete)

	// Client area.
	client := r.PathPrefix("/api/client").Subrouter()
	client.Use(requireSession, api.RequireRole(models.RoleClient))
	client.HandleFunc("/phases", cfg.Photos.CreatePhase).Methods(http.MethodPost)
	client.HandleFunc("/phases", cfg.Photos.ListPhases).Methods(http.MethodGet)
	client.HandleFunc("/phases/{phaseID}", cfg.Photos.DeletePhase).Methods(http.MethodDelete)
	client.HandleFunc("/phases/{phaseID}/photos", cfg.Photos.UploadPhoto).Methods(http.MethodPost)
	client.HandleFunc("/phases/{phaseID}/photos", cfg.Photos.ListPhotos).Methods(http.MethodGet)
	client.HandleFunc("/photos", cfg.Photos.ListAllPhotos).Methods(http.MethodGet)
	client.HandleFunc("/photos/{photoID}", cfg.Photos.DeletePhoto).Methods(http.MethodDelete)
	client.HandleFunc("/documents", cfg.Documents.ListShared).Methods(http.MethodGet)
	client.HandleFunc("/documents/{docID}", cfg.Documents.Get).Methods(http.MethodGet)

	// Admin area.
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(requireSession, api.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/coaches", cfg.Admin.CreateCoach).Methods(http.MethodPost)
	admin.HandleFunc("/coaches", cfg.Admin.ListCoaches).Methods(http.MethodGet)
	admin.HandleFunc("/coaches/{coachID}", cfg.Admin.DeleteCoach).Methods(http.MethodDelete)
}

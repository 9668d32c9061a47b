package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"coachportal/models"
	"coachportal/services/accounts"
)

// CoachDirectory is the slice of the accounts service the admin area needs.
type CoachDirectory interface {
	CreateCoach(email, name string) (*models.User, string, error)
	ListByRole(role models.Role) ([]models.User, error)
	Get(id string) (*models.User, error)
	DeleteUser(id string) error
}

// AdminHandler handles the admin area: managing coach accounts.
type AdminHandler struct {
	directory CoachDirectory
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(directory CoachDirectory) *AdminHandler {
	return &AdminHandler{directory: directory}
}

// CreateCoachResponse carries the new coach and the one-time temporary
// password handed over out of band.
type CreateCoachResponse struct {
	Coach             *models.User `json:"coach"`
	TemporaryPassword string       `json:"temporaryPassword"`
}

// CreateCoach registers a new coach account.
func (h *AdminHandler) CreateCoach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	coach, tempPassword, err := h.directory.CreateCoach(req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailRequired):
			writeError(w, http.StatusBadRequest, "email is required")
		case errors.Is(err, accounts.ErrEmailExists):
			writeError(w, http.StatusConflict, "email already registered")
		default:
			log.Error().Err(err).Msg("create coach")
			writeError(w, http.StatusInternalServerError, "failed to create coach")
		}
		return
	}

	writeJSON(w, http.StatusCreated, CreateCoachResponse{
		Coach:             coach,
		TemporaryPassword: tempPassword,
	})
}

// ListCoaches returns all coach accounts.
func (h *AdminHandler) ListCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.directory.ListByRole(models.RoleCoach)
	if err != nil {
		log.Error().Err(err).Msg("list coaches")
		writeError(w, http.StatusInternalServerError, "failed to list coaches")
		return
	}
	writeJSON(w, http.StatusOK, coaches)
}

// DeleteCoach removes a coach account.
func (h *AdminHandler) DeleteCoach(w http.ResponseWriter, r *http.Request) {
	coachID := mux.Vars(r)["coachID"]

	coach, err := h.directory.Get(coachID)
	if err != nil || coach.Role != models.RoleCoach {
		writeError(w, http.StatusNotFound, "coach not found")
		return
	}

	if err := h.directory.DeleteUser(coachID); err != nil {
		log.Error().Err(err).Str("coach", coachID).Msg("delete coach")
		writeError(w, http.StatusInternalServerError, "failed to delete coach")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/models"
	"coachportal/services/accounts"
)

// ClientRoster is the slice of the accounts service the coach roster needs.
type ClientRoster interface {
	CreateClient(coachID, email, name string) (*models.User, string, error)
	ListClients(coachID string) ([]models.User, error)
	GetClientOfCoach(coachID, clientID string) (*models.User, error)
	DeleteClient(coachID, clientID string) error
}

// ClientsHandler handles the coach's client roster.
type ClientsHandler struct {
	roster ClientRoster
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(roster ClientRoster) *ClientsHandler {
	return &ClientsHandler{roster: roster}
}

// CreateClientResponse carries the new client and the one-time temporary
// password the coach hands over out of band.
type CreateClientResponse struct {
	Client            *models.User `json:"client"`
	TemporaryPassword string       `json:"temporaryPassword"`
}

// Create registers a new client under the authenticated coach. The generated
// temporary password appears in this response only; it is never retrievable
// again.
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	coachID := auth.GetUserID(r)
	if coachID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, tempPassword, err := h.roster.CreateClient(coachID, req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailRequired):
			writeError(w, http.StatusBadRequest, "email is required")
		case errors.Is(err, accounts.ErrEmailExists):
			writeError(w, http.StatusConflict, "email already registered")
		default:
			log.Error().Err(err).Str("coach", coachID).Msg("create client")
			writeError(w, http.StatusInternalServerError, "failed to create client")
		}
		return
	}

	writeJSON(w, http.StatusCreated, CreateClientResponse{
		Client:            client,
		TemporaryPassword: tempPassword,
	})
}

// List returns the coach's clients.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	coachID := auth.GetUserID(r)
	if coachID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	clients, err := h.roster.ListClients(coachID)
	if err != nil {
		log.Error().Err(err).Str("coach", coachID).Msg("list clients")
		writeError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// Get returns one client, only if it belongs to the authenticated coach.
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	coachID := auth.GetUserID(r)
	if coachID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	client, err := h.roster.GetClientOfCoach(coachID, mux.Vars(r)["clientID"])
	if err != nil {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Delete removes a client from the coach's roster.
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	coachID := auth.GetUserID(r)
	if coachID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	clientID := mux.Vars(r)["clientID"]
	if err := h.roster.DeleteClient(coachID, clientID); err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) || errors.Is(err, accounts.ErrNotClientOfCoach) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		log.Error().Err(err).Str("coach", coachID).Str("client", clientID).Msg("delete client")
		writeError(w, http.StatusInternalServerError, "failed to delete client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

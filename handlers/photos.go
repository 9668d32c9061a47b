package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/models"
	"coachportal/services/photos"
)

// PhotoService is the progress-photo surface the handler needs.
type PhotoService interface {
	CreatePhase(clientID, title string) (*models.Phase, error)
	ListPhases(clientID string) ([]models.Phase, error)
	DeletePhase(clientID, phaseID string) error
	Upload(ctx context.Context, clientID, phaseID string, data []byte, caption string) (*models.Photo, error)
	ListPhotos(clientID, phaseID string) ([]models.Photo, error)
	ListAllPhotos(clientID string) ([]models.Photo, error)
	DeletePhoto(ctx context.Context, clientID, photoID string) error
}

// PhotosHandler handles progress phases and photo uploads. The same handler
// serves both areas: clients act on their own timeline, coaches on a roster
// client named in the path.
type PhotosHandler struct {
	photos PhotoService
	roster ClientRoster
}

// NewPhotosHandler creates a new photos handler.
func NewPhotosHandler(photoSvc PhotoService, roster ClientRoster) *PhotosHandler {
	return &PhotosHandler{photos: photoSvc, roster: roster}
}

// targetClientID resolves which client's timeline the request addresses. A
// client is always their own; a coach must name one of their roster clients.
func (h *PhotosHandler) targetClientID(r *http.Request) (string, bool) {
	switch auth.GetRole(r) {
	case models.RoleClient:
		return auth.GetUserID(r), true
	case models.RoleCoach:
		clientID := mux.Vars(r)["clientID"]
		if _, err := h.roster.GetClientOfCoach(auth.GetUserID(r), clientID); err != nil {
			return "", false
		}
		return clientID, true
	}
	return "", false
}

// CreatePhase appends a phase to the client's timeline.
func (h *PhotosHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	phase, err := h.photos.CreatePhase(clientID, req.Title)
	if err != nil {
		if errors.Is(err, photos.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		log.Error().Err(err).Str("client", clientID).Msg("create phase")
		writeError(w, http.StatusInternalServerError, "failed to create phase")
		return
	}
	writeJSON(w, http.StatusCreated, phase)
}

// ListPhases returns the client's phases in timeline order.
func (h *PhotosHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	phases, err := h.photos.ListPhases(clientID)
	if err != nil {
		log.Error().Err(err).Str("client", clientID).Msg("list phases")
		writeError(w, http.StatusInternalServerError, "failed to list phases")
		return
	}
	writeJSON(w, http.StatusOK, phases)
}

// DeletePhase removes a phase and its photos.
func (h *PhotosHandler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.photos.DeletePhase(clientID, mux.Vars(r)["phaseID"]); err != nil {
		if errors.Is(err, photos.ErrPhaseNotFound) || errors.Is(err, photos.ErrWrongClient) {
			writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		log.Error().Err(err).Str("client", clientID).Msg("delete phase")
		writeError(w, http.StatusInternalServerError, "failed to delete phase")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadPhoto accepts a multipart upload into a phase. The whole request body
// is capped so a single upload cannot exhaust memory.
func (h *PhotosHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photos.MaxUploadBytes)
	if err := r.ParseMultipartForm(photos.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	photo, err := h.photos.Upload(r.Context(), clientID, mux.Vars(r)["phaseID"], data, r.FormValue("caption"))
	if err != nil {
		switch {
		case errors.Is(err, photos.ErrPhaseNotFound), errors.Is(err, photos.ErrWrongClient):
			writeError(w, http.StatusNotFound, "phase not found")
		case errors.Is(err, photos.ErrEmptyUpload):
			writeError(w, http.StatusBadRequest, "uploaded file is empty")
		case errors.Is(err, photos.ErrUnsupportedContent):
			writeError(w, http.StatusUnsupportedMediaType, "only image uploads are accepted")
		default:
			log.Error().Err(err).Str("client", clientID).Msg("upload photo")
			writeError(w, http.StatusInternalServerError, "failed to store photo")
		}
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// ListPhotos returns the photos in one phase.
func (h *PhotosHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	list, err := h.photos.ListPhotos(clientID, mux.Vars(r)["phaseID"])
	if err != nil {
		if errors.Is(err, photos.ErrPhaseNotFound) || errors.Is(err, photos.ErrWrongClient) {
			writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		log.Error().Err(err).Str("client", clientID).Msg("list photos")
		writeError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListAllPhotos returns the client's whole photo history, newest first.
func (h *PhotosHandler) ListAllPhotos(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	list, err := h.photos.ListAllPhotos(clientID)
	if err != nil {
		log.Error().Err(err).Str("client", clientID).Msg("list all photos")
		writeError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeletePhoto removes one photo and its stored object.
func (h *PhotosHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.targetClientID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.photos.DeletePhoto(r.Context(), clientID, mux.Vars(r)["photoID"]); err != nil {
		if errors.Is(err, photos.ErrPhotoNotFound) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		log.Error().Err(err).Str("client", clientID).Msg("delete photo")
		writeError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/models"
	"coachportal/services/documents"
)

// DocumentService is the document surface the handler needs.
type DocumentService interface {
	Create(ownerID, title string, blocks []models.Block, clientID *string) (*models.Document, error)
	Get(userID, docID string) (*models.Document, error)
	ListByOwner(ownerID string) ([]models.Document, error)
	ListForClient(clientID string) ([]models.Document, error)
	Update(ownerID, docID, title string, blocks []models.Block, clientID *string) (*models.Document, error)
	Delete(ownerID, docID string) error
}

// DocumentsHandler handles block-based coaching documents. Coaches author
// them; a document optionally shared with a client shows up in that client's
// list.
type DocumentsHandler struct {
	docs DocumentService
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(docSvc DocumentService) *DocumentsHandler {
	return &DocumentsHandler{docs: docSvc}
}

type documentRequest struct {
	Title    string         `json:"title"`
	Blocks   []models.Block `json:"blocks"`
	ClientID *string        `json:"clientId"`
}

// Create authors a new document owned by the authenticated coach.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.GetUserID(r)

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.docs.Create(ownerID, req.Title, req.Blocks, req.ClientID)
	if err != nil {
		if errors.Is(err, documents.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		log.Error().Err(err).Str("owner", ownerID).Msg("create document")
		writeError(w, http.StatusInternalServerError, "failed to create document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// List returns the coach's documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.GetUserID(r)

	docs, err := h.docs.ListByOwner(ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner", ownerID).Msg("list documents")
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ListShared returns the documents shared with the authenticated client.
func (h *DocumentsHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	clientID := auth.GetUserID(r)

	docs, err := h.docs.ListForClient(clientID)
	if err != nil {
		log.Error().Err(err).Str("client", clientID).Msg("list shared documents")
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Get returns one document readable by the authenticated user.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(auth.GetUserID(r), mux.Vars(r)["docID"])
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Update replaces an owned document's title, blocks, and shared client.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.GetUserID(r)

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.docs.Update(ownerID, mux.Vars(r)["docID"], req.Title, req.Blocks, req.ClientID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrTitleRequired):
			writeError(w, http.StatusBadRequest, "title is required")
		case errors.Is(err, documents.ErrDocumentNotFound), errors.Is(err, documents.ErrNotOwner):
			writeError(w, http.StatusNotFound, "document not found")
		default:
			log.Error().Err(err).Str("owner", ownerID).Msg("update document")
			writeError(w, http.StatusInternalServerError, "failed to update document")
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Delete removes an owned document.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.GetUserID(r)

	if err := h.docs.Delete(ownerID, mux.Vars(r)["docID"]); err != nil {
		if errors.Is(err, documents.ErrDocumentNotFound) || errors.Is(err, documents.ErrNotOwner) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		log.Error().Err(err).Str("owner", ownerID).Msg("delete document")
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

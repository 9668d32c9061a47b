package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"coachportal/internal/auth"
	"coachportal/models"
	"coachportal/services/messages"
)

// MessageService is the inbox surface the handler needs.
type MessageService interface {
	Send(senderID, recipientID, body string) (*models.Message, error)
	Conversation(userID, otherID string) ([]models.Message, error)
	Inbox(userID string) ([]models.Message, error)
	UnreadCount(userID string) (int, error)
	MarkRead(userID, otherID string) (int64, error)
}

// MessagesHandler handles the coach/client inbox.
type MessagesHandler struct {
	messages MessageService
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(msgSvc MessageService) *MessagesHandler {
	return &MessagesHandler{messages: msgSvc}
}

// Send delivers a message to a recipient along the coaching relationship.
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID := auth.GetUserID(r)

	var req struct {
		RecipientID string `json:"recipientId"`
		Body        string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messages.Send(senderID, req.RecipientID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrBodyRequired):
			writeError(w, http.StatusBadRequest, "message body is required")
		case errors.Is(err, messages.ErrRecipientInvalid):
			// Unreachable recipients look the same as nonexistent ones.
			writeError(w, http.StatusNotFound, "recipient not found")
		default:
			log.Error().Err(err).Str("sender", senderID).Msg("send message")
			writeError(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Inbox returns the user's received messages, newest first.
func (h *MessagesHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)

	msgs, err := h.messages.Inbox(userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("load inbox")
		writeError(w, http.StatusInternalServerError, "failed to load inbox")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// UnreadCount returns the number of unread messages.
func (h *MessagesHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)

	count, err := h.messages.UnreadCount(userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("unread count")
		writeError(w, http.StatusInternalServerError, "failed to count unread messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// Conversation returns the full thread with another user, oldest first.
func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)

	msgs, err := h.messages.Conversation(userID, mux.Vars(r)["otherID"])
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("load conversation")
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// MarkRead marks the thread from another user as read.
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)

	updated, err := h.messages.MarkRead(userID, mux.Vars(r)["otherID"])
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("mark read")
		writeError(w, http.StatusInternalServerError, "failed to mark messages read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

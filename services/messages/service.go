package messages

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"coachportal/internal/database"
	"coachportal/models"
)

var (
	ErrBodyRequired     = errors.New("message body is required")
	ErrRecipientInvalid = errors.New("recipient is not reachable from this account")
)

// Service manages the coach/client inbox. Messages only flow along the
// coaching relationship: a coach to their clients and back.
type Service struct {
	repo  *database.MessageRepository
	users *database.UserRepository
}

// NewService creates a messages service.
func NewService(repo *database.MessageRepository, users *database.UserRepository) *Service {
	return &Service{repo: repo, users: users}
}

// Send delivers a message from sender to recipient after checking the pair is
// a coaching relationship.
func (s *Service) Send(senderID, recipientID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrBodyRequired
	}

	ok, err := s.related(senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecipientInvalid
	}

	msg := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Conversation returns the full thread between two users, oldest first.
func (s *Service) Conversation(userID, otherID string) ([]models.Message, error) {
	return s.repo.ListConversation(userID, otherID)
}

// Inbox returns all messages received by the user, newest first.
func (s *Service) Inbox(userID string) ([]models.Message, error) {
	return s.repo.ListInbox(userID)
}

// UnreadCount returns the user's number of unread messages.
func (s *Service) UnreadCount(userID string) (int, error) {
	return s.repo.UnreadCount(userID)
}

// MarkRead marks the thread from otherID as read and returns how many
// messages changed state.
func (s *Service) MarkRead(userID, otherID string) (int64, error) {
	return s.repo.MarkRead(userID, otherID)
}

// related reports whether the two users form a coach/client pair. Admins can
// message anyone.
func (s *Service) related(senderID, recipientID string) (bool, error) {
	sender, err := s.users.GetUserByID(senderID)
	if err != nil {
		return false, err
	}
	recipient, err := s.users.GetUserByID(recipientID)
	if err != nil {
		return false, err
	}
	if sender == nil || recipient == nil {
		return false, nil
	}

	switch {
	case sender.Role == models.RoleAdmin:
		return true, nil
	case sender.Role == models.RoleCoach:
		return recipient.IsClientOf(sender.ID), nil
	case sender.Role == models.RoleClient:
		return sender.CoachID != nil && *sender.CoachID == recipient.ID, nil
	}
	return false, nil
}

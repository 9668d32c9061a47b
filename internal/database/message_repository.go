package database

import (
	"database/sql"
	"fmt"
	"time"

	"coachportal/models"
)

// MessageRepository handles persistence of inbox messages.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage inserts a message.
func (r *MessageRepository) CreateMessage(m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT INTO messages (id, sender_id, recipient_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.RecipientID, m.Body, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListConversation returns all messages between two users, oldest first.
func (r *MessageRepository) ListConversation(userA, userB string) ([]models.Message, error) {
	rows, err := r.db.Query(
		`SELECT id, sender_id, recipient_id, body, read_at, created_at FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY created_at ASC`,
		userA, userB, userB, userA,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListInbox returns all messages received by a user, newest first.
func (r *MessageRepository) ListInbox(recipientID string) ([]models.Message, error) {
	rows, err := r.db.Query(
		`SELECT id, sender_id, recipient_id, body, read_at, created_at FROM messages
		 WHERE recipient_id = ? ORDER BY created_at DESC`,
		recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// UnreadCount returns the number of unread messages for a user.
func (r *MessageRepository) UnreadCount(recipientID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND read_at IS NULL`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkRead marks every unread message from sender to recipient as read.
func (r *MessageRepository) MarkRead(recipientID, senderID string) (int64, error) {
	res, err := r.db.Exec(
		`UPDATE messages SET read_at = ? WHERE recipient_id = ? AND sender_id = ? AND read_at IS NULL`,
		time.Now().UTC(), recipientID, senderID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

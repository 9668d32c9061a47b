package models

import "time"

// Message is a single inbox message between a coach and a client.
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	RecipientID string     `json:"recipientId"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsRead returns true once the recipient has read the message.
func (m Message) IsRead() bool {
	return m.ReadAt != nil
}

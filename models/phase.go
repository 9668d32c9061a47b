package models

import "time"

// Phase is a named stage in a client's progress timeline. Progress photos are
// grouped under phases in the order given by Position.
type Phase struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Photo is a progress photo uploaded by a client into a phase. The image bytes
// live in object storage; this record holds the metadata and public URL.
type Photo struct {
	ID          string    `json:"id"`
	PhaseID     string    `json:"phaseId"`
	ClientID    string    `json:"clientId"`
	URL         string    `json:"url"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Caption     string    `json:"caption,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

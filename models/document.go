package models

import (
	"encoding/json"
	"time"
)

// Block is a single unit of a block-based document. Type names the block kind
// (paragraph, heading, list, image, ...) and Data carries the editor payload.
type Block struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Document is a block-based document authored by a coach, optionally shared
// with a single client.
type Document struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ClientID  *string   `json:"clientId,omitempty"`
	Title     string    `json:"title"`
	Blocks    []Block   `json:"blocks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

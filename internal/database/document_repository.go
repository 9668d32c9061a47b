package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"coachportal/models"
)

// DocumentRepository handles persistence of block-based documents. Blocks are
// stored as a JSON column; the editor payload is opaque to the server.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateDocument inserts a document.
func (r *DocumentRepository) CreateDocument(d *models.Document) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}

	blocks, err := marshalBlocks(d.Blocks)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO documents (id, owner_id, client_id, title, blocks, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, d.ClientID, d.Title, blocks, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument returns a document by ID, or nil if not found.
func (r *DocumentRepository) GetDocument(id string) (*models.Document, error) {
	row := r.db.QueryRow(
		`SELECT id, owner_id, client_id, title, blocks, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	)

	var d models.Document
	var blocks string
	err := row.Scan(&d.ID, &d.OwnerID, &d.ClientID, &d.Title, &blocks, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	if err := json.Unmarshal([]byte(blocks), &d.Blocks); err != nil {
		return nil, fmt.Errorf("unmarshal blocks: %w", err)
	}
	return &d, nil
}

// ListDocumentsByOwner returns a coach's documents, most recently updated first.
func (r *DocumentRepository) ListDocumentsByOwner(ownerID string) ([]models.Document, error) {
	return r.list(`SELECT id, owner_id, client_id, title, blocks, created_at, updated_at
		 FROM documents WHERE owner_id = ? ORDER BY updated_at DESC`, ownerID)
}

// ListDocumentsByClient returns documents shared with a client.
func (r *DocumentRepository) ListDocumentsByClient(clientID string) ([]models.Document, error) {
	return r.list(`SELECT id, owner_id, client_id, title, blocks, created_at, updated_at
		 FROM documents WHERE client_id = ? ORDER BY updated_at DESC`, clientID)
}

func (r *DocumentRepository) list(query string, arg any) ([]models.Document, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		var blocks string
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.ClientID, &d.Title, &blocks, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(blocks), &d.Blocks); err != nil {
			return nil, fmt.Errorf("unmarshal blocks: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocument replaces the title, blocks, and shared client of a document.
func (r *DocumentRepository) UpdateDocument(d *models.Document) error {
	blocks, err := marshalBlocks(d.Blocks)
	if err != nil {
		return err
	}

	d.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(
		`UPDATE documents SET title = ?, blocks = ?, client_id = ?, updated_at = ? WHERE id = ?`,
		d.Title, blocks, d.ClientID, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireOneRow(res, "document")
}

// DeleteDocument removes a document.
func (r *DocumentRepository) DeleteDocument(id string) error {
	res, err := r.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireOneRow(res, "document")
}

func marshalBlocks(blocks []models.Block) (string, error) {
	if blocks == nil {
		blocks = []models.Block{}
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("marshal blocks: %w", err)
	}
	return string(b), nil
}

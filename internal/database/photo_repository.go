package database

import (
	"database/sql"
	"fmt"
	"time"

	"coachportal/models"
)

// PhotoRepository handles persistence of progress photo metadata.
type PhotoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new photo repository.
func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

const photoColumns = `id, phase_id, client_id, url, object_key, content_type, size_bytes, caption, created_at`

// CreatePhoto inserts a photo metadata record.
func (r *PhotoRepository) CreatePhoto(p *models.Photo) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PhaseID, p.ClientID, p.URL, p.ObjectKey, p.ContentType, p.SizeBytes, p.Caption, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetPhoto returns a photo by ID, or nil if not found.
func (r *PhotoRepository) GetPhoto(id string) (*models.Photo, error) {
	var p models.Photo
	err := r.db.QueryRow(`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id).
		Scan(&p.ID, &p.PhaseID, &p.ClientID, &p.URL, &p.ObjectKey, &p.ContentType, &p.SizeBytes, &p.Caption, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan photo: %w", err)
	}
	return &p, nil
}

// ListPhotosByPhase returns all photos in a phase, oldest first.
func (r *PhotoRepository) ListPhotosByPhase(phaseID string) ([]models.Photo, error) {
	return r.list(`SELECT `+photoColumns+` FROM photos WHERE phase_id = ? ORDER BY created_at ASC`, phaseID)
}

// ListPhotosByClient returns all of a client's photos, newest first.
func (r *PhotoRepository) ListPhotosByClient(clientID string) ([]models.Photo, error) {
	return r.list(`SELECT `+photoColumns+` FROM photos WHERE client_id = ? ORDER BY created_at DESC`, clientID)
}

func (r *PhotoRepository) list(query string, arg any) ([]models.Photo, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.PhaseID, &p.ClientID, &p.URL, &p.ObjectKey, &p.ContentType, &p.SizeBytes, &p.Caption, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// DeletePhoto removes a photo metadata record.
func (r *PhotoRepository) DeletePhoto(id string) error {
	res, err := r.db.Exec(`DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return requireOneRow(res, "photo")
}

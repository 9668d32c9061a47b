package database

import (
	"database/sql"
	"fmt"
	"time"

	"coachportal/models"
)

// PhaseRepository handles persistence of client progress phases.
type PhaseRepository struct {
	db *sql.DB
}

// NewPhaseRepository creates a new phase repository.
func NewPhaseRepository(db *sql.DB) *PhaseRepository {
	return &PhaseRepository{db: db}
}

// CreatePhase inserts a phase. Position is assigned as max+1 for the client
// when left at zero, so new phases append to the end of the timeline.
func (r *PhaseRepository) CreatePhase(p *models.Phase) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Position == 0 {
		var max sql.NullInt64
		if err := r.db.QueryRow(
			`SELECT MAX(position) FROM phases WHERE client_id = ?`, p.ClientID,
		).Scan(&max); err != nil {
			return fmt.Errorf("max position: %w", err)
		}
		p.Position = int(max.Int64) + 1
	}

	_, err := r.db.Exec(
		`INSERT INTO phases (id, client_id, title, position, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.Title, p.Position, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert phase: %w", err)
	}
	return nil
}

// GetPhase returns a phase by ID, or nil if not found.
func (r *PhaseRepository) GetPhase(id string) (*models.Phase, error) {
	var p models.Phase
	err := r.db.QueryRow(
		`SELECT id, client_id, title, position, created_at FROM phases WHERE id = ?`, id,
	).Scan(&p.ID, &p.ClientID, &p.Title, &p.Position, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan phase: %w", err)
	}
	return &p, nil
}

// ListPhasesByClient returns a client's phases in timeline order.
func (r *PhaseRepository) ListPhasesByClient(clientID string) ([]models.Phase, error) {
	rows, err := r.db.Query(
		`SELECT id, client_id, title, position, created_at FROM phases
		 WHERE client_id = ? ORDER BY position ASC`, clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var phases []models.Phase
	for rows.Next() {
		var p models.Phase
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Title, &p.Position, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// DeletePhase removes a phase; its photos cascade at the schema level.
func (r *PhaseRepository) DeletePhase(id string) error {
	res, err := r.db.Exec(`DELETE FROM phases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete phase: %w", err)
	}
	return requireOneRow(res, "phase")
}

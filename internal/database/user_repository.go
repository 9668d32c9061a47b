package database

import (
	"database/sql"
	"fmt"
	"time"

	"coachportal/models"
)

// UserRepository handles persistence of users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, role, password_hash, is_password_changed, avatar_url, coach_id, created_at, updated_at`

// CreateUser inserts a new user. CreatedAt/UpdatedAt are set if zero.
func (r *UserRepository) CreateUser(u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err := r.db.Exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.IsPasswordChanged,
		u.AvatarURL, u.CoachID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID returns the user with the given ID, or nil if not found.
func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email (case-insensitive), or nil.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

// ListClientsByCoach returns all clients belonging to a coach, newest first.
func (r *UserRepository) ListClientsByCoach(coachID string) ([]models.User, error) {
	rows, err := r.db.Query(
		`SELECT `+userColumns+` FROM users WHERE role = ? AND coach_id = ? ORDER BY created_at DESC`,
		string(models.RoleClient), coachID,
	)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListByRole returns all users with the given role, newest first.
func (r *UserRepository) ListByRole(role models.Role) ([]models.User, error) {
	rows, err := r.db.Query(
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at DESC`,
		string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("query users by role: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdatePassword replaces the password hash and records that the user has
// completed their initial password change.
func (r *UserRepository) UpdatePassword(id, passwordHash string) error {
	res, err := r.db.Exec(
		`UPDATE users SET password_hash = ?, is_password_changed = 1, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireOneRow(res, "user")
}

// UpdateProfile updates the display name and avatar URL.
func (r *UserRepository) UpdateProfile(id, name string, avatarURL *string) error {
	res, err := r.db.Exec(
		`UPDATE users SET name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		name, avatarURL, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireOneRow(res, "user")
}

// DeleteUser removes a user. Dependent rows cascade at the schema level.
func (r *UserRepository) DeleteUser(id string) error {
	res, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireOneRow(res, "user")
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash,
		&u.IsPasswordChanged, &u.AvatarURL, &u.CoachID, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func scanUserRows(rows *sql.Rows) (*models.User, error) {
	var u models.User
	var role string
	err := rows.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash,
		&u.IsPasswordChanged, &u.AvatarURL, &u.CoachID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func requireOneRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found", entity)
	}
	return nil
}

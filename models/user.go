package models

import (
	"encoding/json"
	"time"
)

// User represents an account in the portal: an admin, a coach, or a client.
// Clients are linked to the coach that created them via CoachID.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Role              Role      `json:"role"`
	PasswordHash      string    `json:"-"` // bcrypt hash, never exposed in API responses
	IsPasswordChanged bool      `json:"isPasswordChanged"`
	AvatarURL         *string   `json:"avatarUrl,omitempty"`
	CoachID           *string   `json:"coachId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// MarshalJSON implements custom JSON marshaling to ensure the password hash is
// never exposed in API responses.
func (u User) MarshalJSON() ([]byte, error) {
	type UserAlias User // prevent recursion
	return json.Marshal(&struct {
		UserAlias
	}{
		UserAlias: UserAlias(u),
	})
}

// IsClientOf reports whether the user is a client belonging to the given coach.
func (u User) IsClientOf(coachID string) bool {
	return u.Role == RoleClient && u.CoachID != nil && *u.CoachID == coachID
}

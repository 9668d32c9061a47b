package models

import "time"

// Session is the trusted identity reconstructed from a verified session token.
// It is derived per request and never persisted.
type Session struct {
	UserID            string  `json:"userId"`
	Role              Role    `json:"role"`
	IsPasswordChanged bool    `json:"isPasswordChanged"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	AvatarURL         *string `json:"avatarUrl,omitempty"`
}

// SessionClaims is the payload signed into a session token.
type SessionClaims struct {
	UserID            string
	Role              Role
	IsPasswordChanged bool
	Name              string
	Email             string
	AvatarURL         *string
	IssuedAt          time.Time
	ExpiresAt         time.Time
}

// Session converts verified claims into the request-scoped session value.
func (c SessionClaims) Session() Session {
	return Session{
		UserID:            c.UserID,
		Role:              c.Role,
		IsPasswordChanged: c.IsPasswordChanged,
		Name:              c.Name,
		Email:             c.Email,
		AvatarURL:         c.AvatarURL,
	}
}

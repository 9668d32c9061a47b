package models

import "time"

// PortalToken is a one-time, short-lived handoff token that lets an
// authenticated coach cross into the portal subdomain without re-entering
// credentials. The opaque Token value is stored server-side; what travels to
// the browser is a signed envelope wrapping it.
type PortalToken struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	ReturnURL string     `json:"returnUrl,omitempty"`
	Used      bool       `json:"used"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}

// IsExpired returns true if the token's store-side expiry has passed.
func (p PortalToken) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

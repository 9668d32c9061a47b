package auth

import (
	"net/http"

	"coachportal/models"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyUserID is the key for the authenticated user ID in the context
	ContextKeyUserID ContextKey = "userID"
	// ContextKeyRole is the key for the session role in the context
	ContextKeyRole ContextKey = "role"
	// ContextKeySession is the key for the resolved session in the context
	ContextKeySession ContextKey = "session"
)

// GetUserID retrieves the authenticated user ID from the request context.
func GetUserID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}

// GetRole retrieves the session role from the request context.
func GetRole(r *http.Request) models.Role {
	if role, ok := r.Context().Value(ContextKeyRole).(models.Role); ok {
		return role
	}
	return ""
}

// GetSession retrieves the resolved session from the request context.
func GetSession(r *http.Request) (models.Session, bool) {
	session, ok := r.Context().Value(ContextKeySession).(models.Session)
	return session, ok
}

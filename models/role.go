package models

import "strings"

// Role determines which protected area of the application a user may access.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleCoach  Role = "COACH"
	RoleClient Role = "CLIENT"
)

// ParseRole returns the Role for the given string, case-insensitively.
// The second return value reports whether the value named a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCoach:
		return RoleCoach, true
	case RoleClient:
		return RoleClient, true
	}
	return "", false
}

// IsValid reports whether the role is one of the three recognized values.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCoach || r == RoleClient
}

// PathPrefix returns the URL prefix of the role's protected area, e.g. "/coach".
func (r Role) PathPrefix() string {
	return "/" + strings.ToLower(string(r))
}

// DashboardPath returns the dashboard root a session of this role lands on.
func (r Role) DashboardPath() string {
	return r.PathPrefix()
}

// OnboardingPath returns the password-change onboarding path for the role.
// Admins have no onboarding step and get an empty string.
func (r Role) OnboardingPath() string {
	switch r {
	case RoleCoach, RoleClient:
		return r.PathPrefix() + "/onboard"
	}
	return ""
}

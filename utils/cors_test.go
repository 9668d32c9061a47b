package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowedOrigin(t *testing.T) {
	SetTrustedOrigins([]string{"https://www.example-coaching.com/"})
	t.Cleanup(func() { SetTrustedOrigins(nil) })

	tests := []struct {
		origin  string
		allowed bool
	}{
		// Allowed: configured origin (trailing slash normalized)
		{"https://www.example-coaching.com", true},

		// Allowed: localhost
		{"http://localhost", true},
		{"http://localhost:8081", true},
		{"https://localhost:3000", true},

		// Allowed: private IPs
		{"http://192.168.1.1", true},
		{"http://192.168.1.1:7777", true},
		{"http://10.0.0.1:8080", true},
		{"http://172.16.0.1", true},
		{"http://127.0.0.1:3000", true},

		// Blocked: public domains not configured
		{"http://example.com", false},
		{"https://evil.com", false},
		{"https://www.example-coaching.com.evil.com", false},

		// Blocked: public IPs
		{"http://8.8.8.8", false},
		{"http://1.1.1.1", false},

		// Blocked: empty/invalid
		{"", false},
		{"not-a-url", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, IsAllowedOrigin(tt.origin), "IsAllowedOrigin(%q)", tt.origin)
	}
}

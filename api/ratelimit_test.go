package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func limitedHandler(limit rate.Limit, burst int) http.Handler {
	rl := NewIPRateLimiter(limit, burst)
	return RateLimitHandler(rl, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(t *testing.T, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBurstThenBlock(t *testing.T) {
	h := limitedHandler(rate.Every(time.Minute), 3)

	for i := 0; i < 3; i++ {
		if rec := hit(t, h, "10.0.0.1:5000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d within burst: status = %d, want 200", i, rec.Code)
		}
	}

	rec := hit(t, h, "10.0.0.1:5000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over burst: status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "too many requests" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	h := limitedHandler(rate.Every(time.Minute), 1)

	if rec := hit(t, h, "10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Fatalf("first client first hit: %d", rec.Code)
	}
	if rec := hit(t, h, "10.0.0.1:5000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second hit: %d, want 429", rec.Code)
	}
	// A different IP has its own bucket.
	if rec := hit(t, h, "10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Fatalf("second client first hit: %d, want 200", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr only", "192.0.2.1:54321", nil, "192.0.2.1"},
		{"x-forwarded-for single", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.50"}, "203.0.113.50"},
		{"x-forwarded-for chain takes first", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, "203.0.113.50"},
		{"x-real-ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.10"}, "198.51.100.10"},
		{"forwarded-for beats real-ip", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.50", "X-Real-IP": "198.51.100.10"}, "203.0.113.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

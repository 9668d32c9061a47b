package sessions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coachportal/internal/token"
	"coachportal/models"
)

func setupTestSessions(t *testing.T) *Service {
	t.Helper()
	codec, err := token.NewCodec("test-secret", time.Hour, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return NewService(codec, Config{CookieName: "cp_session", TTL: time.Hour})
}

func testUser() *models.User {
	return &models.User{
		ID:                "user-1",
		Email:             "user@example.com",
		Name:              "User One",
		Role:              models.RoleCoach,
		IsPasswordChanged: true,
	}
}

func requestWithCookie(svc *Service, user *models.User, t *testing.T) *http.Request {
	t.Helper()
	tok, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.SetCookie(rec, tok)

	req := httptest.NewRequest(http.MethodGet, "/coach", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestIssueAndResolve(t *testing.T) {
	svc := setupTestSessions(t)
	req := requestWithCookie(svc, testUser(), t)

	session, err := svc.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if session.UserID != "user-1" || session.Role != models.RoleCoach {
		t.Errorf("unexpected session: %+v", session)
	}
	if !session.IsPasswordChanged {
		t.Error("IsPasswordChanged should survive the round trip")
	}
}

func TestResolveWithoutCookie(t *testing.T) {
	svc := setupTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/coach", nil)
	if _, err := svc.Resolve(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if svc.HasCookie(req) {
		t.Error("HasCookie should be false without a cookie")
	}
}

func TestResolveWithGarbageCookie(t *testing.T) {
	svc := setupTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/coach", nil)
	req.AddCookie(&http.Cookie{Name: "cp_session", Value: "garbage"})

	if _, err := svc.Resolve(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if !svc.HasCookie(req) {
		t.Error("HasCookie should be true even for an invalid cookie")
	}
}

func TestResolveWithTimeout(t *testing.T) {
	svc := setupTestSessions(t)
	req := requestWithCookie(svc, testUser(), t)

	session, err := svc.ResolveWithTimeout(context.Background(), req, time.Second)
	if err != nil {
		t.Fatalf("ResolveWithTimeout: %v", err)
	}
	if session.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", session.UserID)
	}
}

func TestResolveWithTimeoutExpires(t *testing.T) {
	svc := setupTestSessions(t)
	req := requestWithCookie(svc, testUser(), t)

	// Slow the codec's clock so verification cannot finish inside the
	// deadline.
	token.NowTimeFunc = func() time.Time {
		time.Sleep(100 * time.Millisecond)
		return time.Now()
	}
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	// Timed-out verification resolves to "no session", never to an error the
	// caller has to special-case beyond "unauthenticated".
	if _, err := svc.ResolveWithTimeout(context.Background(), req, 10*time.Millisecond); !errors.Is(err, ErrVerifyTimedOut) {
		t.Fatalf("expected ErrVerifyTimedOut, got %v", err)
	}
}

func TestCookieAttributes(t *testing.T) {
	svc := setupTestSessions(t)

	rec := httptest.NewRecorder()
	svc.SetCookie(rec, "tok")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, int(time.Hour.Seconds()))
	}
}

func TestClearCookie(t *testing.T) {
	svc := setupTestSessions(t)

	rec := httptest.NewRecorder()
	svc.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Errorf("Value = %q, want empty", cookies[0].Value)
	}
}

package token

import (
	"errors"
	"testing"
	"time"

	"coachportal/models"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("test-secret", time.Hour, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("", time.Hour, time.Minute); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired, got %v", err)
	}
	if _, err := NewCodec("   ", time.Hour, time.Minute); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired for blank secret, got %v", err)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	avatar := "https://cdn.example.com/a.png"
	session := models.Session{
		UserID:            "user-1",
		Role:              models.RoleCoach,
		IsPasswordChanged: true,
		Name:              "Jamie Coach",
		Email:             "jamie@example.com",
		AvatarURL:         &avatar,
	}

	tok, err := codec.Sign(session)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	got := claims.Session()
	if got.UserID != session.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, session.UserID)
	}
	if got.Role != session.Role {
		t.Errorf("Role = %q, want %q", got.Role, session.Role)
	}
	if got.IsPasswordChanged != session.IsPasswordChanged {
		t.Errorf("IsPasswordChanged = %v, want %v", got.IsPasswordChanged, session.IsPasswordChanged)
	}
	if got.Name != session.Name || got.Email != session.Email {
		t.Errorf("profile = %q/%q, want %q/%q", got.Name, got.Email, session.Name, session.Email)
	}
	if got.AvatarURL == nil || *got.AvatarURL != avatar {
		t.Errorf("AvatarURL = %v, want %q", got.AvatarURL, avatar)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	codec := newTestCodec(t)

	tok, err := codec.Sign(models.Session{UserID: "user-1", Role: models.RoleClient})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	NowTimeFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }
	t.Cleanup(func() { NowTimeFunc = time.Now })

	if _, err := codec.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("different-secret", time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	tok, err := codec.Sign(models.Session{UserID: "user-1", Role: models.RoleAdmin, IsPasswordChanged: true})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := other.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	codec := newTestCodec(t)

	tok, err := codec.Sign(models.Session{UserID: "user-1", Role: models.RoleClient, IsPasswordChanged: true})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tampered := tok[:len(tok)-4] + "AAAA"
	if _, err := codec.Verify(tampered); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	codec := newTestCodec(t)

	// A role outside the recognized set must not produce a session even with a
	// valid signature.
	tok, err := codec.Sign(models.Session{UserID: "user-1", Role: models.Role("SUPERUSER")})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := codec.Verify(tok); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestHandoffRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	envelope, err := codec.SignHandoff("opaque-token-id", "user-9")
	if err != nil {
		t.Fatalf("SignHandoff: %v", err)
	}

	tokenID, userID, err := codec.VerifyHandoff(envelope)
	if err != nil {
		t.Fatalf("VerifyHandoff: %v", err)
	}
	if tokenID != "opaque-token-id" {
		t.Errorf("tokenID = %q, want %q", tokenID, "opaque-token-id")
	}
	if userID != "user-9" {
		t.Errorf("userID = %q, want %q", userID, "user-9")
	}
}

func TestHandoffExpires(t *testing.T) {
	codec := newTestCodec(t)

	envelope, err := codec.SignHandoff("opaque-token-id", "user-9")
	if err != nil {
		t.Fatalf("SignHandoff: %v", err)
	}

	NowTimeFunc = func() time.Time { return time.Now().Add(10 * time.Minute) }
	t.Cleanup(func() { NowTimeFunc = time.Now })

	if _, _, err := codec.VerifyHandoff(envelope); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired envelope, got %v", err)
	}
}

func TestSessionTokenRejectedAsHandoff(t *testing.T) {
	codec := newTestCodec(t)

	tok, err := codec.Sign(models.Session{UserID: "user-1", Role: models.RoleCoach, IsPasswordChanged: true})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// A session token carries no tid claim, so it cannot act as a handoff.
	if _, _, err := codec.VerifyHandoff(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

package database

import (
	"testing"
	"time"

	"coachportal/models"
)

func setupTestUsers(t *testing.T) *UserRepository {
	t.Helper()
	db := setupTestDB(t)
	return NewUserRepository(db.Connection())
}

func TestCreateAndGetUser(t *testing.T) {
	repo := setupTestUsers(t)
	insertTestUser(t, repo, "coach-1", models.RoleCoach)

	got, err := repo.GetUserByID("coach-1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.Role != models.RoleCoach || got.Email != "coach-1@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
	if got.IsPasswordChanged {
		t.Error("new user should not have password changed")
	}

	missing, err := repo.GetUserByID("nope")
	if err != nil {
		t.Fatalf("GetUserByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v", missing)
	}
}

func TestGetUserByEmailIsCaseInsensitive(t *testing.T) {
	repo := setupTestUsers(t)
	insertTestUser(t, repo, "coach-1", models.RoleCoach)

	got, err := repo.GetUserByEmail("COACH-1@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got == nil || got.ID != "coach-1" {
		t.Fatalf("expected coach-1, got %+v", got)
	}
}

func TestListClientsByCoach(t *testing.T) {
	repo := setupTestUsers(t)
	insertTestUser(t, repo, "coach-1", models.RoleCoach)
	insertTestUser(t, repo, "coach-2", models.RoleCoach)

	coachID := "coach-1"
	for _, id := range []string{"client-a", "client-b"} {
		err := repo.CreateUser(&models.User{
			ID:           id,
			Email:        id + "@example.com",
			Name:         id,
			Role:         models.RoleClient,
			PasswordHash: "x",
			CoachID:      &coachID,
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	clients, err := repo.ListClientsByCoach("coach-1")
	if err != nil {
		t.Fatalf("ListClientsByCoach: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("got %d clients, want 2", len(clients))
	}

	none, err := repo.ListClientsByCoach("coach-2")
	if err != nil {
		t.Fatalf("ListClientsByCoach: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("coach-2 should have no clients, got %d", len(none))
	}
}

func TestUpdatePasswordSetsChangedFlag(t *testing.T) {
	repo := setupTestUsers(t)
	insertTestUser(t, repo, "client-1", models.RoleClient)

	if err := repo.UpdatePassword("client-1", "new-hash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	got, err := repo.GetUserByID("client-1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want new-hash", got.PasswordHash)
	}
	if !got.IsPasswordChanged {
		t.Error("IsPasswordChanged should be true after UpdatePassword")
	}

	if err := repo.UpdatePassword("nope", "h"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db.Connection())
	tokens := NewPortalTokenRepository(db.Connection())

	insertTestUser(t, users, "coach-1", models.RoleCoach)
	insertTestToken(t, tokens, "tok-1", "coach-1", time.Now().UTC().Add(5*time.Minute))

	if err := users.DeleteUser("coach-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	rec, err := tokens.GetByToken("tok-1")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if rec != nil {
		t.Fatal("portal tokens should cascade on user delete")
	}
}

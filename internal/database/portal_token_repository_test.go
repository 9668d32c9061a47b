package database

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"coachportal/models"
)

func setupTestPortalTokens(t *testing.T) (*PortalTokenRepository, *UserRepository) {
	t.Helper()
	db := setupTestDB(t)
	return NewPortalTokenRepository(db.Connection()), NewUserRepository(db.Connection())
}

func insertTestUser(t *testing.T, users *UserRepository, id string, role models.Role) {
	t.Helper()
	err := users.CreateUser(&models.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         "Test " + id,
		Role:         role,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func insertTestToken(t *testing.T, repo *PortalTokenRepository, token, userID string, expiresAt time.Time) {
	t.Helper()
	err := repo.Insert(&models.PortalToken{
		Token:     token,
		UserID:    userID,
		ReturnURL: "/coach",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		t.Fatalf("insert token: %v", err)
	}
}

func TestInsertAndGetByToken(t *testing.T) {
	repo, users := setupTestPortalTokens(t)
	insertTestUser(t, users, "coach-1", models.RoleCoach)

	expires := time.Now().UTC().Add(5 * time.Minute)
	insertTestToken(t, repo, "tok-1", "coach-1", expires)

	got, err := repo.GetByToken("tok-1")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got == nil {
		t.Fatal("expected token, got nil")
	}
	if got.UserID != "coach-1" || got.ReturnURL != "/coach" || got.Used {
		t.Errorf("unexpected record: %+v", got)
	}

	missing, err := repo.GetByToken("nope")
	if err != nil {
		t.Fatalf("GetByToken missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown token, got %+v", missing)
	}
}

func TestConsumeHappensExactlyOnce(t *testing.T) {
	repo, users := setupTestPortalTokens(t)
	insertTestUser(t, users, "coach-1", models.RoleCoach)
	insertTestToken(t, repo, "tok-1", "coach-1", time.Now().UTC().Add(5*time.Minute))

	now := time.Now().UTC()
	ok, err := repo.Consume("tok-1", now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !ok {
		t.Fatal("first consume should win")
	}

	ok, err = repo.Consume("tok-1", now)
	if err != nil {
		t.Fatalf("second Consume: %v", err)
	}
	if ok {
		t.Fatal("second consume must lose")
	}

	rec, err := repo.GetByToken("tok-1")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if !rec.Used || rec.UsedAt == nil {
		t.Errorf("record not marked used: %+v", rec)
	}
}

func TestConsumeConcurrentRedemptions(t *testing.T) {
	repo, users := setupTestPortalTokens(t)
	insertTestUser(t, users, "coach-1", models.RoleCoach)
	insertTestToken(t, repo, "tok-race", "coach-1", time.Now().UTC().Add(5*time.Minute))

	const attempts = 10
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Consume("tok-race", time.Now().UTC())
			if err != nil {
				t.Errorf("Consume: %v", err)
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winner, got %d", won)
	}
}

func TestConsumeLeavesExpiredTokensUntouched(t *testing.T) {
	repo, users := setupTestPortalTokens(t)
	insertTestUser(t, users, "coach-1", models.RoleCoach)
	insertTestToken(t, repo, "tok-old", "coach-1", time.Now().UTC().Add(-time.Minute))

	ok, err := repo.Consume("tok-old", time.Now().UTC())
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if ok {
		t.Fatal("expired token must not be consumable")
	}

	rec, err := repo.GetByToken("tok-old")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if rec.Used {
		t.Error("expired token must stay unused")
	}
}

func TestDeleteStale(t *testing.T) {
	repo, users := setupTestPortalTokens(t)
	insertTestUser(t, users, "coach-1", models.RoleCoach)

	now := time.Now().UTC()
	retention := time.Hour

	// Expired, regardless of used state.
	insertTestToken(t, repo, "expired", "coach-1", now.Add(-time.Minute))

	// Used long ago: created before the retention cutoff.
	err := repo.Insert(&models.PortalToken{
		Token:     "used-old",
		UserID:    "coach-1",
		ReturnURL: "/coach",
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if ok, err := repo.Consume("used-old", now); err != nil || !ok {
		t.Fatalf("consume used-old: ok=%v err=%v", ok, err)
	}

	// Fresh and unused: must survive.
	insertTestToken(t, repo, "fresh", "coach-1", now.Add(5*time.Minute))

	// Recently used: within retention, must survive.
	insertTestToken(t, repo, "used-recent", "coach-1", now.Add(5*time.Minute))
	if ok, err := repo.Consume("used-recent", now); err != nil || !ok {
		t.Fatalf("consume used-recent: ok=%v err=%v", ok, err)
	}

	deleted, err := repo.DeleteStale(now, retention)
	if err != nil {
		t.Fatalf("DeleteStale: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	for token, want := range map[string]bool{
		"expired":     false,
		"used-old":    false,
		"fresh":       true,
		"used-recent": true,
	} {
		rec, err := repo.GetByToken(token)
		if err != nil {
			t.Fatalf("GetByToken(%s): %v", token, err)
		}
		if (rec != nil) != want {
			t.Errorf("token %s present = %v, want %v", token, rec != nil, want)
		}
	}

	// Idempotent: nothing new qualifies.
	deleted, err = repo.DeleteStale(now, retention)
	if err != nil {
		t.Fatalf("second DeleteStale: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second sweep deleted = %d, want 0", deleted)
	}
}

func TestDeleteStaleManyTokens(t *testing.T) {
	repo, users := setupTestPortalTokens(t)
	insertTestUser(t, users, "coach-1", models.RoleCoach)

	now := time.Now().UTC()
	for i := 0; i < 20; i++ {
		insertTestToken(t, repo, fmt.Sprintf("tok-%d", i), "coach-1", now.Add(-time.Minute))
	}

	deleted, err := repo.DeleteStale(now, time.Hour)
	if err != nil {
		t.Fatalf("DeleteStale: %v", err)
	}
	if deleted != 20 {
		t.Fatalf("deleted = %d, want 20", deleted)
	}
}

package accounts

import (
	"errors"
	"path/filepath"
	"testing"

	"coachportal/internal/database"
	"coachportal/models"
)

func setupTestAccounts(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewService(database.NewUserRepository(db.Connection()))
}

func createTestCoach(t *testing.T, svc *Service) *models.User {
	t.Helper()
	coach, err := svc.CreateUser("coach@example.com", "Coach", "coach-password", models.RoleCoach, nil)
	if err != nil {
		t.Fatalf("create coach: %v", err)
	}
	return coach
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	svc := setupTestAccounts(t)
	createTestCoach(t, svc)

	user, err := svc.Authenticate("coach@example.com", "coach-password")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Role != models.RoleCoach {
		t.Errorf("Role = %q, want COACH", user.Role)
	}

	if _, err := svc.Authenticate("coach@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc := setupTestAccounts(t)
	createTestCoach(t, svc)

	if _, err := svc.CreateUser("COACH@EXAMPLE.COM", "Other", "pw", models.RoleCoach, nil); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestCreateClientGeneratesTemporaryPassword(t *testing.T) {
	svc := setupTestAccounts(t)
	coach := createTestCoach(t, svc)

	client, temp, err := svc.CreateClient(coach.ID, "client@example.com", "Client")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if temp == "" {
		t.Fatal("expected a temporary password")
	}
	if client.Role != models.RoleClient {
		t.Errorf("Role = %q, want CLIENT", client.Role)
	}
	if client.CoachID == nil || *client.CoachID != coach.ID {
		t.Errorf("CoachID = %v, want %q", client.CoachID, coach.ID)
	}
	if client.IsPasswordChanged {
		t.Error("new client must start with is_password_changed false")
	}

	// The temporary password is a working credential until changed.
	if _, err := svc.Authenticate("client@example.com", temp); err != nil {
		t.Fatalf("Authenticate with temp password: %v", err)
	}
}

func TestChangePasswordFlipsFlag(t *testing.T) {
	svc := setupTestAccounts(t)
	coach := createTestCoach(t, svc)

	client, temp, err := svc.CreateClient(coach.ID, "client@example.com", "Client")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	if err := svc.ChangePassword(client.ID, "my-new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	updated, err := svc.Get(client.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !updated.IsPasswordChanged {
		t.Error("IsPasswordChanged should be true after ChangePassword")
	}

	if _, err := svc.Authenticate("client@example.com", temp); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("temporary password must stop working after the change")
	}
	if _, err := svc.Authenticate("client@example.com", "my-new-password"); err != nil {
		t.Fatalf("Authenticate with new password: %v", err)
	}
}

func TestChangePasswordRequiresNewPassword(t *testing.T) {
	svc := setupTestAccounts(t)
	coach := createTestCoach(t, svc)

	if err := svc.ChangePassword(coach.ID, "   "); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestGetUsesCacheUntilInvalidated(t *testing.T) {
	svc := setupTestAccounts(t)
	coach := createTestCoach(t, svc)

	first, err := svc.Get(coach.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Write through the service; the cached entry must not survive.
	if err := svc.UpdateProfile(coach.ID, "Renamed Coach", nil); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	second, err := svc.Get(coach.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if second.Name != "Renamed Coach" {
		t.Errorf("Name = %q, want Renamed Coach (stale cache?)", second.Name)
	}
	if first.Name == second.Name {
		t.Error("expected the name to change between reads")
	}
}

func TestGetClientOfCoachEnforcesOwnership(t *testing.T) {
	svc := setupTestAccounts(t)
	coach := createTestCoach(t, svc)
	other, err := svc.CreateUser("other@example.com", "Other Coach", "pw", models.RoleCoach, nil)
	if err != nil {
		t.Fatalf("create other coach: %v", err)
	}

	client, _, err := svc.CreateClient(coach.ID, "client@example.com", "Client")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	if _, err := svc.GetClientOfCoach(coach.ID, client.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := svc.GetClientOfCoach(other.ID, client.ID); !errors.Is(err, ErrNotClientOfCoach) {
		t.Fatalf("foreign coach: expected ErrNotClientOfCoach, got %v", err)
	}
}

func TestDeleteClient(t *testing.T) {
	svc := setupTestAccounts(t)
	coach := createTestCoach(t, svc)

	client, _, err := svc.CreateClient(coach.ID, "client@example.com", "Client")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	if err := svc.DeleteClient(coach.ID, client.ID); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	if _, err := svc.Get(client.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}

func TestCreateCoach(t *testing.T) {
	svc := setupTestAccounts(t)

	coach, temp, err := svc.CreateCoach("new-coach@example.com", "New Coach")
	if err != nil {
		t.Fatalf("CreateCoach: %v", err)
	}
	if coach.Role != models.RoleCoach {
		t.Errorf("Role = %q, want COACH", coach.Role)
	}
	if coach.IsPasswordChanged {
		t.Error("new coach must start with is_password_changed false")
	}
	if _, err := svc.Authenticate("new-coach@example.com", temp); err != nil {
		t.Fatalf("Authenticate with temp password: %v", err)
	}

	coaches, err := svc.ListByRole(models.RoleCoach)
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if len(coaches) != 1 {
		t.Fatalf("got %d coaches, want 1", len(coaches))
	}
}

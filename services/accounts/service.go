package accounts

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"coachportal/internal/database"
	"coachportal/models"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotClientOfCoach   = errors.New("client does not belong to this coach")
)

const (
	// cacheTTL is how long a user lookup may be served from the cache.
	cacheTTL = 30 * time.Second
	// cacheMaxEntries bounds the cache size.
	cacheMaxEntries = 1024
	// tempPasswordLength is the length of generated client passwords.
	tempPasswordLength = 16
)

type cacheEntry struct {
	user      models.User
	expiresAt time.Time
}

// Service manages user accounts: authentication, coach-created clients, and
// password changes. Lookups go through a small bounded cache owned by the
// service instance; every write invalidates the affected entry.
type Service struct {
	repo *database.UserRepository

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewService creates an accounts service over the given user repository.
func NewService(repo *database.UserRepository) *Service {
	return &Service{
		repo:  repo,
		cache: make(map[string]cacheEntry),
	}
}

// Get returns the user with the given ID.
func (s *Service) Get(id string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrUserNotFound
	}

	if u, ok := s.cached(id); ok {
		return u, nil
	}

	user, err := s.repo.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.store(*user)
	return user, nil
}

// GetByEmail returns the user with the given email.
func (s *Service) GetByEmail(email string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Authenticate verifies email and password, returning the user if valid.
func (s *Service) Authenticate(email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Run a bcrypt comparison anyway to prevent timing attacks.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummydummydummydummydummydummydummydummydummydummydu"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateUser registers a user with the given role and an explicit password.
func (s *Service) CreateUser(email, name, plainPassword string, role models.Role, coachID *string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(plainPassword) == "" {
		return nil, ErrPasswordRequired
	}

	existing, err := s.repo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hash),
		CoachID:      coachID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateClient registers a client under the given coach with a generated
// temporary password. The client must change it on first login; until then
// IsPasswordChanged stays false and the gateway holds them on onboarding.
// The temporary password is returned once so the coach can hand it over.
func (s *Service) CreateClient(coachID, email, name string) (*models.User, string, error) {
	temp, err := password.Generate(tempPasswordLength, 4, 0, false, false)
	if err != nil {
		return nil, "", fmt.Errorf("generate temporary password: %w", err)
	}

	user, err := s.CreateUser(email, name, temp, models.RoleClient, &coachID)
	if err != nil {
		return nil, "", err
	}
	return user, temp, nil
}

// CreateCoach registers a coach with a generated temporary password, returned
// once for out-of-band handover. The coach changes it during onboarding.
func (s *Service) CreateCoach(email, name string) (*models.User, string, error) {
	temp, err := password.Generate(tempPasswordLength, 4, 0, false, false)
	if err != nil {
		return nil, "", fmt.Errorf("generate temporary password: %w", err)
	}

	user, err := s.CreateUser(email, name, temp, models.RoleCoach, nil)
	if err != nil {
		return nil, "", err
	}
	return user, temp, nil
}

// ListByRole returns all users holding the given role.
func (s *Service) ListByRole(role models.Role) ([]models.User, error) {
	return s.repo.ListByRole(role)
}

// DeleteUser removes any account. Admin-only; coaches go through DeleteClient.
func (s *Service) DeleteUser(id string) error {
	if err := s.repo.DeleteUser(id); err != nil {
		return ErrUserNotFound
	}
	s.invalidate(id)
	return nil
}

// ListClients returns the coach's client roster.
func (s *Service) ListClients(coachID string) ([]models.User, error) {
	return s.repo.ListClientsByCoach(coachID)
}

// GetClientOfCoach returns a client only if it belongs to the given coach.
func (s *Service) GetClientOfCoach(coachID, clientID string) (*models.User, error) {
	client, err := s.Get(clientID)
	if err != nil {
		return nil, err
	}
	if !client.IsClientOf(coachID) {
		return nil, ErrNotClientOfCoach
	}
	return client, nil
}

// ChangePassword replaces a user's password and marks the initial password
// change as completed.
func (s *Service) ChangePassword(id, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(id, string(hash)); err != nil {
		return ErrUserNotFound
	}
	s.invalidate(id)
	return nil
}

// UpdateProfile updates the display name and avatar of a user.
func (s *Service) UpdateProfile(id, name string, avatarURL *string) error {
	if err := s.repo.UpdateProfile(id, strings.TrimSpace(name), avatarURL); err != nil {
		return ErrUserNotFound
	}
	s.invalidate(id)
	return nil
}

// DeleteClient removes a client belonging to the coach.
func (s *Service) DeleteClient(coachID, clientID string) error {
	if _, err := s.GetClientOfCoach(coachID, clientID); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(clientID); err != nil {
		return ErrUserNotFound
	}
	s.invalidate(clientID)
	return nil
}

func (s *Service) cached(id string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.cache, id)
		return nil, false
	}
	u := entry.user
	return &u, true
}

func (s *Service) store(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict expired entries first; if still full, drop the cache rather than
	// grow without bound.
	if len(s.cache) >= cacheMaxEntries {
		now := time.Now()
		for id, entry := range s.cache {
			if now.After(entry.expiresAt) {
				delete(s.cache, id)
			}
		}
		if len(s.cache) >= cacheMaxEntries {
			s.cache = make(map[string]cacheEntry)
		}
	}

	s.cache[u.ID] = cacheEntry{user: u, expiresAt: time.Now().Add(cacheTTL)}
}

func (s *Service) invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, id)
}

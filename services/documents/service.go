package documents

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"coachportal/internal/database"
	"coachportal/models"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrTitleRequired    = errors.New("document title is required")
	ErrNotOwner         = errors.New("document belongs to a different coach")
)

// Service manages block-based documents authored by coaches.
type Service struct {
	repo *database.DocumentRepository
}

// NewService creates a documents service.
func NewService(repo *database.DocumentRepository) *Service {
	return &Service{repo: repo}
}

// Create authors a new document owned by the coach.
func (s *Service) Create(ownerID, title string, blocks []models.Block, clientID *string) (*models.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	doc := &models.Document{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		ClientID: clientID,
		Title:    title,
		Blocks:   blocks,
	}
	if err := s.repo.CreateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns a document readable by the given user: its owner, or the client
// it is shared with.
func (s *Service) Get(userID, docID string) (*models.Document, error) {
	doc, err := s.repo.GetDocument(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.OwnerID != userID && (doc.ClientID == nil || *doc.ClientID != userID) {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// ListByOwner returns the coach's documents.
func (s *Service) ListByOwner(ownerID string) ([]models.Document, error) {
	return s.repo.ListDocumentsByOwner(ownerID)
}

// ListForClient returns documents shared with a client.
func (s *Service) ListForClient(clientID string) ([]models.Document, error) {
	return s.repo.ListDocumentsByClient(clientID)
}

// Update replaces the title, blocks, and shared client of an owned document.
func (s *Service) Update(ownerID, docID, title string, blocks []models.Block, clientID *string) (*models.Document, error) {
	doc, err := s.owned(ownerID, docID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	doc.Title = title
	doc.Blocks = blocks
	doc.ClientID = clientID
	if err := s.repo.UpdateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes an owned document.
func (s *Service) Delete(ownerID, docID string) error {
	if _, err := s.owned(ownerID, docID); err != nil {
		return err
	}
	return s.repo.DeleteDocument(docID)
}

func (s *Service) owned(ownerID, docID string) (*models.Document, error) {
	doc, err := s.repo.GetDocument(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return doc, nil
}

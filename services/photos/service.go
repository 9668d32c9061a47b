package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"coachportal/internal/database"
	"coachportal/internal/storage"
	"coachportal/models"
)

var (
	ErrPhaseNotFound      = errors.New("phase not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrTitleRequired      = errors.New("phase title is required")
	ErrEmptyUpload        = errors.New("uploaded file is empty")
	ErrUnsupportedContent = errors.New("unsupported file type")
	ErrWrongClient        = errors.New("phase belongs to a different client")
)

// MaxUploadBytes caps a single progress photo upload.
const MaxUploadBytes = 15 << 20 // 15 MiB

// Service manages progress phases and photo uploads. Image bytes go to object
// storage; the database keeps the metadata and public URL.
type Service struct {
	phases   *database.PhaseRepository
	photos   *database.PhotoRepository
	uploader storage.Uploader
}

// NewService creates a photos service.
func NewService(phases *database.PhaseRepository, photos *database.PhotoRepository, uploader storage.Uploader) *Service {
	return &Service{phases: phases, photos: photos, uploader: uploader}
}

// CreatePhase appends a new phase to the client's timeline.
func (s *Service) CreatePhase(clientID, title string) (*models.Phase, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	phase := &models.Phase{
		ID:       uuid.NewString(),
		ClientID: clientID,
		Title:    title,
	}
	if err := s.phases.CreatePhase(phase); err != nil {
		return nil, err
	}
	return phase, nil
}

// ListPhases returns the client's phases in timeline order.
func (s *Service) ListPhases(clientID string) ([]models.Phase, error) {
	return s.phases.ListPhasesByClient(clientID)
}

// DeletePhase removes a phase and its photos.
func (s *Service) DeletePhase(clientID, phaseID string) error {
	if _, err := s.ownedPhase(clientID, phaseID); err != nil {
		return err
	}
	return s.phases.DeletePhase(phaseID)
}

// Upload sniffs the content type, stores the bytes in object storage under a
// fresh key, and records the photo metadata. Only images are accepted.
func (s *Service) Upload(ctx context.Context, clientID, phaseID string, data []byte, caption string) (*models.Photo, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if _, err := s.ownedPhase(clientID, phaseID); err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, mtype.String())
	}

	id := uuid.NewString()
	key := fmt.Sprintf("photos/%s/%s%s", clientID, id, mtype.Extension())

	url, err := s.uploader.Upload(ctx, key, data, mtype.String())
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	photo := &models.Photo{
		ID:          id,
		PhaseID:     phaseID,
		ClientID:    clientID,
		URL:         url,
		ObjectKey:   key,
		ContentType: mtype.String(),
		SizeBytes:   int64(len(data)),
		Caption:     strings.TrimSpace(caption),
	}
	if err := s.photos.CreatePhoto(photo); err != nil {
		// The object is already stored; remove it rather than leak it.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("orphaned photo object")
		}
		return nil, err
	}
	return photo, nil
}

// ListPhotos returns the photos in a phase, oldest first.
func (s *Service) ListPhotos(clientID, phaseID string) ([]models.Photo, error) {
	if _, err := s.ownedPhase(clientID, phaseID); err != nil {
		return nil, err
	}
	return s.photos.ListPhotosByPhase(phaseID)
}

// ListAllPhotos returns all of a client's photos, newest first.
func (s *Service) ListAllPhotos(clientID string) ([]models.Photo, error) {
	return s.photos.ListPhotosByClient(clientID)
}

// DeletePhoto removes a photo record and its stored object.
func (s *Service) DeletePhoto(ctx context.Context, clientID, photoID string) error {
	photo, err := s.photos.GetPhoto(photoID)
	if err != nil {
		return err
	}
	if photo == nil || photo.ClientID != clientID {
		return ErrPhotoNotFound
	}

	if err := s.photos.DeletePhoto(photoID); err != nil {
		return err
	}
	if err := s.uploader.Delete(ctx, photo.ObjectKey); err != nil {
		log.Warn().Err(err).Str("key", photo.ObjectKey).Msg("orphaned photo object")
	}
	return nil
}

func (s *Service) ownedPhase(clientID, phaseID string) (*models.Phase, error) {
	phase, err := s.phases.GetPhase(phaseID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, ErrPhaseNotFound
	}
	if phase.ClientID != clientID {
		return nil, ErrWrongClient
	}
	return phase, nil
}

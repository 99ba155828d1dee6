package tracks

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgoulding/trackline/internal/database"
	"github.com/rgoulding/trackline/internal/events"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/tagging"
)

const (
	maxTitleLength       = 512
	maxDescriptionLength = 10000
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Store is the persistence interface the service needs. *database.TrackStore
// implements it.
type Store interface {
	Create(ctx context.Context, authorID string, params models.CreateTrackParams) (*models.Track, error)
	GetByID(ctx context.Context, id string) (*models.Track, error)
	Update(ctx context.Context, id, authorID string, params models.UpdateTrackParams) (*models.Track, error)
	Delete(ctx context.Context, id, authorID string) (bool, error)
	RecordPlay(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Track, error)
}

var _ Store = (*database.TrackStore)(nil)

// Service handles track operations
type Service struct {
	store     Store
	publisher events.Publisher
	tagger    *tagging.Tagger
	logger    *logging.Logger
}

// NewService creates a new track service
func NewService(store Store, publisher events.Publisher, logger *logging.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		tagger:    tagging.New(),
		logger:    logger,
	}
}

// Create creates a new track
func (s *Service) Create(ctx context.Context, authorID string, params models.CreateTrackParams) (*models.Track, error) {
	if err := validateTitle(params.Title); err != nil {
		return nil, err
	}
	if len(params.Description) > maxDescriptionLength {
		return nil, &ServiceError{Message: fmt.Sprintf("description exceeds %d characters", maxDescriptionLength)}
	}
	if params.DurationSec < 0 {
		return nil, &ServiceError{Message: "duration must not be negative"}
	}
	params.Tags = s.tagger.InferTags(params.Title, params.Description)

	track, err := s.store.Create(ctx, authorID, params)
	if err != nil {
		s.logger.Error("Failed to create track", logging.WithField("error", err.Error()))
		return nil, err
	}

	if err := s.publisher.PublishCreated(ctx, models.KindTrack, track.ID, track.AuthorID); err != nil {
		s.logger.Warn("Failed to publish track created event",
			logging.WithField("track_id", track.ID),
			logging.WithField("error", err.Error()))
	}

	s.logger.Info("Created track", logging.WithFields(map[string]interface{}{
		"id":        track.ID,
		"author_id": track.AuthorID,
	}))

	return track, nil
}

// Get returns a track by ID
func (s *Service) Get(ctx context.Context, id string) (*models.Track, error) {
	return s.store.GetByID(ctx, id)
}

// Update updates a track owned by authorID
func (s *Service) Update(ctx context.Context, id, authorID string, params models.UpdateTrackParams) (*models.Track, error) {
	if params.Title != nil {
		if err := validateTitle(*params.Title); err != nil {
			return nil, err
		}
	}
	if params.Description != nil && len(*params.Description) > maxDescriptionLength {
		return nil, &ServiceError{Message: fmt.Sprintf("description exceeds %d characters", maxDescriptionLength)}
	}

	if params.Title != nil || params.Description != nil {
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil || current.AuthorID != authorID {
			return nil, nil
		}
		title, description := current.Title, current.Description
		if params.Title != nil {
			title = *params.Title
		}
		if params.Description != nil {
			description = *params.Description
		}
		params.Tags = s.tagger.InferTags(title, description)
	}

	return s.store.Update(ctx, id, authorID, params)
}

// Delete removes a track owned by authorID
func (s *Service) Delete(ctx context.Context, id, authorID string) (bool, error) {
	deleted, err := s.store.Delete(ctx, id, authorID)
	if err != nil {
		return false, err
	}
	if deleted {
		if err := s.publisher.PublishDeleted(ctx, models.KindTrack, id); err != nil {
			s.logger.Warn("Failed to publish track deleted event",
				logging.WithField("track_id", id),
				logging.WithField("error", err.Error()))
		}
		s.logger.Info("Deleted track", logging.WithField("id", id))
	}
	return deleted, nil
}

// RecordPlay increments a track's play counter
func (s *Service) RecordPlay(ctx context.Context, id string) error {
	track, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if track == nil {
		return &ServiceError{Message: "track not found"}
	}
	return s.store.RecordPlay(ctx, id)
}

// ListByAuthor returns an author's tracks, newest first
func (s *Service) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Track, error) {
	return s.store.ListByAuthor(ctx, authorID, limit, offset)
}

func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return &ServiceError{Message: "track title is required"}
	}
	if len(title) > maxTitleLength {
		return &ServiceError{Message: fmt.Sprintf("title exceeds %d characters", maxTitleLength)}
	}
	return nil
}

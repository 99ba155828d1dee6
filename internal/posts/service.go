package posts

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgoulding/trackline/internal/database"
	"github.com/rgoulding/trackline/internal/events"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
)

const maxBodyLength = 5000

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Store is the persistence interface the service needs. *database.PostStore
// implements it.
type Store interface {
	Create(ctx context.Context, authorID string, params models.CreatePostParams) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id, authorID string, params models.UpdatePostParams) (*models.Post, error)
	Delete(ctx context.Context, id, authorID string) (bool, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Post, error)
}

// TrackLookup resolves linked tracks. *database.TrackStore implements it.
type TrackLookup interface {
	GetByID(ctx context.Context, id string) (*models.Track, error)
}

var _ Store = (*database.PostStore)(nil)

// Service handles post operations
type Service struct {
	store     Store
	tracks    TrackLookup
	publisher events.Publisher
	logger    *logging.Logger
}

// NewService creates a new post service
func NewService(store Store, tracks TrackLookup, publisher events.Publisher, logger *logging.Logger) *Service {
	return &Service{
		store:     store,
		tracks:    tracks,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a new post
func (s *Service) Create(ctx context.Context, authorID string, params models.CreatePostParams) (*models.Post, error) {
	if err := s.validateBody(params.Body); err != nil {
		return nil, err
	}

	if params.TrackID != "" {
		track, err := s.tracks.GetByID(ctx, params.TrackID)
		if err != nil {
			return nil, err
		}
		if track == nil {
			return nil, &ServiceError{Message: "linked track not found"}
		}
	}

	post, err := s.store.Create(ctx, authorID, params)
	if err != nil {
		s.logger.Error("Failed to create post", logging.WithField("error", err.Error()))
		return nil, err
	}

	if err := s.publisher.PublishCreated(ctx, models.KindPost, post.ID, post.AuthorID); err != nil {
		s.logger.Warn("Failed to publish post created event",
			logging.WithField("post_id", post.ID),
			logging.WithField("error", err.Error()))
	}

	s.logger.Info("Created post", logging.WithFields(map[string]interface{}{
		"id":        post.ID,
		"author_id": post.AuthorID,
	}))

	return post, nil
}

// Get returns a post by ID
func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.store.GetByID(ctx, id)
}

// Update updates a post owned by authorID
func (s *Service) Update(ctx context.Context, id, authorID string, params models.UpdatePostParams) (*models.Post, error) {
	if params.Body != nil {
		if err := s.validateBody(*params.Body); err != nil {
			return nil, err
		}
	}
	if params.TrackID != nil && *params.TrackID != "" {
		track, err := s.tracks.GetByID(ctx, *params.TrackID)
		if err != nil {
			return nil, err
		}
		if track == nil {
			return nil, &ServiceError{Message: "linked track not found"}
		}
	}

	return s.store.Update(ctx, id, authorID, params)
}

// Delete removes a post owned by authorID
func (s *Service) Delete(ctx context.Context, id, authorID string) (bool, error) {
	deleted, err := s.store.Delete(ctx, id, authorID)
	if err != nil {
		return false, err
	}
	if deleted {
		if err := s.publisher.PublishDeleted(ctx, models.KindPost, id); err != nil {
			s.logger.Warn("Failed to publish post deleted event",
				logging.WithField("post_id", id),
				logging.WithField("error", err.Error()))
		}
		s.logger.Info("Deleted post", logging.WithField("id", id))
	}
	return deleted, nil
}

// ListByAuthor returns an author's posts, newest first
func (s *Service) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Post, error) {
	return s.store.ListByAuthor(ctx, authorID, limit, offset)
}

func (s *Service) validateBody(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return &ServiceError{Message: "post body is required"}
	}
	if len(body) > maxBodyLength {
		return &ServiceError{Message: fmt.Sprintf("post body exceeds %d characters", maxBodyLength)}
	}
	return nil
}

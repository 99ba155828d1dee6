package playlists

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgoulding/trackline/internal/database"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
)

const maxTitleLength = 512

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Store is the persistence interface the service needs.
// *database.PlaylistStore implements it.
type Store interface {
	Create(ctx context.Context, ownerID string, params models.CreatePlaylistParams) (*models.Playlist, error)
	GetByID(ctx context.Context, id string) (*models.Playlist, error)
	Update(ctx context.Context, id, ownerID string, params models.UpdatePlaylistParams) (*models.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	AddTrack(ctx context.Context, playlistID, trackID string) error
	RemoveTrack(ctx context.Context, playlistID, trackID string) (bool, error)
	ListTracks(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error)
	ListByOwner(ctx context.Context, ownerID string, includePrivate bool) ([]models.Playlist, error)
}

// TrackLookup resolves tracks being added. *database.TrackStore implements it.
type TrackLookup interface {
	GetByID(ctx context.Context, id string) (*models.Track, error)
}

var _ Store = (*database.PlaylistStore)(nil)

// Service handles playlist operations
type Service struct {
	store  Store
	tracks TrackLookup
	logger *logging.Logger
}

// NewService creates a new playlist service
func NewService(store Store, tracks TrackLookup, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		tracks: tracks,
		logger: logger,
	}
}

// Create creates a new playlist
func (s *Service) Create(ctx context.Context, ownerID string, params models.CreatePlaylistParams) (*models.Playlist, error) {
	if err := validateTitle(params.Title); err != nil {
		return nil, err
	}

	pl, err := s.store.Create(ctx, ownerID, params)
	if err != nil {
		s.logger.Error("Failed to create playlist", logging.WithField("error", err.Error()))
		return nil, err
	}

	s.logger.Info("Created playlist", logging.WithFields(map[string]interface{}{
		"id":       pl.ID,
		"owner_id": pl.OwnerID,
	}))

	return pl, nil
}

// Get returns a playlist visible to the requesting user. Private playlists
// are only visible to their owner.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*models.Playlist, error) {
	pl, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pl == nil {
		return nil, nil
	}
	if !pl.Public && pl.OwnerID != requesterID {
		return nil, nil
	}
	return pl, nil
}

// Update updates a playlist owned by ownerID
func (s *Service) Update(ctx context.Context, id, ownerID string, params models.UpdatePlaylistParams) (*models.Playlist, error) {
	if params.Title != nil {
		if err := validateTitle(*params.Title); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, id, ownerID, params)
}

// Delete removes a playlist owned by ownerID
func (s *Service) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	deleted, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("Deleted playlist", logging.WithField("id", id))
	}
	return deleted, nil
}

// AddTrack appends a track to a playlist owned by ownerID
func (s *Service) AddTrack(ctx context.Context, playlistID, ownerID, trackID string) error {
	pl, err := s.store.GetByID(ctx, playlistID)
	if err != nil {
		return err
	}
	if pl == nil || pl.OwnerID != ownerID {
		return &ServiceError{Message: "playlist not found"}
	}

	track, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return err
	}
	if track == nil {
		return &ServiceError{Message: "track not found"}
	}

	return s.store.AddTrack(ctx, playlistID, trackID)
}

// RemoveTrack removes a track from a playlist owned by ownerID
func (s *Service) RemoveTrack(ctx context.Context, playlistID, ownerID, trackID string) (bool, error) {
	pl, err := s.store.GetByID(ctx, playlistID)
	if err != nil {
		return false, err
	}
	if pl == nil || pl.OwnerID != ownerID {
		return false, &ServiceError{Message: "playlist not found"}
	}
	return s.store.RemoveTrack(ctx, playlistID, trackID)
}

// ListTracks returns a playlist's entries in order, respecting visibility
func (s *Service) ListTracks(ctx context.Context, playlistID, requesterID string) ([]models.PlaylistEntry, error) {
	pl, err := s.Get(ctx, playlistID, requesterID)
	if err != nil {
		return nil, err
	}
	if pl == nil {
		return nil, &ServiceError{Message: "playlist not found"}
	}
	return s.store.ListTracks(ctx, playlistID)
}

// ListByOwner returns a user's playlists. Private playlists are included
// only when the owner asks for their own.
func (s *Service) ListByOwner(ctx context.Context, ownerID, requesterID string) ([]models.Playlist, error) {
	return s.store.ListByOwner(ctx, ownerID, ownerID == requesterID)
}

func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return &ServiceError{Message: "playlist title is required"}
	}
	if len(title) > maxTitleLength {
		return &ServiceError{Message: fmt.Sprintf("title exceeds %d characters", maxTitleLength)}
	}
	return nil
}

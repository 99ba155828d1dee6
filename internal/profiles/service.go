package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgoulding/trackline/internal/database"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
)

const (
	maxDisplayNameLength = 255
	maxBioLength         = 2000
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Store is the persistence interface the service needs. *database.UserStore
// implements it.
type Store interface {
	Create(ctx context.Context, handle, displayName string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByHandle(ctx context.Context, handle string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, params models.UpdateProfileParams) (*models.User, error)
	Follow(ctx context.Context, followerID, followedID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followedID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, limit, offset int) ([]models.User, error)
	ListFollowing(ctx context.Context, userID string, limit, offset int) ([]models.User, error)
}

var _ Store = (*database.UserStore)(nil)

// Service handles user profile and follow operations
type Service struct {
	store  Store
	logger *logging.Logger
}

// NewService creates a new profile service
func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, handle, displayName string) (*models.User, error) {
	handle = models.NormalizeHandle(handle)
	if !models.ValidateHandle(handle) {
		return nil, &ServiceError{Message: "handle must be 3-32 lowercase letters, digits, dashes or underscores"}
	}
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ServiceError{Message: "handle is already taken"}
	}

	user, err := s.store.Create(ctx, handle, displayName)
	if err != nil {
		s.logger.Error("Failed to create user", logging.WithField("error", err.Error()))
		return nil, err
	}

	s.logger.Info("Registered user", logging.WithFields(map[string]interface{}{
		"id":     user.ID,
		"handle": user.Handle,
	}))

	return user, nil
}

// Get returns a user profile by ID, applying visibility rules
func (s *Service) Get(ctx context.Context, id, requesterID string) (*models.User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyVisibility(user, requesterID), nil
}

// GetByHandle returns a user profile by handle, applying visibility rules
func (s *Service) GetByHandle(ctx context.Context, handle, requesterID string) (*models.User, error) {
	user, err := s.store.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	return s.applyVisibility(user, requesterID), nil
}

// UpdateProfile updates the caller's own profile
func (s *Service) UpdateProfile(ctx context.Context, userID string, params models.UpdateProfileParams) (*models.User, error) {
	if params.DisplayName != nil {
		if err := validateDisplayName(*params.DisplayName); err != nil {
			return nil, err
		}
	}
	if params.Bio != nil && len(*params.Bio) > maxBioLength {
		return nil, &ServiceError{Message: fmt.Sprintf("bio exceeds %d characters", maxBioLength)}
	}
	if params.Visibility != nil {
		switch *params.Visibility {
		case models.ProfileVisibilityPublic, models.ProfileVisibilityPrivate:
		default:
			return nil, &ServiceError{Message: "visibility must be public or private"}
		}
	}

	return s.store.UpdateProfile(ctx, userID, params)
}

// Follow makes followerID follow followedID
func (s *Service) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return &ServiceError{Message: "cannot follow yourself"}
	}

	target, err := s.store.GetByID(ctx, followedID)
	if err != nil {
		return err
	}
	if target == nil || target.Status != models.UserStatusActive {
		return &ServiceError{Message: "user not found"}
	}

	created, err := s.store.Follow(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if created {
		s.logger.Debug("Follow created",
			logging.WithField("follower_id", followerID),
			logging.WithField("followed_id", followedID))
	}
	return nil
}

// Unfollow removes a follow relationship
func (s *Service) Unfollow(ctx context.Context, followerID, followedID string) error {
	_, err := s.store.Unfollow(ctx, followerID, followedID)
	return err
}

// IsFollowing reports whether followerID follows followedID
func (s *Service) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.store.IsFollowing(ctx, followerID, followedID)
}

// ListFollowers returns the users following userID. The list is only
// served for profiles the requester can see.
func (s *Service) ListFollowers(ctx context.Context, userID, requesterID string, limit, offset int) ([]models.User, error) {
	user, err := s.Get(ctx, userID, requesterID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &ServiceError{Message: "user not found"}
	}
	return s.store.ListFollowers(ctx, userID, limit, offset)
}

// ListFollowing returns the users that userID follows, under the same
// visibility rule as ListFollowers
func (s *Service) ListFollowing(ctx context.Context, userID, requesterID string, limit, offset int) ([]models.User, error) {
	user, err := s.Get(ctx, userID, requesterID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &ServiceError{Message: "user not found"}
	}
	return s.store.ListFollowing(ctx, userID, limit, offset)
}

// applyVisibility hides private profiles from everyone but their owner.
// Hidden and missing profiles are both reported as nil.
func (s *Service) applyVisibility(user *models.User, requesterID string) *models.User {
	if user == nil {
		return nil
	}
	if user.Status == models.UserStatusDisabled {
		return nil
	}
	if user.Visibility == models.ProfileVisibilityPrivate && user.ID != requesterID {
		return nil
	}
	return user
}

func validateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ServiceError{Message: "display name is required"}
	}
	if len(name) > maxDisplayNameLength {
		return &ServiceError{Message: fmt.Sprintf("display name exceeds %d characters", maxDisplayNameLength)}
	}
	return nil
}

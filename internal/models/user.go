package models

import (
	"regexp"
	"strings"
	"time"
)

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// ProfileVisibility represents who can see a user's profile
type ProfileVisibility string

const (
	ProfileVisibilityPublic  ProfileVisibility = "public"
	ProfileVisibilityPrivate ProfileVisibility = "private"
)

// User represents a platform user and their public profile
type User struct {
	ID          string            `json:"id"`
	Handle      string            `json:"handle"`
	DisplayName string            `json:"displayName"`
	Bio         string            `json:"bio,omitempty"`
	AvatarURL   string            `json:"avatarUrl,omitempty"`
	Visibility  ProfileVisibility `json:"visibility"`
	Status      UserStatus        `json:"status"`
	Followers   int               `json:"followers"`
	Following   int               `json:"following"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// UpdateProfileParams holds input for updating a profile. Nil fields are
// left unchanged.
type UpdateProfileParams struct {
	DisplayName *string            `json:"displayName,omitempty"`
	Bio         *string            `json:"bio,omitempty"`
	AvatarURL   *string            `json:"avatarUrl,omitempty"`
	Visibility  *ProfileVisibility `json:"visibility,omitempty"`
}

// Follow represents one user following another
type Follow struct {
	ID         string    `json:"id"`
	FollowerID string    `json:"followerId"`
	FollowedID string    `json:"followedId"`
	CreatedAt  time.Time `json:"createdAt"`
}

var handlePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,31}$`)

// ValidateHandle checks that a handle is lowercase alphanumeric with
// dashes/underscores, 3-32 characters, not starting with a separator.
func ValidateHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// NormalizeHandle lowercases and trims a handle for storage and lookup
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// ContentItem converts a user into its feed representation for kind=user
// searches. The bio is the user's only native free-text column.
func (u User) ContentItem() ContentItem {
	return ContentItem{
		ID:         u.ID,
		Kind:       KindUser,
		AuthorID:   u.ID,
		AuthorName: u.DisplayName,
		Body:       u.Bio,
		LikeCount:  u.Followers,
		CreatedAt:  u.CreatedAt,
	}
}

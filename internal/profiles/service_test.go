package profiles

import (
	"context"
	"strings"
	"testing"

	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/testutil"
)

// mockStore implements the Store interface for testing
type mockStore struct {
	users   map[string]*models.User // keyed by id
	handles map[string]*models.User
	follows map[string]bool // "follower:followed"
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[string]*models.User),
		handles: make(map[string]*models.User),
		follows: make(map[string]bool),
	}
}

func (m *mockStore) add(user *models.User) {
	m.users[user.ID] = user
	m.handles[user.Handle] = user
}

func (m *mockStore) Create(ctx context.Context, handle, displayName string) (*models.User, error) {
	user := &models.User{
		ID:          "user-" + handle,
		Handle:      handle,
		DisplayName: displayName,
		Visibility:  models.ProfileVisibilityPublic,
		Status:      models.UserStatusActive,
	}
	m.add(user)
	return user, nil
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockStore) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	return m.handles[handle], nil
}

func (m *mockStore) UpdateProfile(ctx context.Context, id string, params models.UpdateProfileParams) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockStore) Follow(ctx context.Context, followerID, followedID string) (bool, error) {
	key := followerID + ":" + followedID
	if m.follows[key] {
		return false, nil
	}
	m.follows[key] = true
	return true, nil
}

func (m *mockStore) Unfollow(ctx context.Context, followerID, followedID string) (bool, error) {
	key := followerID + ":" + followedID
	existed := m.follows[key]
	delete(m.follows, key)
	return existed, nil
}

func (m *mockStore) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return m.follows[followerID+":"+followedID], nil
}

func (m *mockStore) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]models.User, error) {
	var out []models.User
	for key := range m.follows {
		follower, followed, _ := strings.Cut(key, ":")
		if followed == userID {
			out = append(out, *m.users[follower])
		}
	}
	return out, nil
}

func (m *mockStore) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]models.User, error) {
	var out []models.User
	for key := range m.follows {
		follower, followed, _ := strings.Cut(key, ":")
		if follower == userID {
			out = append(out, *m.users[followed])
		}
	}
	return out, nil
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name        string
		handle      string
		displayName string
		wantErr     string
	}{
		{
			name:        "valid",
			handle:      "synthwave_fan",
			displayName: "Synthwave Fan",
		},
		{
			name:        "handle normalized",
			handle:      "  MixMaster  ",
			displayName: "Mix Master",
		},
		{
			name:        "handle too short",
			handle:      "ab",
			displayName: "AB",
			wantErr:     "handle must be",
		},
		{
			name:        "handle invalid characters",
			handle:      "bad handle!",
			displayName: "Bad",
			wantErr:     "handle must be",
		},
		{
			name:        "empty display name",
			handle:      "gooduser",
			displayName: "   ",
			wantErr:     "display name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockStore(), testutil.NullLogger())
			user, err := svc.Register(context.Background(), tt.handle, tt.displayName)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if user.Handle != models.NormalizeHandle(tt.handle) {
					t.Errorf("expected normalized handle, got %q", user.Handle)
				}
				return
			}

			svcErr, ok := err.(*ServiceError)
			if !ok {
				t.Fatalf("expected *ServiceError, got %v", err)
			}
			if !strings.Contains(svcErr.Message, tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, svcErr.Message)
			}
		})
	}
}

func TestService_RegisterDuplicateHandle(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, testutil.NullLogger())

	if _, err := svc.Register(context.Background(), "taken", "First"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(context.Background(), "taken", "Second")
	if err == nil || !strings.Contains(err.Error(), "already taken") {
		t.Errorf("expected duplicate handle error, got %v", err)
	}
}

func TestService_GetVisibility(t *testing.T) {
	store := newMockStore()
	store.add(&models.User{
		ID: "u-private", Handle: "ghost",
		Visibility: models.ProfileVisibilityPrivate,
		Status:     models.UserStatusActive,
	})
	store.add(&models.User{
		ID: "u-disabled", Handle: "banned",
		Visibility: models.ProfileVisibilityPublic,
		Status:     models.UserStatusDisabled,
	})
	store.add(&models.User{
		ID: "u-public", Handle: "open",
		Visibility: models.ProfileVisibilityPublic,
		Status:     models.UserStatusActive,
	})
	svc := NewService(store, testutil.NullLogger())

	tests := []struct {
		name        string
		id          string
		requesterID string
		wantVisible bool
	}{
		{"public profile visible to anyone", "u-public", "", true},
		{"private profile hidden from others", "u-private", "u-public", false},
		{"private profile visible to owner", "u-private", "u-private", true},
		{"disabled profile hidden from everyone", "u-disabled", "u-disabled", false},
		{"missing profile", "u-missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Get(context.Background(), tt.id, tt.requesterID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (user != nil) != tt.wantVisible {
				t.Errorf("visible = %v, want %v", user != nil, tt.wantVisible)
			}
		})
	}
}

func TestService_Follow(t *testing.T) {
	store := newMockStore()
	store.add(&models.User{ID: "u1", Handle: "one", Status: models.UserStatusActive})
	store.add(&models.User{ID: "u2", Handle: "two", Status: models.UserStatusActive})
	store.add(&models.User{ID: "u3", Handle: "three", Status: models.UserStatusDisabled})
	svc := NewService(store, testutil.NullLogger())
	ctx := context.Background()

	if err := svc.Follow(ctx, "u1", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	following, err := svc.IsFollowing(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !following {
		t.Error("expected follow to be recorded")
	}

	// repeat follow is a no-op, not an error
	if err := svc.Follow(ctx, "u1", "u2"); err != nil {
		t.Errorf("unexpected error on repeat follow: %v", err)
	}

	if err := svc.Follow(ctx, "u1", "u1"); err == nil || !strings.Contains(err.Error(), "yourself") {
		t.Errorf("expected self-follow rejection, got %v", err)
	}
	if err := svc.Follow(ctx, "u1", "u3"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected disabled target rejected, got %v", err)
	}

	if err := svc.Unfollow(ctx, "u1", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	following, _ = svc.IsFollowing(ctx, "u1", "u2")
	if following {
		t.Error("expected follow removed")
	}
}

func TestService_FollowLists(t *testing.T) {
	store := newMockStore()
	store.add(&models.User{ID: "u1", Handle: "one", Status: models.UserStatusActive, Visibility: models.ProfileVisibilityPublic})
	store.add(&models.User{ID: "u2", Handle: "two", Status: models.UserStatusActive, Visibility: models.ProfileVisibilityPublic})
	store.add(&models.User{ID: "u-hidden", Handle: "ghost", Status: models.UserStatusActive, Visibility: models.ProfileVisibilityPrivate})
	svc := NewService(store, testutil.NullLogger())
	ctx := context.Background()

	if err := svc.Follow(ctx, "u2", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	followers, err := svc.ListFollowers(ctx, "u1", "", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(followers) != 1 || followers[0].ID != "u2" {
		t.Errorf("expected u2 as follower, got %+v", followers)
	}

	following, err := svc.ListFollowing(ctx, "u2", "", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(following) != 1 || following[0].ID != "u1" {
		t.Errorf("expected u1 as followed, got %+v", following)
	}

	// private profile: the list is hidden along with the profile
	if _, err := svc.ListFollowers(ctx, "u-hidden", "u2", 50, 0); err == nil {
		t.Error("expected private profile's followers hidden")
	}
}

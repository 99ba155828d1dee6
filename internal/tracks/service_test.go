package tracks

import (
	"context"
	"strings"
	"testing"

	"github.com/rgoulding/trackline/internal/events"
	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/testutil"
)

// mockStore implements the Store interface for testing
type mockStore struct {
	tracks map[string]*models.Track
	plays  int
}

func newMockStore() *mockStore {
	return &mockStore{tracks: make(map[string]*models.Track)}
}

func (m *mockStore) Create(ctx context.Context, authorID string, params models.CreateTrackParams) (*models.Track, error) {
	track := &models.Track{
		ID:          "track-1",
		AuthorID:    authorID,
		Title:       params.Title,
		Description: params.Description,
		DurationSec: params.DurationSec,
		Tags:        params.Tags,
	}
	m.tracks[track.ID] = track
	return track, nil
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*models.Track, error) {
	return m.tracks[id], nil
}

func (m *mockStore) Update(ctx context.Context, id, authorID string, params models.UpdateTrackParams) (*models.Track, error) {
	return m.tracks[id], nil
}

func (m *mockStore) Delete(ctx context.Context, id, authorID string) (bool, error) {
	_, ok := m.tracks[id]
	delete(m.tracks, id)
	return ok, nil
}

func (m *mockStore) RecordPlay(ctx context.Context, id string) error {
	m.plays++
	return nil
}

func (m *mockStore) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Track, error) {
	return nil, nil
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name    string
		params  models.CreateTrackParams
		wantErr string
	}{
		{
			name:   "valid",
			params: models.CreateTrackParams{Title: "Night Drive", DurationSec: 212},
		},
		{
			name:    "empty title",
			params:  models.CreateTrackParams{Title: "  "},
			wantErr: "title is required",
		},
		{
			name:    "title too long",
			params:  models.CreateTrackParams{Title: strings.Repeat("x", maxTitleLength+1)},
			wantErr: "exceeds",
		},
		{
			name:    "negative duration",
			params:  models.CreateTrackParams{Title: "ok", DurationSec: -1},
			wantErr: "duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockStore(), events.NoopPublisher{}, testutil.NullLogger())
			track, err := svc.Create(context.Background(), "user-1", tt.params)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if track.AuthorID != "user-1" {
					t.Errorf("expected author set, got %q", track.AuthorID)
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

func TestService_CreateInfersTags(t *testing.T) {
	svc := NewService(newMockStore(), events.NoopPublisher{}, testutil.NullLogger())

	track, err := svc.Create(context.Background(), "user-1", models.CreateTrackParams{
		Title:       "Midnight Synthwave Remix",
		Description: "a darksynth rework",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]bool{"Synthwave": true, "Remix": true}
	for _, tag := range track.Tags {
		delete(want, tag)
	}
	if len(want) != 0 {
		t.Errorf("missing inferred tags %v, got %v", want, track.Tags)
	}
}

func TestService_RecordPlay(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, events.NoopPublisher{}, testutil.NullLogger())

	if _, err := svc.Create(context.Background(), "user-1", models.CreateTrackParams{Title: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RecordPlay(context.Background(), "track-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.plays != 1 {
		t.Errorf("expected 1 play recorded, got %d", store.plays)
	}

	err := svc.RecordPlay(context.Background(), "missing")
	if err == nil || err.Error() != "track not found" {
		t.Errorf("expected track not found, got %v", err)
	}
}

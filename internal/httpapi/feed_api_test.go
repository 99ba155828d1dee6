package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rgoulding/trackline/internal/feed"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
)

// stubExecutor serves a fixed item set, failing when fail is set
type stubExecutor struct {
	items []models.ContentItem
	fail  bool
}

func (s *stubExecutor) Execute(ctx context.Context, spec feed.PrimaryQuerySpec) ([]models.ContentItem, int, error) {
	if err := spec.Validate(); err != nil {
		return nil, 0, err
	}
	if s.fail {
		return nil, 0, &feed.RetrievalError{Err: errors.New("store unreachable")}
	}
	start := spec.Offset
	if start > len(s.items) {
		start = len(s.items)
	}
	end := start + spec.Limit
	if end > len(s.items) {
		end = len(s.items)
	}
	page := make([]models.ContentItem, end-start)
	copy(page, s.items[start:end])
	return page, len(s.items), nil
}

type stubJoiner struct{}

func (stubJoiner) LoadJoined(ctx context.Context, items []models.ContentItem) error {
	return nil
}

func stubItems(n int) []models.ContentItem {
	items := make([]models.ContentItem, n)
	for i := range items {
		items[i] = models.ContentItem{
			Kind:          models.KindPost,
			ID:            fmt.Sprintf("post-%d", i),
			Body:          fmt.Sprintf("Post %d", i),
			CreatedAt:     time.Now().Add(-time.Duration(i) * time.Hour),
			MatchedNative: true,
		}
	}
	return items
}

func newTestFeedAPI(exec *stubExecutor) (*FeedAPI, *feed.SessionManager) {
	logger := logging.New(logging.LevelError)
	engine := feed.New(exec, stubJoiner{}, nil, logger, feed.Options{PageSize: 5})
	sessions := feed.NewSessionManager(engine, time.Minute)
	return NewFeedAPI(sessions, logger), sessions
}

func TestFeedAPI_HandleFeed(t *testing.T) {
	api, sessions := newTestFeedAPI(&stubExecutor{items: stubItems(12)})
	defer sessions.Stop()

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	api.handleFeed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	sessionID := w.Header().Get(sessionHeader)
	if sessionID == "" {
		t.Fatal("expected session header issued")
	}

	var result models.FeedResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Items) != 5 {
		t.Errorf("expected 5 items, got %d", len(result.Items))
	}
	if !result.HasMore {
		t.Error("expected more pages")
	}

	// load more with the replayed session header continues the same view
	req = httptest.NewRequest(http.MethodGet, "/api/feed?loadMore=true", nil)
	req.Header.Set(sessionHeader, sessionID)
	w = httptest.NewRecorder()
	api.handleFeed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Page != 2 {
		t.Errorf("expected page 2, got %d", result.Page)
	}
	if result.Items[0].ID != "post-5" {
		t.Errorf("expected second page to start at post-5, got %s", result.Items[0].ID)
	}
}

func TestFeedAPI_HandleFeedValidation(t *testing.T) {
	api, sessions := newTestFeedAPI(&stubExecutor{items: stubItems(1)})
	defer sessions.Stop()

	tests := []struct {
		name  string
		query string
	}{
		{"unknown kind", "kind=comment"},
		{"bad fromDate", "fromDate=yesterday"},
		{"bad toDate", "toDate=2026-13-40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/feed?"+tt.query, nil)
			w := httptest.NewRecorder()
			api.handleFeed(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestFeedAPI_RetrievalFailureAndRetry(t *testing.T) {
	exec := &stubExecutor{items: stubItems(3), fail: true}
	api, sessions := newTestFeedAPI(exec)
	defer sessions.Stop()

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	api.handleFeed(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	sessionID := w.Header().Get(sessionHeader)

	// store recovers; retry succeeds
	exec.fail = false
	req = httptest.NewRequest(http.MethodPost, "/api/feed/retry", nil)
	req.Header.Set(sessionHeader, sessionID)
	w = httptest.NewRecorder()
	api.handleRetry(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	// a second retry has nothing to repeat
	req = httptest.NewRequest(http.MethodPost, "/api/feed/retry", nil)
	req.Header.Set(sessionHeader, sessionID)
	w = httptest.NewRecorder()
	api.handleRetry(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("second retry status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestFeedAPI_RetryWithoutSession(t *testing.T) {
	api, sessions := newTestFeedAPI(&stubExecutor{})
	defer sessions.Stop()

	req := httptest.NewRequest(http.MethodPost, "/api/feed/retry", nil)
	w := httptest.NewRecorder()
	api.handleRetry(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestFeedAPI_Reset(t *testing.T) {
	api, sessions := newTestFeedAPI(&stubExecutor{items: stubItems(2)})
	defer sessions.Stop()

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	api.handleFeed(w, req)
	sessionID := w.Header().Get(sessionHeader)

	req = httptest.NewRequest(http.MethodPost, "/api/feed/session/reset", nil)
	req.Header.Set(sessionHeader, sessionID)
	w = httptest.NewRecorder()
	api.handleReset(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	// old id is gone; the next request gets a fresh session
	req = httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set(sessionHeader, sessionID)
	w = httptest.NewRecorder()
	api.handleFeed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if newID := w.Header().Get(sessionHeader); newID == sessionID {
		t.Error("expected a fresh session id after reset")
	}
}

func TestFeedAPI_MethodNotAllowed(t *testing.T) {
	api, sessions := newTestFeedAPI(&stubExecutor{})
	defer sessions.Stop()

	req := httptest.NewRequest(http.MethodDelete, "/api/feed", nil)
	w := httptest.NewRecorder()
	api.handleFeed(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/rgoulding/trackline/internal/feed"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/metrics"
	"github.com/rgoulding/trackline/internal/models"
)

// sessionHeader carries the feed session id. The server issues one on the
// first request and echoes it back; clients must replay it to keep their
// pagination and dedup state.
const sessionHeader = "X-Feed-Session"

// FeedAPI handles feed composition requests
type FeedAPI struct {
	sessions *feed.SessionManager
	logger   *logging.Logger
}

// NewFeedAPI creates a new feed API handler
func NewFeedAPI(sessions *feed.SessionManager, logger *logging.Logger) *FeedAPI {
	return &FeedAPI{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers feed routes on the given mux
func (api *FeedAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/feed", corsMiddleware(metrics.Middleware("/api/feed", api.handleFeed)))
	mux.HandleFunc("/api/feed/retry", corsMiddleware(metrics.Middleware("/api/feed/retry", api.handleRetry)))
	mux.HandleFunc("/api/feed/session/reset", corsMiddleware(metrics.Middleware("/api/feed/session/reset", api.handleReset)))
}

// handleFeed composes one feed page from the request's search state
func (api *FeedAPI) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	q := models.SearchQuery{
		Text:         query.Get("q"),
		Kind:         models.Kind(query.Get("kind")),
		FromDate:     query.Get("fromDate"),
		ToDate:       query.Get("toDate"),
		Sort:         models.SortKey(query.Get("sort")),
		CreatorScope: query.Get("creator"),
	}
	if q.Kind != "" && !models.ValidKind(q.Kind) {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	if q.FromDate != "" {
		if _, ok := models.ParseDateFilter(q.FromDate); !ok {
			writeError(w, http.StatusBadRequest, "invalid fromDate")
			return
		}
	}
	if q.ToDate != "" {
		if _, ok := models.ParseDateFilter(q.ToDate); !ok {
			writeError(w, http.StatusBadRequest, "invalid toDate")
			return
		}
	}

	loadMore := query.Get("loadMore") == "true"

	session := api.sessions.Acquire(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, session.ID())

	result, err := session.Compose(r.Context(), q, loadMore)
	if err != nil {
		api.writeComposeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRetry re-runs the last failed composition for the session
func (api *FeedAPI) handleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.Header.Get(sessionHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	session := api.sessions.Acquire(id)
	w.Header().Set(sessionHeader, session.ID())

	result, err := session.Retry(r.Context())
	if err != nil {
		api.writeComposeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleReset destroys the session's pagination and dedup state
func (api *FeedAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.Header.Get(sessionHeader)
	if id != "" {
		api.sessions.Reset(id)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (api *FeedAPI) writeComposeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feed.ErrStaleResult):
		// A newer interaction superseded this one; nothing to show
		writeJSON(w, http.StatusOK, map[string]string{"status": "superseded"})
	case errors.Is(err, feed.ErrNoRetryableAction):
		writeError(w, http.StatusConflict, "no failed composition to retry")
	case errors.Is(err, feed.ErrSessionClosed):
		writeError(w, http.StatusGone, "feed session closed")
	default:
		var composeErr *feed.CompositionError
		if errors.As(err, &composeErr) {
			api.logger.Error("Feed composition failed", logging.WithField("error", err.Error()))
			writeError(w, http.StatusBadGateway, "feed temporarily unavailable")
			return
		}
		api.logger.Error("Feed request failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

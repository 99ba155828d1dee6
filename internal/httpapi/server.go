package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rgoulding/trackline/internal/feed"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/moderation"
	"github.com/rgoulding/trackline/internal/playlists"
	"github.com/rgoulding/trackline/internal/posts"
	"github.com/rgoulding/trackline/internal/profiles"
	"github.com/rgoulding/trackline/internal/ratelimit"
	"github.com/rgoulding/trackline/internal/tracks"
)

type Server struct {
	sessions      *feed.SessionManager
	postSvc       *posts.Service
	trackSvc      *tracks.Service
	playlistSvc   *playlists.Service
	profileSvc    *profiles.Service
	moderationSvc *moderation.Service
	logger        *logging.Logger
	server        *http.Server
}

func New(sessions *feed.SessionManager, postSvc *posts.Service, trackSvc *tracks.Service, playlistSvc *playlists.Service, profileSvc *profiles.Service, moderationSvc *moderation.Service, logger *logging.Logger) *Server {
	return &Server{
		sessions:      sessions,
		postSvc:       postSvc,
		trackSvc:      trackSvc,
		playlistSvc:   playlistSvc,
		profileSvc:    profileSvc,
		moderationSvc: moderationSvc,
		logger:        logger,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// Feed routes
	feedAPI := NewFeedAPI(s.sessions, s.logger)
	feedAPI.RegisterRoutes(mux, s.corsMiddleware)

	// Content routes
	postAPI := NewPostAPI(s.postSvc, s.logger)
	postAPI.RegisterRoutes(mux, s.corsMiddleware)

	trackAPI := NewTrackAPI(s.trackSvc, s.logger)
	trackAPI.RegisterRoutes(mux, s.corsMiddleware)

	playlistAPI := NewPlaylistAPI(s.playlistSvc, s.logger)
	playlistAPI.RegisterRoutes(mux, s.corsMiddleware)

	profileAPI := NewProfileAPI(s.profileSvc, ratelimit.New(5*time.Second), s.logger)
	profileAPI.RegisterRoutes(mux, s.corsMiddleware)

	moderationAPI := NewModerationAPI(s.moderationSvc, ratelimit.New(time.Second), s.logger)
	moderationAPI.RegisterRoutes(mux, s.corsMiddleware)

	// Operational endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-Feed-Session")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requesterID returns the authenticated user id forwarded by the gateway.
// Empty means an anonymous request.
func requesterID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// requireUser writes a 401 and returns "" when no user id is present
func requireUser(w http.ResponseWriter, r *http.Request) string {
	id := requesterID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
	}
	return id
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/metrics"
	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/tracks"
)

// TrackAPI handles HTTP API requests for tracks
type TrackAPI struct {
	trackSvc *tracks.Service
	logger   *logging.Logger
}

// NewTrackAPI creates a new track API handler
func NewTrackAPI(trackSvc *tracks.Service, logger *logging.Logger) *TrackAPI {
	return &TrackAPI{
		trackSvc: trackSvc,
		logger:   logger,
	}
}

// RegisterRoutes registers track routes on the given mux
func (api *TrackAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/tracks", corsMiddleware(metrics.Middleware("/api/tracks", api.handleTracks)))
	mux.HandleFunc("/api/tracks/", corsMiddleware(metrics.Middleware("/api/tracks/", api.handleTrackItem)))
}

func (api *TrackAPI) handleTracks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listTracks(w, r)
	case http.MethodPost:
		api.createTrack(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *TrackAPI) listTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	authorID := query.Get("author")
	if authorID == "" {
		writeError(w, http.StatusBadRequest, "author query parameter is required")
		return
	}

	limit := 50
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	list, err := api.trackSvc.ListByAuthor(r.Context(), authorID, limit, offset)
	if err != nil {
		api.logger.Error("Track list failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": list,
		"count":  len(list),
	})
}

func (api *TrackAPI) createTrack(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var params models.CreateTrackParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	track, err := api.trackSvc.Create(r.Context(), userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, track)
}

// handleTrackItem routes /api/tracks/{id} and /api/tracks/{id}/play
func (api *TrackAPI) handleTrackItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tracks/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if action == "play" {
		api.recordPlay(w, r, id)
		return
	}
	if action != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		api.getTrack(w, r, id)
	case http.MethodPatch, http.MethodPut:
		api.updateTrack(w, r, id)
	case http.MethodDelete:
		api.deleteTrack(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *TrackAPI) getTrack(w http.ResponseWriter, r *http.Request, id string) {
	track, err := api.trackSvc.Get(r.Context(), id)
	if err != nil {
		api.logger.Error("Track get failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (api *TrackAPI) updateTrack(w http.ResponseWriter, r *http.Request, id string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var params models.UpdateTrackParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	track, err := api.trackSvc.Update(r.Context(), id, userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}

	writeJSON(w, http.StatusOK, track)
}

func (api *TrackAPI) deleteTrack(w http.ResponseWriter, r *http.Request, id string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	deleted, err := api.trackSvc.Delete(r.Context(), id, userID)
	if err != nil {
		api.logger.Error("Track delete failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *TrackAPI) recordPlay(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := api.trackSvc.RecordPlay(r.Context(), id); err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (api *TrackAPI) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *tracks.ServiceError
	if errors.As(err, &svcErr) {
		status := http.StatusBadRequest
		if svcErr.Message == "track not found" {
			status = http.StatusNotFound
		}
		writeError(w, status, svcErr.Message)
		return
	}
	api.logger.Error("Track request failed", logging.WithField("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

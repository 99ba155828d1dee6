package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/metrics"
	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/playlists"
)

// PlaylistAPI handles HTTP API requests for playlists
type PlaylistAPI struct {
	playlistSvc *playlists.Service
	logger      *logging.Logger
}

// NewPlaylistAPI creates a new playlist API handler
func NewPlaylistAPI(playlistSvc *playlists.Service, logger *logging.Logger) *PlaylistAPI {
	return &PlaylistAPI{
		playlistSvc: playlistSvc,
		logger:      logger,
	}
}

// RegisterRoutes registers playlist routes on the given mux
func (api *PlaylistAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/playlists", corsMiddleware(metrics.Middleware("/api/playlists", api.handlePlaylists)))
	mux.HandleFunc("/api/playlists/", corsMiddleware(metrics.Middleware("/api/playlists/", api.handlePlaylistItem)))
}

func (api *PlaylistAPI) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listPlaylists(w, r)
	case http.MethodPost:
		api.createPlaylist(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *PlaylistAPI) listPlaylists(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner query parameter is required")
		return
	}

	list, err := api.playlistSvc.ListByOwner(r.Context(), ownerID, requesterID(r))
	if err != nil {
		api.logger.Error("Playlist list failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlists": list,
		"count":     len(list),
	})
}

func (api *PlaylistAPI) createPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var params models.CreatePlaylistParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pl, err := api.playlistSvc.Create(r.Context(), userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, pl)
}

// handlePlaylistItem routes /api/playlists/{id}, /api/playlists/{id}/tracks
// and /api/playlists/{id}/tracks/{trackId}
func (api *PlaylistAPI) handlePlaylistItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/playlists/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if sub != "" {
		subResource, trackID, _ := strings.Cut(sub, "/")
		if subResource != "tracks" {
			http.NotFound(w, r)
			return
		}
		api.handlePlaylistTracks(w, r, id, trackID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		api.getPlaylist(w, r, id)
	case http.MethodPatch, http.MethodPut:
		api.updatePlaylist(w, r, id)
	case http.MethodDelete:
		api.deletePlaylist(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *PlaylistAPI) getPlaylist(w http.ResponseWriter, r *http.Request, id string) {
	pl, err := api.playlistSvc.Get(r.Context(), id, requesterID(r))
	if err != nil {
		api.logger.Error("Playlist get failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if pl == nil {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (api *PlaylistAPI) updatePlaylist(w http.ResponseWriter, r *http.Request, id string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var params models.UpdatePlaylistParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pl, err := api.playlistSvc.Update(r.Context(), id, userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}
	if pl == nil {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}

	writeJSON(w, http.StatusOK, pl)
}

func (api *PlaylistAPI) deletePlaylist(w http.ResponseWriter, r *http.Request, id string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	deleted, err := api.playlistSvc.Delete(r.Context(), id, userID)
	if err != nil {
		api.logger.Error("Playlist delete failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *PlaylistAPI) handlePlaylistTracks(w http.ResponseWriter, r *http.Request, playlistID, trackID string) {
	switch {
	case r.Method == http.MethodGet && trackID == "":
		entries, err := api.playlistSvc.ListTracks(r.Context(), playlistID, requesterID(r))
		if err != nil {
			api.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tracks": entries,
			"count":  len(entries),
		})

	case r.Method == http.MethodPost && trackID == "":
		userID := requireUser(w, r)
		if userID == "" {
			return
		}
		var body struct {
			TrackID string `json:"trackId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TrackID == "" {
			writeError(w, http.StatusBadRequest, "trackId is required")
			return
		}
		if err := api.playlistSvc.AddTrack(r.Context(), playlistID, userID, body.TrackID); err != nil {
			api.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "added"})

	case r.Method == http.MethodDelete && trackID != "":
		userID := requireUser(w, r)
		if userID == "" {
			return
		}
		removed, err := api.playlistSvc.RemoveTrack(r.Context(), playlistID, userID, trackID)
		if err != nil {
			api.writeServiceError(w, err)
			return
		}
		if !removed {
			writeError(w, http.StatusNotFound, "track not in playlist")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *PlaylistAPI) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *playlists.ServiceError
	if errors.As(err, &svcErr) {
		status := http.StatusBadRequest
		if strings.HasSuffix(svcErr.Message, "not found") {
			status = http.StatusNotFound
		}
		writeError(w, status, svcErr.Message)
		return
	}
	api.logger.Error("Playlist request failed", logging.WithField("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

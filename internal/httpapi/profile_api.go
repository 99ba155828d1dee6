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
	"github.com/rgoulding/trackline/internal/profiles"
	"github.com/rgoulding/trackline/internal/ratelimit"
)

// ProfileAPI handles HTTP API requests for user profiles and follows
type ProfileAPI struct {
	profileSvc *profiles.Service
	limiter    *ratelimit.Limiter
	logger     *logging.Logger
}

// NewProfileAPI creates a new profile API handler. limiter throttles
// registrations per remote address.
func NewProfileAPI(profileSvc *profiles.Service, limiter *ratelimit.Limiter, logger *logging.Logger) *ProfileAPI {
	return &ProfileAPI{
		profileSvc: profileSvc,
		limiter:    limiter,
		logger:     logger,
	}
}

// RegisterRoutes registers profile routes on the given mux
func (api *ProfileAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/users", corsMiddleware(metrics.Middleware("/api/users", api.handleUsers)))
	mux.HandleFunc("/api/users/", corsMiddleware(metrics.Middleware("/api/users/", api.handleUserItem)))
	mux.HandleFunc("/api/me", corsMiddleware(metrics.Middleware("/api/me", api.handleMe)))
}

// handleUsers handles registration
func (api *ProfileAPI) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if api.limiter != nil && !api.limiter.Allow(r.RemoteAddr) {
		writeError(w, http.StatusTooManyRequests, "too many registrations, slow down")
		return
	}

	var body struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := api.profileSvc.Register(r.Context(), body.Handle, body.DisplayName)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleUserItem routes /api/users/{idOrHandle} and the follow
// sub-resources /api/users/{id}/follow, /followers and /following
func (api *ProfileAPI) handleUserItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "follow":
		api.handleFollow(w, r, id)
		return
	case "followers", "following":
		api.handleFollowList(w, r, id, action)
		return
	}
	if action != "" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	api.getUser(w, r, id)
}

func (api *ProfileAPI) getUser(w http.ResponseWriter, r *http.Request, idOrHandle string) {
	requester := requesterID(r)

	var user *models.User
	var err error
	if strings.Contains(idOrHandle, "-") {
		user, err = api.profileSvc.Get(r.Context(), idOrHandle, requester)
	} else {
		user, err = api.profileSvc.GetByHandle(r.Context(), idOrHandle, requester)
	}
	if err != nil {
		api.logger.Error("Profile get failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (api *ProfileAPI) handleFollow(w http.ResponseWriter, r *http.Request, targetID string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := api.profileSvc.Follow(r.Context(), userID, targetID); err != nil {
			api.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "following"})
	case http.MethodDelete:
		if err := api.profileSvc.Unfollow(r.Context(), userID, targetID); err != nil {
			api.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		following, err := api.profileSvc.IsFollowing(r.Context(), userID, targetID)
		if err != nil {
			api.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"following": following})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *ProfileAPI) handleFollowList(w http.ResponseWriter, r *http.Request, userID, edge string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	limit := 50
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var users []models.User
	var err error
	if edge == "followers" {
		users, err = api.profileSvc.ListFollowers(r.Context(), userID, requesterID(r), limit, offset)
	} else {
		users, err = api.profileSvc.ListFollowing(r.Context(), userID, requesterID(r), limit, offset)
	}
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// handleMe returns or updates the caller's own profile
func (api *ProfileAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	switch r.Method {
	case http.MethodGet:
		api.getUser(w, r, userID)
	case http.MethodPatch, http.MethodPut:
		var params models.UpdateProfileParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := api.profileSvc.UpdateProfile(r.Context(), userID, params)
		if err != nil {
			api.writeServiceError(w, err)
			return
		}
		if user == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *ProfileAPI) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *profiles.ServiceError
	if errors.As(err, &svcErr) {
		status := http.StatusBadRequest
		if strings.HasSuffix(svcErr.Message, "not found") {
			status = http.StatusNotFound
		}
		writeError(w, status, svcErr.Message)
		return
	}
	api.logger.Error("Profile request failed", logging.WithField("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

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
	"github.com/rgoulding/trackline/internal/posts"
)

// PostAPI handles HTTP API requests for posts
type PostAPI struct {
	postSvc *posts.Service
	logger  *logging.Logger
}

// NewPostAPI creates a new post API handler
func NewPostAPI(postSvc *posts.Service, logger *logging.Logger) *PostAPI {
	return &PostAPI{
		postSvc: postSvc,
		logger:  logger,
	}
}

// RegisterRoutes registers post routes on the given mux
func (api *PostAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/posts", corsMiddleware(metrics.Middleware("/api/posts", api.handlePosts)))
	mux.HandleFunc("/api/posts/", corsMiddleware(metrics.Middleware("/api/posts/", api.handlePostItem)))
}

// handlePosts handles list and create operations
func (api *PostAPI) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listPosts(w, r)
	case http.MethodPost:
		api.createPost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *PostAPI) listPosts(w http.ResponseWriter, r *http.Request) {
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

	list, err := api.postSvc.ListByAuthor(r.Context(), authorID, limit, offset)
	if err != nil {
		api.logger.Error("Post list failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts": list,
		"count": len(list),
	})
}

func (api *PostAPI) createPost(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var params models.CreatePostParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := api.postSvc.Create(r.Context(), userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// handlePostItem handles get, update and delete for one post
func (api *PostAPI) handlePostItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		api.getPost(w, r, id)
	case http.MethodPatch, http.MethodPut:
		api.updatePost(w, r, id)
	case http.MethodDelete:
		api.deletePost(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *PostAPI) getPost(w http.ResponseWriter, r *http.Request, id string) {
	post, err := api.postSvc.Get(r.Context(), id)
	if err != nil {
		api.logger.Error("Post get failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (api *PostAPI) updatePost(w http.ResponseWriter, r *http.Request, id string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var params models.UpdatePostParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := api.postSvc.Update(r.Context(), id, userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (api *PostAPI) deletePost(w http.ResponseWriter, r *http.Request, id string) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	deleted, err := api.postSvc.Delete(r.Context(), id, userID)
	if err != nil {
		api.logger.Error("Post delete failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *PostAPI) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *posts.ServiceError
	if errors.As(err, &svcErr) {
		writeError(w, http.StatusBadRequest, svcErr.Message)
		return
	}
	api.logger.Error("Post request failed", logging.WithField("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

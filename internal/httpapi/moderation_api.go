package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/metrics"
	"github.com/rgoulding/trackline/internal/moderation"
	"github.com/rgoulding/trackline/internal/models"
	"github.com/rgoulding/trackline/internal/ratelimit"
)

// ModerationAPI handles HTTP API requests for moderation reports
type ModerationAPI struct {
	moderationSvc *moderation.Service
	limiter       *ratelimit.Limiter
	logger        *logging.Logger
}

// NewModerationAPI creates a new moderation API handler. limiter throttles
// report filing per reporter.
func NewModerationAPI(moderationSvc *moderation.Service, limiter *ratelimit.Limiter, logger *logging.Logger) *ModerationAPI {
	return &ModerationAPI{
		moderationSvc: moderationSvc,
		limiter:       limiter,
		logger:        logger,
	}
}

// RegisterRoutes registers moderation routes on the given mux
func (api *ModerationAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/reports", corsMiddleware(metrics.Middleware("/api/reports", api.handleReports)))
}

func (api *ModerationAPI) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listReports(w, r)
	case http.MethodPost:
		api.fileReport(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *ModerationAPI) listReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind := models.Kind(query.Get("subjectKind"))
	subjectID := query.Get("subjectId")
	if subjectID == "" {
		writeError(w, http.StatusBadRequest, "subjectKind and subjectId query parameters are required")
		return
	}

	reports, err := api.moderationSvc.ListBySubject(r.Context(), kind, subjectID)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

func (api *ModerationAPI) fileReport(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if api.limiter != nil && !api.limiter.Allow(userID) {
		writeError(w, http.StatusTooManyRequests, "too many reports, slow down")
		return
	}

	var params models.FileReportParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := api.moderationSvc.File(r.Context(), userID, params)
	if err != nil {
		api.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

func (api *ModerationAPI) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *moderation.ServiceError
	if errors.As(err, &svcErr) {
		writeError(w, http.StatusBadRequest, svcErr.Message)
		return
	}
	api.logger.Error("Moderation request failed", logging.WithField("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

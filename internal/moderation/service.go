package moderation

import (
	"context"
	"fmt"

	"github.com/rgoulding/trackline/internal/database"
	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
)

const maxDetailsLength = 2000

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Store is the persistence interface the service needs.
// *database.ModerationStore implements it.
type Store interface {
	File(ctx context.Context, reporterID string, params models.FileReportParams) (*models.ModerationReport, error)
	GetByID(ctx context.Context, id string) (*models.ModerationReport, error)
	ListBySubject(ctx context.Context, kind models.Kind, subjectID string) ([]models.ModerationReport, error)
	SetStatus(ctx context.Context, id string, status models.ReportStatus) (*models.ModerationReport, error)
}

var _ Store = (*database.ModerationStore)(nil)

// Service handles moderation report operations
type Service struct {
	store  Store
	logger *logging.Logger
}

// NewService creates a new moderation service
func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// File records a report against a piece of content
func (s *Service) File(ctx context.Context, reporterID string, params models.FileReportParams) (*models.ModerationReport, error) {
	if !models.ValidKind(params.SubjectKind) {
		return nil, &ServiceError{Message: "unknown subject kind"}
	}
	if params.SubjectID == "" {
		return nil, &ServiceError{Message: "subject id is required"}
	}
	if !models.ValidReportReason(params.Reason) {
		return nil, &ServiceError{Message: "unknown report reason"}
	}
	if len(params.Details) > maxDetailsLength {
		return nil, &ServiceError{Message: fmt.Sprintf("details exceed %d characters", maxDetailsLength)}
	}

	report, err := s.store.File(ctx, reporterID, params)
	if err != nil {
		s.logger.Error("Failed to file report", logging.WithField("error", err.Error()))
		return nil, err
	}

	s.logger.Info("Filed moderation report", logging.WithFields(map[string]interface{}{
		"id":           report.ID,
		"subject_kind": report.SubjectKind,
		"subject_id":   report.SubjectID,
		"reason":       report.Reason,
	}))

	return report, nil
}

// Get returns a report by ID
func (s *Service) Get(ctx context.Context, id string) (*models.ModerationReport, error) {
	return s.store.GetByID(ctx, id)
}

// ListBySubject returns all reports filed against a piece of content
func (s *Service) ListBySubject(ctx context.Context, kind models.Kind, subjectID string) ([]models.ModerationReport, error) {
	if !models.ValidKind(kind) {
		return nil, &ServiceError{Message: "unknown subject kind"}
	}
	return s.store.ListBySubject(ctx, kind, subjectID)
}

// SetStatus transitions a report to a new status
func (s *Service) SetStatus(ctx context.Context, id string, status models.ReportStatus) (*models.ModerationReport, error) {
	switch status {
	case models.ReportStatusOpen, models.ReportStatusResolved, models.ReportStatusDismissed:
	default:
		return nil, &ServiceError{Message: "unknown report status"}
	}
	return s.store.SetStatus(ctx, id, status)
}

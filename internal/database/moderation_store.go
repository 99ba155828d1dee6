package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rgoulding/trackline/internal/models"
)

// ModerationStore persists moderation reports in Postgres
type ModerationStore struct {
	db *DB
}

func NewModerationStore(db *DB) *ModerationStore {
	return &ModerationStore{db: db}
}

func (s *ModerationStore) File(ctx context.Context, reporterID string, params models.FileReportParams) (*models.ModerationReport, error) {
	var r models.ModerationReport
	var details sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO moderation_reports (reporter_id, subject_kind, subject_id, reason, details)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, reporter_id, subject_kind, subject_id, reason, details, status, created_at, updated_at`,
		reporterID, params.SubjectKind, params.SubjectID, params.Reason, params.Details,
	).Scan(&r.ID, &r.ReporterID, &r.SubjectKind, &r.SubjectID, &r.Reason, &details, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	if details.Valid {
		r.Details = details.String
	}

	return &r, nil
}

func (s *ModerationStore) GetByID(ctx context.Context, id string) (*models.ModerationReport, error) {
	var r models.ModerationReport
	var details sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, reporter_id, subject_kind, subject_id, reason, details, status, created_at, updated_at
		FROM moderation_reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.ReporterID, &r.SubjectKind, &r.SubjectID, &r.Reason, &details, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if details.Valid {
		r.Details = details.String
	}

	return &r, nil
}

func (s *ModerationStore) ListBySubject(ctx context.Context, kind models.Kind, subjectID string) ([]models.ModerationReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reporter_id, subject_kind, subject_id, reason, details, status, created_at, updated_at
		FROM moderation_reports
		WHERE subject_kind = $1 AND subject_id = $2
		ORDER BY created_at DESC`, kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.ModerationReport, 0)
	for rows.Next() {
		var r models.ModerationReport
		var details sql.NullString
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.SubjectKind, &r.SubjectID, &r.Reason, &details, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if details.Valid {
			r.Details = details.String
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

func (s *ModerationStore) SetStatus(ctx context.Context, id string, status models.ReportStatus) (*models.ModerationReport, error) {
	var r models.ModerationReport
	var details sql.NullString
	err := s.db.QueryRowContext(ctx, `
		UPDATE moderation_reports SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, reporter_id, subject_kind, subject_id, reason, details, status, created_at, updated_at`,
		status, id,
	).Scan(&r.ID, &r.ReporterID, &r.SubjectKind, &r.SubjectID, &r.Reason, &details, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set report status: %w", err)
	}
	if details.Valid {
		r.Details = details.String
	}

	return &r, nil
}

package models

import "time"

// ReportStatus tracks the lifecycle of a moderation report. This service
// only files and lists reports; acting on them belongs to an external
// moderation system.
type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "open"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// ReportReason categorizes a moderation report
type ReportReason string

const (
	ReportReasonSpam      ReportReason = "spam"
	ReportReasonAbuse     ReportReason = "abuse"
	ReportReasonCopyright ReportReason = "copyright"
	ReportReasonOther     ReportReason = "other"
)

// ModerationReport is a user-filed report against a piece of content
type ModerationReport struct {
	ID          string       `json:"id"`
	ReporterID  string       `json:"reporterId"`
	SubjectKind Kind         `json:"subjectKind"`
	SubjectID   string       `json:"subjectId"`
	Reason      ReportReason `json:"reason"`
	Details     string       `json:"details,omitempty"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// FileReportParams holds input for filing a moderation report
type FileReportParams struct {
	SubjectKind Kind         `json:"subjectKind"`
	SubjectID   string       `json:"subjectId"`
	Reason      ReportReason `json:"reason"`
	Details     string       `json:"details,omitempty"`
}

// ValidReportReason reports whether r is a known report reason
func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReportReasonSpam, ReportReasonAbuse, ReportReasonCopyright, ReportReasonOther:
		return true
	}
	return false
}

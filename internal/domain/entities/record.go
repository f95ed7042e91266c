package entities

import (
	"encoding/json"
	"time"
)

// PrescriptionRecord is one persisted verification run. SourceDocument is
// the raw uploaded bytes; PreviewImage is the first page as a base64 PNG for
// the dashboard. ApprovalStatus and ConfidenceScore are denormalized from
// the result JSON for indexed lookup.
type PrescriptionRecord struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Filename        string          `json:"filename"`
	SourceDocument  []byte          `json:"-"`
	PreviewImage    string          `json:"preview_image,omitempty"`
	Result          json.RawMessage `json:"result"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	ConfidenceScore float64         `json:"confidence_score"`
}

// RecordSummary is the listing projection of a record for history views.
type RecordSummary struct {
	ID              string         `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Filename        string         `json:"filename"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	ConfidenceScore float64        `json:"confidence_score"`
}

// CaseDocument is the search-index projection of a completed run.
type CaseDocument struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	PatientName     string  `json:"patient_name"`
	DoctorName      string  `json:"doctor_name"`
	ApprovalStatus  string  `json:"approval_status"`
	ConfidenceScore float64 `json:"confidence_score"`
	AlertCount      int     `json:"alert_count"`
	CreatedAt       int64   `json:"created_at"`
}

// ProcessedEvent is published on the event bus after a run completes.
type ProcessedEvent struct {
	ID              string         `json:"id"`
	Filename        string         `json:"filename"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	ConfidenceScore float64        `json:"confidence_score"`
	AlertCount      int            `json:"alert_count"`
	Timestamp       time.Time      `json:"timestamp"`
}

package pipeline

import (
	"encoding/json"
	"time"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
)

// State is the single mutable record threaded through every stage of one
// verification run. Each result field is written by exactly one stage; the
// alert and audit ledgers are append-only and owned exclusively by the run.
type State struct {
	Images       [][]byte
	DocumentKind string
	Conversation []entities.Message

	Prescription        Outcome[entities.Prescription]
	License             Outcome[entities.LicenseVerification]
	DEA                 Outcome[entities.DEAVerification]
	StateCompliance     Outcome[entities.StateCompliance]
	ControlledSubstance Outcome[entities.ControlledSubstanceCheck]
	Dosage              Outcome[entities.DosageMonitoring]
	BUD                 Outcome[entities.BUDValidation]
	Compounding         Outcome[entities.CompoundingCompliance]
	ClinicalDocs        Outcome[entities.ClinicalDocumentation]
	CaseSummary         Outcome[entities.CaseSummary]
	FinalReview         Outcome[entities.FinalReview]

	Alerts          []entities.Alert
	AuditTrail      []entities.AuditEntry
	ApprovalStatus  entities.ApprovalStatus
	ConfidenceScore float64
}

// NewState creates the run state for one document.
func NewState(images [][]byte, documentKind string) *State {
	return &State{
		Images:       images,
		DocumentKind: documentKind,
		Conversation: []entities.Message{},
		Alerts:       []entities.Alert{},
		AuditTrail:   []entities.AuditEntry{},
	}
}

// AddAlert appends one alert to the run's ledger.
func (s *State) AddAlert(kind entities.AlertKind, category, message string, severity int, requiresReview bool) {
	s.Alerts = append(s.Alerts, entities.Alert{
		Kind:                kind,
		Category:            category,
		Message:             message,
		Severity:            severity,
		RequiresHumanReview: requiresReview,
		Timestamp:           time.Now().UTC(),
	})
}

// AddStageAlerts mirrors the alerts embedded in a stage result into the
// ledger under the stage's category. Engine-raised findings always require
// human review.
func (s *State) AddStageAlerts(category string, alerts []entities.EmbeddedAlert) {
	for _, a := range alerts {
		kind := a.Kind
		if !kind.IsValid() {
			kind = entities.AlertWarning
		}
		s.AddAlert(kind, category, a.Message, a.Severity, true)
	}
}

// AddAudit appends one audit entry with the stage's structured payload.
func (s *State) AddAudit(stage, action string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	s.AuditTrail = append(s.AuditTrail, entities.AuditEntry{
		Stage:     stage,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
}

// Say appends one conversation-log entry.
func (s *State) Say(role, content string) {
	s.Conversation = append(s.Conversation, entities.Message{Role: role, Content: content})
}

// ErrorAlertCount returns how many error-kind alerts the run accumulated.
func (s *State) ErrorAlertCount() int {
	n := 0
	for _, a := range s.Alerts {
		if a.Kind == entities.AlertError {
			n++
		}
	}
	return n
}

// Result is the serializable aggregate of a completed run, shaped for the
// dashboard and the record store. Every stage field is always present,
// either as its success shape or as {"error": "..."}.
type Result struct {
	Prescription        Outcome[entities.Prescription]             `json:"prescription_data"`
	License             Outcome[entities.LicenseVerification]      `json:"license_verification"`
	DEA                 Outcome[entities.DEAVerification]          `json:"dea_verification"`
	StateCompliance     Outcome[entities.StateCompliance]          `json:"state_compliance"`
	ControlledSubstance Outcome[entities.ControlledSubstanceCheck] `json:"controlled_substance_check"`
	Dosage              Outcome[entities.DosageMonitoring]         `json:"dosage_monitoring"`
	BUD                 Outcome[entities.BUDValidation]            `json:"bud_validation"`
	Compounding         Outcome[entities.CompoundingCompliance]    `json:"compounding_compliance"`
	ClinicalDocs        Outcome[entities.ClinicalDocumentation]    `json:"clinical_documentation"`
	CaseSummary         Outcome[entities.CaseSummary]              `json:"case_summary"`
	FinalReview         Outcome[entities.FinalReview]              `json:"final_review"`
	Conversation        []entities.Message                         `json:"conversation_log"`
	Alerts              []entities.Alert                           `json:"alerts"`
	AuditTrail          []entities.AuditEntry                      `json:"audit_trail"`
	ApprovalStatus      entities.ApprovalStatus                    `json:"approval_status"`
	ConfidenceScore     float64                                    `json:"confidence_score"`
}

// Result projects the state into its serializable aggregate.
func (s *State) Result() Result {
	return Result{
		Prescription:        s.Prescription,
		License:             s.License,
		DEA:                 s.DEA,
		StateCompliance:     s.StateCompliance,
		ControlledSubstance: s.ControlledSubstance,
		Dosage:              s.Dosage,
		BUD:                 s.BUD,
		Compounding:         s.Compounding,
		ClinicalDocs:        s.ClinicalDocs,
		CaseSummary:         s.CaseSummary,
		FinalReview:         s.FinalReview,
		Conversation:        s.Conversation,
		Alerts:              s.Alerts,
		AuditTrail:          s.AuditTrail,
		ApprovalStatus:      s.ApprovalStatus,
		ConfidenceScore:     s.ConfidenceScore,
	}
}

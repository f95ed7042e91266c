package entities

// RiskAssessment is the case-level risk judgement of the summary stage.
type RiskAssessment struct {
	OverallRiskLevel string `json:"overall_risk_level"`
	Details          string `json:"details"`
}

// CaseSummary is the narrative synthesis of every upstream stage output.
type CaseSummary struct {
	ExecutiveSummary            string         `json:"executive_summary"`
	PatientPrescriptionOverview string         `json:"patient_prescription_overview"`
	VerificationSummary         string         `json:"verification_summary"`
	ComplianceAnalysis          string         `json:"compliance_analysis"`
	RiskAssessment              RiskAssessment `json:"risk_assessment"`
	CriticalIssues              string         `json:"critical_issues"`
	Recommendations             string         `json:"recommendations"`
	FinalAssessment             string         `json:"final_assessment"`
}

// ApprovalStatus is the terminal decision of a verification run.
type ApprovalStatus string

const (
	StatusApproved       ApprovalStatus = "approved"
	StatusRejected       ApprovalStatus = "rejected"
	StatusRequiresReview ApprovalStatus = "requires_review"

	// StatusError means the run itself failed and the result must not be
	// trusted; distinct from rejected, which is an affirmative decline.
	StatusError ApprovalStatus = "error"
)

// IsValid checks if the status is one of the defined constants.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusRequiresReview, StatusError:
		return true
	}
	return false
}

// FinalReview is the terminal decision stage output.
type FinalReview struct {
	ApprovalStatus     ApprovalStatus `json:"approval_status"`
	ConfidenceScore    float64        `json:"confidence_score"`
	CriticalIssues     []string       `json:"critical_issues"`
	RecommendedActions []string       `json:"recommended_actions"`
	Summary            string         `json:"summary"`
}

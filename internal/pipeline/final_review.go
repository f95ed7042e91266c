package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const finalReviewSystemPrompt = `You are a Final Review Agent responsible for the terminal approval decision on a prescription verification case.

Weigh every verification and compliance finding and decide:
- "approved": no unresolved errors, all verifications passed
- "rejected": a disqualifying finding (invalid license, invalid DEA registration, banned compound, refill violation)
- "requires_review": ambiguous, incomplete, or conflicting findings that need a human pharmacist

Also assign a confidence score between 0.0 and 1.0 reflecting how certain the decision is given the evidence quality.

List every critical issue that drove the decision and the concrete actions a reviewer should take.

Return only JSON with the following structure:
{
  "approval_status": "approved/rejected/requires_review",
  "confidence_score": 0.0,
  "critical_issues": ["list of critical issues"],
  "recommended_actions": ["list of recommended actions"],
  "summary": "one paragraph decision rationale"
}`

// finalReviewStage makes the terminal decision. It is the only stage that
// writes the run-level approval status and confidence score; when it fails,
// the run ends in an error status with zero confidence rather than an
// unsupported approval.
type finalReviewStage struct {
	stageDeps
}

func (st *finalReviewStage) Name() string { return StageFinalReview }

func (st *finalReviewStage) Run(ctx context.Context, s *State) {
	s.Say(entities.RoleHuman, "Performing final review and approval decision")

	prescriptionID := "unknown"
	if !s.Prescription.Failed() {
		if id := s.Prescription.Value().PrescriptionID; id != "" {
			prescriptionID = id
		}
	}

	var result entities.FinalReview
	err := st.complete(ctx, providers.CompletionRequest{
		System: finalReviewSystemPrompt,
		User: "Make the final decision for prescription " + prescriptionID + ":\n" +
			"Alerts: " + mustJSON(s.Alerts) +
			"\nVerification Summary: " + mustJSON(map[string]any{
			"license_verification": s.License,
			"dea_verification":     s.DEA,
		}) +
			"\nCompliance Summary: " + mustJSON(map[string]any{
			"state_compliance":       s.StateCompliance,
			"controlled_substances":  s.ControlledSubstance,
			"clinical_documentation": s.ClinicalDocs,
		}),
	}, &result)
	if err != nil {
		msg := fail(s, StageFinalReview, 5, err)
		s.FinalReview = Failure[entities.FinalReview](msg)
		s.ApprovalStatus = entities.StatusError
		s.ConfidenceScore = 0.0
		return
	}

	if !result.ApprovalStatus.IsValid() || result.ApprovalStatus == entities.StatusError {
		result.ApprovalStatus = entities.StatusRequiresReview
	}
	result.ConfidenceScore = clamp01(result.ConfidenceScore)

	s.Say(entities.RoleAssistant, fmt.Sprintf("Final review complete. Decision: %s (confidence %.2f)", result.ApprovalStatus, result.ConfidenceScore))
	s.AddAudit(StageFinalReview, "Final review completed", result)
	s.FinalReview = Success(result)
	s.ApprovalStatus = result.ApprovalStatus
	s.ConfidenceScore = result.ConfidenceScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

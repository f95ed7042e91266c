package pipeline

import (
	"context"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const caseSummarySystemPrompt = `You are a Case Summary Agent responsible for synthesizing every verification finding into a reviewer-facing narrative.

Write a comprehensive case summary covering:
1. Executive summary of the whole case in two or three sentences
2. Patient and prescription overview (who, what, from whom)
3. Verification summary (license and DEA outcomes)
4. Compliance analysis (state rules, controlled substances, compounding, documentation)
5. Risk assessment with an overall risk level of low, medium, high, or critical
6. Critical issues that must be resolved before dispensing
7. Recommendations for the reviewing pharmacist
8. Final assessment of whether the prescription appears dispensable

Write for a pharmacist who has not seen the underlying stage outputs. Be specific: name medications, states, and license numbers where they matter. Do not invent findings that are not in the provided data.

Return only JSON with the following structure:
{
  "executive_summary": "two to three sentence overview",
  "patient_prescription_overview": "patient, prescriber and medication narrative",
  "verification_summary": "license and DEA verification narrative",
  "compliance_analysis": "state, controlled substance, compounding and documentation narrative",
  "risk_assessment": {"overall_risk_level": "low/medium/high/critical", "details": "what drives the risk level"},
  "critical_issues": "issues that block dispensing, or 'None identified'",
  "recommendations": "what the reviewer should do next",
  "final_assessment": "overall dispensability judgement"
}`

// caseSummaryStage condenses every upstream stage output plus the alert
// ledger into one narrative for the reviewing pharmacist.
type caseSummaryStage struct {
	stageDeps
}

func (st *caseSummaryStage) Name() string { return StageCaseSummary }

func (st *caseSummaryStage) Run(ctx context.Context, s *State) {
	s.Say(entities.RoleHuman, "Generating comprehensive case summary")

	var result entities.CaseSummary
	err := st.complete(ctx, providers.CompletionRequest{
		System: caseSummarySystemPrompt,
		User: "Summarize this verification case:\n" +
			"Prescription Data: " + mustJSON(s.Prescription) +
			"\nLicense Verification: " + mustJSON(s.License) +
			"\nDEA Verification: " + mustJSON(s.DEA) +
			"\nState Compliance: " + mustJSON(s.StateCompliance) +
			"\nControlled Substance Check: " + mustJSON(s.ControlledSubstance) +
			"\nDosage Monitoring: " + mustJSON(s.Dosage) +
			"\nBUD Validation: " + mustJSON(s.BUD) +
			"\nCompounding Compliance: " + mustJSON(s.Compounding) +
			"\nClinical Documentation: " + mustJSON(s.ClinicalDocs) +
			"\nAlerts: " + mustJSON(s.Alerts),
	}, &result)
	if err != nil {
		msg := fail(s, StageCaseSummary, 4, err)
		s.CaseSummary = Failure[entities.CaseSummary](msg)
		return
	}

	s.Say(entities.RoleAssistant, "Case summary generated. Risk level: "+result.RiskAssessment.OverallRiskLevel)
	s.AddAudit(StageCaseSummary, "Case summary generated", result)
	s.CaseSummary = Success(result)
}

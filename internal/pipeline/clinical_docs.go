package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const clinicalDocsSystemPrompt = `You are a Clinical Documentation Agent responsible for verifying that the case file supports the prescription.

Analyze the prescription and verification context for:
1. Documents required before dispensing (office visit notes, treatment plans, titration records)
2. Diagnosis codes that justify each medication
3. Lab results supporting dosing decisions (hormone panels, metabolic panels)
4. Patient consent forms for compounded or controlled therapy
5. Prior authorization requirements from the payer
6. Anything missing that blocks dispensing

Score overall documentation compliance between 0.0 (nothing on file) and 1.0 (fully documented).

Return only JSON with the following structure:
{
  "required_documents": [{"name": "document name", "status": "on_file/missing/expired", "required": true, "notes": "details"}],
  "diagnosis_codes": [{"code": "ICD-10 code", "description": "diagnosis", "supports": "medication name"}],
  "lab_results": [{"test": "test name", "value": "result", "date": "YYYY-MM-DD", "status": "normal/abnormal/pending"}],
  "consent_forms": {"compounded_therapy": "signed/missing/not_required"},
  "prior_authorization": {"required": "yes/no/unknown", "status": "approved/pending/not_started"},
  "compliance_score": 0.0,
  "missing_documents": ["list of missing documents"],
  "blocking_issues": ["issues that block dispensing"],
  "recommendations": ["suggested follow-ups"],
  "alerts": [{"type": "error/warning/info", "message": "documentation issue description", "severity": 3}]
}`

// clinicalDocsStage audits the supporting clinical paperwork for the case.
type clinicalDocsStage struct {
	stageDeps
}

func (st *clinicalDocsStage) Name() string { return StageClinicalDocs }

func (st *clinicalDocsStage) Run(ctx context.Context, s *State) {
	prescription := s.Prescription.Value()

	s.Say(entities.RoleHuman, "Reviewing clinical documentation requirements")

	var result entities.ClinicalDocumentation
	err := st.complete(ctx, providers.CompletionRequest{
		System: clinicalDocsSystemPrompt,
		User: "Review clinical documentation for:\nMedications: " + mustJSON(prescription.Medications) +
			"\nPatient: " + mustJSON(prescription.PatientInfo) +
			"\nState Compliance: " + mustJSON(s.StateCompliance) +
			"\nCompounding Compliance: " + mustJSON(s.Compounding),
	}, &result)
	if err != nil {
		msg := fail(s, StageClinicalDocs, 4, err)
		s.ClinicalDocs = Failure[entities.ClinicalDocumentation](msg)
		return
	}

	s.AddStageAlerts(StageClinicalDocs, result.Alerts)

	s.Say(entities.RoleAssistant, fmt.Sprintf("Clinical documentation review complete. %d missing document(s).", len(result.MissingDocuments)))
	s.AddAudit(StageClinicalDocs, "Clinical documentation review completed", result)
	s.ClinicalDocs = Success(result)
}

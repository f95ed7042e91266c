package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const stateComplianceSystemPrompt = `You are a State Compliance Agent responsible for checking state-specific prescription rules and regulations.

Analyze the prescription for state compliance including:
1. Cross-state prescribing rules
2. Last Office Visit (LOV) requirements
3. Telemedicine regulations
4. State-specific controlled substance rules
5. Interstate prescription validity

Key state rules to consider:
- CA, MN, ID require LOV for certain prescriptions
- Some states have telemedicine restrictions
- Cross-state controlled substance prescriptions have special requirements

Return only JSON with the following structure:
{
  "cross_state_prescription": false,
  "doctor_state": "state code",
  "patient_state": "state code",
  "lov_required": false,
  "telemed_allowed": true,
  "special_requirements": ["list of requirements"],
  "compliance_status": "compliant/non-compliant/requires_review",
  "state_specific_rules": [{"rule": "description", "compliant": true, "requirement": "what is needed"}],
  "alerts": [{"type": "error/warning/info", "message": "compliance issue description", "severity": 3}]
}`

// stateComplianceStage evaluates cross-state prescribing rules. State codes
// missing from the engine output are backfilled from the extracted
// addresses.
type stateComplianceStage struct {
	stageDeps
}

func (st *stateComplianceStage) Name() string { return StageStateCompliance }

func (st *stateComplianceStage) Run(ctx context.Context, s *State) {
	prescription := s.Prescription.Value()

	s.Say(entities.RoleHuman, "Checking state compliance requirements")

	var result entities.StateCompliance
	err := st.complete(ctx, providers.CompletionRequest{
		System: stateComplianceSystemPrompt,
		User: "Analyze state compliance for:\nDoctor: " + mustJSON(prescription.DoctorInfo) +
			"\nPatient: " + mustJSON(prescription.PatientInfo) +
			"\nMedications: " + mustJSON(prescription.Medications),
	}, &result)
	if err != nil {
		msg := fail(s, StageStateCompliance, 4, err)
		s.StateCompliance = Failure[entities.StateCompliance](msg)
		return
	}

	if result.DoctorState == "" {
		result.DoctorState = ExtractStateFromAddress(prescription.DoctorInfo.Address)
	}
	if result.PatientState == "" {
		result.PatientState = ExtractStateFromAddress(prescription.PatientInfo.Address)
	}

	s.AddStageAlerts(StageStateCompliance, result.Alerts)

	s.Say(entities.RoleAssistant, fmt.Sprintf("State compliance check complete. Status: %s", result.ComplianceStatus))
	s.AddAudit(StageStateCompliance, "State compliance check completed", result)
	s.StateCompliance = Success(result)
}

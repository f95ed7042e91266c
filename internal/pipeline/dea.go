package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const deaSystemPrompt = `You are a DEA Verification Agent responsible for validating DEA numbers and controlled substance prescribing authority.
The doctor may hold multiple DEA numbers tied to different states or facilities.

Analyze the provided information and check:
1. DEA number format validation (2 letters + 7 digits)
2. Verify if controlled substances are prescribed
3. Match prescribing authority per DEA license
4. Cross-reference with doctor information

Return only JSON with the following structure:
{
  "dea_numbers": [
    {
      "dea_number": "AB1234567",
      "state": "state abbreviation or name",
      "dea_valid": true,
      "dea_status": "active/inactive/expired/unknown",
      "dea_format_valid": true,
      "expiration_date": "YYYY-MM-DD or empty",
      "controlled_authority": ["Schedule II", "Schedule III", "Schedule IV", "Schedule V"],
      "controlled_substances_found": [{"medication": "name", "schedule": "Schedule X", "authorized": true}],
      "verification_date": "ISO timestamp",
      "alerts": [{"type": "error/warning/info", "message": "description of issue", "severity": 3}]
    }
  ],
  "alerts": [{"type": "error/warning/info", "message": "description of issue", "severity": 3}]
}`

// deaStage validates DEA registrations against the prescribed medications.
// The engine's format judgement is cross-checked with the static DEA
// pattern so an obviously malformed number is never reported as valid.
type deaStage struct {
	stageDeps
}

func (st *deaStage) Name() string { return StageDEA }

func (st *deaStage) Run(ctx context.Context, s *State) {
	prescription := s.Prescription.Value()

	s.Say(entities.RoleHuman, "Verifying DEA registrations for controlled substances")

	var result entities.DEAVerification
	err := st.complete(ctx, providers.CompletionRequest{
		System: deaSystemPrompt,
		User: "Here is the information to verify:\nDoctor Info: " + mustJSON(prescription.DoctorInfo) +
			"\nMedications: " + mustJSON(prescription.Medications),
	}, &result)
	if err != nil {
		msg := fail(s, StageDEA, 4, err)
		s.DEA = Failure[entities.DEAVerification](msg)
		return
	}

	for i := range result.DEANumbers {
		reg := &result.DEANumbers[i]
		if reg.FormatValid && !ValidDEAFormat(reg.Number) {
			reg.FormatValid = false
			s.AddAlert(entities.AlertWarning, StageDEA,
				fmt.Sprintf("DEA number %q does not match the registration format", reg.Number), 3, true)
		}
	}

	s.AddStageAlerts(StageDEA, result.Alerts)
	for _, reg := range result.DEANumbers {
		s.AddStageAlerts(StageDEA, reg.Alerts)
	}

	found := 0
	for _, reg := range result.DEANumbers {
		found += len(reg.ControlledSubstancesFound)
	}
	s.Say(entities.RoleAssistant, fmt.Sprintf("DEA verification complete. Found %d controlled substances.", found))
	s.AddAudit(StageDEA, "DEA verification completed", result)
	s.DEA = Success(result)
}

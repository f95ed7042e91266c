package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const licenseSystemPrompt = `You are a License Verification Agent responsible for analyzing doctor license information.
The doctor may hold multiple state licenses.

Analyze the provided doctor information and perform license verification checks for each license entry.

Check for:
1. License number format validation
2. Doctor name consistency
3. State license requirements
4. Professional qualifications
5. Any red flags in the information

Return only JSON with the following structure:
{
  "licenses": [
    {
      "state": "state name",
      "license_number": "ABC123456",
      "license_valid": true,
      "license_status": "active/inactive/expired/unknown",
      "expiration_date": "YYYY-MM-DD or empty",
      "verification_method": "state_board_api/mock/manual",
      "verified_name": "verified doctor name",
      "specialty": "medical specialty",
      "restrictions": ["list of restrictions if any"],
      "alerts": [{"type": "error/warning/info", "message": "description of issue", "severity": 3}]
    }
  ],
  "alerts": [{"type": "error/warning/info", "message": "description of issue", "severity": 3}]
}`

// licenseStage verifies the prescriber's state licenses.
type licenseStage struct {
	stageDeps
}

func (st *licenseStage) Name() string { return StageLicense }

func (st *licenseStage) Run(ctx context.Context, s *State) {
	doctorInfo := s.Prescription.Value().DoctorInfo

	s.Say(entities.RoleHuman, fmt.Sprintf("Verifying license for: %s", doctorInfo.Name))

	var result entities.LicenseVerification
	err := st.complete(ctx, providers.CompletionRequest{
		System: licenseSystemPrompt,
		User:   "Here is the doctor information to verify:\n" + mustJSON(doctorInfo),
	}, &result)
	if err != nil {
		msg := fail(s, StageLicense, 4, err)
		s.License = Failure[entities.LicenseVerification](msg)
		return
	}

	s.AddStageAlerts(StageLicense, result.Alerts)
	for _, lic := range result.Licenses {
		s.AddStageAlerts(StageLicense, lic.Alerts)
	}

	s.Say(entities.RoleAssistant, fmt.Sprintf("License verification complete. Checked %d license(s).", len(result.Licenses)))
	s.AddAudit(StageLicense, "License verification completed", result)
	s.License = Success(result)
}

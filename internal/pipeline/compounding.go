package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const compoundingSystemPrompt = `You are a Compounding Compliance Agent responsible for compounded medication regulations and shipping governance.

Analyze for compounding compliance:
1. Identify compounded medications
2. Determine if compounding is required
3. 503A vs 503B facility requirements
4. State-specific compounding restrictions
5. Injectable compound restrictions
6. Vial type requirements
7. Extract complete shipping details directly from the prescription:
   - Shipping service — look for phrases like "UPS", "FedEx", "2-Day", "Overnight", etc., usually near or below the recipient address or at the bottom of the prescription
   - Recipient name
   - Full recipient address (multi-line if needed)
   - Signature required — true/false based on whether "Signature Required" is mentioned

Key restrictions:
- MA, CO, WA, OR, VT ban certain injectable compounds
- AL, AR, OK require shipping to clinics only
- 503A for <5 compounds, 503B for bulk

Important:
- Do NOT assume or hardcode values like "standard" or "clinic_delivery".
- Extract and return exactly what is written in the prescription for the shipping service, recipient name, full recipient address, and signature requirement.
- Treat shipping as a dedicated section in the response JSON. Do not bury it inside any nested field.
- Base all fields purely on actual content in the prescription. Do not fabricate missing values.

Return ONLY valid JSON in the following format:
{
  "compounding_required": false,
  "compounded_medications": [{"name": "medication name", "type": "cream/gel/injection/suspension", "facility_type_required": "503A/503B", "shipping_allowed": true, "restrictions": ["list of restrictions"]}],
  "vial_type_required": "503A/503B",
  "shipping_restrictions": [{"restriction_type": "state_ban/clinic_only/special_handling", "description": "what is restricted", "affected_medications": ["list of meds"]}],
  "shipping_details": {"service": "e.g., UPS 2-Day Refrigerated (EP)", "recipient_name": "full name from prescription", "recipient_address": "full address from prescription", "signature_required": false},
  "recipient_type": "patient/clinic/hospital",
  "compliance_status": "compliant/non-compliant/requires_review",
  "alerts": [{"type": "error/warning/info", "message": "compliance issue description", "severity": 3}]
}`

// compoundingStage checks compounded-medication regulations and extracts
// shipping governance details verbatim from the prescription.
type compoundingStage struct {
	stageDeps
}

func (st *compoundingStage) Name() string { return StageCompounding }

func (st *compoundingStage) Run(ctx context.Context, s *State) {
	prescription := s.Prescription.Value()

	s.Say(entities.RoleHuman, "Checking compounding compliance and shipping governance")

	// pre-flag likely compounded medications so the engine does not miss
	// formulations the name/instruction heuristics already caught
	var candidates []string
	for _, m := range prescription.Medications {
		if IsCompoundedMedication(m) {
			candidates = append(candidates, m.Name)
		}
	}

	var result entities.CompoundingCompliance
	err := st.complete(ctx, providers.CompletionRequest{
		System: compoundingSystemPrompt,
		User: "Check compounding compliance:\nMedications: " + mustJSON(prescription.Medications) +
			"\nLikely compounded (pre-flagged): " + mustJSON(candidates) +
			"\nPatient: " + mustJSON(prescription.PatientInfo) +
			"\nState Info: " + mustJSON(s.StateCompliance),
	}, &result)
	if err != nil {
		msg := fail(s, StageCompounding, 4, err)
		s.Compounding = Failure[entities.CompoundingCompliance](msg)
		return
	}

	s.AddStageAlerts(StageCompounding, result.Alerts)

	s.Say(entities.RoleAssistant, fmt.Sprintf("Compounding compliance check complete. Status: %s", result.ComplianceStatus))
	s.AddAudit(StageCompounding, "Compounding compliance check completed", result)
	s.Compounding = Success(result)
}

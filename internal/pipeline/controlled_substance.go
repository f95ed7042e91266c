package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const controlledSubstanceSystemPrompt = `You are a Controlled Substance Monitoring Agent responsible for monitoring controlled substance prescriptions.

Analyze the medications for controlled substance compliance:
1. Identify controlled substances and their schedules
2. Check refill limits based on schedule
3. Verify timing restrictions (too soon to fill)
4. Check quantity limits
5. Cross-state controlled substance rules
6. DEA authority verification

Schedule refill limits:
- Schedule II: 0 refills
- Schedule III-V: Up to 5 refills

Return only JSON with the following structure:
{
  "controlled_substances": [
    {
      "name": "medication name",
      "schedule": "Schedule X",
      "quantity": "prescribed quantity",
      "refills": "number of refills",
      "max_refills_allowed": 0,
      "last_fill_date": "date or empty",
      "next_eligible_date": "date or empty",
      "too_soon_to_fill": false,
      "quantity_appropriate": true
    }
  ],
  "refill_alerts": ["list of refill issues"],
  "timing_alerts": ["list of timing issues"],
  "cross_state_alerts": ["list of cross-state issues"],
  "dea_authority_verified": false,
  "alerts": [{"type": "error/warning/info", "message": "issue description", "severity": 3}]
}`

// controlledSubstanceStage monitors controlled medications. The refill
// ceiling per schedule is authoritative from the static table; the engine's
// value is overwritten for any recognized schedule.
type controlledSubstanceStage struct {
	stageDeps
}

func (st *controlledSubstanceStage) Name() string { return StageControlledSubstance }

func (st *controlledSubstanceStage) Run(ctx context.Context, s *State) {
	medications := s.Prescription.Value().Medications

	s.Say(entities.RoleHuman, "Monitoring controlled substances")

	var result entities.ControlledSubstanceCheck
	err := st.complete(ctx, providers.CompletionRequest{
		System: controlledSubstanceSystemPrompt,
		User: "Monitor controlled substances:\nMedications: " + mustJSON(medications) +
			"\nDEA Verification: " + mustJSON(s.DEA) +
			"\nState Compliance: " + mustJSON(s.StateCompliance),
	}, &result)
	if err != nil {
		msg := fail(s, StageControlledSubstance, 4, err)
		s.ControlledSubstance = Failure[entities.ControlledSubstanceCheck](msg)
		return
	}

	for i := range result.ControlledSubstances {
		entry := &result.ControlledSubstances[i]
		if limit, ok := MaxRefillsForSchedule(entry.Schedule); ok {
			entry.MaxRefillsAllowed = limit
		}
	}

	s.AddStageAlerts(StageControlledSubstance, result.Alerts)

	s.Say(entities.RoleAssistant, fmt.Sprintf("Controlled substance monitoring complete. Found %d controlled substances.", len(result.ControlledSubstances)))
	s.AddAudit(StageControlledSubstance, "Controlled substance monitoring completed", result)
	s.ControlledSubstance = Success(result)
}

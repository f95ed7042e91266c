package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const budSystemPrompt = `You are a BUD (Beyond Use Date) Validation Agent responsible for checking medication expiration and inventory management.

Analyze the medications for:
1. Beyond Use Date calculations
2. Inventory expiration matching
3. Prescription duration vs. stock expiry
4. Stability concerns
5. Storage requirements

Consider:
- Compounded medications have shorter BUD
- Some medications require specific storage
- Duration of therapy vs. medication stability

Return only JSON with the following structure:
{
  "bud_alerts": [{"medication": "name", "alert_type": "expiry_soon/insufficient_stock/stability_concern", "inventory_expiry": "date", "prescription_duration": "days", "days_until_expiry": 0, "recommendation": "action needed"}],
  "inventory_mismatches": [{"medication": "name", "required_quantity": "amount needed", "available_quantity": "amount in stock", "shortage": "amount short"}],
  "expiration_warnings": [{"medication": "name", "expiry_date": "date", "warning_type": "near_expiry/expired", "action_required": "what to do"}],
  "alerts": [{"type": "error/warning/info", "message": "BUD issue description", "severity": 3}]
}`

// budStage validates beyond-use dates against therapy duration.
type budStage struct {
	stageDeps
}

func (st *budStage) Name() string { return StageBUD }

func (st *budStage) Run(ctx context.Context, s *State) {
	medications := s.Prescription.Value().Medications

	s.Say(entities.RoleHuman, "Validating Beyond Use Dates")

	var result entities.BUDValidation
	err := st.complete(ctx, providers.CompletionRequest{
		System: budSystemPrompt,
		User:   "Validate BUD for medications: " + mustJSON(medications),
	}, &result)
	if err != nil {
		msg := fail(s, StageBUD, 4, err)
		s.BUD = Failure[entities.BUDValidation](msg)
		return
	}

	// the engine often omits the duration; backfill it from the prescribed
	// therapy so the dashboard always has a day count to compare against
	for i := range result.BUDAlerts {
		if result.BUDAlerts[i].PrescriptionDuration == "" {
			days := ParseDurationDays(therapyDuration(medications, result.BUDAlerts[i].Medication))
			result.BUDAlerts[i].PrescriptionDuration = strconv.Itoa(days)
		}
	}

	s.AddStageAlerts(StageBUD, result.Alerts)

	s.Say(entities.RoleAssistant, fmt.Sprintf("BUD validation complete. Found %d BUD alerts.", len(result.BUDAlerts)))
	s.AddAudit(StageBUD, "BUD validation completed", result)
	s.BUD = Success(result)
}

func therapyDuration(medications []entities.Medication, name string) string {
	for _, m := range medications {
		if strings.EqualFold(m.Name, name) {
			return m.Duration
		}
	}
	return ""
}

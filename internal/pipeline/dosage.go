package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const dosageSystemPrompt = `You are a Dosage Monitoring Agent responsible for analyzing medication dosages for safety and appropriateness.

Analyze the medications for:
1. Dosage appropriateness (within normal ranges)
2. High dose alerts
3. Drug interactions
4. Therapeutic duplications (same drug class)
5. Age-appropriate dosing
6. Contraindications

Consider patient factors:
- Age (pediatric, geriatric dosing)
- Potential drug interactions
- Duplicate therapy

Return only JSON with the following structure:
{
  "dosage_alerts": [{"medication": "name", "alert_type": "high_dose/low_dose/inappropriate", "current_dose": "prescribed dose", "recommended_range": "normal range", "reason": "explanation"}],
  "high_dose_medications": [{"medication": "name", "prescribed_dose": "dose", "max_recommended": "max dose", "daily_total": "total daily dose", "risk_level": "low/medium/high"}],
  "interaction_warnings": [{"medications": ["med1", "med2"], "interaction_type": "major/moderate/minor", "description": "interaction description", "management": "how to manage"}],
  "therapeutic_duplications": [{"drug_class": "class name", "medications": ["list of duplicate meds"], "recommendation": "suggested action"}],
  "alerts": [{"type": "error/warning/info", "message": "dosage issue description", "severity": 3}]
}`

// dosageStage screens doses, interactions and duplicate therapy.
type dosageStage struct {
	stageDeps
}

func (st *dosageStage) Name() string { return StageDosage }

func (st *dosageStage) Run(ctx context.Context, s *State) {
	prescription := s.Prescription.Value()

	s.Say(entities.RoleHuman, "Analyzing medication dosages")

	var result entities.DosageMonitoring
	err := st.complete(ctx, providers.CompletionRequest{
		System: dosageSystemPrompt,
		User: "Analyze dosages for:\nMedications: " + mustJSON(prescription.Medications) +
			"\nPatient Info: " + mustJSON(prescription.PatientInfo),
	}, &result)
	if err != nil {
		msg := fail(s, StageDosage, 4, err)
		s.Dosage = Failure[entities.DosageMonitoring](msg)
		return
	}

	s.AddStageAlerts(StageDosage, result.Alerts)

	s.Say(entities.RoleAssistant, fmt.Sprintf("Dosage monitoring complete. Found %d dosage alerts.", len(result.DosageAlerts)))
	s.AddAudit(StageDosage, "Dosage monitoring completed", result)
	s.Dosage = Success(result)
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

// Stage is one pipeline step. Run reads its declared inputs from the state,
// makes at most one reasoning call, writes its designated output field and
// appends to the alert and audit ledgers. Run never fails the run: every
// failure is converted into state mutations, so downstream stages always
// execute.
type Stage interface {
	Name() string
	Run(ctx context.Context, s *State)
}

// stageDeps is the shared wiring every concrete stage carries.
type stageDeps struct {
	engine  providers.ReasoningProvider
	timeout time.Duration
}

// complete performs one bounded reasoning call and decodes the reply into
// out. A timeout surfaces as a transport failure.
func (d stageDeps) complete(ctx context.Context, req providers.CompletionRequest, out any) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	raw, err := d.engine.Complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", providers.ErrReasoningMalformed, err)
	}
	return nil
}

// fail records a stage failure: exactly one error alert requiring human
// review, one audit entry, and an {"error"} payload the caller stores into
// the stage's output field.
func fail(s *State, stage string, severity int, err error) string {
	msg := fmt.Sprintf("%s failed: %v", stageTitle(stage), err)
	s.AddAlert(entities.AlertError, stage, msg, severity, true)
	s.AddAudit(stage, stageTitle(stage)+" failed", map[string]string{"error": msg})
	return msg
}

var stageTitles = map[string]string{
	StageExtraction:          "Prescription extraction",
	StageLicense:             "License verification",
	StageDEA:                 "DEA verification",
	StageStateCompliance:     "State compliance check",
	StageControlledSubstance: "Controlled substance monitoring",
	StageDosage:              "Dosage monitoring",
	StageBUD:                 "BUD validation",
	StageCompounding:         "Compounding compliance check",
	StageClinicalDocs:        "Clinical documentation review",
	StageCaseSummary:         "Case summary generation",
	StageFinalReview:         "Final review",
}

func stageTitle(name string) string {
	if t, ok := stageTitles[name]; ok {
		return t
	}
	return name
}

// mustJSON renders v for prompt interpolation; stages feed upstream outputs
// to the engine as pretty-printed JSON.
func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Stage names double as alert categories and audit identifiers.
const (
	StageExtraction          = "OCR_NLP"
	StageLicense             = "LICENSE_VERIFICATION"
	StageDEA                 = "DEA_VERIFICATION"
	StageStateCompliance     = "STATE_COMPLIANCE"
	StageControlledSubstance = "CONTROLLED_SUBSTANCE"
	StageDosage              = "DOSAGE_MONITORING"
	StageBUD                 = "BUD_VALIDATION"
	StageCompounding         = "COMPOUNDING_COMPLIANCE"
	StageClinicalDocs        = "CLINICAL_DOCUMENTATION"
	StageCaseSummary         = "CASE_SUMMARY"
	StageFinalReview         = "FINAL_REVIEW"

	// CategorySystem marks pre-pipeline setup failures.
	CategorySystem = "SYSTEM_ERROR"
)

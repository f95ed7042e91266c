package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

// scriptedEngine routes each stage call by a marker substring of its system
// prompt and records every request it receives.
type scriptedEngine struct {
	mu       sync.Mutex
	requests []providers.CompletionRequest
	replies  map[string]string
	failures map[string]error
}

func (e *scriptedEngine) Complete(_ context.Context, req providers.CompletionRequest) (json.RawMessage, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	for marker, err := range e.failures {
		if strings.Contains(req.System, marker) {
			return nil, err
		}
	}
	for marker, reply := range e.replies {
		if strings.Contains(req.System, marker) {
			return json.RawMessage(reply), nil
		}
	}
	return json.RawMessage(`{}`), nil
}

func (e *scriptedEngine) requestFor(marker string) (providers.CompletionRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, req := range e.requests {
		if strings.Contains(req.System, marker) {
			return req, true
		}
	}
	return providers.CompletionRequest{}, false
}

const (
	markerExtraction  = "extracts structured data from prescriptions"
	markerLicense     = "License Verification Agent"
	markerDEA         = "DEA Verification Agent"
	markerControlled  = "Controlled Substance Monitoring Agent"
	markerBUD         = "BUD (Beyond Use Date) Validation Agent"
	markerCompounding = "Compounding Compliance Agent"
	markerFinalReview = "Final Review Agent"
)

func approvedFinalReview() string {
	return `{
		"approval_status": "approved",
		"confidence_score": 0.9,
		"critical_issues": [],
		"recommended_actions": [],
		"summary": "no issues found"
	}`
}

func run(t *testing.T, engine *scriptedEngine, images [][]byte) *State {
	t.Helper()
	orch := NewOrchestrator(engine, Config{})
	return orch.Run(context.Background(), images, "image")
}

func TestRun_EveryStageLeavesAnAuditEntry(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerFinalReview: approvedFinalReview(),
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	orch := NewOrchestrator(engine, Config{})
	require.Len(t, orch.Stages(), 11)
	assert.Len(t, state.AuditTrail, 11)

	// one audit entry per stage, in pipeline order
	for i, name := range orch.Stages() {
		assert.Equal(t, name, state.AuditTrail[i].Stage)
	}

	assert.Equal(t, entities.StatusApproved, state.ApprovalStatus)
	assert.InDelta(t, 0.9, state.ConfidenceScore, 1e-9)
	assert.Empty(t, state.Alerts)
}

func TestRun_NoImages_AbortsBeforeAnyStage(t *testing.T) {
	engine := &scriptedEngine{}

	state := run(t, engine, nil)

	assert.Empty(t, engine.requests, "no stage should have called the engine")
	assert.Empty(t, state.AuditTrail)
	assert.Equal(t, entities.StatusError, state.ApprovalStatus)
	assert.Equal(t, 0.0, state.ConfidenceScore)

	require.Len(t, state.Alerts, 1)
	alert := state.Alerts[0]
	assert.Equal(t, entities.AlertError, alert.Kind)
	assert.Equal(t, CategorySystem, alert.Category)
	assert.Equal(t, 5, alert.Severity)
	assert.True(t, alert.RequiresHumanReview)
}

func TestRun_StageFailureDoesNotStopTheRun(t *testing.T) {
	engine := &scriptedEngine{
		replies: map[string]string{
			markerFinalReview: approvedFinalReview(),
		},
		failures: map[string]error{
			markerLicense: providers.ErrReasoningTransport,
		},
	}

	state := run(t, engine, [][]byte{[]byte("page")})

	// the failed stage is recorded as a failure outcome
	assert.True(t, state.License.Failed())
	assert.Contains(t, state.License.Err(), "License verification failed")

	// every other stage still ran and succeeded
	assert.False(t, state.Prescription.Failed())
	assert.False(t, state.DEA.Failed())
	assert.False(t, state.FinalReview.Failed())
	assert.Len(t, state.AuditTrail, 11)

	// exactly one error alert, raised by the failed stage
	require.Equal(t, 1, state.ErrorAlertCount())
	var failureAlert *entities.Alert
	for i := range state.Alerts {
		if state.Alerts[i].Kind == entities.AlertError {
			failureAlert = &state.Alerts[i]
		}
	}
	require.NotNil(t, failureAlert)
	assert.Equal(t, StageLicense, failureAlert.Category)
	assert.Equal(t, 4, failureAlert.Severity)
	assert.True(t, failureAlert.RequiresHumanReview)

	// the decision still came from the final review
	assert.Equal(t, entities.StatusApproved, state.ApprovalStatus)
}

func TestRun_FailedStageSerializesAsErrorObject(t *testing.T) {
	engine := &scriptedEngine{
		replies: map[string]string{
			markerFinalReview: approvedFinalReview(),
		},
		failures: map[string]error{
			markerDEA: providers.ErrReasoningMalformed,
		},
	}

	state := run(t, engine, [][]byte{[]byte("page")})

	raw, err := json.Marshal(state.Result())
	require.NoError(t, err)

	var result map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &result))

	var deaOut map[string]string
	require.NoError(t, json.Unmarshal(result["dea_verification"], &deaOut))
	assert.Contains(t, deaOut, "error")
	assert.Contains(t, deaOut["error"], "DEA verification failed")
}

func TestRun_FinalReviewFailure_ErrorStatusZeroConfidence(t *testing.T) {
	engine := &scriptedEngine{failures: map[string]error{
		markerFinalReview: providers.ErrReasoningTransport,
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	assert.True(t, state.FinalReview.Failed())
	assert.Equal(t, entities.StatusError, state.ApprovalStatus)
	assert.Equal(t, 0.0, state.ConfidenceScore)
	assert.Len(t, state.AuditTrail, 11)

	var failureAlert *entities.Alert
	for i := range state.Alerts {
		if state.Alerts[i].Category == StageFinalReview {
			failureAlert = &state.Alerts[i]
		}
	}
	require.NotNil(t, failureAlert)
	assert.Equal(t, 5, failureAlert.Severity)
}

func TestRun_ConfidenceClampedToUnitInterval(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerFinalReview: `{"approval_status": "approved", "confidence_score": 1.7, "summary": "x"}`,
	}}

	state := run(t, engine, [][]byte{[]byte("page")})
	assert.Equal(t, 1.0, state.ConfidenceScore)

	engine = &scriptedEngine{replies: map[string]string{
		markerFinalReview: `{"approval_status": "rejected", "confidence_score": -0.2, "summary": "x"}`,
	}}

	state = run(t, engine, [][]byte{[]byte("page")})
	assert.Equal(t, 0.0, state.ConfidenceScore)
	assert.Equal(t, entities.StatusRejected, state.ApprovalStatus)
}

func TestRun_UnknownApprovalStatus_BecomesRequiresReview(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerFinalReview: `{"approval_status": "maybe", "confidence_score": 0.5, "summary": "x"}`,
	}}

	state := run(t, engine, [][]byte{[]byte("page")})
	assert.Equal(t, entities.StatusRequiresReview, state.ApprovalStatus)
}

func TestRun_AllPagesTravelInOneExtractionRequest(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerFinalReview: approvedFinalReview(),
	}}

	pages := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	run(t, engine, pages)

	req, ok := engine.requestFor(markerExtraction)
	require.True(t, ok, "extraction stage never called the engine")
	assert.Equal(t, pages, req.Images)

	// no other stage re-sends the images
	for _, other := range []string{markerLicense, markerDEA, markerControlled, markerFinalReview} {
		req, ok := engine.requestFor(other)
		require.True(t, ok)
		assert.Empty(t, req.Images)
	}
}

func TestRun_RefillCeilingOverridesEngineValue(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerControlled: `{
			"controlled_substances": [
				{"name": "Oxycodone", "schedule": "Schedule II", "max_refills_allowed": 3},
				{"name": "Alprazolam", "schedule": "schedule iv", "max_refills_allowed": 99},
				{"name": "Mystery", "schedule": "Schedule X", "max_refills_allowed": 7}
			]
		}`,
		markerFinalReview: approvedFinalReview(),
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	require.False(t, state.ControlledSubstance.Failed())
	entries := state.ControlledSubstance.Value().ControlledSubstances
	require.Len(t, entries, 3)
	assert.Equal(t, 0, entries[0].MaxRefillsAllowed, "Schedule II never refills")
	assert.Equal(t, 5, entries[1].MaxRefillsAllowed, "Schedule IV capped at five")
	assert.Equal(t, 7, entries[2].MaxRefillsAllowed, "unrecognized schedule left alone")
}

func TestRun_DEAFormatCrossCheckDowngradesEngineJudgement(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerDEA: `{
			"dea_numbers": [
				{"dea_number": "AB1234567", "dea_format_valid": true},
				{"dea_number": "BOGUS", "dea_format_valid": true}
			]
		}`,
		markerFinalReview: approvedFinalReview(),
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	require.False(t, state.DEA.Failed())
	regs := state.DEA.Value().DEANumbers
	require.Len(t, regs, 2)
	assert.True(t, regs[0].FormatValid)
	assert.False(t, regs[1].FormatValid)

	found := false
	for _, alert := range state.Alerts {
		if alert.Category == StageDEA && strings.Contains(alert.Message, "BOGUS") {
			found = true
			assert.Equal(t, entities.AlertWarning, alert.Kind)
		}
	}
	assert.True(t, found, "expected a format warning alert")
}

func TestRun_EmbeddedStageAlertsRequireHumanReview(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerLicense: `{
			"licenses": [],
			"alerts": [
				{"type": "warning", "message": "license expires soon", "severity": 2},
				{"type": "nonsense", "message": "unclassifiable finding", "severity": 3}
			]
		}`,
		markerFinalReview: approvedFinalReview(),
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	var mirrored []entities.Alert
	for _, alert := range state.Alerts {
		if alert.Category == StageLicense {
			mirrored = append(mirrored, alert)
		}
	}
	require.Len(t, mirrored, 2)
	for _, alert := range mirrored {
		assert.True(t, alert.RequiresHumanReview)
	}
	// invalid alert kinds are coerced to warnings
	assert.Equal(t, entities.AlertWarning, mirrored[1].Kind)
}

func TestRun_ConversationLogsBothSides(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerFinalReview: approvedFinalReview(),
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	// every stage says one human and one assistant line
	require.Len(t, state.Conversation, 22)
	for i, msg := range state.Conversation {
		if i%2 == 0 {
			assert.Equal(t, entities.RoleHuman, msg.Role)
		} else {
			assert.Equal(t, entities.RoleAssistant, msg.Role)
		}
	}
}

func alertCountsByCategory(state *State) map[string]int {
	counts := make(map[string]int)
	for _, a := range state.Alerts {
		counts[a.Category]++
	}
	return counts
}

func TestRun_SameScriptedRepliesGiveIdenticalOutcomes(t *testing.T) {
	engine := &scriptedEngine{
		replies: map[string]string{
			markerExtraction: `{"medications": [{"name": "Lisinopril", "duration": "30 days"}]}`,
			markerLicense: `{
				"licenses": [],
				"alerts": [{"type": "warning", "message": "license expires soon", "severity": 2}]
			}`,
			markerFinalReview: approvedFinalReview(),
		},
		failures: map[string]error{
			markerDEA: providers.ErrReasoningTransport,
		},
	}

	first := run(t, engine, [][]byte{[]byte("page")})
	second := run(t, engine, [][]byte{[]byte("page")})

	assert.Equal(t, first.ApprovalStatus, second.ApprovalStatus)
	assert.Equal(t, first.ConfidenceScore, second.ConfidenceScore)
	assert.Equal(t, alertCountsByCategory(first), alertCountsByCategory(second))
	assert.Equal(t, len(first.Alerts), len(second.Alerts))

	// the second run left the first run's ledgers untouched
	assert.Len(t, first.AuditTrail, 11)
	assert.Len(t, second.AuditTrail, 11)
}

func TestRun_BUDAlertDurationBackfilledFromTherapy(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerExtraction: `{"medications": [{"name": "Tretinoin Suspension", "duration": "2 weeks"}]}`,
		markerBUD: `{"bud_alerts": [
			{"medication": "Tretinoin Suspension", "alert_type": "expiry_soon"},
			{"medication": "Unlisted Med", "alert_type": "stability_concern"},
			{"medication": "Tretinoin Suspension", "alert_type": "insufficient_stock", "prescription_duration": "45"}
		]}`,
		markerFinalReview: approvedFinalReview(),
	}}

	state := run(t, engine, [][]byte{[]byte("page")})

	require.False(t, state.BUD.Failed())
	alerts := state.BUD.Value().BUDAlerts
	require.Len(t, alerts, 3)
	assert.Equal(t, "14", alerts[0].PrescriptionDuration)
	assert.Equal(t, "30", alerts[1].PrescriptionDuration, "unmatched medication falls back to the default")
	assert.Equal(t, "45", alerts[2].PrescriptionDuration, "engine-provided duration is kept")
}

func TestRun_CompoundingRequestCarriesPreflaggedCandidates(t *testing.T) {
	engine := &scriptedEngine{replies: map[string]string{
		markerExtraction: `{"medications": [
			{"name": "Tretinoin Gel 0.05%", "duration": "30 days"},
			{"name": "Amoxicillin 500mg", "instructions": "Take one capsule daily"}
		]}`,
		markerFinalReview: approvedFinalReview(),
	}}

	run(t, engine, [][]byte{[]byte("page")})

	req, ok := engine.requestFor(markerCompounding)
	require.True(t, ok, "compounding stage never called the engine")

	_, after, found := strings.Cut(req.User, "Likely compounded (pre-flagged):")
	require.True(t, found)
	flagged, _, _ := strings.Cut(after, "\nPatient:")
	assert.Contains(t, flagged, "Tretinoin Gel 0.05%")
	assert.NotContains(t, flagged, "Amoxicillin")
}

func TestRun_ResultRoundTripsThroughJSON(t *testing.T) {
	engine := &scriptedEngine{
		replies: map[string]string{
			markerFinalReview: approvedFinalReview(),
		},
		failures: map[string]error{
			markerLicense: errors.New("backend unavailable"),
		},
	}

	state := run(t, engine, [][]byte{[]byte("page")})

	raw, err := json.Marshal(state.Result())
	require.NoError(t, err)

	var restored Result
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.True(t, restored.License.Failed())
	assert.Equal(t, state.License.Err(), restored.License.Err())
	assert.False(t, restored.FinalReview.Failed())
	assert.Equal(t, state.ApprovalStatus, restored.ApprovalStatus)
	assert.Len(t, restored.AuditTrail, 11)
}

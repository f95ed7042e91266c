package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
)

// RunStatus tracks one run through the fixed stage order.
type RunStatus string

const (
	RunNotStarted RunStatus = "not_started"
	RunRunning    RunStatus = "running"
	RunCompleted  RunStatus = "completed"
	RunAborted    RunStatus = "aborted"
)

// Config holds pipeline tuning.
type Config struct {
	// StageTimeout bounds each reasoning call. Zero disables the bound.
	StageTimeout time.Duration
}

// Orchestrator executes the eleven verification stages in fixed order.
// Stage failures never stop the run; only a setup failure (no input images)
// aborts before the first stage. The orchestrator itself is stateless and
// safe for concurrent runs, each of which owns its State and ledgers.
type Orchestrator struct {
	stages []Stage
}

// NewOrchestrator wires the full stage chain against one reasoning engine.
func NewOrchestrator(engine providers.ReasoningProvider, cfg Config) *Orchestrator {
	deps := stageDeps{engine: engine, timeout: cfg.StageTimeout}
	return &Orchestrator{
		stages: []Stage{
			&extractionStage{deps},
			&licenseStage{deps},
			&deaStage{deps},
			&stateComplianceStage{deps},
			&controlledSubstanceStage{deps},
			&dosageStage{deps},
			&budStage{deps},
			&compoundingStage{deps},
			&clinicalDocsStage{deps},
			&caseSummaryStage{deps},
			&finalReviewStage{deps},
		},
	}
}

// Stages returns the ordered stage names.
func (o *Orchestrator) Stages() []string {
	names := make([]string, len(o.stages))
	for i, st := range o.stages {
		names[i] = st.Name()
	}
	return names
}

// Run processes one document through every stage and always returns a final
// state containing at minimum approval status, confidence score, alerts and
// the audit trail.
func (o *Orchestrator) Run(ctx context.Context, images [][]byte, documentKind string) *State {
	logger := observability.LoggerFromContext(ctx)

	if len(images) == 0 {
		logger.Error().Str("document_kind", documentKind).Msg("no input images, aborting run before any stage")
		return abortedState(documentKind)
	}

	state := NewState(images, documentKind)
	start := time.Now()

	for i, stage := range o.stages {
		stageStart := time.Now()
		logger.Info().
			Str("stage", stage.Name()).
			Int("position", i+1).
			Msg("running verification stage")

		stage.Run(ctx, state)

		logger.Info().
			Str("stage", stage.Name()).
			Dur("duration", time.Since(stageStart)).
			Int("alerts", len(state.Alerts)).
			Msg("stage finished")
	}

	logStatus(logger, RunCompleted, state, time.Since(start))
	return state
}

func logStatus(logger *zerolog.Logger, status RunStatus, state *State, elapsed time.Duration) {
	logger.Info().
		Str("status", string(status)).
		Str("approval_status", string(state.ApprovalStatus)).
		Float64("confidence_score", state.ConfidenceScore).
		Int("alerts", len(state.Alerts)).
		Int("audit_entries", len(state.AuditTrail)).
		Dur("duration", elapsed).
		Msg("verification run finished")
}

// abortedState builds the synthetic result of a setup failure: no stage ran,
// nothing can be trusted.
func abortedState(documentKind string) *State {
	state := NewState(nil, documentKind)
	state.ApprovalStatus = entities.StatusError
	state.ConfidenceScore = 0.0
	state.AddAlert(entities.AlertError, CategorySystem,
		"processing failed: document produced no usable images", 5, true)
	return state
}

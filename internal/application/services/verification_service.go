package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/internal/domain/repositories"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
	"github.com/abdliliaai/Rxsentinel/internal/pipeline"
	apperrors "github.com/abdliliaai/Rxsentinel/pkg/errors"
	"github.com/abdliliaai/Rxsentinel/pkg/retry"
)

// VerificationService runs a document through the pipeline and fans the
// result out to the record store, the case index and the event bus. Only the
// rasterization step and the pipeline itself can fail a verification; the
// fan-out writes are best effort so a storage outage never loses a decision
// that the caller already received.
type VerificationService struct {
	orchestrator *pipeline.Orchestrator
	rasterizer   providers.DocumentRasterizer
	records      repositories.PrescriptionRepository
	caseIndex    repositories.CaseSearchRepository
	events       providers.EventBus
}

// NewVerificationService creates a new verification service. The record
// store, case index and event bus are each optional.
func NewVerificationService(
	orchestrator *pipeline.Orchestrator,
	rasterizer providers.DocumentRasterizer,
	records repositories.PrescriptionRepository,
	caseIndex repositories.CaseSearchRepository,
	events providers.EventBus,
) *VerificationService {
	return &VerificationService{
		orchestrator: orchestrator,
		rasterizer:   rasterizer,
		records:      records,
		caseIndex:    caseIndex,
		events:       events,
	}
}

// Verify processes one uploaded document end to end and returns the stored
// record. The record is returned even when the fan-out writes fail.
func (s *VerificationService) Verify(ctx context.Context, filename string, content []byte) (*entities.PrescriptionRecord, error) {
	logger := observability.LoggerFromContext(ctx)

	images, err := s.rasterizer.Rasterize(ctx, filename, content)
	if err != nil {
		if errors.Is(err, providers.ErrNoImages) {
			return nil, apperrors.NewSetupError("document produced no usable images", err)
		}
		return nil, err
	}

	documentKind := "image"
	if len(images) > 1 {
		documentKind = "pdf"
	}

	state := s.orchestrator.Run(ctx, images, documentKind)

	result, err := json.Marshal(state.Result())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to serialize verification result", err)
	}

	record := &entities.PrescriptionRecord{
		ID:              uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		Filename:        filename,
		SourceDocument:  content,
		PreviewImage:    base64.StdEncoding.EncodeToString(images[0]),
		Result:          result,
		ApprovalStatus:  state.ApprovalStatus,
		ConfidenceScore: state.ConfidenceScore,
	}

	s.persist(ctx, record, state, logger)

	return record, nil
}

// GetRecord retrieves one stored verification run
func (s *VerificationService) GetRecord(ctx context.Context, id string) (*entities.PrescriptionRecord, error) {
	if s.records == nil {
		return nil, apperrors.NewNotFoundError("record store not configured")
	}
	return s.records.GetByID(ctx, id)
}

// ListRecords returns record summaries for the history view
func (s *VerificationService) ListRecords(ctx context.Context, limit, offset int) ([]entities.RecordSummary, error) {
	if s.records == nil {
		return []entities.RecordSummary{}, nil
	}
	return s.records.List(ctx, limit, offset)
}

// SearchCases queries the case index
func (s *VerificationService) SearchCases(ctx context.Context, query string, limit int) ([]entities.CaseDocument, error) {
	if s.caseIndex == nil {
		return []entities.CaseDocument{}, nil
	}
	return s.caseIndex.Search(ctx, query, limit)
}

// persist fans the completed run out to the record store, the case index and
// the event bus. Each write retries briefly and then gives up with a log line.
func (s *VerificationService) persist(ctx context.Context, record *entities.PrescriptionRecord, state *pipeline.State, logger *zerolog.Logger) {
	cfg := retry.BestEffortConfig()

	if s.records != nil {
		if err := retry.Do(ctx, cfg, func() error {
			return s.records.Save(ctx, record)
		}); err != nil {
			logger.Warn().Err(err).Str("record_id", record.ID).Msg("failed to save verification record")
		}
	}

	if s.caseIndex != nil {
		doc := buildCaseDocument(record, state)
		if err := retry.Do(ctx, cfg, func() error {
			return s.caseIndex.Index(ctx, doc)
		}); err != nil {
			logger.Warn().Err(err).Str("record_id", record.ID).Msg("failed to index verification case")
		}
	}

	if s.events != nil {
		event := &entities.ProcessedEvent{
			ID:              record.ID,
			Filename:        record.Filename,
			ApprovalStatus:  record.ApprovalStatus,
			ConfidenceScore: record.ConfidenceScore,
			AlertCount:      len(state.Alerts),
			Timestamp:       record.CreatedAt,
		}
		if err := retry.Do(ctx, cfg, func() error {
			return s.events.Publish(ctx, providers.ChannelPrescriptionProcessed, event)
		}); err != nil {
			logger.Warn().Err(err).Str("record_id", record.ID).Msg("failed to publish processed event")
		}
	}
}

// buildCaseDocument projects a completed run into its search document. Names
// come from the extraction output when it succeeded.
func buildCaseDocument(record *entities.PrescriptionRecord, state *pipeline.State) *entities.CaseDocument {
	doc := &entities.CaseDocument{
		ID:              record.ID,
		Filename:        record.Filename,
		ApprovalStatus:  string(record.ApprovalStatus),
		ConfidenceScore: record.ConfidenceScore,
		AlertCount:      len(state.Alerts),
		CreatedAt:       record.CreatedAt.Unix(),
	}
	if !state.Prescription.Failed() {
		prescription := state.Prescription.Value()
		doc.PatientName = prescription.PatientInfo.Name
		doc.DoctorName = prescription.DoctorInfo.Name
	}
	return doc
}

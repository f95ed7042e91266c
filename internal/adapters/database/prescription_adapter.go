package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/repositories"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/postgres"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
	apperrors "github.com/abdliliaai/Rxsentinel/pkg/errors"
)

const prescriptionsTable = "prescriptions"

// PrescriptionAdapter implements PrescriptionRepository on PostgreSQL.
type PrescriptionAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewPrescriptionAdapter creates a new prescription record adapter
func NewPrescriptionAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.PrescriptionRepository {
	return &PrescriptionAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Save persists one completed verification run
func (a *PrescriptionAdapter) Save(ctx context.Context, record *entities.PrescriptionRecord) error {
	row := goqu.Record{
		"id":               record.ID,
		"created_at":       record.CreatedAt,
		"filename":         record.Filename,
		"source_document":  record.SourceDocument,
		"preview_image":    sql.NullString{String: record.PreviewImage, Valid: record.PreviewImage != ""},
		"result":           []byte(record.Result),
		"approval_status":  string(record.ApprovalStatus),
		"confidence_score": record.ConfidenceScore,
	}

	query, args, err := a.db.Insert(prescriptionsTable).Rows(row).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	start := time.Now()
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	a.recordMetric(ctx, "insert", start)
	if err != nil {
		return apperrors.NewInternalError("failed to save prescription record", err)
	}

	return nil
}

// GetByID retrieves one record, including the stored result document
func (a *PrescriptionAdapter) GetByID(ctx context.Context, id string) (*entities.PrescriptionRecord, error) {
	query, args, err := a.db.Select(
		"id", "created_at", "filename", "source_document", "preview_image",
		"result", "approval_status", "confidence_score",
	).From(prescriptionsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record := &entities.PrescriptionRecord{}
	var preview sql.NullString
	var result []byte
	var status string

	start := time.Now()
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&record.ID,
		&record.CreatedAt,
		&record.Filename,
		&record.SourceDocument,
		&preview,
		&result,
		&status,
		&record.ConfidenceScore,
	)
	a.recordMetric(ctx, "select", start)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("prescription record not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get prescription record", err)
	}

	record.PreviewImage = preview.String
	record.Result = result
	record.ApprovalStatus = entities.ApprovalStatus(status)
	return record, nil
}

// List returns record summaries, newest first
func (a *PrescriptionAdapter) List(ctx context.Context, limit, offset int) ([]entities.RecordSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query, args, err := a.db.Select(
		"id", "created_at", "filename", "approval_status", "confidence_score",
	).From(prescriptionsTable).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	start := time.Now()
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	a.recordMetric(ctx, "select", start)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list prescription records", err)
	}
	defer rows.Close()

	summaries := []entities.RecordSummary{}
	for rows.Next() {
		var summary entities.RecordSummary
		var status string
		if err := rows.Scan(
			&summary.ID,
			&summary.CreatedAt,
			&summary.Filename,
			&status,
			&summary.ConfidenceScore,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan prescription record", err)
		}
		summary.ApprovalStatus = entities.ApprovalStatus(status)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read prescription records", err)
	}

	return summaries, nil
}

func (a *PrescriptionAdapter) recordMetric(ctx context.Context, operation string, start time.Time) {
	if a.metrics == nil {
		return
	}
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
}

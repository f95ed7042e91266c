package repositories

import (
	"context"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
)

// PrescriptionRepository persists one record per verification run. Records
// are written once after a run completes and never read back by the
// pipeline itself.
type PrescriptionRepository interface {
	Save(ctx context.Context, record *entities.PrescriptionRecord) error
	GetByID(ctx context.Context, id string) (*entities.PrescriptionRecord, error)
	List(ctx context.Context, limit, offset int) ([]entities.RecordSummary, error)
}

// CaseSearchRepository indexes completed runs for dashboard history search.
type CaseSearchRepository interface {
	InitSchema(ctx context.Context) error
	Index(ctx context.Context, doc *entities.CaseDocument) error
	Search(ctx context.Context, query string, limit int) ([]entities.CaseDocument, error)
}

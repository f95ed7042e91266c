package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/repositories"
	tsclient "github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/typesense"
)

const collectionName = "prescription_cases"

// CaseIndexAdapter implements case history search using Typesense
type CaseIndexAdapter struct {
	client *tsclient.Client
}

// Ensure CaseIndexAdapter implements CaseSearchRepository
var _ repositories.CaseSearchRepository = (*CaseIndexAdapter)(nil)

// NewCaseIndexAdapter creates a new Typesense case index adapter
func NewCaseIndexAdapter(client *tsclient.Client) *CaseIndexAdapter {
	return &CaseIndexAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *CaseIndexAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "filename", Type: "string"},
			{Name: "patient_name", Type: "string"},
			{Name: "doctor_name", Type: "string"},
			{Name: "approval_status", Type: "string", Facet: pointer.True()},
			{Name: "confidence_score", Type: "float"},
			{Name: "alert_count", Type: "int32"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes one completed verification case
func (a *CaseIndexAdapter) Index(ctx context.Context, doc *entities.CaseDocument) error {
	document := map[string]interface{}{
		"id":               doc.ID,
		"filename":         doc.Filename,
		"patient_name":     doc.PatientName,
		"doctor_name":      doc.DoctorName,
		"approval_status":  doc.ApprovalStatus,
		"confidence_score": doc.ConfidenceScore,
		"alert_count":      doc.AlertCount,
		"created_at":       doc.CreatedAt,
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index case: %w", err)
	}

	return nil
}

// Search queries case history by patient, prescriber or filename
func (a *CaseIndexAdapter) Search(ctx context.Context, query string, limit int) ([]entities.CaseDocument, error) {
	if query == "" {
		query = "*"
	}
	if limit <= 0 {
		limit = 25
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("patient_name,doctor_name,filename"),
		SortBy:  pointer.String("created_at:desc"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search cases: %w", err)
	}

	cases := []entities.CaseDocument{}
	if result.Hits == nil {
		return cases, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document

		caseDoc := entities.CaseDocument{}
		if val, ok := doc["id"].(string); ok {
			caseDoc.ID = val
		}
		if val, ok := doc["filename"].(string); ok {
			caseDoc.Filename = val
		}
		if val, ok := doc["patient_name"].(string); ok {
			caseDoc.PatientName = val
		}
		if val, ok := doc["doctor_name"].(string); ok {
			caseDoc.DoctorName = val
		}
		if val, ok := doc["approval_status"].(string); ok {
			caseDoc.ApprovalStatus = val
		}
		if val, ok := doc["confidence_score"].(float64); ok {
			caseDoc.ConfidenceScore = val
		}
		if val, ok := doc["alert_count"].(float64); ok {
			caseDoc.AlertCount = int(val)
		}
		if val, ok := doc["created_at"].(float64); ok {
			caseDoc.CreatedAt = int64(val)
		}

		cases = append(cases, caseDoc)
	}

	return cases, nil
}

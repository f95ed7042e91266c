package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	apperrors "github.com/abdliliaai/Rxsentinel/pkg/errors"
)

// maxUploadBytes bounds one uploaded prescription document (20 MiB).
const maxUploadBytes = 20 << 20

// VerificationService defines the verification operations used by the handler.
type VerificationService interface {
	Verify(ctx context.Context, filename string, content []byte) (*entities.PrescriptionRecord, error)
	GetRecord(ctx context.Context, id string) (*entities.PrescriptionRecord, error)
	ListRecords(ctx context.Context, limit, offset int) ([]entities.RecordSummary, error)
	SearchCases(ctx context.Context, query string, limit int) ([]entities.CaseDocument, error)
}

// VerificationHandler exposes the verification pipeline over HTTP.
type VerificationHandler struct {
	service VerificationService
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(service VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// VerifyPrescription handles POST /api/prescriptions. The document arrives as
// the "file" part of a multipart form.
func (h *VerificationHandler) VerifyPrescription(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	record, err := h.service.Verify(r.Context(), header.Filename, content)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

// GetRecord handles GET /api/prescriptions/{id}
func (h *VerificationHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "missing record id")
		return
	}

	record, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// GetSourceDocument handles GET /api/prescriptions/{id}/document and streams
// the original upload back for dashboard preview.
func (h *VerificationHandler) GetSourceDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "missing record id")
		return
	}

	record, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(record.SourceDocument)
}

// ListRecords handles GET /api/prescriptions
func (h *VerificationHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	summaries, err := h.service.ListRecords(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"records": summaries,
		"count":   len(summaries),
	})
}

// SearchCases handles GET /api/prescriptions/search
func (h *VerificationHandler) SearchCases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 25)

	cases, err := h.service.SearchCases(r.Context(), query, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cases": cases,
		"count": len(cases),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// respondWithAppError maps the error taxonomy to HTTP status codes.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeSetup:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeTransport, apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	default:
		respondWithError(w, http.StatusInternalServerError, appErr.Message)
	}
}

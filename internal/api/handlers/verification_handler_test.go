package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	apperrors "github.com/abdliliaai/Rxsentinel/pkg/errors"
)

type fakeService struct {
	record    *entities.PrescriptionRecord
	summaries []entities.RecordSummary
	cases     []entities.CaseDocument
	err       error

	gotFilename string
	gotContent  []byte
}

func (f *fakeService) Verify(_ context.Context, filename string, content []byte) (*entities.PrescriptionRecord, error) {
	f.gotFilename = filename
	f.gotContent = content
	return f.record, f.err
}

func (f *fakeService) GetRecord(context.Context, string) (*entities.PrescriptionRecord, error) {
	return f.record, f.err
}

func (f *fakeService) ListRecords(context.Context, int, int) ([]entities.RecordSummary, error) {
	return f.summaries, f.err
}

func (f *fakeService) SearchCases(context.Context, string, int) ([]entities.CaseDocument, error) {
	return f.cases, f.err
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestVerifyPrescription_Success(t *testing.T) {
	svc := &fakeService{record: &entities.PrescriptionRecord{
		ID:              "rec-1",
		CreatedAt:       time.Now().UTC(),
		Filename:        "rx.png",
		ApprovalStatus:  entities.StatusRequiresReview,
		ConfidenceScore: 0.7,
		Result:          json.RawMessage(`{}`),
	}}
	handler := NewVerificationHandler(svc)

	body, contentType := multipartUpload(t, "rx.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/prescriptions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.VerifyPrescription(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "rx.png", svc.gotFilename)
	assert.Equal(t, []byte("png-bytes"), svc.gotContent)

	var got entities.PrescriptionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, entities.StatusRequiresReview, got.ApprovalStatus)
}

func TestVerifyPrescription_MissingFile(t *testing.T) {
	handler := NewVerificationHandler(&fakeService{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/prescriptions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.VerifyPrescription(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPrescription_SetupError_BadRequest(t *testing.T) {
	svc := &fakeService{err: apperrors.NewSetupError("document produced no usable images", nil)}
	handler := NewVerificationHandler(svc)

	body, contentType := multipartUpload(t, "empty.pdf", []byte("%PDF-"))
	req := httptest.NewRequest(http.MethodPost, "/api/prescriptions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.VerifyPrescription(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no usable images")
}

func TestGetRecord_NotFound(t *testing.T) {
	svc := &fakeService{err: apperrors.NewNotFoundError("prescription record not found")}
	handler := NewVerificationHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/prescriptions/{id}", handler.GetRecord)

	req := httptest.NewRequest(http.MethodGet, "/api/prescriptions/missing", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRecords_ReturnsCount(t *testing.T) {
	svc := &fakeService{summaries: []entities.RecordSummary{
		{ID: "a", ApprovalStatus: entities.StatusApproved},
		{ID: "b", ApprovalStatus: entities.StatusRejected},
	}}
	handler := NewVerificationHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/prescriptions?limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ListRecords(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Records []entities.RecordSummary `json:"records"`
		Count   int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Len(t, payload.Records, 2)
}

func TestSearchCases(t *testing.T) {
	svc := &fakeService{cases: []entities.CaseDocument{{ID: "a", PatientName: "Alice Moore"}}}
	handler := NewVerificationHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/prescriptions/search?q=alice", nil)
	rec := httptest.NewRecorder()
	handler.SearchCases(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice Moore")
}

func TestQueryInt_Fallbacks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/prescriptions?limit=abc&offset=-3", nil)
	assert.Equal(t, 50, queryInt(req, "limit", 50))
	assert.Equal(t, 0, queryInt(req, "offset", 0))
	assert.Equal(t, 25, queryInt(req, "missing", 25))
}

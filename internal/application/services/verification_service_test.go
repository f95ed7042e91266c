package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/internal/pipeline"
)

type stubEngine struct {
	replies map[string]string
}

func (e *stubEngine) Complete(_ context.Context, req providers.CompletionRequest) (json.RawMessage, error) {
	for marker, reply := range e.replies {
		if contains(req.System, marker) {
			return json.RawMessage(reply), nil
		}
	}
	return json.RawMessage(`{}`), nil
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

type stubRasterizer struct {
	images [][]byte
	err    error
}

func (r *stubRasterizer) Rasterize(context.Context, string, []byte) ([][]byte, error) {
	return r.images, r.err
}

type memoryRecords struct {
	mu    sync.Mutex
	saved []*entities.PrescriptionRecord
	err   error
}

func (m *memoryRecords) Save(_ context.Context, record *entities.PrescriptionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, record)
	return nil
}

func (m *memoryRecords) GetByID(_ context.Context, id string) (*entities.PrescriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryRecords) List(context.Context, int, int) ([]entities.RecordSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.RecordSummary, 0, len(m.saved))
	for _, r := range m.saved {
		out = append(out, entities.RecordSummary{
			ID:              r.ID,
			CreatedAt:       r.CreatedAt,
			Filename:        r.Filename,
			ApprovalStatus:  r.ApprovalStatus,
			ConfidenceScore: r.ConfidenceScore,
		})
	}
	return out, nil
}

type memoryIndex struct {
	mu   sync.Mutex
	docs []*entities.CaseDocument
}

func (m *memoryIndex) InitSchema(context.Context) error { return nil }

func (m *memoryIndex) Index(_ context.Context, doc *entities.CaseDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc)
	return nil
}

func (m *memoryIndex) Search(context.Context, string, int) ([]entities.CaseDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.CaseDocument, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, *d)
	}
	return out, nil
}

type memoryBus struct {
	mu     sync.Mutex
	events []*entities.ProcessedEvent
}

func (m *memoryBus) Publish(_ context.Context, _ string, event *entities.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryBus) Subscribe(context.Context, string) (<-chan *entities.ProcessedEvent, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryBus) Close() error { return nil }

func newTestService(engine providers.ReasoningProvider, rasterizer providers.DocumentRasterizer, records *memoryRecords, index *memoryIndex, bus *memoryBus) *VerificationService {
	orch := pipeline.NewOrchestrator(engine, pipeline.Config{})
	return NewVerificationService(orch, rasterizer, records, index, bus)
}

func TestVerify_PersistsIndexesAndPublishes(t *testing.T) {
	engine := &stubEngine{replies: map[string]string{
		"extracts structured data from prescriptions": `{"doctor_info": {"name": "Dr. Nora Quinn"}, "patient_info": {"name": "Alice Moore"}, "medications": []}`,
		"Final Review Agent": `{
			"approval_status": "approved",
			"confidence_score": 0.92,
			"critical_issues": [],
			"recommended_actions": [],
			"summary": "clean case"
		}`,
	}}
	records := &memoryRecords{}
	index := &memoryIndex{}
	bus := &memoryBus{}
	svc := newTestService(engine, &stubRasterizer{images: [][]byte{[]byte("page")}}, records, index, bus)

	record, err := svc.Verify(context.Background(), "rx.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, entities.StatusApproved, record.ApprovalStatus)
	assert.InDelta(t, 0.92, record.ConfidenceScore, 1e-9)
	assert.NotEmpty(t, record.PreviewImage)

	// the full result document is stored alongside the record
	var result map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(record.Result, &result))
	for _, key := range []string{"prescription_data", "final_review", "alerts", "audit_trail", "approval_status"} {
		assert.Contains(t, result, key)
	}

	require.Len(t, records.saved, 1)
	require.Len(t, index.docs, 1)
	assert.Equal(t, "Alice Moore", index.docs[0].PatientName)
	assert.Equal(t, "Dr. Nora Quinn", index.docs[0].DoctorName)

	require.Len(t, bus.events, 1)
	assert.Equal(t, record.ID, bus.events[0].ID)
	assert.Equal(t, entities.StatusApproved, bus.events[0].ApprovalStatus)
}

func TestVerify_RasterizerFailure_SetupError(t *testing.T) {
	svc := newTestService(&stubEngine{}, &stubRasterizer{err: providers.ErrNoImages}, &memoryRecords{}, &memoryIndex{}, &memoryBus{})

	_, err := svc.Verify(context.Background(), "empty.pdf", []byte("%PDF-"))
	assert.Error(t, err)
}

func TestVerify_RecordStoreFailure_StillReturnsRecord(t *testing.T) {
	records := &memoryRecords{err: errors.New("db down")}
	bus := &memoryBus{}
	svc := newTestService(&stubEngine{}, &stubRasterizer{images: [][]byte{[]byte("page")}}, records, &memoryIndex{}, bus)

	record, err := svc.Verify(context.Background(), "rx.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, record)

	// the decision still reached the caller and the event bus
	assert.Len(t, records.saved, 0)
	assert.Len(t, bus.events, 1)
}

func TestListAndSearch_WithoutBackends(t *testing.T) {
	orch := pipeline.NewOrchestrator(&stubEngine{}, pipeline.Config{})
	svc := NewVerificationService(orch, &stubRasterizer{images: [][]byte{[]byte("page")}}, nil, nil, nil)

	summaries, err := svc.ListRecords(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	cases, err := svc.SearchCases(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

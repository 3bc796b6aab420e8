package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/legalmind/legalmind/internal/api/handlers"
	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Query(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResponse), args.Error(1)
}

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) IngestBytes(ctx context.Context, content []byte, filename string) (*service.IngestResult, error) {
	args := m.Called(ctx, content, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) ListDocuments(ctx context.Context) ([]*domain.DocumentMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentMetadata), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func setupRouter(storeErr, cacheErr error) (http.Handler, *MockQueryService, *MockIngestService, *MockDocumentStore) {
	querySvc := new(MockQueryService)
	ingestSvc := new(MockIngestService)
	docStore := new(MockDocumentStore)

	cfg := RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(querySvc),
		IngestHandler:    handlers.NewIngestHandler(ingestSvc),
		DocumentsHandler: handlers.NewDocumentsHandler(docStore),
		HealthHandler:    handlers.NewHealthHandler(stubPinger{storeErr}, stubPinger{cacheErr}),
	}

	return NewRouter(cfg), querySvc, ingestSvc, docStore
}

func TestRouter_HealthHealthy(t *testing.T) {
	router, _, _, _ := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	checks := resp["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["store"])
	assert.Equal(t, "ok", checks["cache"])
}

func TestRouter_HealthDegraded(t *testing.T) {
	router, _, _, _ := setupRouter(nil, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	checks := resp["checks"].(map[string]interface{})
	assert.Contains(t, checks["cache"], "connection refused")
}

func TestRouter_QuerySuccess(t *testing.T) {
	router, querySvc, _, _ := setupRouter(nil, nil)

	querySvc.On("Query", mock.Anything, mock.MatchedBy(func(req *domain.QueryRequest) bool {
		return req.Query == "What is the notice period?" && req.FilterDocumentType == domain.DocumentTypeContract
	})).Return(&domain.QueryResponse{
		Query:     "What is the notice period?",
		Answer:    "30 days. [SOURCE: d1:c1]",
		Citations: []domain.SourceCitation{{DocumentID: "d1", ChunkID: "c1"}},
	}, nil)

	body := `{"query": "What is the notice period?", "filter_document_type": "contract"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp domain.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "30 days. [SOURCE: d1:c1]", resp.Answer)
	require.Len(t, resp.Citations, 1)
	querySvc.AssertExpectations(t)
}

func TestRouter_QueryValidationError(t *testing.T) {
	router, querySvc, _, _ := setupRouter(nil, nil)

	querySvc.On("Query", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyQuery)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query": ""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_QueryUpstreamUnavailable(t *testing.T) {
	router, querySvc, _, _ := setupRouter(nil, nil)

	querySvc.On("Query", mock.Anything, mock.Anything).Return(nil, domain.ErrStoreUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query": "q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestRouter_IngestAccepted(t *testing.T) {
	router, _, ingestSvc, _ := setupRouter(nil, nil)

	ingestSvc.On("IngestBytes", mock.Anything, mock.Anything, "msa.pdf").
		Return(&service.IngestResult{DocumentID: "d1", Filename: "msa.pdf", ChunksStored: 12}, nil)

	body, contentType := multipartUpload(t, "msa.pdf", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ingested", resp["status"])
	assert.Equal(t, float64(12), resp["chunks_stored"])
	assert.Equal(t, "d1", resp["document_id"])
}

func TestRouter_IngestRejectsNonPDF(t *testing.T) {
	router, _, ingestSvc, _ := setupRouter(nil, nil)

	ingestSvc.On("IngestBytes", mock.Anything, mock.Anything, "notes.txt").
		Return(nil, domain.ErrNotPDF)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRouter_IngestMissingFile(t *testing.T) {
	router, _, _, _ := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ListDocuments(t *testing.T) {
	router, _, _, docStore := setupRouter(nil, nil)

	docStore.On("ListDocuments", mock.Anything).Return([]*domain.DocumentMetadata{
		{DocumentID: "d1", Filename: "msa.pdf", DocumentType: domain.DocumentTypeContract},
		{DocumentID: "d2", Filename: "brief.pdf", DocumentType: domain.DocumentTypeBrief},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["total"])
	assert.Len(t, resp["documents"], 2)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router, _, _, _ := setupRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/legalmind/legalmind/internal/api"
	"github.com/legalmind/legalmind/internal/domain"
)

// QueryRunner is the query pipeline surface the handler depends on.
type QueryRunner interface {
	Query(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error)
}

// QueryHandler serves POST /query.
type QueryHandler struct {
	service QueryRunner
}

func NewQueryHandler(service QueryRunner) *QueryHandler {
	return &QueryHandler{service: service}
}

type queryRequestBody struct {
	Query              string `json:"query"`
	FilterDocumentType string `json:"filter_document_type,omitempty"`
	FilterClientID     string `json:"filter_client_id,omitempty"`
	FilterDateFrom     string `json:"filter_date_from,omitempty"`
	FilterDateTo       string `json:"filter_date_to,omitempty"`
	TopK               int    `json:"top_k,omitempty"`
	TopN               int    `json:"top_n,omitempty"`
}

// Query submits a legal question and returns a grounded answer with
// citations.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := &domain.QueryRequest{
		Query:          body.Query,
		FilterClientID: body.FilterClientID,
		TopK:           body.TopK,
		TopN:           body.TopN,
	}
	if body.FilterDocumentType != "" {
		req.FilterDocumentType = domain.ParseDocumentType(body.FilterDocumentType)
	}

	var err error
	if req.FilterDateFrom, err = parseDate(body.FilterDateFrom); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid filter_date_from")
		return
	}
	if req.FilterDateTo, err = parseDate(body.FilterDateTo); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid filter_date_to")
		return
	}

	resp, err := h.service.Query(r.Context(), req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// parseDate accepts date-only and RFC 3339 timestamps.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid date format")
}

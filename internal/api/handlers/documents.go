package handlers

import (
	"context"
	"net/http"

	"github.com/legalmind/legalmind/internal/api"
	"github.com/legalmind/legalmind/internal/domain"
)

// DocumentLister returns the stored document inventory.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]*domain.DocumentMetadata, error)
}

// DocumentsHandler serves GET /documents.
type DocumentsHandler struct {
	store DocumentLister
}

func NewDocumentsHandler(store DocumentLister) *DocumentsHandler {
	return &DocumentsHandler{store: store}
}

type documentListBody struct {
	Total     int                        `json:"total"`
	Documents []*domain.DocumentMetadata `json:"documents"`
}

// List returns one metadata record per ingested document.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	documents, err := h.store.ListDocuments(r.Context())
	if err != nil {
		api.Error(w, http.StatusServiceUnavailable, "could not reach document store: "+err.Error())
		return
	}

	api.JSON(w, http.StatusOK, documentListBody{
		Total:     len(documents),
		Documents: documents,
	})
}

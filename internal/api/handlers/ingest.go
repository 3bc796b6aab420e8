package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/legalmind/legalmind/internal/api"
	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/service"
)

// maxUploadBytes bounds a single PDF upload.
const maxUploadBytes = 32 << 20

// Ingestor is the ingestion pipeline surface the handler depends on.
type Ingestor interface {
	IngestBytes(ctx context.Context, content []byte, filename string) (*service.IngestResult, error)
}

// IngestHandler serves POST /ingest.
type IngestHandler struct {
	service Ingestor
}

func NewIngestHandler(service Ingestor) *IngestHandler {
	return &IngestHandler{service: service}
}

type ingestResponseBody struct {
	Status       string `json:"status"`
	Filename     string `json:"filename"`
	ChunksStored int    `json:"chunks_stored"`
	DocumentID   string `json:"document_id"`
}

// Ingest accepts a multipart PDF upload under the "file" field and runs the
// full ingestion pipeline before responding.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := h.service.IngestBytes(r.Context(), content, header.Filename)
	if err != nil {
		// Non-PDF uploads are unprocessable rather than malformed.
		if errors.Is(err, domain.ErrNotPDF) {
			api.Error(w, http.StatusUnprocessableEntity, "Only PDF files are supported.")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusAccepted, ingestResponseBody{
		Status:       "ingested",
		Filename:     result.Filename,
		ChunksStored: result.ChunksStored,
		DocumentID:   result.DocumentID,
	})
}

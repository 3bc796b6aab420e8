package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/telemetry"
	"go.uber.org/zap"
)

// embedBatchSize bounds the number of inputs per embeddings call.
const embedBatchSize = 100

// ChunkStore is the write surface the ingestion pipeline depends on.
type ChunkStore interface {
	// FindDocumentIDByFilename returns the document id currently stored for
	// the filename, or "" when the filename is new.
	FindDocumentIDByFilename(ctx context.Context, filename string) (string, error)
	// ReplaceDocument atomically deletes all chunks for documentID and inserts
	// the new ones with their embeddings.
	ReplaceDocument(ctx context.Context, documentID string, chunks []*domain.Chunk, embeddings [][]float32) error
}

// CacheInvalidator purges cached responses that cite a document.
type CacheInvalidator interface {
	InvalidateByDocument(ctx context.Context, documentID string) (int, error)
}

// DocumentArchiver stores the original uploaded file for audit purposes.
type DocumentArchiver interface {
	Upload(ctx context.Context, key string, content []byte, contentType string) error
}

// IngestResult summarizes one completed ingestion.
type IngestResult struct {
	DocumentID   string `json:"document_id"`
	Filename     string `json:"filename"`
	ChunksStored int    `json:"chunks_stored"`
}

// IngestService runs the document pipeline: parse, enrich, chunk, embed,
// store, invalidate stale cache entries.
type IngestService struct {
	store     ChunkStore
	embedding EmbeddingClient
	enricher  *Enricher
	cache     CacheInvalidator
	archiver  DocumentArchiver
	chunkCfg  ChunkConfig
	logger    *zap.Logger
}

func NewIngestService(
	store ChunkStore,
	embedding EmbeddingClient,
	enricher *Enricher,
	cache CacheInvalidator,
	archiver DocumentArchiver,
	chunkCfg ChunkConfig,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		store:     store,
		embedding: embedding,
		enricher:  enricher,
		cache:     cache,
		archiver:  archiver,
		chunkCfg:  chunkCfg,
		logger:    logger,
	}
}

// IngestBytes ingests a PDF upload. Re-uploading a filename replaces the
// previous document under the same document id and purges every cached
// response that cited it, so stale answers cannot survive a re-ingestion.
func (s *IngestService) IngestBytes(ctx context.Context, content []byte, filename string) (*IngestResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, domain.ErrNotPDF
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestBytes", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	s.logger.Info("ingestion_started", zap.String("filename", filename), zap.Int("size_bytes", len(content)))

	text, err := ExtractPDFText(content)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	documentID, err := s.store.FindDocumentIDByFilename(ctx, filename)
	if err != nil {
		err = domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "document lookup failed", err)
		span.SetError(err)
		return nil, err
	}
	if documentID == "" {
		documentID = uuid.NewString()
	}

	meta := s.enricher.Enrich(ctx, text, domain.DocumentMetadata{
		DocumentID:   documentID,
		Filename:     filename,
		DocumentType: domain.DocumentTypeUnknown,
	})

	chunks := ChunkDocument(text, meta, s.chunkCfg)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		err = domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "chunk embedding failed", err)
		span.SetError(err)
		return nil, err
	}

	if err := s.store.ReplaceDocument(ctx, documentID, chunks, embeddings); err != nil {
		err = domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "chunk storage failed", err)
		span.SetError(err)
		return nil, err
	}

	if purged, err := s.cache.InvalidateByDocument(ctx, documentID); err != nil {
		s.logger.Warn("cache_invalidation_failed", zap.Error(err), zap.String("document_id", documentID))
	} else if purged > 0 {
		s.logger.Info("cache_invalidated", zap.String("document_id", documentID), zap.Int("purged", purged))
	}

	if s.archiver != nil {
		key := documentID + "/" + filename
		if err := s.archiver.Upload(ctx, key, content, "application/pdf"); err != nil {
			s.logger.Warn("document_archive_failed", zap.Error(err), zap.String("key", key))
		}
	}

	s.logger.Info("ingestion_complete", zap.String("filename", filename), zap.Int("chunks", len(chunks)))
	return &IngestResult{
		DocumentID:   documentID,
		Filename:     filename,
		ChunksStored: len(chunks),
	}, nil
}

func (s *IngestService) embedChunks(ctx context.Context, chunks []*domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedding.GenerateEmbeddings(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

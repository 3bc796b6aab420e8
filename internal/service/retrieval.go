package service

import (
	"context"
	"sync"
	"time"

	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/telemetry"
	"go.uber.org/zap"
)

// SearchFilters narrow a retrieval leg to matching chunks before any
// similarity scoring happens (pre-filter, not post-filter).
type SearchFilters struct {
	DocumentType domain.DocumentType
	ClientID     string
	DateFrom     *time.Time
	DateTo       *time.Time
}

// FiltersFromRequest translates request filter fields into SearchFilters.
func FiltersFromRequest(req *domain.QueryRequest) SearchFilters {
	return SearchFilters{
		DocumentType: req.FilterDocumentType,
		ClientID:     req.FilterClientID,
		DateFrom:     req.FilterDateFrom,
		DateTo:       req.FilterDateTo,
	}
}

// ChunkSearcher is the store interface the retrieval legs depend on.
type ChunkSearcher interface {
	// SearchSemantic returns up to limit chunks ordered by descending cosine
	// similarity to the embedding, restricted to the filters.
	SearchSemantic(ctx context.Context, embedding []float32, filters SearchFilters, limit int) ([]*domain.Chunk, error)
	// SearchKeyword returns up to limit chunks whose text matches the query
	// terms, restricted to the filters, in unspecified order.
	SearchKeyword(ctx context.Context, query string, filters SearchFilters, limit int) ([]*domain.Chunk, error)
}

// EmbeddingClient generates embeddings for query and chunk text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns the top-K most relevant chunks for a request.
type Retriever interface {
	Retrieve(ctx context.Context, req *domain.QueryRequest) ([]*domain.Chunk, error)
}

// VectorRetriever is the dense leg: embeds the query and runs ANN search over
// stored chunk embeddings. Embedding or store failure propagates; a failed
// retrieval must not masquerade as "no relevant documents".
type VectorRetriever struct {
	store     ChunkSearcher
	embedding EmbeddingClient
	topK      int
}

func NewVectorRetriever(store ChunkSearcher, embedding EmbeddingClient, topK int) *VectorRetriever {
	return &VectorRetriever{store: store, embedding: embedding, topK: topK}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, req *domain.QueryRequest) ([]*domain.Chunk, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = r.topK
	}

	embedding, err := r.embedding.GenerateEmbedding(ctx, req.Query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "query embedding failed", err)
	}

	chunks, err := r.store.SearchSemantic(ctx, embedding, FiltersFromRequest(req), topK)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "semantic search failed", err)
	}
	return chunks, nil
}

// KeywordRetriever is the sparse leg: full-text containment search with the
// same pre-filters. Results carry no ranking guarantee; this leg is a recall
// booster and ordering is owed entirely to fusion.
type KeywordRetriever struct {
	store ChunkSearcher
	topK  int
}

func NewKeywordRetriever(store ChunkSearcher, topK int) *KeywordRetriever {
	return &KeywordRetriever{store: store, topK: topK}
}

func (r *KeywordRetriever) Retrieve(ctx context.Context, req *domain.QueryRequest) ([]*domain.Chunk, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = r.topK
	}

	chunks, err := r.store.SearchKeyword(ctx, req.Query, FiltersFromRequest(req), topK)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "keyword search failed", err)
	}
	return chunks, nil
}

// HybridRetriever runs the dense and keyword legs concurrently and merges
// them with Reciprocal Rank Fusion. The concurrency exists to hide provider
// latency; either leg's error fails the retrieval.
type HybridRetriever struct {
	dense   Retriever
	keyword Retriever
	topK    int
	logger  *zap.Logger
}

func NewHybridRetriever(dense, keyword Retriever, topK int, logger *zap.Logger) *HybridRetriever {
	return &HybridRetriever{dense: dense, keyword: keyword, topK: topK, logger: logger}
}

func (r *HybridRetriever) Retrieve(ctx context.Context, req *domain.QueryRequest) ([]*domain.Chunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "HybridRetriever.Retrieve", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	topK := req.TopK
	if topK <= 0 {
		topK = r.topK
	}

	var (
		wg         sync.WaitGroup
		denseOut   []*domain.Chunk
		keywordOut []*domain.Chunk
		denseErr   error
		keywordErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseOut, denseErr = r.dense.Retrieve(ctx, req)
	}()
	go func() {
		defer wg.Done()
		keywordOut, keywordErr = r.keyword.Retrieve(ctx, req)
	}()
	wg.Wait()

	if denseErr != nil {
		span.SetError(denseErr)
		return nil, denseErr
	}
	if keywordErr != nil {
		span.SetError(keywordErr)
		return nil, keywordErr
	}

	fused := FuseRRF(denseOut, keywordOut, topK)
	r.logger.Debug("hybrid_retrieval_complete",
		zap.Int("dense", len(denseOut)),
		zap.Int("keyword", len(keywordOut)),
		zap.Int("fused", len(fused)),
	)
	return fused, nil
}

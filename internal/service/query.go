package service

import (
	"context"
	"time"

	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/telemetry"
	"go.uber.org/zap"
)

// NoResultsAnswer is returned without calling the generator when retrieval
// finds no chunks at all.
const NoResultsAnswer = "I don't know based on the provided documents. No relevant documents were found. Please ingest relevant files first."

// ResponseCache is the semantic cache surface the query pipeline uses. Lookups
// never fail the query: an unreachable cache reads as a miss, and a failed
// write is logged and dropped.
type ResponseCache interface {
	Get(ctx context.Context, embedding []float32) (*domain.QueryResponse, bool)
	Set(ctx context.Context, embedding []float32, resp *domain.QueryResponse) error
}

// QueryService orchestrates the answer pipeline: cache lookup, hybrid
// retrieval, re-ranking, grounded generation, citation extraction, cache
// write.
type QueryService struct {
	embedding EmbeddingClient
	cache     ResponseCache
	retriever Retriever
	reranker  Reranker
	generator Generator
	topN      int
	logger    *zap.Logger
}

func NewQueryService(
	embedding EmbeddingClient,
	cache ResponseCache,
	retriever Retriever,
	reranker Reranker,
	generator Generator,
	topN int,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		embedding: embedding,
		cache:     cache,
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		topN:      topN,
		logger:    logger,
	}
}

// Query runs the full pipeline for one request.
func (s *QueryService) Query(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "QueryService.Query", telemetry.SpanAttributes{
		Operation: "query",
	})
	defer span.End()

	start := time.Now()
	s.logger.Info("query_received", zap.String("query", truncate(req.Query, 100)))

	embedding, err := s.embedding.GenerateEmbedding(ctx, req.Query)
	if err != nil {
		err = domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "query embedding failed", err)
		span.SetError(err)
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, embedding); ok {
		cached.Cached = true
		cached.LatencyMS = msSince(start)
		s.logger.Info("cache_hit", zap.String("query", truncate(req.Query, 60)))
		return cached, nil
	}

	chunks, err := s.retriever.Retrieve(ctx, req)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(chunks) == 0 {
		return &domain.QueryResponse{
			Query:     req.Query,
			Answer:    NoResultsAnswer,
			Citations: []domain.SourceCitation{},
			LatencyMS: msSince(start),
		}, nil
	}

	topN := req.TopN
	if topN <= 0 {
		topN = s.topN
	}
	reranked, err := s.reranker.Rerank(ctx, req.Query, chunks, topN)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	answer, err := s.generator.Generate(ctx, req.Query, reranked)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	resp := BuildQueryResponse(req.Query, answer, reranked, msSince(start), false)

	if err := s.cache.Set(ctx, embedding, resp); err != nil {
		s.logger.Warn("cache_write_failed", zap.Error(err))
	}

	s.logger.Info("query_complete",
		zap.Float64("latency_ms", resp.LatencyMS),
		zap.Int("citations", len(resp.Citations)),
	)
	return resp, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

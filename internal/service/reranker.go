package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/legalmind/legalmind/internal/domain"
	"go.uber.org/zap"
)

// RankedDocument is one scored entry returned by a rerank backend, referring
// to the input document list by index.
type RankedDocument struct {
	Index int
	Score float64
}

// RerankAPI is a cross-encoder backend: it scores (query, document) pairs
// jointly and returns the top-N indices in descending relevance order.
type RerankAPI interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error)
}

// Reranker narrows fused candidates to the final top-N.
type Reranker interface {
	Rerank(ctx context.Context, query string, chunks []*domain.Chunk, topN int) ([]*domain.Chunk, error)
}

// CrossEncoderReranker wraps a RerankAPI with the pipeline's degradation
// policy: re-ranking is an accuracy optimization, not a correctness
// dependency, so a backend failure falls back to the first N fused candidates
// unchanged instead of failing the query.
type CrossEncoderReranker struct {
	api    RerankAPI
	logger *zap.Logger
}

func NewCrossEncoderReranker(api RerankAPI, logger *zap.Logger) *CrossEncoderReranker {
	return &CrossEncoderReranker{api: api, logger: logger}
}

func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, chunks []*domain.Chunk, topN int) ([]*domain.Chunk, error) {
	if len(chunks) == 0 {
		return []*domain.Chunk{}, nil
	}
	if topN <= 0 || topN > len(chunks) {
		topN = len(chunks)
	}

	documents := make([]string, len(chunks))
	for i, c := range chunks {
		documents[i] = c.Text
	}

	results, err := r.api.Rerank(ctx, query, documents, topN)
	if err != nil {
		r.logger.Warn("rerank_failed_falling_back", zap.Error(err), zap.Int("candidates", len(chunks)))
		return chunks[:topN], nil
	}

	reranked := make([]*domain.Chunk, 0, len(results))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(chunks) {
			continue
		}
		cloned := *chunks[res.Index]
		cloned.RelevanceScore = res.Score
		reranked = append(reranked, &cloned)
	}
	if len(reranked) > topN {
		reranked = reranked[:topN]
	}

	r.logger.Debug("reranking_complete", zap.Int("count", len(reranked)))
	return reranked, nil
}

// PassthroughReranker returns the first top-N chunks as retrieved. Used when
// no rerank backend is configured.
type PassthroughReranker struct{}

func (PassthroughReranker) Rerank(_ context.Context, _ string, chunks []*domain.Chunk, topN int) ([]*domain.Chunk, error) {
	if topN <= 0 || topN > len(chunks) {
		topN = len(chunks)
	}
	return chunks[:topN], nil
}

const (
	cohereBaseURL = "https://api.cohere.com"
	rerankTimeout = 15 * time.Second
)

// CohereRerankClient calls the Cohere v2 rerank API.
type CohereRerankClient struct {
	http  *resty.Client
	model string
}

func NewCohereRerankClient(apiKey, model string) *CohereRerankClient {
	client := resty.New().
		SetBaseURL(cohereBaseURL).
		SetTimeout(rerankTimeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &CohereRerankClient{http: client, model: model}
}

type cohereRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type cohereRerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (c *CohereRerankClient) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error) {
	var out cohereRerankResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cohereRerankRequest{Model: c.model, Query: query, Documents: documents, TopN: topN}).
		SetResult(&out).
		Post("/v2/rerank")
	if err != nil {
		return nil, fmt.Errorf("cohere rerank request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cohere rerank returned %s: %s", resp.Status(), resp.String())
	}

	ranked := make([]RankedDocument, 0, len(out.Results))
	for _, r := range out.Results {
		ranked = append(ranked, RankedDocument{Index: r.Index, Score: r.RelevanceScore})
	}
	return ranked, nil
}

// LocalRerankClient calls a self-hosted cross-encoder server exposing a
// text-embeddings-inference style /rerank endpoint. Useful for offline dev
// and CI environments without a Cohere key.
type LocalRerankClient struct {
	http *resty.Client
}

func NewLocalRerankClient(baseURL string) *LocalRerankClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(rerankTimeout).
		SetHeader("Content-Type", "application/json")
	return &LocalRerankClient{http: client}
}

type localRerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type localRerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (c *LocalRerankClient) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error) {
	var out []localRerankResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(localRerankRequest{Query: query, Texts: documents}).
		SetResult(&out).
		Post("/rerank")
	if err != nil {
		return nil, fmt.Errorf("local rerank request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("local rerank returned %s: %s", resp.Status(), resp.String())
	}

	ranked := make([]RankedDocument, 0, len(out))
	for _, r := range out {
		ranked = append(ranked, RankedDocument{Index: r.Index, Score: r.Score})
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

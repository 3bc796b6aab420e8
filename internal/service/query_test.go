package service

import (
	"context"
	"errors"
	"testing"

	"github.com/legalmind/legalmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockResponseCache struct {
	mock.Mock
}

func (m *MockResponseCache) Get(ctx context.Context, embedding []float32) (*domain.QueryResponse, bool) {
	args := m.Called(ctx, embedding)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.QueryResponse), args.Bool(1)
}

func (m *MockResponseCache) Set(ctx context.Context, embedding []float32, resp *domain.QueryResponse) error {
	args := m.Called(ctx, embedding, resp)
	return args.Error(0)
}

type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, chunks []*domain.Chunk, topN int) ([]*domain.Chunk, error) {
	args := m.Called(ctx, query, chunks, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, query string, chunks []*domain.Chunk) (string, error) {
	args := m.Called(ctx, query, chunks)
	return args.String(0), args.Error(1)
}

type queryFixture struct {
	embedder  *MockEmbeddingClient
	cache     *MockResponseCache
	retriever *stubRetriever
	reranker  *MockReranker
	generator *MockGenerator
	svc       *QueryService
}

func newQueryFixture(retrieved []*domain.Chunk, retrieveErr error) *queryFixture {
	f := &queryFixture{
		embedder:  new(MockEmbeddingClient),
		cache:     new(MockResponseCache),
		retriever: &stubRetriever{chunks: retrieved, err: retrieveErr},
		reranker:  new(MockReranker),
		generator: new(MockGenerator),
	}
	f.svc = NewQueryService(f.embedder, f.cache, f.retriever, f.reranker, f.generator, 7, zap.NewNop())
	return f
}

func TestQueryService_ValidationRejectsEmptyQuery(t *testing.T) {
	f := newQueryFixture(nil, nil)

	_, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "   "})

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	f.embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestQueryService_CacheHitSkipsPipeline(t *testing.T) {
	f := newQueryFixture(nil, errors.New("retriever must not run"))

	embedding := []float32{0.5, 0.5}
	cached := &domain.QueryResponse{Query: "q", Answer: "cached answer"}

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return(embedding, nil)
	f.cache.On("Get", mock.Anything, embedding).Return(cached, true)

	resp, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q"})

	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, "cached answer", resp.Answer)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryService_EmptyRetrievalReturnsNoResultsAnswer(t *testing.T) {
	f := newQueryFixture([]*domain.Chunk{}, nil)

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1}, nil)
	f.cache.On("Get", mock.Anything, mock.Anything).Return(nil, false)

	resp, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, NoResultsAnswer, resp.Answer)
	assert.Empty(t, resp.Citations)
	assert.False(t, resp.Cached)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryService_FullPipelineProducesCitedResponse(t *testing.T) {
	retrieved := []*domain.Chunk{contextChunk("c1", "d1"), contextChunk("c2", "d2")}
	reranked := []*domain.Chunk{contextChunk("c1", "d1")}
	f := newQueryFixture(retrieved, nil)

	embedding := []float32{0.1}
	f.embedder.On("GenerateEmbedding", mock.Anything, "What is the monthly retainer fee?").Return(embedding, nil)
	f.cache.On("Get", mock.Anything, embedding).Return(nil, false)
	f.reranker.On("Rerank", mock.Anything, "What is the monthly retainer fee?", retrieved, 7).Return(reranked, nil)
	f.generator.On("Generate", mock.Anything, "What is the monthly retainer fee?", reranked).
		Return("The monthly retainer fee is $5,000. [SOURCE: d1:c1]", nil)
	f.cache.On("Set", mock.Anything, embedding, mock.Anything).Return(nil)

	resp, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "What is the monthly retainer fee?"})

	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "$5,000")
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "c1", resp.Citations[0].ChunkID)
	assert.False(t, resp.Cached)
	f.cache.AssertExpectations(t)
}

func TestQueryService_RequestTopNOverridesDefault(t *testing.T) {
	retrieved := []*domain.Chunk{contextChunk("c1", "d1")}
	f := newQueryFixture(retrieved, nil)

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1}, nil)
	f.cache.On("Get", mock.Anything, mock.Anything).Return(nil, false)
	f.reranker.On("Rerank", mock.Anything, "q", retrieved, 3).Return(retrieved, nil)
	f.generator.On("Generate", mock.Anything, "q", retrieved).Return("Answer. [SOURCE: d1:c1]", nil)
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q", TopN: 3})

	require.NoError(t, err)
	f.reranker.AssertExpectations(t)
}

func TestQueryService_CacheWriteFailureDoesNotFailQuery(t *testing.T) {
	retrieved := []*domain.Chunk{contextChunk("c1", "d1")}
	f := newQueryFixture(retrieved, nil)

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1}, nil)
	f.cache.On("Get", mock.Anything, mock.Anything).Return(nil, false)
	f.reranker.On("Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(retrieved, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("Answer. [SOURCE: d1:c1]", nil)
	f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	resp, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, "Answer. [SOURCE: d1:c1]", resp.Answer)
}

func TestQueryService_EmbeddingFailureIsUpstream(t *testing.T) {
	f := newQueryFixture(nil, nil)

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return(nil, errors.New("rate limited"))

	_, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q"})

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstreamUnavailable, domainErr.Code)
}

func TestQueryService_RetrieverErrorPropagates(t *testing.T) {
	f := newQueryFixture(nil, domain.NewDomainError(domain.ErrCodeUpstreamUnavailable, "store down"))

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1}, nil)
	f.cache.On("Get", mock.Anything, mock.Anything).Return(nil, false)

	_, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q"})

	assert.Error(t, err)
}

func TestQueryService_GeneratorErrorPropagates(t *testing.T) {
	retrieved := []*domain.Chunk{contextChunk("c1", "d1")}
	f := newQueryFixture(retrieved, nil)

	f.embedder.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1}, nil)
	f.cache.On("Get", mock.Anything, mock.Anything).Return(nil, false)
	f.reranker.On("Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(retrieved, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("model overloaded"))

	_, err := f.svc.Query(context.Background(), &domain.QueryRequest{Query: "q"})

	assert.Error(t, err)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

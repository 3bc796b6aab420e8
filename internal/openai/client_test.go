package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockAPI) CreateCompletion(ctx context.Context, req CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newTestClient(api API, dims int) *Client {
	return &Client{
		api:        api,
		dimensions: dims,
		chatModel:  "gpt-4o",
		judgeModel: "gpt-4o-mini",
	}
}

func TestGenerateEmbedding_EmptyText(t *testing.T) {
	c := newTestClient(&MockAPI{}, 3)

	_, err := c.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGenerateEmbedding_Success(t *testing.T) {
	api := &MockAPI{}
	api.On("CreateEmbeddings", mock.Anything, []string{"indemnity clause"}).
		Return([][]float32{{0.1, 0.2, 0.3}}, nil)

	c := newTestClient(api, 3)
	embedding, err := c.GenerateEmbedding(context.Background(), "indemnity clause")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
	api.AssertExpectations(t)
}

func TestGenerateEmbedding_WrongDimensions(t *testing.T) {
	api := &MockAPI{}
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return([][]float32{{0.1, 0.2}}, nil)

	c := newTestClient(api, 3)
	_, err := c.GenerateEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerateEmbeddings_Batch(t *testing.T) {
	api := &MockAPI{}
	api.On("CreateEmbeddings", mock.Anything, []string{"a", "b"}).
		Return([][]float32{{1, 0, 0}, {0, 1, 0}}, nil)

	c := newTestClient(api, 3)
	embeddings, err := c.GenerateEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, embeddings, 2)
}

func TestGenerateEmbeddings_APIError(t *testing.T) {
	api := &MockAPI{}
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited"))

	c := newTestClient(api, 3)
	_, err := c.GenerateEmbeddings(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "failed to create embeddings")
}

func TestComplete_Success(t *testing.T) {
	api := &MockAPI{}
	api.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(req CompletionRequest) bool {
		return req.Model == "gpt-4o" && req.System == "system" && !req.JSONMode
	})).Return("answer", nil)

	c := newTestClient(api, 3)
	answer, err := c.Complete(context.Background(), "system", "question")
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
}

func TestCompleteJSON_UsesJudgeModel(t *testing.T) {
	api := &MockAPI{}
	api.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(req CompletionRequest) bool {
		return req.Model == "gpt-4o-mini" && req.JSONMode
	})).Return(`{"claims":[]}`, nil)

	c := newTestClient(api, 3)
	out, err := c.CompleteJSON(context.Background(), "extract claims")
	require.NoError(t, err)
	assert.JSONEq(t, `{"claims":[]}`, out)
}

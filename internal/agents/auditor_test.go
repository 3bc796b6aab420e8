package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/legalmind/legalmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockJudge struct {
	mock.Mock
}

func (m *MockJudge) CompleteJSON(ctx context.Context, user string) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func contextChunk(id, docID, text string) *domain.Chunk {
	return &domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Text:       text,
		Metadata:   domain.DocumentMetadata{DocumentID: docID, Filename: "msa.pdf"},
	}
}

func TestComplianceAuditor_NoClaimsScoresPerfect(t *testing.T) {
	judge := &MockJudge{}
	judge.On("CompleteJSON", mock.Anything, mock.Anything).
		Return(`{"claims": []}`, nil).Once()

	auditor := NewComplianceAuditor(judge, 0.9, zap.NewNop())
	result, err := auditor.Evaluate(context.Background(), "q", "I don't know based on the provided documents.", nil)
	require.NoError(t, err)

	require.NotNil(t, result.FaithfulnessScore)
	assert.Equal(t, 1.0, *result.FaithfulnessScore)
	assert.True(t, result.Passed)
	assert.Empty(t, result.UnsupportedClaims)
}

func TestComplianceAuditor_AllClaimsSupported(t *testing.T) {
	judge := &MockJudge{}
	judge.On("CompleteJSON", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Extract every individual factual claim")
	})).Return(`{"claims": ["The cap is $1M", "The term is 24 months"]}`, nil).Once()
	judge.On("CompleteJSON", mock.Anything, mock.Anything).
		Return(`{"supported": true, "reason": "stated verbatim"}`, nil).Twice()

	auditor := NewComplianceAuditor(judge, 0.9, zap.NewNop())
	result, err := auditor.Evaluate(context.Background(), "q", "answer",
		[]*domain.Chunk{contextChunk("c1", "d1", "The cap is $1M and the term is 24 months.")})
	require.NoError(t, err)

	assert.Equal(t, 1.0, *result.FaithfulnessScore)
	assert.True(t, result.Passed)
	judge.AssertExpectations(t)
}

func TestComplianceAuditor_UnsupportedClaimFailsThreshold(t *testing.T) {
	judge := &MockJudge{}
	judge.On("CompleteJSON", mock.Anything, mock.Anything).
		Return(`{"claims": ["The cap is $1M", "The cap is $5M"]}`, nil).Once()
	judge.On("CompleteJSON", mock.Anything, mock.Anything).
		Return(`{"supported": true, "reason": "ok"}`, nil).Once()
	judge.On("CompleteJSON", mock.Anything, mock.Anything).
		Return(`{"supported": false, "reason": "context says $1M"}`, nil).Once()

	auditor := NewComplianceAuditor(judge, 0.9, zap.NewNop())
	result, err := auditor.Evaluate(context.Background(), "q", "answer",
		[]*domain.Chunk{contextChunk("c1", "d1", "The cap is $1M.")})
	require.NoError(t, err)

	assert.Equal(t, 0.5, *result.FaithfulnessScore)
	assert.False(t, result.Passed)
	require.Len(t, result.UnsupportedClaims, 1)
	assert.Contains(t, result.UnsupportedClaims[0], "The cap is $5M")
}

func TestComplianceAuditor_JudgeErrorPropagates(t *testing.T) {
	judge := &MockJudge{}
	judge.On("CompleteJSON", mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	auditor := NewComplianceAuditor(judge, 0.9, zap.NewNop())
	_, err := auditor.Evaluate(context.Background(), "q", "answer", nil)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstreamUnavailable, domainErr.Code)
}

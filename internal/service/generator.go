package service

import (
	"context"

	"github.com/legalmind/legalmind/internal/domain"
	"go.uber.org/zap"
)

// CompletionClient is the chat-completion surface the generator depends on.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator produces a grounded answer for a query from its context chunks.
type Generator interface {
	Generate(ctx context.Context, query string, chunks []*domain.Chunk) (string, error)
}

// GroundedGenerator builds the context-injected prompt and calls the chat
// model under the grounding and citation mandates.
type GroundedGenerator struct {
	llm    CompletionClient
	logger *zap.Logger
}

func NewGroundedGenerator(llm CompletionClient, logger *zap.Logger) *GroundedGenerator {
	return &GroundedGenerator{llm: llm, logger: logger}
}

func (g *GroundedGenerator) Generate(ctx context.Context, query string, chunks []*domain.Chunk) (string, error) {
	user := BuildUserMessage(query, chunks)

	answer, err := g.llm.Complete(ctx, SystemPrompt, user)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "answer generation failed", err)
	}

	g.logger.Debug("answer_generated",
		zap.Int("context_chunks", len(chunks)),
		zap.Int("answer_chars", len(answer)),
	)
	return answer, nil
}

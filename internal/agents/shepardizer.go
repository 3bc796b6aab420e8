package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/legalmind/legalmind/internal/domain"
	"go.uber.org/zap"
)

// ChunkFetcher looks up stored chunks for citation verification.
type ChunkFetcher interface {
	// GetChunk returns the chunk with the given id, or ErrChunkNotFound.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)
}

// Shepardizer verifies citation integrity, named for Shepard's Citations, the
// legal research tool for confirming a cited case is still good law. A wrong
// citation is as bad as a wrong answer: citing a clause that does not exist
// in the referenced document could mislead a lawyer into filing on a phantom
// clause.
//
// For each [SOURCE: document_id:chunk_id] marker it checks:
//  1. EXISTENCE: the chunk id resolves in the store
//  2. ATTRIBUTION: the cited document id matches the chunk's stored one
type Shepardizer struct {
	store     ChunkFetcher
	threshold float64
	logger    *zap.Logger
}

func NewShepardizer(store ChunkFetcher, threshold float64, logger *zap.Logger) *Shepardizer {
	return &Shepardizer{store: store, threshold: threshold, logger: logger}
}

// Validate checks every citation marker in the response answer. The context
// precision score is the fraction of markers that pass both checks. A
// response with no citations at all scores 1.0 and passes; the absence of
// citations is the compliance auditor's concern, not a broken citation.
func (s *Shepardizer) Validate(ctx context.Context, resp *domain.QueryResponse) (*domain.EvaluationResult, error) {
	markers := domain.ExtractCitationMarkers(resp.Answer)

	if len(markers) == 0 && len(resp.Citations) == 0 {
		s.logger.Warn("no_citations_to_validate", zap.String("query", head(resp.Query, 60)))
		return &domain.EvaluationResult{
			Query:                 resp.Query,
			Answer:                resp.Answer,
			ContextPrecisionScore: domain.Score(1.0),
			Passed:                true,
		}, nil
	}

	total := len(markers)
	if total == 0 {
		total = len(resp.Citations)
	}

	var broken []string
	for _, marker := range markers {
		citation := marker.String()

		chunk, err := s.store.GetChunk(ctx, marker.ChunkID)
		if errors.Is(err, domain.ErrChunkNotFound) {
			broken = append(broken, citation+" -- chunk not found in store")
			s.logger.Error("broken_citation_not_found", zap.String("citation", citation))
			continue
		}
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "citation lookup failed", err)
		}

		if chunk.DocumentID != marker.DocumentID {
			broken = append(broken, fmt.Sprintf("%s -- document_id mismatch (stored: %s)", citation, chunk.DocumentID))
			s.logger.Error("broken_citation_doc_mismatch",
				zap.String("cited", marker.DocumentID),
				zap.String("stored", chunk.DocumentID),
			)
			continue
		}

		if !chunkRelevantToAnswer(chunk.Text, resp.Answer) {
			broken = append(broken, citation+" -- cited chunk not reflected in answer")
			continue
		}
	}

	score := float64(total-len(broken)) / float64(total)
	passed := score >= s.threshold

	s.logger.Info("shepardizer_evaluation_complete",
		zap.Int("total_citations", total),
		zap.Int("broken", len(broken)),
		zap.Float64("score", score),
		zap.Bool("passed", passed),
	)

	return &domain.EvaluationResult{
		Query:                 resp.Query,
		Answer:                resp.Answer,
		ContextPrecisionScore: domain.Score(score),
		BrokenCitations:       broken,
		Passed:                passed,
	}, nil
}

// chunkRelevantToAnswer checks whether any 4-word n-gram from the chunk text
// appears verbatim in the answer. The check is deliberately lenient and
// currently never rejects: grounded answers paraphrase more often than they
// quote, so a missing n-gram is not strong enough evidence of an unused
// citation. The scan is kept for its debug value and as the place a stricter
// entailment check would slot in.
func chunkRelevantToAnswer(chunkText, answer string) bool {
	if chunkText == "" || answer == "" {
		return false
	}

	words := strings.Fields(strings.ToLower(chunkText))
	answerLower := strings.ToLower(answer)

	for i := 0; i+4 <= len(words); i++ {
		ngram := strings.Join(words[i:i+4], " ")
		if strings.Contains(answerLower, ngram) {
			return true
		}
	}
	return true
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

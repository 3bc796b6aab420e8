// Package agents implements the post-hoc verification agents: the compliance
// auditor (faithfulness), the Shepardizer (citation integrity), and the
// adversarial question generator (golden dataset synthesis). Agents evaluate
// and report; they never mutate pipeline state.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/legalmind/legalmind/internal/domain"
	"go.uber.org/zap"
)

// JSONCompletionClient is the JSON-mode judge surface the agents call.
type JSONCompletionClient interface {
	CompleteJSON(ctx context.Context, user string) (string, error)
}

const claimExtractionPrompt = `You are a legal fact-checker.
Extract every individual factual claim from the AI response below.
A "claim" is any specific assertion about a date, party, clause number, dollar amount,
legal obligation, or outcome.

AI Response:
"""
%s
"""

Respond in JSON:
{
  "claims": ["<claim 1>", "<claim 2>", ...]
}
Return an empty list if there are no specific claims.`

const claimVerificationPrompt = `You are a legal fact-checker.
Your task: determine if the following claim is FULLY SUPPORTED by the context below.

Claim: %s

Context (retrieved legal document excerpts):
"""
%s
"""

Respond in JSON:
{
  "supported": true or false,
  "reason": "<brief explanation citing specific text from context, or explaining why it's not supported>"
}`

// verificationContextChars bounds the context sent per claim verification.
const verificationContextChars = 3000

// ComplianceAuditor detects hallucinations by cross-referencing response
// claims against the retrieved chunks, LLM-as-judge style. Faithfulness is
// the fraction of extracted claims the judge finds supported.
type ComplianceAuditor struct {
	judge     JSONCompletionClient
	threshold float64
	logger    *zap.Logger
}

func NewComplianceAuditor(judge JSONCompletionClient, threshold float64, logger *zap.Logger) *ComplianceAuditor {
	return &ComplianceAuditor{judge: judge, threshold: threshold, logger: logger}
}

type claimExtraction struct {
	Claims []string `json:"claims"`
}

type claimVerdict struct {
	Supported bool   `json:"supported"`
	Reason    string `json:"reason"`
}

// Evaluate extracts factual claims from the answer and verifies each against
// the retrieved chunks. Zero extracted claims scores a perfect 1.0: no claims
// means no hallucinations, which is the expected shape of an insufficient-
// context answer.
func (a *ComplianceAuditor) Evaluate(ctx context.Context, query, answer string, chunks []*domain.Chunk) (*domain.EvaluationResult, error) {
	claims, err := a.extractClaims(ctx, answer)
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return &domain.EvaluationResult{
			Query:             query,
			Answer:            answer,
			FaithfulnessScore: domain.Score(1.0),
			Passed:            true,
		}, nil
	}

	contextText := buildEvaluationContext(chunks)

	var unsupported []string
	for _, claim := range claims {
		supported, reason, err := a.verifyClaim(ctx, claim, contextText)
		if err != nil {
			return nil, err
		}
		if !supported {
			unsupported = append(unsupported, fmt.Sprintf("%s (reason: %s)", claim, reason))
			a.logger.Warn("hallucination_detected", zap.String("claim", claim), zap.String("reason", reason))
		}
	}

	score := float64(len(claims)-len(unsupported)) / float64(len(claims))
	passed := score >= a.threshold

	a.logger.Info("faithfulness_evaluation_complete",
		zap.Float64("score", score),
		zap.Int("claims", len(claims)),
		zap.Int("unsupported", len(unsupported)),
		zap.Bool("passed", passed),
	)

	return &domain.EvaluationResult{
		Query:             query,
		Answer:            answer,
		FaithfulnessScore: domain.Score(score),
		UnsupportedClaims: unsupported,
		Passed:            passed,
	}, nil
}

func (a *ComplianceAuditor) extractClaims(ctx context.Context, answer string) ([]string, error) {
	raw, err := a.judge.CompleteJSON(ctx, fmt.Sprintf(claimExtractionPrompt, answer))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "claim extraction failed", err)
	}
	var out claimExtraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "claim extraction returned malformed JSON", err)
	}
	return out.Claims, nil
}

func (a *ComplianceAuditor) verifyClaim(ctx context.Context, claim, contextText string) (bool, string, error) {
	if len(contextText) > verificationContextChars {
		contextText = contextText[:verificationContextChars]
	}
	raw, err := a.judge.CompleteJSON(ctx, fmt.Sprintf(claimVerificationPrompt, claim, contextText))
	if err != nil {
		return false, "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "claim verification failed", err)
	}
	var out claimVerdict
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return false, "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "claim verification returned malformed JSON", err)
	}
	return out.Supported, out.Reason, nil
}

func buildEvaluationContext(chunks []*domain.Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("[%s | chunk %s]\n%s", c.Metadata.Filename, c.ID, c.Text))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

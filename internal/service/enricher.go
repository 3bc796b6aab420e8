package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/legalmind/legalmind/internal/domain"
	"go.uber.org/zap"
)

// enrichmentExcerptChars bounds the document text sent for metadata
// extraction. Legal metadata lives in the header region; sending the whole
// document wastes tokens.
const enrichmentExcerptChars = 2000

const enrichmentPrompt = `You are a legal document analysis assistant.
Analyze the document excerpt below and extract the following metadata in JSON format.

Fields:
- document_type: one of [contract, case_file, pleading, brief, correspondence, unknown]
- date: ISO-8601 date string (YYYY-MM-DD) if a signing/filing date is present, else null
- parties: array of entity names (individuals, companies, courts) mentioned as parties
- client_id: alphanumeric client or matter ID if present, else null

Respond ONLY with a valid JSON object. No explanation.

Document excerpt:
"""
%s
"""
`

// JSONCompletionClient is the JSON-mode completion surface used for metadata
// extraction and the verification agents.
type JSONCompletionClient interface {
	CompleteJSON(ctx context.Context, user string) (string, error)
}

// Enricher extracts structured metadata from raw document text using the
// judge model. Legal documents have wildly inconsistent headers, so an LLM
// classifier beats any workable set of heuristics here.
type Enricher struct {
	llm    JSONCompletionClient
	logger *zap.Logger
}

func NewEnricher(llm JSONCompletionClient, logger *zap.Logger) *Enricher {
	return &Enricher{llm: llm, logger: logger}
}

type enrichmentResult struct {
	DocumentType string   `json:"document_type"`
	Date         *string  `json:"date"`
	Parties      []string `json:"parties"`
	ClientID     *string  `json:"client_id"`
}

// Enrich merges LLM-extracted metadata into base. Enrichment is non-critical:
// any failure degrades to the base metadata with a regex-extracted date
// rather than failing the ingestion.
func (e *Enricher) Enrich(ctx context.Context, text string, base domain.DocumentMetadata) domain.DocumentMetadata {
	excerpt := text
	if len(excerpt) > enrichmentExcerptChars {
		excerpt = excerpt[:enrichmentExcerptChars]
	}

	raw, err := e.llm.CompleteJSON(ctx, fmt.Sprintf(enrichmentPrompt, excerpt))
	if err != nil {
		e.logger.Warn("metadata_enrichment_failed", zap.Error(err), zap.String("filename", base.Filename))
		base.Date = fallbackDate(text)
		return base
	}

	var result enrichmentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		e.logger.Warn("metadata_enrichment_unparseable", zap.Error(err), zap.String("filename", base.Filename))
		base.Date = fallbackDate(text)
		return base
	}

	base.DocumentType = domain.ParseDocumentType(result.DocumentType)
	if result.Date != nil {
		if parsed, err := time.Parse("2006-01-02", *result.Date); err == nil {
			base.Date = &parsed
		} else {
			base.Date = fallbackDate(text)
		}
	}
	if result.Parties != nil {
		base.Parties = result.Parties
	}
	if result.ClientID != nil {
		base.ClientID = *result.ClientID
	}
	return base
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})\b`),
	regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`),
}

var dateLayouts = []string{"1/2/2006", "1-2-2006", "January 2, 2006", "January 2 2006"}

// fallbackDate is a regex extractor used when LLM extraction fails or returns
// a malformed date.
func fallbackDate(text string) *time.Time {
	for _, pattern := range datePatterns {
		m := pattern.FindString(text)
		if m == "" {
			continue
		}
		val := titleCaseWords(m)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, val); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

// titleCaseWords normalizes month-name casing so time.Parse layouts match.
func titleCaseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package domain

import (
	"strings"
	"time"
)

// MaxQueryLength bounds the accepted query text.
const MaxQueryLength = 4096

// QueryRequest is one user question plus optional metadata filters and
// per-request overrides of retrieval breadth.
type QueryRequest struct {
	Query string

	// Metadata filters applied before similarity scoring.
	FilterDocumentType DocumentType
	FilterClientID     string
	FilterDateFrom     *time.Time
	FilterDateTo       *time.Time

	// Per-request overrides; 0 falls back to configured defaults.
	TopK int
	TopN int
}

// Validate enforces the request invariants before the pipeline runs.
func (r *QueryRequest) Validate() error {
	q := strings.TrimSpace(r.Query)
	if q == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.TopK < 0 || r.TopN < 0 {
		return NewDomainError(ErrCodeValidation, "top_k and top_n must be positive")
	}
	return nil
}

// HasFilters reports whether any metadata filter is set.
func (r *QueryRequest) HasFilters() bool {
	return r.FilterDocumentType != "" || r.FilterClientID != "" ||
		r.FilterDateFrom != nil || r.FilterDateTo != nil
}

// SourceCitation is one verified reference included in a response. It is
// derived from a chunk that was actually supplied to the generator.
type SourceCitation struct {
	DocumentID     string  `json:"document_id"`
	ChunkID        string  `json:"chunk_id"`
	Filename       string  `json:"filename"`
	Excerpt        string  `json:"excerpt"`
	RelevanceScore float64 `json:"relevance_score"`
}

// MaxExcerptChars bounds the citation excerpt taken from the chunk text.
const MaxExcerptChars = 2000

// NewSourceCitation derives a citation from a context chunk.
func NewSourceCitation(c *Chunk) SourceCitation {
	excerpt := c.Text
	if len(excerpt) > MaxExcerptChars {
		excerpt = excerpt[:MaxExcerptChars]
	}
	excerpt = strings.TrimSpace(strings.ReplaceAll(excerpt, "\n", " "))
	return SourceCitation{
		DocumentID:     c.DocumentID,
		ChunkID:        c.ID,
		Filename:       c.Metadata.Filename,
		Excerpt:        excerpt,
		RelevanceScore: c.RelevanceScore,
	}
}

// QueryResponse is the unit returned to callers and persisted in the cache.
// Invariant: every citation corresponds to a chunk that was supplied to the
// generator for this response.
type QueryResponse struct {
	Query     string           `json:"query"`
	Answer    string           `json:"answer"`
	Citations []SourceCitation `json:"citations"`
	Cached    bool             `json:"cached"`
	LatencyMS float64          `json:"latency_ms"`
}

// DocumentIDs returns the distinct document ids referenced by the response's
// citations, in first-citation order. Used for cache invalidation indexing.
func (r *QueryResponse) DocumentIDs() []string {
	seen := make(map[string]struct{}, len(r.Citations))
	ids := make([]string, 0, len(r.Citations))
	for _, c := range r.Citations {
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		ids = append(ids, c.DocumentID)
	}
	return ids
}

package service

import (
	"github.com/legalmind/legalmind/internal/domain"
)

// ExtractCitations resolves [SOURCE: doc_id:chunk_id] markers in the answer
// against the context chunks. Markers citing chunk ids that were never in the
// context are dropped: the response must not vouch for sources the generator
// was not shown. Duplicate chunk ids keep only the first occurrence.
func ExtractCitations(answer string, chunks []*domain.Chunk) []domain.SourceCitation {
	byID := make(map[string]*domain.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	seen := make(map[string]struct{})
	citations := make([]domain.SourceCitation, 0, len(chunks))
	for _, marker := range domain.ExtractCitationMarkers(answer) {
		if _, ok := seen[marker.ChunkID]; ok {
			continue
		}
		seen[marker.ChunkID] = struct{}{}

		chunk, ok := byID[marker.ChunkID]
		if !ok {
			// Fabricated chunk id. The Shepardizer reports these separately.
			continue
		}
		citations = append(citations, domain.NewSourceCitation(chunk))
	}
	return citations
}

// BuildQueryResponse combines the raw answer with extracted citations.
//
// A substantive answer with zero resolvable citations falls back to citing
// every context chunk: an uncited answer is worse than an over-cited one. The
// fallback does not apply to insufficient-context answers, which legitimately
// cite nothing.
func BuildQueryResponse(query, answer string, chunks []*domain.Chunk, latencyMS float64, cached bool) *domain.QueryResponse {
	citations := ExtractCitations(answer, chunks)

	if len(citations) == 0 && !IsFallbackAnswer(answer) {
		citations = make([]domain.SourceCitation, 0, len(chunks))
		for _, c := range chunks {
			citations = append(citations, domain.NewSourceCitation(c))
		}
	}

	return &domain.QueryResponse{
		Query:     query,
		Answer:    answer,
		Citations: citations,
		Cached:    cached,
		LatencyMS: latencyMS,
	}
}

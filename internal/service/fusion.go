package service

import (
	"sort"

	"github.com/legalmind/legalmind/internal/domain"
)

// rrfK dampens the impact of high ranks in Reciprocal Rank Fusion. With k=2 a
// chunk at rank 0 of both legs scores 2/(k+1) = 2/3.
const rrfK = 2

type fusionCandidate struct {
	chunk *domain.Chunk
	score float64
}

// FuseRRF merges two leg result lists into one deduplicated ranked list via
// Reciprocal Rank Fusion:
//
//	score(chunk) = Σ_legs 1 / (k + rank_in_leg + 1)
//
// with 0-based ranks. A chunk absent from a leg contributes nothing from that
// leg. Dedup is keyed by chunk id: the first leg's instance wins
// attribute-wise while scores accumulate from both legs. Ordering is stable,
// so ties keep first-leg insertion order. The result is truncated to limit.
func FuseRRF(dense, keyword []*domain.Chunk, limit int) []*domain.Chunk {
	candidates := make(map[string]*fusionCandidate)
	order := make([]string, 0, len(dense)+len(keyword))

	addLeg := func(leg []*domain.Chunk) {
		for rank, chunk := range leg {
			if chunk == nil || chunk.ID == "" {
				continue
			}
			cand, ok := candidates[chunk.ID]
			if !ok {
				cloned := *chunk
				cand = &fusionCandidate{chunk: &cloned}
				candidates[chunk.ID] = cand
				order = append(order, chunk.ID)
			}
			cand.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	addLeg(dense)
	addLeg(keyword)

	out := make([]*domain.Chunk, 0, len(order))
	for _, id := range order {
		cand := candidates[id]
		cand.chunk.RelevanceScore = cand.score
		out = append(out, cand.chunk)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

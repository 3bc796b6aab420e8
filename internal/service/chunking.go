package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/legalmind/legalmind/internal/domain"
)

// ChunkConfig controls how document text is split for embedding.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// DefaultChunkConfig provides sane defaults for legal documents. Windows are
// large enough to keep a full clause together in most contracts.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 2000,
		MinChars: 400,
		Overlap:  200,
	}
}

// ChunkDocument splits document text into overlapping chunks and stamps each
// with its metadata. Every chunk text is prefixed with the document filename
// so factual chunks still carry document identity after retrieval, not just
// header chunks.
func ChunkDocument(text string, meta domain.DocumentMetadata, cfg ChunkConfig) []*domain.Chunk {
	prefix := fmt.Sprintf("[Document: %s] ", meta.Filename)

	pieces := chunkText(text, cfg)
	chunks := make([]*domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: meta.DocumentID,
			Text:       prefix + piece,
			ChunkIndex: i,
			Metadata:   meta,
		})
	}
	return chunks
}

// chunkText splits on rune windows, preferring to cut at whitespace so words
// stay intact, with a trailing overlap between consecutive chunks.
func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}

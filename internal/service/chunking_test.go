package service

import (
	"strings"
	"testing"

	"github.com/legalmind/legalmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDocument_ShortTextIsOneChunk(t *testing.T) {
	meta := domain.DocumentMetadata{DocumentID: "d1", Filename: "msa.pdf"}

	chunks := ChunkDocument("Short contract text.", meta, DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "[Document: msa.pdf] Short contract text.", chunks[0].Text)
	assert.Equal(t, "d1", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.NotEmpty(t, chunks[0].ID)
	assert.Equal(t, meta, chunks[0].Metadata)
}

func TestChunkDocument_EmptyTextYieldsNothing(t *testing.T) {
	meta := domain.DocumentMetadata{DocumentID: "d1", Filename: "empty.pdf"}

	assert.Empty(t, ChunkDocument("   \n\t  ", meta, DefaultChunkConfig()))
}

func TestChunkDocument_LongTextSplitsWithSequentialIndexes(t *testing.T) {
	meta := domain.DocumentMetadata{DocumentID: "d1", Filename: "lease.pdf"}
	text := strings.Repeat("The tenant shall maintain the premises in good repair. ", 100)

	cfg := ChunkConfig{MaxChars: 500, MinChars: 100, Overlap: 50}
	chunks := ChunkDocument(text, meta, cfg)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.True(t, strings.HasPrefix(c.Text, "[Document: lease.pdf] "))
	}
}

func TestChunkText_PrefersWhitespaceCuts(t *testing.T) {
	text := strings.Repeat("wordone wordtwo wordthree ", 50)

	pieces := chunkText(text, ChunkConfig{MaxChars: 100, MinChars: 20, Overlap: 0})

	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, len([]rune(p)), 100)
		// No word should be cut mid-token.
		for _, w := range strings.Fields(p) {
			assert.Contains(t, []string{"wordone", "wordtwo", "wordthree"}, w)
		}
	}
}

func TestChunkText_OverlapRepeatsTrailingText(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 40)

	pieces := chunkText(text, ChunkConfig{MaxChars: 200, MinChars: 50, Overlap: 60})
	require.Greater(t, len(pieces), 1)

	// The tail of each chunk reappears at the head of the next.
	for i := 1; i < len(pieces); i++ {
		head := strings.Fields(pieces[i])[0]
		assert.Contains(t, pieces[i-1], head)
	}
}

func TestChunkText_UnbrokenRunSplitsHard(t *testing.T) {
	text := strings.Repeat("x", 450)

	pieces := chunkText(text, ChunkConfig{MaxChars: 200, MinChars: 50, Overlap: 0})

	require.Len(t, pieces, 3)
	assert.Equal(t, 200, len(pieces[0]))
}

func TestChunkText_ZeroConfigFallsBackToDefaults(t *testing.T) {
	pieces := chunkText("some text", ChunkConfig{})

	require.Len(t, pieces, 1)
	assert.Equal(t, "some text", pieces[0])
}

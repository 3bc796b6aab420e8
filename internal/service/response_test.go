package service

import (
	"testing"

	"github.com/legalmind/legalmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextChunk(id, docID string) *domain.Chunk {
	return &domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Text:       "The notice period is thirty days.",
		Metadata:   domain.DocumentMetadata{DocumentID: docID, Filename: "msa.pdf"},
	}
}

func TestExtractCitations_ResolvesMarkerAgainstContext(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1")}

	citations := ExtractCitations("Thirty days. [SOURCE: d1:c1]", chunks)

	require.Len(t, citations, 1)
	assert.Equal(t, "d1", citations[0].DocumentID)
	assert.Equal(t, "c1", citations[0].ChunkID)
	assert.Equal(t, "msa.pdf", citations[0].Filename)
	assert.Contains(t, citations[0].Excerpt, "notice period")
}

func TestExtractCitations_DedupKeepsFirstOccurrence(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1"), contextChunk("c2", "d1")}

	answer := "First. [SOURCE: d1:c1] Second. [SOURCE: d1:c2] Again. [SOURCE: d1:c1]"
	citations := ExtractCitations(answer, chunks)

	require.Len(t, citations, 2)
	assert.Equal(t, "c1", citations[0].ChunkID)
	assert.Equal(t, "c2", citations[1].ChunkID)
}

func TestExtractCitations_DropsFabricatedChunkIDs(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1")}

	citations := ExtractCitations("Real. [SOURCE: d1:c1] Fabricated. [SOURCE: d1:deadbeef]", chunks)

	require.Len(t, citations, 1)
	assert.Equal(t, "c1", citations[0].ChunkID)
}

func TestExtractCitations_CaseInsensitiveMarker(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1")}

	citations := ExtractCitations("Thirty days. [source: d1:c1]", chunks)

	assert.Len(t, citations, 1)
}

func TestExtractCitations_NoMarkers(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1")}

	assert.Empty(t, ExtractCitations("No markers here.", chunks))
}

func TestBuildQueryResponse_SubstantiveAnswerWithoutCitationsCitesAllChunks(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1"), contextChunk("c2", "d2")}

	resp := BuildQueryResponse("q", "The notice period is thirty days.", chunks, 12.5, false)

	require.Len(t, resp.Citations, 2)
	assert.Equal(t, "c1", resp.Citations[0].ChunkID)
	assert.Equal(t, "c2", resp.Citations[1].ChunkID)
	assert.Equal(t, 12.5, resp.LatencyMS)
	assert.False(t, resp.Cached)
}

func TestBuildQueryResponse_FallbackAnswerCitesNothing(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1")}

	resp := BuildQueryResponse("q", FallbackAnswer, chunks, 3.0, false)

	assert.Empty(t, resp.Citations)
}

func TestBuildQueryResponse_ValidCitationsPreserved(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1"), contextChunk("c2", "d2")}

	resp := BuildQueryResponse("q", "Thirty days. [SOURCE: d1:c1]", chunks, 3.0, false)

	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "c1", resp.Citations[0].ChunkID)
}

func TestIsFallbackAnswer(t *testing.T) {
	assert.True(t, IsFallbackAnswer(FallbackAnswer))
	assert.True(t, IsFallbackAnswer(NoResultsAnswer))
	assert.True(t, IsFallbackAnswer("Well, I don't know about that."))
	assert.False(t, IsFallbackAnswer("The notice period is thirty days."))
}

func TestBuildUserMessage_LabelsEveryChunk(t *testing.T) {
	chunks := []*domain.Chunk{contextChunk("c1", "d1"), contextChunk("c2", "d2")}

	msg := BuildUserMessage("What is the notice period?", chunks)

	assert.Contains(t, msg, "[DOCUMENT: msa.pdf | ID: d1 | CHUNK: c1]")
	assert.Contains(t, msg, "[DOCUMENT: msa.pdf | ID: d2 | CHUNK: c2]")
	assert.Contains(t, msg, "USER QUESTION:\nWhat is the notice period?")
}

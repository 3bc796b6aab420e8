package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/legalmind/legalmind/internal/domain"
	"go.uber.org/zap"
)

// CreativeJSONClient is the varied-output JSON completion surface used for
// question synthesis.
type CreativeJSONClient interface {
	CompleteCreativeJSON(ctx context.Context, user string) (string, error)
}

// ChunkSampler returns a sample of stored chunks for dataset generation.
type ChunkSampler interface {
	SampleChunks(ctx context.Context, limit int) ([]*domain.Chunk, error)
}

const singleHopPrompt = `You are a demanding litigation attorney reviewing an internal legal document.
Your task: generate ONE challenging question that:
  1. Can be answered using ONLY the text below
  2. Requires precise reading (not just keyword search)
  3. Asks about a specific clause, date, party obligation, or dollar amount
  4. Would expose a retrieval system's weaknesses if it fetched the wrong chunk

Document: %s
Text excerpt:
"""
%s
"""

Respond in JSON:
{
  "question": "<your question>",
  "reference_context": "<the exact quote from the text that answers it, verbatim>",
  "expected_answer": "<a concise, precise answer citing the specific clause/number/date>"
}
`

const multiHopPrompt = `You are a senior partner at a law firm analyzing two internal documents.
Your task: generate ONE complex multi-hop question that:
  1. REQUIRES reading BOTH documents to answer
  2. Involves reasoning about how a clause in one document interacts with a clause in the other
  3. Cannot be answered from either document alone
  4. Tests the system's ability to synthesize information across documents

Document A: %s
Excerpt A:
"""
%s
"""

Document B: %s
Excerpt B:
"""
%s
"""

Respond in JSON:
{
  "question": "<your multi-hop question>",
  "reference_context": "<combined relevant text from both excerpts>",
  "expected_answer": "<precise answer citing both documents>"
}
`

const (
	// minSingleHopChunkChars skips header-only chunks that cannot anchor a
	// substantive question.
	minSingleHopChunkChars = 200
	singleHopExcerptChars  = 1500
	multiHopExcerptChars   = 800
	sampleChunkLimit       = 200
)

// AdversarialLawyer synthesizes the golden evaluation dataset from stored
// chunks: roughly 70% single-hop questions about one chunk and 30% multi-hop
// questions spanning two documents. Adversarial because easy questions do not
// expose retrieval weaknesses.
type AdversarialLawyer struct {
	llm     CreativeJSONClient
	sampler ChunkSampler
	rng     *rand.Rand
	logger  *zap.Logger
}

func NewAdversarialLawyer(llm CreativeJSONClient, sampler ChunkSampler, seed int64, logger *zap.Logger) *AdversarialLawyer {
	return &AdversarialLawyer{
		llm:     llm,
		sampler: sampler,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
	}
}

type generatedQuestion struct {
	Question         string `json:"question"`
	ReferenceContext string `json:"reference_context"`
	ExpectedAnswer   string `json:"expected_answer"`
}

// Generate produces a dataset of at least minQuestions entries, corpus
// permitting. Individual generation failures are logged and skipped; the
// agent oversamples to compensate.
func (a *AdversarialLawyer) Generate(ctx context.Context, minQuestions int) ([]domain.GoldenDatasetEntry, error) {
	a.logger.Info("golden_dataset_generation_started", zap.Int("target", minQuestions))

	chunks, err := a.sampler.SampleChunks(ctx, sampleChunkLimit)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "chunk sampling failed", err)
	}
	if len(chunks) == 0 {
		a.logger.Warn("no_chunks_available_for_dataset")
		return nil, nil
	}

	singleHopTarget := minQuestions * 7 / 10
	multiHopTarget := minQuestions - singleHopTarget

	dataset := make([]domain.GoldenDatasetEntry, 0, minQuestions)

	shuffled := make([]*domain.Chunk, len(chunks))
	copy(shuffled, chunks)
	a.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, chunk := range shuffled {
		if len(dataset) >= singleHopTarget {
			break
		}
		entry, ok := a.generateSingleHop(ctx, chunk)
		if ok {
			dataset = append(dataset, entry)
		}
	}

	byDocument := make(map[string][]*domain.Chunk)
	for _, chunk := range chunks {
		byDocument[chunk.DocumentID] = append(byDocument[chunk.DocumentID], chunk)
	}
	docIDs := make([]string, 0, len(byDocument))
	for id := range byDocument {
		docIDs = append(docIDs, id)
	}

	multiHopGenerated := 0
	for attempt := 0; attempt < multiHopTarget*3; attempt++ {
		if multiHopGenerated >= multiHopTarget || len(docIDs) < 2 {
			break
		}
		i := a.rng.Intn(len(docIDs))
		j := a.rng.Intn(len(docIDs) - 1)
		if j >= i {
			j++
		}
		chunkA := byDocument[docIDs[i]][a.rng.Intn(len(byDocument[docIDs[i]]))]
		chunkB := byDocument[docIDs[j]][a.rng.Intn(len(byDocument[docIDs[j]]))]

		entry, ok := a.generateMultiHop(ctx, chunkA, chunkB)
		if ok {
			dataset = append(dataset, entry)
			multiHopGenerated++
		}
	}

	a.logger.Info("golden_dataset_generation_complete",
		zap.Int("total", len(dataset)),
		zap.Int("multi_hop", multiHopGenerated),
	)
	return dataset, nil
}

func (a *AdversarialLawyer) generateSingleHop(ctx context.Context, chunk *domain.Chunk) (domain.GoldenDatasetEntry, bool) {
	if len(chunk.Text) < minSingleHopChunkChars {
		return domain.GoldenDatasetEntry{}, false
	}

	prompt := fmt.Sprintf(singleHopPrompt, chunk.Metadata.Filename, clip(chunk.Text, singleHopExcerptChars))
	generated, ok := a.complete(ctx, prompt, "single_hop_generation_failed")
	if !ok {
		return domain.GoldenDatasetEntry{}, false
	}

	return domain.GoldenDatasetEntry{
		EntryID:           uuid.NewString(),
		Question:          generated.Question,
		ReferenceContext:  generated.ReferenceContext,
		ExpectedAnswer:    generated.ExpectedAnswer,
		SourceDocumentIDs: []string{chunk.DocumentID},
		IsMultiHop:        false,
	}, true
}

func (a *AdversarialLawyer) generateMultiHop(ctx context.Context, chunkA, chunkB *domain.Chunk) (domain.GoldenDatasetEntry, bool) {
	if chunkA.DocumentID == chunkB.DocumentID {
		return domain.GoldenDatasetEntry{}, false
	}

	prompt := fmt.Sprintf(multiHopPrompt,
		chunkA.Metadata.Filename, clip(chunkA.Text, multiHopExcerptChars),
		chunkB.Metadata.Filename, clip(chunkB.Text, multiHopExcerptChars),
	)
	generated, ok := a.complete(ctx, prompt, "multi_hop_generation_failed")
	if !ok {
		return domain.GoldenDatasetEntry{}, false
	}

	return domain.GoldenDatasetEntry{
		EntryID:           uuid.NewString(),
		Question:          generated.Question,
		ReferenceContext:  generated.ReferenceContext,
		ExpectedAnswer:    generated.ExpectedAnswer,
		SourceDocumentIDs: []string{chunkA.DocumentID, chunkB.DocumentID},
		IsMultiHop:        true,
	}, true
}

func (a *AdversarialLawyer) complete(ctx context.Context, prompt, failureEvent string) (generatedQuestion, bool) {
	raw, err := a.llm.CompleteCreativeJSON(ctx, prompt)
	if err != nil {
		a.logger.Warn(failureEvent, zap.Error(err))
		return generatedQuestion{}, false
	}
	var generated generatedQuestion
	if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		a.logger.Warn(failureEvent, zap.Error(err))
		return generatedQuestion{}, false
	}
	if generated.Question == "" || generated.ExpectedAnswer == "" {
		return generatedQuestion{}, false
	}
	return generated, true
}

// SaveDataset persists a golden dataset as indented JSON.
func SaveDataset(dataset []domain.GoldenDatasetEntry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDataset reads a previously saved golden dataset.
func LoadDataset(path string) ([]domain.GoldenDatasetEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dataset []domain.GoldenDatasetEntry
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, err
	}
	return dataset, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legalmind/legalmind/internal/agents"
	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/repository"
	"github.com/legalmind/legalmind/internal/service"
)

// EvalCmd returns the eval command
func EvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the query pipeline against a golden dataset",
		Long:  "Run every dataset question through the pipeline and score the answers for faithfulness and citation integrity",
		RunE:  runEval,
	}

	cmd.Flags().String("dataset", "golden_dataset.json", "Path to the golden dataset file")
	cmd.Flags().Int("limit", 0, "Evaluate at most N entries (0 = all)")

	return cmd
}

// nopCache disables the semantic cache during evaluation runs: scores must
// reflect the live pipeline, not earlier cached answers.
type nopCache struct{}

func (nopCache) Get(context.Context, []float32) (*domain.QueryResponse, bool) { return nil, false }
func (nopCache) Set(context.Context, []float32, *domain.QueryResponse) error { return nil }

func runEval(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	datasetPath, _ := cmd.Flags().GetString("dataset")
	limit, _ := cmd.Flags().GetInt("limit")

	dataset, err := agents.LoadDataset(datasetPath)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if limit > 0 && limit < len(dataset) {
		dataset = dataset[:limit]
	}
	if len(dataset) == 0 {
		return fmt.Errorf("dataset %s is empty", datasetPath)
	}

	pool, err := connectPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	llm, err := openAIClient(cfg)
	if err != nil {
		return err
	}

	reranker, err := buildReranker(cfg, logger)
	if err != nil {
		return err
	}

	chunkRepo := repository.NewChunkRepository(pool)
	dense := service.NewVectorRetriever(chunkRepo, llm, cfg.RetrievalTopK)
	keyword := service.NewKeywordRetriever(chunkRepo, cfg.RetrievalTopK)
	retriever := service.NewHybridRetriever(dense, keyword, cfg.RetrievalTopK, logger)
	generator := service.NewGroundedGenerator(llm, logger)
	querySvc := service.NewQueryService(llm, nopCache{}, retriever, reranker, generator, cfg.RerankTopN, logger)

	auditor := agents.NewComplianceAuditor(llm, cfg.EvalFaithfulnessThreshold, logger)
	shepardizer := agents.NewShepardizer(chunkRepo, cfg.EvalContextPrecisionThreshold, logger)

	var (
		faithfulnessSum float64
		precisionSum    float64
		failed          int
	)

	fmt.Printf("%-60s %12s %10s %6s\n", "QUESTION", "FAITHFULNESS", "PRECISION", "PASS")
	for _, entry := range dataset {
		resp, err := querySvc.Query(ctx, &domain.QueryRequest{Query: entry.Question})
		if err != nil {
			return fmt.Errorf("query failed for %q: %w", entry.Question, err)
		}

		chunks, err := citedChunks(ctx, chunkRepo, resp)
		if err != nil {
			return fmt.Errorf("failed to load cited chunks: %w", err)
		}

		audit, err := auditor.Evaluate(ctx, entry.Question, resp.Answer, chunks)
		if err != nil {
			return fmt.Errorf("audit failed for %q: %w", entry.Question, err)
		}

		citation, err := shepardizer.Validate(ctx, resp)
		if err != nil {
			return fmt.Errorf("citation check failed for %q: %w", entry.Question, err)
		}

		faithfulness := *audit.FaithfulnessScore
		precision := *citation.ContextPrecisionScore
		passed := audit.Passed && citation.Passed

		faithfulnessSum += faithfulness
		precisionSum += precision
		if !passed {
			failed++
		}

		fmt.Printf("%-60s %12.2f %10.2f %6v\n", clipQuestion(entry.Question, 60), faithfulness, precision, passed)
	}

	n := float64(len(dataset))
	meanFaithfulness := faithfulnessSum / n
	meanPrecision := precisionSum / n

	fmt.Println()
	fmt.Printf("entries: %d  failed: %d\n", len(dataset), failed)
	fmt.Printf("mean faithfulness: %.3f (threshold %.2f)\n", meanFaithfulness, cfg.EvalFaithfulnessThreshold)
	fmt.Printf("mean context precision: %.3f (threshold %.2f)\n", meanPrecision, cfg.EvalContextPrecisionThreshold)

	if meanFaithfulness < cfg.EvalFaithfulnessThreshold {
		return fmt.Errorf("mean faithfulness %.3f below threshold %.2f", meanFaithfulness, cfg.EvalFaithfulnessThreshold)
	}
	if meanPrecision < cfg.EvalContextPrecisionThreshold {
		return fmt.Errorf("mean context precision %.3f below threshold %.2f", meanPrecision, cfg.EvalContextPrecisionThreshold)
	}

	return nil
}

// citedChunks loads the chunks the answer cited, so the auditor verifies
// claims against the same context the reader is pointed at.
func citedChunks(ctx context.Context, repo *repository.ChunkRepository, resp *domain.QueryResponse) ([]*domain.Chunk, error) {
	if len(resp.Citations) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(resp.Citations))
	for _, c := range resp.Citations {
		ids = append(ids, c.ChunkID)
	}
	return repo.GetByIDs(ctx, ids)
}

func clipQuestion(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

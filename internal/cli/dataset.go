package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/legalmind/legalmind/internal/agents"
	"github.com/legalmind/legalmind/internal/repository"
)

// DatasetCmd returns the dataset command
func DatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Generate a golden evaluation dataset from stored documents",
		Long:  "Generate adversarial single-hop and multi-hop questions from stored chunks and write them as JSON",
		RunE:  runDataset,
	}

	cmd.Flags().String("out", "golden_dataset.json", "Output path for the dataset file")
	cmd.Flags().Int("count", 50, "Minimum number of questions to generate")
	cmd.Flags().Int64("seed", 0, "Random seed for chunk sampling (0 = time-based)")

	return cmd
}

func runDataset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	outPath, _ := cmd.Flags().GetString("out")
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
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

	chunkRepo := repository.NewChunkRepository(pool)
	lawyer := agents.NewAdversarialLawyer(llm, chunkRepo, seed, logger)

	dataset, err := lawyer.Generate(ctx, count)
	if err != nil {
		return fmt.Errorf("failed to generate dataset: %w", err)
	}

	if err := agents.SaveDataset(dataset, outPath); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	fmt.Printf("wrote %d questions to %s\n", len(dataset), outPath)
	return nil
}

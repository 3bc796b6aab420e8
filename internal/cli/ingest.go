package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/legalmind/legalmind/internal/cache"
	"github.com/legalmind/legalmind/internal/repository"
	"github.com/legalmind/legalmind/internal/service"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>...",
		Short: "Ingest PDF documents into the knowledge base",
		Long:  "Run the ingestion pipeline (parse, enrich, chunk, embed, store) for each file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := connectPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	llm, err := openAIClient(cfg)
	if err != nil {
		return err
	}

	semanticCache, err := cache.NewSemanticCacheFromURL(
		cfg.RedisURL,
		cfg.CacheSimilarityThreshold,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer semanticCache.Close()

	chunkRepo := repository.NewChunkRepository(pool)
	enricher := service.NewEnricher(llm, logger)
	chunkCfg := service.DefaultChunkConfig()
	chunkCfg.MaxChars = cfg.ChunkMaxChars
	chunkCfg.Overlap = cfg.ChunkOverlap
	ingestSvc := service.NewIngestService(chunkRepo, llm, enricher, semanticCache, nil, chunkCfg, logger)

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		result, err := ingestSvc.IngestBytes(ctx, content, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		fmt.Printf("ingested %s: %d chunks (document %s)\n", result.Filename, result.ChunksStored, result.DocumentID)
	}

	return nil
}

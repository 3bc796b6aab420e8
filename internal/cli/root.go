// Package cli implements the legalmindd commands: serve, ingest, eval and
// dataset. Each command wires its own dependency graph from configuration.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/legalmind/legalmind/internal/config"
	"github.com/legalmind/legalmind/internal/database"
	"github.com/legalmind/legalmind/internal/logging"
	"github.com/legalmind/legalmind/internal/openai"
	"github.com/legalmind/legalmind/internal/service"
)

// setup loads configuration and constructs the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return cfg, logger, nil
}

func connectPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func openAIClient(cfg *config.Config) (*openai.Client, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("LEGALMIND_OPENAI_API_KEY is required")
	}
	return openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: goopenai.EmbeddingModel(cfg.OpenAIEmbeddingModel),
		ChatModel:      cfg.OpenAIChatModel,
		JudgeModel:     cfg.OpenAIJudgeModel,
	}), nil
}

// buildReranker selects the re-ranking backend from configuration. This is a
// static deployment decision, never a per-query branch.
func buildReranker(cfg *config.Config, logger *zap.Logger) (service.Reranker, error) {
	switch cfg.RerankerType {
	case "cohere":
		if !cfg.HasCohere() {
			return nil, fmt.Errorf("LEGALMIND_COHERE_API_KEY is required when RERANKER_TYPE=cohere")
		}
		api := service.NewCohereRerankClient(cfg.CohereAPIKey, cfg.CohereRerankModel)
		return service.NewCrossEncoderReranker(api, logger), nil
	case "local":
		api := service.NewLocalRerankClient(cfg.LocalRerankURL)
		return service.NewCrossEncoderReranker(api, logger), nil
	case "none":
		return service.PassthroughReranker{}, nil
	default:
		return nil, fmt.Errorf("unknown RERANKER_TYPE %q (expected cohere, local or none)", cfg.RerankerType)
	}
}

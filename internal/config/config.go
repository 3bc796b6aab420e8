package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-large"`
	OpenAIChatModel      string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o"`
	OpenAIJudgeModel     string `envconfig:"OPENAI_JUDGE_MODEL" default:"gpt-4o-mini"`

	// Reranker backend: "cohere" | "local" | "none". A static configuration
	// decision, never a runtime branch on query content.
	RerankerType      string `envconfig:"RERANKER_TYPE" default:"cohere"`
	CohereAPIKey      string `envconfig:"COHERE_API_KEY"`
	CohereRerankModel string `envconfig:"COHERE_RERANK_MODEL" default:"rerank-v3.5"`
	LocalRerankURL    string `envconfig:"LOCAL_RERANK_URL" default:"http://localhost:8081"`

	RetrievalTopK int `envconfig:"RETRIEVAL_TOP_K" default:"30"`
	RerankTopN    int `envconfig:"RERANK_TOP_N" default:"7"`

	CacheTTLSeconds          int     `envconfig:"CACHE_TTL_SECONDS" default:"86400"`
	CacheSimilarityThreshold float64 `envconfig:"CACHE_SIMILARITY_THRESHOLD" default:"0.95"`

	ChunkMaxChars int `envconfig:"CHUNK_MAX_CHARS" default:"2000"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"200"`

	EvalFaithfulnessThreshold     float64 `envconfig:"EVAL_FAITHFULNESS_THRESHOLD" default:"0.9"`
	EvalRelevanceThreshold        float64 `envconfig:"EVAL_RELEVANCE_THRESHOLD" default:"0.8"`
	EvalContextPrecisionThreshold float64 `envconfig:"EVAL_CONTEXT_PRECISION_THRESHOLD" default:"0.8"`

	// Optional archive for original uploaded PDFs.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"legalmind-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LEGALMIND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasCohere() bool {
	return c.CohereAPIKey != ""
}

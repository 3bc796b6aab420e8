package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.LargeEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from text-embedding-3-large
	DefaultEmbeddingDimensions = 3072
	// DefaultChatModel is the model used for grounded answer generation
	DefaultChatModel = openai.GPT4o
	// DefaultJudgeModel is the cheaper model used for claim extraction and verification
	DefaultJudgeModel = openai.GPT4oMini

	embeddingTimeout  = 30 * time.Second
	completionTimeout = 120 * time.Second
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// zero-temperature decoding: reproducibility is a correctness requirement for
// legal answers. go-openai drops a literal 0 through omitempty, so the
// smallest nonzero float stands in for it.
const deterministicTemperature = math.SmallestNonzeroFloat32

// creativeTemperature is used only for synthetic dataset generation, where
// varied questions are the point.
const creativeTemperature = 0.7

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Model  string
	System string
	User   string
	// Temperature of 0 means deterministic decoding.
	Temperature float32
	JSONMode    bool
}

// API defines the calls the client makes against the OpenAI API
type API interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	CreateCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

// Client wraps the OpenAI API client with the models and timeouts the
// pipeline uses.
type Client struct {
	api        API
	dimensions int
	chatModel  string
	judgeModel string
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// CreateCompletion calls the OpenAI chat completions API
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	temperature := req.Temperature
	if temperature == 0 {
		temperature = deterministicTemperature
	}
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
	JudgeModel          string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	judgeModel := cfg.JudgeModel
	if judgeModel == "" {
		judgeModel = DefaultJudgeModel
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel),
		dimensions: dimensions,
		chatModel:  chatModel,
		judgeModel: judgeModel,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// GenerateEmbeddings generates embeddings for a batch of texts
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}
	for _, t := range texts {
		if t == "" {
			return nil, ErrEmptyText
		}
	}

	ctx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	defer cancel()

	embeddings, err := c.api.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	for _, e := range embeddings {
		if len(e) != c.dimensions {
			return nil, ErrWrongDimensions
		}
	}

	return embeddings, nil
}

// Complete generates a chat completion with the configured chat model.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	answer, err := c.api.CreateCompletion(ctx, CompletionRequest{
		Model:  c.chatModel,
		System: system,
		User:   user,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	return answer, nil
}

// CompleteJSON generates a JSON-mode completion with the judge model. Used by
// the verification agents, which need machine-parseable output.
func (c *Client) CompleteJSON(ctx context.Context, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	answer, err := c.api.CreateCompletion(ctx, CompletionRequest{
		Model:    c.judgeModel,
		User:     user,
		JSONMode: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create judge completion: %w", err)
	}
	return answer, nil
}

// CompleteCreativeJSON generates a JSON-mode completion with the chat model
// at a creative temperature. Used for synthetic dataset generation only.
func (c *Client) CompleteCreativeJSON(ctx context.Context, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	answer, err := c.api.CreateCompletion(ctx, CompletionRequest{
		Model:       c.chatModel,
		User:        user,
		Temperature: creativeTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	return answer, nil
}

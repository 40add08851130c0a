package provider

import (
	"context"
	"errors"

	"docchat/config"
	openai_provider "docchat/provider/openai"
)

// Client represents different model providers
type Client string

const (
	OpenAI Client = "openai"
)

// Embedder maps a batch of texts to fixed-length vectors, same order as input.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator maps a composed prompt to a natural-language answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider is the interface that all model implementations must satisfy
type Provider interface {
	Embedder
	Generator
}

// NewProvider creates a new model client based on the provided configuration
func NewProvider(client Client, cfg config.OpenAIConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("providers.openai.api_key not set")
		}
		return openai_provider.NewOpenAIClient(
			cfg.APIKey,
			cfg.CompletionModel,
			cfg.EmbeddingModel,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported model provider")
	}
}

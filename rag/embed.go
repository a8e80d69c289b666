package rag

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/spqr-86/studypal/rag/providers"
)

// EmbedderConfig holds the configuration for creating an Embedder
type EmbedderConfig struct {
	Provider string
	Options  map[string]interface{}
}

// EmbedderOption is a function type for configuring the EmbedderConfig
type EmbedderOption func(*EmbedderConfig)

// SetProvider sets the provider for the Embedder
func SetProvider(provider string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Provider = provider
	}
}

// SetModel sets the model for the Embedder
func SetModel(model string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["model"] = model
	}
}

// SetAPIKey sets the API key for the Embedder
func SetAPIKey(apiKey string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["api_key"] = apiKey
	}
}

// SetOption sets a custom option for the Embedder
func SetOption(key string, value interface{}) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options[key] = value
	}
}

// NewEmbedder creates a new Embedder instance based on the provided options
func NewEmbedder(opts ...EmbedderOption) (providers.Embedder, error) {
	config := &EmbedderConfig{
		Options: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Provider == "" {
		return nil, fmt.Errorf("provider must be specified")
	}
	factory, err := providers.GetEmbedderFactory(config.Provider)
	if err != nil {
		return nil, err
	}
	return factory(config.Options)
}

// EmbeddedChunk represents a chunk of text with its embeddings and metadata
type EmbeddedChunk struct {
	Text       string                 `json:"text"`
	Embeddings map[string][]float64   `json:"embeddings"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// EmbeddingService embeds chunk batches through a single embedder. An
// optional rate limiter throttles requests to stay inside provider quotas.
type EmbeddingService struct {
	embedder providers.Embedder
	limiter  *rate.Limiter
}

// EmbeddingServiceOption configures an EmbeddingService.
type EmbeddingServiceOption func(*EmbeddingService)

// WithRateLimit throttles embedding requests to requestsPerSecond with the
// given burst size.
func WithRateLimit(requestsPerSecond float64, burst int) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewEmbeddingService creates a new embedding service with a single embedder
func NewEmbeddingService(embedder providers.Embedder, opts ...EmbeddingServiceOption) *EmbeddingService {
	s := &EmbeddingService{embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EmbedChunks embeds a slice of chunks. Chunk positions, token sizes, and
// timestamps are carried into each embedded chunk's metadata.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, chunks []Chunk) ([]EmbeddedChunk, error) {
	embeddedChunks := make([]EmbeddedChunk, 0, len(chunks))

	GlobalLogger.Debug("Embedding chunks", "count", len(chunks))

	for i, chunk := range chunks {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		embedding, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("error embedding chunk %d: %w", i+1, err)
		}

		embeddedChunk := EmbeddedChunk{
			Text: chunk.Text,
			Embeddings: map[string][]float64{
				"default": embedding,
			},
			Metadata: map[string]interface{}{
				"token_size":  chunk.TokenSize,
				"chunk_index": i,
				"start_time":  chunk.StartTime,
			},
		}
		embeddedChunks = append(embeddedChunks, embeddedChunk)

		GlobalLogger.Debug("Embedded chunk", "index", i, "tokens", chunk.TokenSize, "dim", len(embedding))
	}

	return embeddedChunks, nil
}

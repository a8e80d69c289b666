package studypal

import (
	"github.com/spqr-86/studypal/rag"
	"github.com/spqr-86/studypal/rag/providers"
)

// EmbeddedChunk represents a chunk of text with its embeddings and metadata.
// Transcript chunks carry their start timestamp in the metadata so answers
// can cite the moment in the video.
type EmbeddedChunk = rag.EmbeddedChunk

// EmbedderOption is a function type for configuring the Embedder.
type EmbedderOption = rag.EmbedderOption

// SetEmbedderProvider sets the provider for the Embedder.
// Supported providers:
//   - "openai": OpenAI embedding models (text-embedding-3-small by default)
//   - "huggingface": Hugging Face Inference API feature-extraction models
func SetEmbedderProvider(provider string) EmbedderOption {
	return rag.SetProvider(provider)
}

// SetEmbedderModel sets the specific model to use for embedding.
func SetEmbedderModel(model string) EmbedderOption {
	return rag.SetModel(model)
}

// SetEmbedderAPIKey sets the authentication key for the embedding service.
func SetEmbedderAPIKey(apiKey string) EmbedderOption {
	return rag.SetAPIKey(apiKey)
}

// SetOption sets a custom provider-specific option for the Embedder.
func SetOption(key string, value interface{}) EmbedderOption {
	return rag.SetOption(key, value)
}

// Embedder interface defines the contract for embedding implementations.
type Embedder = providers.Embedder

// NewEmbedder creates a new Embedder instance based on the provided options.
//
// Example:
//
//	embedder, err := studypal.NewEmbedder(
//	    studypal.SetEmbedderProvider("openai"),
//	    studypal.SetEmbedderAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
func NewEmbedder(opts ...EmbedderOption) (Embedder, error) {
	return rag.NewEmbedder(opts...)
}

// EmbeddingService embeds chunk batches and attaches chunk metadata.
type EmbeddingService = rag.EmbeddingService

// EmbeddingServiceOption configures an EmbeddingService.
type EmbeddingServiceOption = rag.EmbeddingServiceOption

// WithEmbeddingRateLimit throttles embedding requests, which matters for
// free-tier Hugging Face keys.
func WithEmbeddingRateLimit(requestsPerSecond float64, burst int) EmbeddingServiceOption {
	return rag.WithRateLimit(requestsPerSecond, burst)
}

// NewEmbeddingService creates a new embedding service around an embedder.
func NewEmbeddingService(embedder Embedder, opts ...EmbeddingServiceOption) *EmbeddingService {
	return rag.NewEmbeddingService(embedder, opts...)
}

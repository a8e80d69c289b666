package studypal

import (
	"github.com/spqr-86/studypal/rag"
)

// Chunk represents a piece of text with associated metadata including its
// content, token count, and, for transcript chunks, the timestamp of the
// first subtitle it contains.
type Chunk = rag.Chunk

// Chunker defines the interface for text chunking implementations.
type Chunker interface {
	// Chunk splits the input text into a slice of Chunks according to the
	// implementation's strategy.
	Chunk(text string) []Chunk
}

// TokenCounter defines the interface for counting tokens in text.
type TokenCounter interface {
	// Count returns the number of tokens in the given text according to
	// the implementation's tokenization strategy.
	Count(text string) int
}

// ChunkerOption is a function type for configuring Chunker instances.
type ChunkerOption = rag.TextChunkerOption

// NewChunker creates a new text Chunker with the given options.
// Defaults: 1000 token chunks, 100 token overlap, word-based counting,
// basic sentence splitting.
func NewChunker(options ...ChunkerOption) (Chunker, error) {
	return rag.NewTextChunker(options...)
}

// ChunkSize sets the target size of each chunk in tokens.
func ChunkSize(size int) ChunkerOption {
	return func(tc *rag.TextChunker) {
		tc.ChunkSize = size
	}
}

// ChunkOverlap sets the number of tokens that should overlap between
// adjacent chunks. Overlap maintains context across chunk boundaries.
func ChunkOverlap(overlap int) ChunkerOption {
	return func(tc *rag.TextChunker) {
		tc.ChunkOverlap = overlap
	}
}

// WithTokenCounter sets a custom token counter implementation.
func WithTokenCounter(counter TokenCounter) ChunkerOption {
	return func(tc *rag.TextChunker) {
		tc.TokenCounter = counter
	}
}

// WithSentenceSplitter sets a custom sentence splitter function.
func WithSentenceSplitter(splitter func(string) []string) ChunkerOption {
	return func(tc *rag.TextChunker) {
		tc.SentenceSplitter = splitter
	}
}

// DefaultSentenceSplitter returns the basic sentence splitter function
// that splits text on common punctuation marks (., !, ?).
func DefaultSentenceSplitter() func(string) []string {
	return rag.DefaultSentenceSplitter
}

// SmartSentenceSplitter returns a sentence splitter that keeps punctuation
// and handles quoted passages.
func SmartSentenceSplitter() func(string) []string {
	return rag.SmartSentenceSplitter
}

// NewDefaultTokenCounter creates a simple word-based token counter.
func NewDefaultTokenCounter() TokenCounter {
	return &rag.DefaultTokenCounter{}
}

// NewTikTokenCounter creates a token counter using the tiktoken library,
// which implements the same tokenization used by OpenAI models
// (e.g. "cl100k_base" for GPT-4 class models).
func NewTikTokenCounter(encoding string) (TokenCounter, error) {
	return rag.NewTikTokenCounter(encoding)
}

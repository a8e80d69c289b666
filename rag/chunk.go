package rag

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk represents a piece of text with associated metadata for tracking its
// position and size within the original document.
type Chunk struct {
	// Text contains the actual content of the chunk
	Text string
	// TokenSize represents the number of tokens in this chunk
	TokenSize int
	// StartSentence is the index of the first sentence in this chunk
	StartSentence int
	// EndSentence is the index of the last sentence in this chunk (exclusive)
	EndSentence int
	// StartTime is the timestamp in seconds of the first subtitle segment that
	// contributed to this chunk. It is zero for chunks produced from plain text.
	StartTime float64
}

// Chunker defines the interface for text chunking implementations.
// Different implementations can provide various strategies for splitting text
// while maintaining context and semantic meaning.
type Chunker interface {
	// Chunk splits the input text into a slice of Chunks according to the
	// implementation's strategy.
	Chunk(text string) []Chunk
}

// TokenCounter defines the interface for counting tokens in a string.
// This abstraction allows for different tokenization strategies (e.g., words, subwords).
type TokenCounter interface {
	// Count returns the number of tokens in the given text according to the
	// implementation's tokenization strategy.
	Count(text string) int
}

// TextChunker provides an implementation of the Chunker interface with
// support for overlapping chunks and custom tokenization.
type TextChunker struct {
	// ChunkSize is the target size of each chunk in tokens
	ChunkSize int
	// ChunkOverlap is the number of tokens that should overlap between adjacent chunks
	ChunkOverlap int
	// TokenCounter is used to count tokens in text segments
	TokenCounter TokenCounter
	// SentenceSplitter is a function that splits text into sentences
	SentenceSplitter func(string) []string
}

// NewTextChunker creates a new TextChunker with the given options.
// Defaults: ChunkSize 1000 tokens, ChunkOverlap 100 tokens, word-based token
// counting, and DefaultSentenceSplitter.
func NewTextChunker(options ...TextChunkerOption) (*TextChunker, error) {
	tc := &TextChunker{
		ChunkSize:        1000,
		ChunkOverlap:     100,
		TokenCounter:     &DefaultTokenCounter{},
		SentenceSplitter: DefaultSentenceSplitter,
	}

	for _, option := range options {
		option(tc)
	}

	return tc, nil
}

// TextChunkerOption is a function type for configuring TextChunker instances.
type TextChunkerOption func(*TextChunker)

// Chunk splits the input text into chunks while preserving sentence boundaries
// and maintaining the specified overlap between chunks. The algorithm:
// 1. Splits the text into sentences
// 2. Builds chunks by adding sentences until the chunk size limit is reached
// 3. Creates overlap with the previous chunk when starting a new chunk
// 4. Tracks token counts and sentence indices for each chunk
func (tc *TextChunker) Chunk(text string) []Chunk {
	sentences := tc.SentenceSplitter(text)
	var chunks []Chunk
	var currentChunk Chunk
	currentTokenCount := 0

	for i, sentence := range sentences {
		sentenceTokenCount := tc.TokenCounter.Count(sentence)

		if currentTokenCount+sentenceTokenCount > tc.ChunkSize && currentTokenCount > 0 {
			chunks = append(chunks, currentChunk)

			overlapStart := max(currentChunk.StartSentence, currentChunk.EndSentence-tc.estimateOverlapSentences(sentences, currentChunk.EndSentence, tc.ChunkOverlap))
			currentChunk = Chunk{
				Text:          strings.Join(sentences[overlapStart:i+1], " "),
				TokenSize:     0,
				StartSentence: overlapStart,
				EndSentence:   i + 1,
			}
			currentTokenCount = 0
			for j := overlapStart; j <= i; j++ {
				currentTokenCount += tc.TokenCounter.Count(sentences[j])
			}
		} else {
			if currentTokenCount == 0 {
				currentChunk.StartSentence = i
			}
			currentChunk.Text += sentence + " "
			currentChunk.EndSentence = i + 1
			currentTokenCount += sentenceTokenCount
		}
		currentChunk.TokenSize = currentTokenCount
	}

	if currentChunk.TokenSize > 0 {
		chunks = append(chunks, currentChunk)
	}

	return chunks
}

// estimateOverlapSentences calculates how many sentences from the end of the
// previous chunk should be included in the next chunk to achieve the desired
// token overlap.
func (tc *TextChunker) estimateOverlapSentences(sentences []string, endSentence, desiredOverlap int) int {
	overlapTokens := 0
	overlapSentences := 0
	for i := endSentence - 1; i >= 0 && overlapTokens < desiredOverlap; i-- {
		overlapTokens += tc.TokenCounter.Count(sentences[i])
		overlapSentences++
	}
	return overlapSentences
}

// TimedText is a piece of text anchored to a moment in the source video.
// It is the unit the SubtitleChunker consumes.
type TimedText struct {
	Text  string
	Start float64
}

// SubtitleChunker groups subtitle segments into token-bounded chunks while
// recording each chunk's start timestamp, so retrieval results can be cited
// with the moment in the video they came from. Segment boundaries are never
// split; overlap is carried as whole segments.
type SubtitleChunker struct {
	ChunkSize    int
	ChunkOverlap int
	TokenCounter TokenCounter
}

// SubtitleChunkerOption configures a SubtitleChunker.
type SubtitleChunkerOption func(*SubtitleChunker)

// SubtitleChunkSize sets the target chunk size in tokens.
func SubtitleChunkSize(size int) SubtitleChunkerOption {
	return func(sc *SubtitleChunker) {
		sc.ChunkSize = size
	}
}

// SubtitleChunkOverlap sets the overlap carried between chunks in tokens.
func SubtitleChunkOverlap(overlap int) SubtitleChunkerOption {
	return func(sc *SubtitleChunker) {
		sc.ChunkOverlap = overlap
	}
}

// SubtitleTokenCounter replaces the token counter.
func SubtitleTokenCounter(counter TokenCounter) SubtitleChunkerOption {
	return func(sc *SubtitleChunker) {
		sc.TokenCounter = counter
	}
}

// NewSubtitleChunker creates a SubtitleChunker with the same defaults as
// NewTextChunker (1000 token chunks, 100 token overlap, word counting).
func NewSubtitleChunker(options ...SubtitleChunkerOption) (*SubtitleChunker, error) {
	sc := &SubtitleChunker{
		ChunkSize:    1000,
		ChunkOverlap: 100,
		TokenCounter: &DefaultTokenCounter{},
	}
	for _, option := range options {
		option(sc)
	}
	return sc, nil
}

// ChunkTimed splits the segments into chunks. Each chunk's StartTime is the
// timestamp of the first segment it contains.
func (sc *SubtitleChunker) ChunkTimed(segments []TimedText) []Chunk {
	var chunks []Chunk
	var buf []TimedText
	bufTokens := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		parts := make([]string, len(buf))
		for i, seg := range buf {
			parts[i] = seg.Text
		}
		chunks = append(chunks, Chunk{
			Text:      strings.Join(parts, " "),
			TokenSize: bufTokens,
			StartTime: buf[0].Start,
		})
	}

	for _, seg := range segments {
		segTokens := sc.TokenCounter.Count(seg.Text)
		if bufTokens+segTokens > sc.ChunkSize && bufTokens > 0 {
			flush()
			// carry whole trailing segments as overlap
			overlap := 0
			keep := len(buf)
			for keep > 0 && overlap < sc.ChunkOverlap {
				keep--
				overlap += sc.TokenCounter.Count(buf[keep].Text)
			}
			buf = append([]TimedText(nil), buf[keep:]...)
			bufTokens = overlap
		}
		buf = append(buf, seg)
		bufTokens += segTokens
	}
	flush()

	return chunks
}

// Chunk implements the Chunker interface by treating the whole input as a
// single untimed segment stream split on newlines.
func (sc *SubtitleChunker) Chunk(text string) []Chunk {
	lines := strings.Split(text, "\n")
	segments := make([]TimedText, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		segments = append(segments, TimedText{Text: line})
	}
	return sc.ChunkTimed(segments)
}

// DefaultSentenceSplitter provides a basic implementation for splitting text
// into sentences using common punctuation marks (., !, ?) as boundaries.
func DefaultSentenceSplitter(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

// SmartSentenceSplitter is a sentence splitter that keeps the terminating
// punctuation and does not split inside double-quoted passages.
func SmartSentenceSplitter(text string) []string {
	var sentences []string
	var currentSentence strings.Builder
	inQuote := false

	for _, r := range text {
		currentSentence.WriteRune(r)

		if r == '"' {
			inQuote = !inQuote
		}

		if (r == '.' || r == '!' || r == '?') && !inQuote {
			if len(sentences) > 0 || currentSentence.Len() > 1 {
				sentences = append(sentences, strings.TrimSpace(currentSentence.String()))
				currentSentence.Reset()
			}
		}
	}

	if currentSentence.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(currentSentence.String()))
	}

	return sentences
}

// DefaultTokenCounter provides a simple word-based token counting
// implementation. It splits text on whitespace to approximate token counts.
type DefaultTokenCounter struct{}

// Count returns the number of words in the text, using whitespace as a delimiter.
func (dtc *DefaultTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter provides accurate token counting using the tiktoken library,
// which implements the tokenization schemes used by OpenAI models.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a new TikTokenCounter using the specified
// encoding. "cl100k_base" covers GPT-4 class models.
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the exact number of tokens in the text according to the
// specified tiktoken encoding.
func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}

// max returns the larger of two integers.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

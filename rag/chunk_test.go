package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextChunkerDefaults(t *testing.T) {
	tc, err := NewTextChunker()
	require.NoError(t, err)

	assert.Equal(t, 1000, tc.ChunkSize)
	assert.Equal(t, 100, tc.ChunkOverlap)
}

func TestTextChunkerSmallInput(t *testing.T) {
	tc, err := NewTextChunker()
	require.NoError(t, err)

	chunks := tc.Chunk("One sentence. Another sentence.")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "One sentence")
}

func TestSubtitleChunkerKeepsStartTimes(t *testing.T) {
	sc, err := NewSubtitleChunker(SubtitleChunkSize(5), SubtitleChunkOverlap(0))
	require.NoError(t, err)

	segments := []TimedText{
		{Text: "hello there everyone", Start: 0},
		{Text: "today we learn", Start: 5.5},
		{Text: "about vectors", Start: 12},
	}

	chunks := sc.ChunkTimed(segments)
	require.Len(t, chunks, 2)

	assert.Equal(t, "hello there everyone", chunks[0].Text)
	assert.Equal(t, 0.0, chunks[0].StartTime)

	assert.Equal(t, "today we learn about vectors", chunks[1].Text)
	assert.Equal(t, 5.5, chunks[1].StartTime)
}

func TestSubtitleChunkerNeverSplitsSegments(t *testing.T) {
	sc, err := NewSubtitleChunker(SubtitleChunkSize(2), SubtitleChunkOverlap(0))
	require.NoError(t, err)

	chunks := sc.ChunkTimed([]TimedText{
		{Text: "one two three four five", Start: 1},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three four five", chunks[0].Text)
	assert.Equal(t, 1.0, chunks[0].StartTime)
}

func TestSubtitleChunkerOverlapCarriesSegments(t *testing.T) {
	sc, err := NewSubtitleChunker(SubtitleChunkSize(4), SubtitleChunkOverlap(2))
	require.NoError(t, err)

	segments := []TimedText{
		{Text: "alpha beta", Start: 0},
		{Text: "gamma delta", Start: 10},
		{Text: "epsilon zeta", Start: 20},
	}

	chunks := sc.ChunkTimed(segments)
	require.Len(t, chunks, 2)
	// second chunk starts with the carried segment
	assert.Equal(t, "gamma delta epsilon zeta", chunks[1].Text)
	assert.Equal(t, 10.0, chunks[1].StartTime)
}

func TestSubtitleChunkerEmptyInput(t *testing.T) {
	sc, err := NewSubtitleChunker()
	require.NoError(t, err)

	assert.Empty(t, sc.ChunkTimed(nil))
}

func TestSubtitleChunkerPlainText(t *testing.T) {
	sc, err := NewSubtitleChunker()
	require.NoError(t, err)

	chunks := sc.Chunk("first line\n\nsecond line\n")
	require.Len(t, chunks, 1)
	assert.Equal(t, "first line second line", chunks[0].Text)
}

func TestDefaultTokenCounter(t *testing.T) {
	counter := &DefaultTokenCounter{}
	assert.Equal(t, 3, counter.Count("one two three"))
	assert.Equal(t, 0, counter.Count(""))
}

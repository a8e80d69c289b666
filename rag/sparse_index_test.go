package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBM25IndexRanksKeywordMatches(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()

	require.NoError(t, idx.Add(ctx, 0, "pointers and memory allocation in go", map[string]interface{}{"time_str": "00:00:10"}))
	require.NoError(t, idx.Add(ctx, 1, "slices maps and channels", nil))
	require.NoError(t, idx.Add(ctx, 2, "garbage collection and memory management", nil))

	results, err := idx.Search(ctx, "memory pointers", 3)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, int64(0), results[0].ID)
	assert.Equal(t, "pointers and memory allocation in go", results[0].Fields["Text"])
}

func TestBM25IndexNoMatches(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	require.NoError(t, idx.Add(ctx, 0, "alpha beta", nil))

	results, err := idx.Search(ctx, "zulu", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25IndexRemove(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	require.NoError(t, idx.Add(ctx, 0, "unique keyword here", nil))
	require.NoError(t, idx.Remove(ctx, 0))

	results, err := idx.Search(ctx, "unique", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25IndexTopKLimit(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	for i := int64(0); i < 5; i++ {
		require.NoError(t, idx.Add(ctx, i, "common term document", nil))
	}

	results, err := idx.Search(ctx, "common", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRRFRerankerFusesRankings(t *testing.T) {
	ctx := context.Background()
	reranker := NewRRFReranker(60)

	dense := []SearchResult{
		{ID: 1, Score: 0.95},
		{ID: 2, Score: 0.80},
	}
	sparse := []SearchResult{
		{ID: 2, Score: 8.1},
		{ID: 3, Score: 2.0},
	}

	results, err := reranker.Rerank(ctx, "query", dense, sparse, 0.5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// doc 2 appears in both rankings and wins
	assert.Equal(t, int64(2), results[0].ID)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestRRFRerankerDefaultsInvalidK(t *testing.T) {
	reranker := NewRRFReranker(-5)
	require.NotNil(t, reranker)

	results, err := reranker.Rerank(context.Background(), "q",
		[]SearchResult{{ID: 1}}, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
}

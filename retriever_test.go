package studypal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spqr-86/studypal/rag"
	"github.com/spqr-86/studypal/youtube"
)

// fixedEmbedder returns the same vector for every input.
type fixedEmbedder struct {
	vec []float64
}

func (e fixedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.vec, nil
}

func (e fixedEmbedder) GetDimension() (int, error) {
	return len(e.vec), nil
}

func chunkRecord(id int64, text string, embedding Vector, start float64) Record {
	return Record{Fields: map[string]interface{}{
		"ID":        id,
		"Text":      text,
		"Embedding": embedding,
		"Metadata": map[string]interface{}{
			"chunk_index": int(id),
			"start_time":  start,
			"time_str":    youtube.FormatTime(start),
		},
	}}
}

func newTestStore(t *testing.T, collection string, records []Record) *VectorDB {
	t.Helper()
	ctx := context.Background()

	db, err := NewVectorDB(WithType("memory"))
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.CreateCollection(ctx, collection, Schema{Name: collection}))
	if len(records) > 0 {
		require.NoError(t, db.Insert(ctx, collection, records))
	}
	return db
}

func transcriptRecords() []Record {
	return []Record{
		chunkRecord(0, "pointers store addresses", Vector{1, 0, 0}, 12),
		chunkRecord(1, "garbage collector frees memory", Vector{0.6, 0, 0.8}, 40),
		chunkRecord(2, "channels synchronize goroutines", Vector{0, 0, 1}, 95),
	}
}

func TestNewRetrieverRequiresCollection(t *testing.T) {
	_, err := NewRetriever(nil, fixedEmbedder{vec: []float64{1}})
	require.Error(t, err)
}

func TestRetrieveDense(t *testing.T) {
	db := newTestStore(t, "video_test", transcriptRecords())

	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{1, 0, 0}},
		WithRetrieveCollection("video_test"),
		WithTopK(2),
		WithMetricType("L2"),
	)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "what are pointers")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "pointers store addresses", results[0].Content)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.Equal(t, 12.0, results[0].StartTime)
	assert.Equal(t, "00:00:12", results[0].TimeStr)
}

func TestRetrieveMinScoreFilter(t *testing.T) {
	db := newTestStore(t, "video_test", transcriptRecords())

	// the memory backend scores by L2 distance, so MinScore caps the
	// distance and the exact match at distance 0 must survive
	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{1, 0, 0}},
		WithRetrieveCollection("video_test"),
		WithTopK(3),
		WithMetricType("L2"),
		WithMinScore(1.0),
	)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "pointers store addresses", results[0].Content)
	assert.Equal(t, 0.0, results[0].Score)
	for _, res := range results {
		assert.LessOrEqual(t, res.Score, 1.0)
	}
}

func TestRetrieveHybridFusesKeywordHits(t *testing.T) {
	db := newTestStore(t, "video_test", transcriptRecords())

	// the dense query lands on the goroutines chunk, the keywords on the
	// garbage collector chunk
	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{0, 0, 1}},
		WithRetrieveCollection("video_test"),
		WithTopK(2),
		WithMetricType("L2"),
		WithHybrid(true),
	)
	require.NoError(t, err)

	chunker, err := rag.NewSubtitleChunker(
		rag.SubtitleChunkSize(3),
		rag.SubtitleChunkOverlap(0),
	)
	require.NoError(t, err)

	subs := []youtube.Subtitle{
		{Text: "pointers store addresses", Start: 12},
		{Text: "garbage collector frees memory", Start: 40},
		{Text: "channels synchronize goroutines", Start: 95},
	}
	require.NoError(t, r.IndexKeywords(context.Background(), subs, chunker))

	results, err := r.Retrieve(context.Background(), "garbage collector memory")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// present in both rankings, so it wins the fusion
	assert.Equal(t, "garbage collector frees memory", results[0].Content)
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, "00:00:40", results[0].TimeStr)
	assert.Equal(t, "channels synchronize goroutines", results[1].Content)
}

func TestRetrieveMissingCollection(t *testing.T) {
	db := newTestStore(t, "video_test", nil)

	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{1}},
		WithRetrieveCollection("missing"),
	)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector search")
}

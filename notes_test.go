package studypal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNotesIntoVideoCollection(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t, "video_test", transcriptRecords())

	dir := t.TempDir()
	path := filepath.Join(dir, "lecture-notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("my note about goroutine scheduling"), 0o644))

	err := AddNotes(ctx, path,
		WithNotesStore(db),
		WithNotesEmbedder(fixedEmbedder{vec: []float64{0, 1, 0}}),
		WithNotesCollection("video_test", true),
		WithNotesChunking(64, 8),
	)
	require.NoError(t, err)

	// retrieval over the video's collection now surfaces the note
	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{0, 1, 0}},
		WithRetrieveCollection("video_test"),
		WithTopK(1),
		WithMetricType("L2"),
	)
	require.NoError(t, err)

	results, err := r.Retrieve(ctx, "how does scheduling work")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "goroutine scheduling")
	assert.Equal(t, "lecture-notes.txt", results[0].Metadata["source"])
}

func TestAddNotesInvalidSource(t *testing.T) {
	db := newTestStore(t, "video_test", nil)

	err := AddNotes(context.Background(), "no-such-file.txt",
		WithNotesStore(db),
		WithNotesEmbedder(fixedEmbedder{vec: []float64{1}}),
		WithNotesCollection("video_test", false),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

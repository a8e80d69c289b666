package studypal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spqr-86/studypal/youtube"
)

const testVideoID = "dQw4w9WgXcQ"

// newFakeVideoServer serves a watch page, its caption track, and oEmbed
// metadata for one video, counting watch page hits.
func newFakeVideoServer(t *testing.T) (*youtube.Client, *int) {
	t.Helper()

	var watchHits int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			watchHits++
			fmt.Fprintf(w, `"captionTracks":[{"baseUrl":"%s/timedtext","languageCode":"en"}]`, server.URL)
		case "/timedtext":
			fmt.Fprint(w, `<transcript>`+
				`<text start="0" dur="4">welcome to the course</text>`+
				`<text start="4" dur="4">today we cover pointers</text>`+
				`<text start="8" dur="4">pointers store addresses</text>`+
				`<text start="12" dur="4">and that is powerful</text>`+
				`<text start="16" dur="4">see you next time</text>`+
				`</transcript>`)
		case "/oembed":
			fmt.Fprint(w, `{"title":"Go Pointers","author_name":"Go Course"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client := youtube.NewClient(
		youtube.WithBaseURLs(server.URL+"/watch", server.URL+"/oembed", server.URL+"/videos"),
		youtube.WithRateLimit(1000, 1000),
	)
	return client, &watchHits
}

func newTestLibrary(t *testing.T) (*Library, *VectorDB, *int) {
	t.Helper()
	ctx := context.Background()

	db, err := NewVectorDB(WithType("memory"))
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { db.Close() })

	client, watchHits := newFakeVideoServer(t)
	library, err := NewLibrary(db, NewEmbeddingService(fixedEmbedder{vec: []float64{0.1, 0.2, 0.3}}),
		WithDataDir(t.TempDir()),
		WithLanguages("en"),
		WithYouTubeClient(client),
	)
	require.NoError(t, err)
	return library, db, watchHits
}

func TestLibraryProcess(t *testing.T) {
	library, db, _ := newTestLibrary(t)
	ctx := context.Background()

	record, err := library.Process(ctx, "https://www.youtube.com/watch?v="+testVideoID)
	require.NoError(t, err)

	assert.Equal(t, "Go Pointers", record.Info.Title)
	assert.Equal(t, "Go Course", record.Info.Author)
	assert.Equal(t, "en", record.Language)
	assert.Len(t, record.Subtitles, 5)
	assert.NotEmpty(t, record.Blocks)
	assert.Equal(t, 20.0, record.Duration())
	assert.WithinDuration(t, time.Now(), record.CreatedAt, time.Minute)

	exists, err := db.HasCollection(ctx, CollectionName(testVideoID))
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = os.Stat(library.recordPath(testVideoID))
	require.NoError(t, err)
}

func TestLibraryProcessIsIdempotent(t *testing.T) {
	library, _, watchHits := newTestLibrary(t)
	ctx := context.Background()

	_, err := library.Process(ctx, testVideoID)
	require.NoError(t, err)
	hitsAfterFirst := *watchHits

	record, err := library.Process(ctx, testVideoID)
	require.NoError(t, err)
	assert.Equal(t, "Go Pointers", record.Info.Title)
	assert.Equal(t, hitsAfterFirst, *watchHits)
}

func TestLibraryProcessInvalidURL(t *testing.T) {
	library, _, _ := newTestLibrary(t)

	_, err := library.Process(context.Background(), "not a video")
	require.Error(t, err)
	assert.ErrorIs(t, err, youtube.ErrInvalidURL)
}

func TestLibraryLoadMissing(t *testing.T) {
	library, _, _ := newTestLibrary(t)

	_, err := library.Load("AAAAAAAAAAA")
	require.Error(t, err)
}

func TestLibraryListNewestFirst(t *testing.T) {
	library, _, _ := newTestLibrary(t)

	older := &VideoRecord{
		Info:      youtube.VideoInfo{ID: "older00000A", Title: "Older"},
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &VideoRecord{
		Info:      youtube.VideoInfo{ID: "newer00000A", Title: "Newer"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, library.saveRecord(older.Info.ID, older))
	require.NoError(t, library.saveRecord(newer.Info.ID, newer))

	records, err := library.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Newer", records[0].Info.Title)
	assert.Equal(t, "Older", records[1].Info.Title)
}

func TestLibraryListEmpty(t *testing.T) {
	library, _, _ := newTestLibrary(t)

	records, err := library.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLibraryDelete(t *testing.T) {
	library, db, _ := newTestLibrary(t)
	ctx := context.Background()

	_, err := library.Process(ctx, testVideoID)
	require.NoError(t, err)

	require.NoError(t, library.Delete(ctx, testVideoID))

	exists, err := db.HasCollection(ctx, CollectionName(testVideoID))
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = library.Load(testVideoID)
	require.Error(t, err)

	// deleting again is a no-op
	require.NoError(t, library.Delete(ctx, testVideoID))
}

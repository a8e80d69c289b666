package studypal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spqr-86/studypal/rag"
	"github.com/spqr-86/studypal/youtube"
)

// VideoRecord is everything StudyPal keeps about a processed video: its
// metadata, the raw transcript, the segmented blocks, and when it was
// added. Records are stored as JSON sidecars next to the vector data so
// the table of contents and translation work without re-fetching.
type VideoRecord struct {
	Info      youtube.VideoInfo  `json:"video_info"`
	Language  string             `json:"language,omitempty"`
	Subtitles []youtube.Subtitle `json:"subtitles"`
	Blocks    []Block            `json:"blocks"`
	CreatedAt time.Time          `json:"created_at"`
}

// Duration returns the timestamp where the last subtitle ends.
func (r *VideoRecord) Duration() float64 {
	if len(r.Subtitles) == 0 {
		return 0
	}
	last := r.Subtitles[len(r.Subtitles)-1]
	return subtitleEnd(last)
}

// Library manages the local catalog of processed videos. Processing a
// video fetches its transcript, segments it into blocks, embeds the
// chunks into a per-video collection, and writes a JSON record to the
// data directory.
type Library struct {
	db       *VectorDB
	embedder *EmbeddingService
	yt       *youtube.Client

	dataDir     string
	languages   []string
	segmentOpts SegmentOptions
	chunker     *rag.SubtitleChunker
	logger      rag.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithDataDir sets where video records are stored. Default "./data".
func WithDataDir(dir string) LibraryOption {
	return func(l *Library) {
		l.dataDir = dir
	}
}

// WithLanguages sets transcript language preference order.
// Default English then Russian.
func WithLanguages(languages ...string) LibraryOption {
	return func(l *Library) {
		l.languages = languages
	}
}

// WithYouTubeClient replaces the default YouTube client.
func WithYouTubeClient(client *youtube.Client) LibraryOption {
	return func(l *Library) {
		l.yt = client
	}
}

// WithSegmentOptions overrides the block segmentation parameters.
func WithSegmentOptions(opts SegmentOptions) LibraryOption {
	return func(l *Library) {
		l.segmentOpts = opts
	}
}

// WithChunking overrides the chunk size and overlap used when splitting
// subtitles for embedding.
func WithChunking(size, overlap int) LibraryOption {
	return func(l *Library) {
		l.chunker, _ = rag.NewSubtitleChunker(
			rag.SubtitleChunkSize(size),
			rag.SubtitleChunkOverlap(overlap),
		)
	}
}

// NewLibrary creates a Library over the given vector store and embedding
// service.
func NewLibrary(db *VectorDB, embedder *EmbeddingService, opts ...LibraryOption) (*Library, error) {
	chunker, err := rag.NewSubtitleChunker()
	if err != nil {
		return nil, err
	}
	l := &Library{
		db:          db,
		embedder:    embedder,
		dataDir:     "./data",
		languages:   []string{"en", "ru"},
		segmentOpts: DefaultSegmentOptions(),
		chunker:     chunker,
		logger:      rag.GlobalLogger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.yt == nil {
		l.yt = youtube.NewClient(youtube.WithLogger(l.logger))
	}
	return l, nil
}

// CollectionName returns the vector collection name for a video.
func CollectionName(videoID string) string {
	return "video_" + videoID
}

func (l *Library) recordPath(videoID string) string {
	return filepath.Join(l.dataDir, "videos", videoID+".json")
}

// Process ingests a YouTube video by URL or ID. If the video was already
// processed, the stored record is returned without re-embedding.
func (l *Library) Process(ctx context.Context, url string) (*VideoRecord, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, err
	}
	collection := CollectionName(videoID)

	exists, err := l.db.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}
	if exists {
		if record, err := l.Load(videoID); err == nil {
			l.logger.Info("Video already processed", "video_id", videoID)
			return record, nil
		}
		// Collection exists but the record is missing, rebuild both.
		l.logger.Warn("Rebuilding video record", "video_id", videoID)
		if err := l.db.DropCollection(ctx, collection); err != nil {
			return nil, fmt.Errorf("dropping stale collection: %w", err)
		}
	}

	subtitles, language, err := l.yt.FetchTranscript(ctx, videoID, l.languages...)
	if err != nil {
		return nil, fmt.Errorf("fetching transcript: %w", err)
	}
	l.logger.Info("Fetched transcript", "video_id", videoID, "language", language, "subtitles", len(subtitles))

	info, err := l.yt.FetchVideoInfo(ctx, videoID)
	if err != nil {
		l.logger.Warn("Video info unavailable", "video_id", videoID, "error", err)
		info = youtube.VideoInfo{
			ID:    videoID,
			URL:   "https://www.youtube.com/watch?v=" + videoID,
			Title: "Unknown",
		}
	}
	info.Language = language

	chapters, err := l.yt.FetchChapters(ctx, videoID)
	if err != nil {
		l.logger.Warn("Chapters unavailable", "video_id", videoID, "error", err)
	}
	info.Chapters = chapters

	blocks := SegmentWithChapters(subtitles, chapters, l.segmentOpts)

	if err := l.embed(ctx, collection, subtitles); err != nil {
		return nil, err
	}

	record := &VideoRecord{
		Info:      info,
		Language:  language,
		Subtitles: subtitles,
		Blocks:    blocks,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.saveRecord(videoID, record); err != nil {
		return nil, err
	}
	l.logger.Info("Processed video", "video_id", videoID, "blocks", len(blocks))
	return record, nil
}

func (l *Library) embed(ctx context.Context, collection string, subtitles []youtube.Subtitle) error {
	segments := make([]rag.TimedText, 0, len(subtitles))
	for _, s := range subtitles {
		segments = append(segments, rag.TimedText{Text: s.Text, Start: s.Start})
	}

	chunks := l.chunker.ChunkTimed(segments)
	if len(chunks) == 0 {
		return fmt.Errorf("transcript produced no chunks")
	}

	embedded, err := l.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	// Timestamps formatted here once so retrieval can show them without
	// recomputing.
	for i := range embedded {
		if start, ok := embedded[i].Metadata["start_time"].(float64); ok {
			embedded[i].Metadata["time_str"] = youtube.FormatTime(start)
		}
	}

	dim := len(embedded[0].Embeddings["default"])
	schema := Schema{
		Name: collection,
		Fields: []FieldSchema{
			{Name: "ID", DataType: "int64", PrimaryKey: true, AutoID: true},
			{Name: "Embedding", DataType: "float_vector", Dimension: dim},
			{Name: "Text", DataType: "varchar", MaxLength: 65535},
			{Name: "Metadata", DataType: "varchar", MaxLength: 65535},
		},
	}
	if err := l.db.CreateCollection(ctx, collection, schema); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	if err := l.db.SaveEmbeddings(ctx, collection, embedded); err != nil {
		return fmt.Errorf("saving embeddings: %w", err)
	}
	if err := l.db.CreateIndex(ctx, collection, "Embedding", Index{
		Type:   "HNSW",
		Metric: "COSINE",
		Parameters: map[string]interface{}{
			"M":              16,
			"efConstruction": 256,
		},
	}); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	return l.db.LoadCollection(ctx, collection)
}

func (l *Library) saveRecord(videoID string, record *VideoRecord) error {
	path := l.recordPath(videoID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding video record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing video record: %w", err)
	}
	return nil
}

// Load reads the stored record for a processed video.
func (l *Library) Load(videoID string) (*VideoRecord, error) {
	data, err := os.ReadFile(l.recordPath(videoID))
	if err != nil {
		return nil, fmt.Errorf("reading video record: %w", err)
	}
	var record VideoRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding video record: %w", err)
	}
	return &record, nil
}

// List returns all stored video records, newest first.
func (l *Library) List() ([]*VideoRecord, error) {
	dir := filepath.Join(l.dataDir, "videos")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var records []*VideoRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := l.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			l.logger.Warn("Skipping unreadable video record", "file", entry.Name(), "error", err)
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Delete removes a video's collection and stored record.
func (l *Library) Delete(ctx context.Context, videoID string) error {
	collection := CollectionName(videoID)
	exists, err := l.db.HasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		if err := l.db.DropCollection(ctx, collection); err != nil {
			return fmt.Errorf("dropping collection: %w", err)
		}
	}
	if err := os.Remove(l.recordPath(videoID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing video record: %w", err)
	}
	return nil
}

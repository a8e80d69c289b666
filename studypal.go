// Package studypal turns YouTube videos into study material: it fetches
// transcripts, segments them into navigable blocks, embeds them into a local
// vector store, and answers questions about them with timestamp citations.
package studypal

import (
	"context"
	"fmt"

	"github.com/spqr-86/studypal/config"
	"github.com/spqr-86/studypal/rag"
	"github.com/spqr-86/studypal/youtube"
)

// App wires the configured components together: vector store, embedder,
// video library, chat, and translation. It is the entry point the CLI uses.
type App struct {
	cfg      *config.Config
	db       *VectorDB
	embedder Embedder
	library  *Library
}

// NewApp builds an App from configuration and connects the vector store.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	var level LogLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		SetLogLevel(level)
	}

	db, err := NewVectorDB(
		WithType(cfg.VectorDB.Type),
		WithAddress(cfg.VectorDB.Address),
		WithTimeout(cfg.VectorDB.Timeout),
		WithDBOption("api_key", cfg.EmbeddingKey()),
		WithDBOption("embedding_model", cfg.Embedding.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to vector store: %w", err)
	}

	embedder, err := NewEmbedder(
		SetEmbedderProvider(cfg.Embedding.Provider),
		SetEmbedderModel(cfg.Embedding.Model),
		SetEmbedderAPIKey(cfg.EmbeddingKey()),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	service := NewEmbeddingService(embedder,
		WithEmbeddingRateLimit(cfg.Embedding.RequestsPerSecond, int(cfg.Embedding.RequestsPerSecond)*2))

	yt := youtube.NewClient(
		youtube.WithAPIKey(cfg.APIKeys[config.EnvYouTubeKey]),
		youtube.WithLogger(rag.GlobalLogger),
	)

	library, err := NewLibrary(db, service,
		WithDataDir(cfg.DataDir),
		WithLanguages(cfg.Languages...),
		WithYouTubeClient(yt),
		WithSegmentOptions(SegmentOptions{
			MinBlockDuration:  cfg.Segments.MinBlockDuration,
			MinPauseThreshold: cfg.Segments.MinPauseThreshold,
			MaxBlockSize:      cfg.Segments.MaxBlockSize,
		}),
		WithChunking(cfg.Chunking.Size, cfg.Chunking.Overlap),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating library: %w", err)
	}

	return &App{
		cfg:      cfg,
		db:       db,
		embedder: embedder,
		library:  library,
	}, nil
}

// Library exposes the video catalog.
func (a *App) Library() *Library {
	return a.library
}

// ProcessVideo ingests a video by URL or ID.
func (a *App) ProcessVideo(ctx context.Context, url string) (*VideoRecord, error) {
	return a.library.Process(ctx, url)
}

// NewChat opens a chat session about a processed video. With hybrid search
// enabled the stored subtitles are also indexed for keyword matching.
func (a *App) NewChat(ctx context.Context, videoID string, opts ...ChatOption) (*ChatSession, error) {
	record, err := a.library.Load(videoID)
	if err != nil {
		return nil, fmt.Errorf("video %s is not processed yet: %w", videoID, err)
	}

	collection := CollectionName(videoID)
	if err := a.db.LoadCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	retriever, err := NewRetriever(a.db, a.embedder,
		WithRetrieveCollection(collection),
		WithTopK(a.cfg.Chat.TopK),
		WithMinScore(a.cfg.Chat.MinScore),
		WithHybrid(a.cfg.Chat.Hybrid),
	)
	if err != nil {
		return nil, err
	}

	if a.cfg.Chat.Hybrid {
		chunker, err := rag.NewSubtitleChunker(
			rag.SubtitleChunkSize(a.cfg.Chunking.Size),
			rag.SubtitleChunkOverlap(a.cfg.Chunking.Overlap),
		)
		if err != nil {
			return nil, err
		}
		if err := retriever.IndexKeywords(ctx, record.Subtitles, chunker); err != nil {
			return nil, fmt.Errorf("indexing keywords: %w", err)
		}
	}

	chatOpts := append([]ChatOption{
		WithChatProvider(a.cfg.Chat.Provider),
		WithChatModel(a.cfg.Chat.Model),
		WithChatAPIKey(a.cfg.ChatKey()),
	}, opts...)
	return NewChatSession(retriever, chatOpts...)
}

// NewTranslator creates a translator using the configured chat provider.
func (a *App) NewTranslator(opts ...TranslatorOption) (*Translator, error) {
	translatorOpts := append([]TranslatorOption{
		WithTranslatorProvider(a.cfg.Chat.Provider),
		WithTranslatorModel(a.cfg.Chat.Model),
		WithTranslatorAPIKey(a.cfg.ChatKey()),
		WithBatchSize(a.cfg.Translation.BatchSize),
	}, opts...)
	return NewTranslator(translatorOpts...)
}

// AddNotes ingests personal study notes into a video's collection so chat
// over that video retrieves them alongside the transcript.
func (a *App) AddNotes(ctx context.Context, videoID, source string) error {
	if _, err := a.library.Load(videoID); err != nil {
		return fmt.Errorf("video %s is not processed yet: %w", videoID, err)
	}
	return AddNotes(ctx, source,
		WithNotesStore(a.db),
		WithNotesEmbedder(a.embedder),
		WithNotesCollection(CollectionName(videoID), true),
		WithNotesChunking(a.cfg.Chunking.Size, a.cfg.Chunking.Overlap),
	)
}

// Close releases the vector store connection.
func (a *App) Close() error {
	return a.db.Close()
}

package studypal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spqr-86/studypal/rag"
)

// NotesConfig holds configuration for ingesting personal study notes.
// Notes are stored in the same collection as a video's transcript chunks,
// so chat over that video retrieves them alongside the transcript.
type NotesConfig struct {
	// Storage settings
	VectorDBType   string            // "chromem" (default), "milvus", or "memory"
	VectorDBConfig map[string]string // backend connection settings
	CollectionName string            // target collection
	AutoCreate     bool              // create collection if missing

	// Processing settings
	ChunkSize    int
	ChunkOverlap int
	TempDir      string
	Timeout      time.Duration

	// Embedding settings
	EmbeddingProvider string // "openai" or "huggingface"
	EmbeddingModel    string
	EmbeddingKey      string

	// Callbacks
	OnProgress func(processed, total int)
	OnError    func(error)

	store    *VectorDB
	embedder Embedder
}

// NotesCollection is the fallback collection when no video is targeted.
const NotesCollection = "notes"

func defaultNotesConfig() *NotesConfig {
	return &NotesConfig{
		VectorDBType:      "chromem",
		VectorDBConfig:    map[string]string{"address": "./data/chromem"},
		CollectionName:    NotesCollection,
		AutoCreate:        true,
		ChunkSize:         512,
		ChunkOverlap:      64,
		TempDir:           os.TempDir(),
		Timeout:           5 * time.Minute,
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingKey:      os.Getenv("OPENAI_API_KEY"),
		OnProgress: func(processed, total int) {
			rag.GlobalLogger.Info("Notes ingestion progress", "processed", processed, "total", total)
		},
		OnError: func(err error) {
			rag.GlobalLogger.Error("Notes ingestion error", "error", err)
		},
	}
}

// NotesOption modifies NotesConfig.
type NotesOption func(*NotesConfig)

// WithNotesVectorDB sets the vector store backend and its settings.
func WithNotesVectorDB(dbType string, config map[string]string) NotesOption {
	return func(c *NotesConfig) {
		c.VectorDBType = dbType
		c.VectorDBConfig = config
	}
}

// WithNotesCollection sets the target collection.
func WithNotesCollection(name string, autoCreate bool) NotesOption {
	return func(c *NotesConfig) {
		c.CollectionName = name
		c.AutoCreate = autoCreate
	}
}

// WithNotesChunking sets chunk size and overlap in tokens.
func WithNotesChunking(size, overlap int) NotesOption {
	return func(c *NotesConfig) {
		c.ChunkSize = size
		c.ChunkOverlap = overlap
	}
}

// WithNotesEmbedding sets the embedding provider, model, and key.
func WithNotesEmbedding(provider, model, key string) NotesOption {
	return func(c *NotesConfig) {
		c.EmbeddingProvider = provider
		c.EmbeddingModel = model
		c.EmbeddingKey = key
	}
}

// WithNotesStore reuses an existing connected vector store instead of
// opening a new one. The caller keeps ownership of the connection.
func WithNotesStore(db *VectorDB) NotesOption {
	return func(c *NotesConfig) {
		c.store = db
	}
}

// WithNotesEmbedder replaces the embedding client. Used in tests.
func WithNotesEmbedder(e Embedder) NotesOption {
	return func(c *NotesConfig) {
		c.embedder = e
	}
}

// AddNotes ingests study notes into the configured collection. The source
// can be a file path, a directory, or an HTTP(S) URL. PDF, plain text,
// Markdown, and subtitle files are parsed; other file types are skipped
// with an error callback.
func AddNotes(ctx context.Context, source string, opts ...NotesOption) error {
	cfg := defaultNotesConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	loader := NewConcurrentLoader(
		SetTempDir(cfg.TempDir),
		WithLoaderTimeout(cfg.Timeout),
	)

	chunker, err := NewChunker(
		ChunkSize(cfg.ChunkSize),
		ChunkOverlap(cfg.ChunkOverlap),
	)
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	embedder := cfg.embedder
	if embedder == nil {
		embedder, err = NewEmbedder(
			SetEmbedderProvider(cfg.EmbeddingProvider),
			SetEmbedderModel(cfg.EmbeddingModel),
			SetEmbedderAPIKey(cfg.EmbeddingKey),
		)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
	}

	vectorDB := cfg.store
	if vectorDB == nil {
		db, err := NewVectorDB(
			WithType(cfg.VectorDBType),
			WithAddress(cfg.VectorDBConfig["address"]),
			WithTimeout(cfg.Timeout),
		)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}
		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to vector store: %w", err)
		}
		defer db.Close()
		vectorDB = db
	}

	if cfg.AutoCreate {
		exists, _ := vectorDB.HasCollection(ctx, cfg.CollectionName)
		if !exists {
			dim, err := embedder.GetDimension()
			if err != nil {
				return fmt.Errorf("resolving embedding dimension: %w", err)
			}
			schema := Schema{
				Name: cfg.CollectionName,
				Fields: []FieldSchema{
					{Name: "ID", DataType: "int64", PrimaryKey: true, AutoID: true},
					{Name: "Embedding", DataType: "float_vector", Dimension: dim},
					{Name: "Text", DataType: "varchar", MaxLength: 65535},
					{Name: "Metadata", DataType: "varchar", MaxLength: 65535},
				},
			}
			if err := vectorDB.CreateCollection(ctx, cfg.CollectionName, schema); err != nil {
				return fmt.Errorf("creating collection: %w", err)
			}
			index := Index{
				Type:   "HNSW",
				Metric: "COSINE",
				Parameters: map[string]interface{}{
					"M":              16,
					"efConstruction": 256,
				},
			}
			if err := vectorDB.CreateIndex(ctx, cfg.CollectionName, "Embedding", index); err != nil {
				return fmt.Errorf("creating index: %w", err)
			}
			if err := vectorDB.LoadCollection(ctx, cfg.CollectionName); err != nil {
				return fmt.Errorf("loading collection: %w", err)
			}
		}
	}

	var paths []string
	if info, err := os.Stat(source); err == nil {
		if info.IsDir() {
			paths, err = loader.LoadDirConcurrent(ctx, source, 4)
		} else {
			var path string
			path, err = loader.LoadFile(ctx, source)
			if err == nil {
				paths = []string{path}
			}
		}
		if err != nil {
			return fmt.Errorf("loading source: %w", err)
		}
	} else if isURL(source) {
		path, err := loader.LoadURL(ctx, source)
		if err != nil {
			return fmt.Errorf("loading URL: %w", err)
		}
		paths = []string{path}
	} else {
		return fmt.Errorf("invalid source: %s", source)
	}

	embeddingService := NewEmbeddingService(embedder)
	parser := NewParser()

	for i, path := range paths {
		doc, err := parser.Parse(path)
		if err != nil {
			cfg.OnError(fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		chunks := chunker.Chunk(doc.Content)
		embeddedChunks, err := embeddingService.EmbedChunks(ctx, chunks)
		if err != nil {
			cfg.OnError(fmt.Errorf("embedding chunks from %s: %w", path, err))
			continue
		}

		records := make([]Record, len(embeddedChunks))
		for j, chunk := range embeddedChunks {
			records[j] = Record{
				Fields: map[string]interface{}{
					"Embedding": Vector(chunk.Embeddings["default"]),
					"Text":      chunk.Text,
					// note chunks use their own index key so they never
					// shadow a transcript chunk's stable ID
					"Metadata": map[string]interface{}{
						"source":     filepath.Base(path),
						"note_index": j,
						"total":      len(chunks),
						"token_size": chunk.Metadata["token_size"],
					},
				},
			}
		}

		if err := vectorDB.Insert(ctx, cfg.CollectionName, records); err != nil {
			cfg.OnError(fmt.Errorf("inserting records from %s: %w", path, err))
			continue
		}

		cfg.OnProgress(i+1, len(paths))
	}

	return vectorDB.Flush(ctx, cfg.CollectionName)
}

func isURL(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}

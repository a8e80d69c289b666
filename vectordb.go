package studypal

import (
	"context"
	"fmt"
	"time"

	"github.com/spqr-86/studypal/rag"
)

// Re-exported vector store types.
type (
	Schema       = rag.Schema
	FieldSchema  = rag.Field
	Record       = rag.Record
	Vector       = rag.Vector
	Index        = rag.Index
	SearchResult = rag.SearchResult
)

// VectorDB wraps a vector store backend behind one configuration surface.
// Backends: "chromem" (persistent, default), "milvus" (server), "memory"
// (tests and ephemeral sessions).
type VectorDB struct {
	impl rag.VectorDB
	cfg  *rag.Config
}

// VectorDBOption is a function type for configuring the VectorDB.
type VectorDBOption func(*rag.Config)

// WithType sets the backend type: "chromem", "milvus", or "memory".
func WithType(dbType string) VectorDBOption {
	return func(c *rag.Config) {
		c.Type = dbType
	}
}

// WithAddress sets the backend address: a directory path for chromem, a
// host:port for milvus.
func WithAddress(address string) VectorDBOption {
	return func(c *rag.Config) {
		c.Address = address
	}
}

// WithTimeout sets the operation timeout.
func WithTimeout(timeout time.Duration) VectorDBOption {
	return func(c *rag.Config) {
		c.Timeout = timeout
	}
}

// WithDBOption sets a backend-specific parameter.
func WithDBOption(key string, value interface{}) VectorDBOption {
	return func(c *rag.Config) {
		if c.Parameters == nil {
			c.Parameters = make(map[string]interface{})
		}
		c.Parameters[key] = value
	}
}

// NewVectorDB creates a new VectorDB with the given options.
func NewVectorDB(opts ...VectorDBOption) (*VectorDB, error) {
	cfg := &rag.Config{
		Type:       "chromem",
		Timeout:    30 * time.Second,
		Parameters: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	impl, err := rag.NewVectorDB(cfg)
	if err != nil {
		return nil, err
	}
	return &VectorDB{impl: impl, cfg: cfg}, nil
}

// Connect establishes the backend connection where one is needed.
func (db *VectorDB) Connect(ctx context.Context) error {
	return db.impl.Connect(ctx)
}

// Close releases backend resources.
func (db *VectorDB) Close() error {
	return db.impl.Close()
}

// Type returns the configured backend type.
func (db *VectorDB) Type() string {
	return db.cfg.Type
}

// HasCollection reports whether the named collection exists.
func (db *VectorDB) HasCollection(ctx context.Context, name string) (bool, error) {
	return db.impl.HasCollection(ctx, name)
}

// DropCollection removes the named collection and its data.
func (db *VectorDB) DropCollection(ctx context.Context, name string) error {
	return db.impl.DropCollection(ctx, name)
}

// CreateCollection creates a collection with the given schema.
func (db *VectorDB) CreateCollection(ctx context.Context, name string, schema Schema) error {
	return db.impl.CreateCollection(ctx, name, schema)
}

// ListCollections returns the names of all collections.
func (db *VectorDB) ListCollections(ctx context.Context) ([]string, error) {
	return db.impl.ListCollections(ctx)
}

// LoadCollection makes a collection available for search.
func (db *VectorDB) LoadCollection(ctx context.Context, name string) error {
	return db.impl.LoadCollection(ctx, name)
}

// Insert adds records to a collection.
func (db *VectorDB) Insert(ctx context.Context, collectionName string, data []Record) error {
	return db.impl.Insert(ctx, collectionName, data)
}

// Flush makes pending writes durable on backends that buffer.
func (db *VectorDB) Flush(ctx context.Context, collectionName string) error {
	return db.impl.Flush(ctx, collectionName)
}

// CreateIndex builds a vector index on backends that need one.
func (db *VectorDB) CreateIndex(ctx context.Context, collectionName, field string, index Index) error {
	return db.impl.CreateIndex(ctx, collectionName, field, index)
}

// Search runs a single-vector similarity search.
func (db *VectorDB) Search(ctx context.Context, collectionName string, query Vector, topK int, metricType string, searchParams map[string]interface{}) ([]SearchResult, error) {
	return db.impl.Search(ctx, collectionName, map[string]rag.Vector{"Embedding": query}, topK, metricType, searchParams)
}

// SetColumnNames configures which fields search results include.
func (db *VectorDB) SetColumnNames(names []string) {
	db.impl.SetColumnNames(names)
}

// SaveEmbeddings stores embedded chunks as records in a collection,
// carrying each chunk's text, default embedding, and metadata.
func (db *VectorDB) SaveEmbeddings(ctx context.Context, collectionName string, chunks []EmbeddedChunk) error {
	records := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, ok := chunk.Embeddings["default"]
		if !ok {
			return fmt.Errorf("chunk missing default embedding")
		}
		records = append(records, Record{
			Fields: map[string]interface{}{
				"Text":      chunk.Text,
				"Embedding": rag.Vector(embedding),
				"Metadata":  chunk.Metadata,
			},
		})
	}
	if err := db.impl.Insert(ctx, collectionName, records); err != nil {
		return err
	}
	return db.impl.Flush(ctx, collectionName)
}

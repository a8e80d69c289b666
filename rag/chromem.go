package rag

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// ChromemDB implements the VectorDB interface on top of chromem-go, an
// embedded vector database that persists collections to disk. It is the
// default backend: one directory holds every video's collection and nothing
// else needs to run.
//
// StudyPal computes embeddings itself and inserts them alongside documents,
// so the embedding function chromem requires is only used when a caller
// inserts a record without a vector.
type ChromemDB struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	columnNames []string
	embedFunc   chromem.EmbeddingFunc
}

func newChromemDB(cfg *Config) (*ChromemDB, error) {
	var db *chromem.DB
	var err error

	if cfg.Address != "" {
		if err := os.MkdirAll(cfg.Address, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create chromem directory: %w", err)
		}
		db, err = chromem.NewPersistentDB(cfg.Address, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open persistent chromem db: %w", err)
		}
		GlobalLogger.Debug("Opened persistent chromem db", "path", cfg.Address)
	} else {
		db = chromem.NewDB()
		GlobalLogger.Debug("Created in-memory chromem db")
	}

	c := &ChromemDB{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		embedFunc:   embeddingFuncFromConfig(cfg),
	}
	return c, nil
}

// embeddingFuncFromConfig builds the fallback embedding function chromem
// uses for documents inserted without a precomputed vector. With an
// "api_key" parameter the OpenAI embedding endpoint is used; without one,
// inserting an unembedded document is an error.
func embeddingFuncFromConfig(cfg *Config) chromem.EmbeddingFunc {
	apiKey, _ := cfg.Parameters["api_key"].(string)
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		model := "text-embedding-3-small"
		if m, ok := cfg.Parameters["embedding_model"].(string); ok && m != "" {
			model = m
		}
		return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model))
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("no embedding function configured: insert records with precomputed embeddings")
	}
}

func (c *ChromemDB) Connect(ctx context.Context) error {
	// chromem has no connection lifecycle
	return nil
}

func (c *ChromemDB) Close() error {
	return nil
}

func (c *ChromemDB) HasCollection(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.collections[name]; exists {
		return true, nil
	}

	col := c.db.GetCollection(name, c.embedFunc)
	if col == nil {
		return false, nil
	}
	c.collections[name] = col
	return true, nil
}

func (c *ChromemDB) DropCollection(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	delete(c.collections, name)
	return nil
}

// CreateCollection creates a collection. The schema is accepted for
// interface compatibility but chromem does not use one. Creating a
// collection that already exists is not an error.
func (c *ChromemDB) CreateCollection(ctx context.Context, name string, schema Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.collections[name]; exists {
		return nil
	}

	col, err := c.db.CreateCollection(name, map[string]string{}, c.embedFunc)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	c.collections[name] = col
	GlobalLogger.Debug("Created chromem collection", "name", name)
	return nil
}

// ListCollections returns the names of all collections, sorted.
func (c *ChromemDB) ListCollections(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	for name := range c.db.ListCollections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Insert converts records into chromem documents and adds them to the
// collection. Each record needs a "Text" field; "Embedding" and "Metadata"
// are optional (string-valued metadata entries are kept, the rest dropped).
func (c *ChromemDB) Insert(ctx context.Context, collectionName string, data []Record) error {
	c.mu.Lock()
	col, exists := c.collections[collectionName]
	c.mu.Unlock()
	if !exists {
		return fmt.Errorf("collection %s does not exist", collectionName)
	}

	inserted := 0
	for i, record := range data {
		content, ok := record.Fields["Text"].(string)
		if !ok || content == "" {
			GlobalLogger.Warn("Skipping record without Text field", "index", i)
			continue
		}

		metadata := make(map[string]string)
		if metaField, ok := record.Fields["Metadata"]; ok {
			if meta, ok := metaField.(map[string]interface{}); ok {
				for k, v := range meta {
					metadata[k] = fmt.Sprintf("%v", v)
				}
			}
			if meta, ok := metaField.(map[string]string); ok {
				for k, v := range meta {
					metadata[k] = v
				}
			}
		}

		var embedding []float32
		switch e := record.Fields["Embedding"].(type) {
		case []float32:
			embedding = e
		case Vector:
			embedding = toFloat32Slice(e)
		case []float64:
			embedding = toFloat32Slice(e)
		}

		id := uuid.NewString()
		if v, ok := record.Fields["ID"].(string); ok && v != "" {
			id = v
		}

		doc := chromem.Document{
			ID:        id,
			Content:   content,
			Metadata:  metadata,
			Embedding: embedding,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", id, err)
		}
		inserted++
	}

	GlobalLogger.Debug("Inserted documents", "collection", collectionName, "count", inserted)
	return nil
}

// Flush is a no-op: chromem persists on every write.
func (c *ChromemDB) Flush(ctx context.Context, collectionName string) error {
	return nil
}

// CreateIndex is a no-op: chromem does exhaustive search.
func (c *ChromemDB) CreateIndex(ctx context.Context, collectionName, field string, index Index) error {
	return nil
}

func (c *ChromemDB) LoadCollection(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	col := c.db.GetCollection(name, c.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %s not found", name)
	}
	c.collections[name] = col
	return nil
}

// Search performs a cosine-similarity search. Scores are similarities in
// [0, 1]; higher is better. Only single-vector search is supported.
func (c *ChromemDB) Search(ctx context.Context, collectionName string, vectors map[string]Vector, topK int, metricType string, searchParams map[string]interface{}) ([]SearchResult, error) {
	c.mu.RLock()
	col, exists := c.collections[collectionName]
	c.mu.RUnlock()

	if !exists {
		if err := c.LoadCollection(ctx, collectionName); err != nil {
			return nil, fmt.Errorf("failed to load collection: %w", err)
		}
		c.mu.RLock()
		col = c.collections[collectionName]
		c.mu.RUnlock()
	}

	if len(vectors) != 1 {
		return nil, fmt.Errorf("chromem only supports single vector search")
	}
	var queryVector Vector
	for _, v := range vectors {
		queryVector = v
	}

	// chromem errors when asked for more results than documents exist
	if count := col.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return []SearchResult{}, nil
	}

	results, err := col.QueryEmbedding(ctx, toFloat32Slice(queryVector), topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, result := range results {
		fields := map[string]interface{}{
			"Text": result.Content,
		}
		if len(result.Metadata) > 0 {
			fields["Metadata"] = result.Metadata
		}
		// Prefer the stored chunk index as a stable ID so results can be
		// matched across search strategies.
		id := int64(i)
		if v, ok := result.Metadata["chunk_index"]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				id = n
			}
		}
		searchResults[i] = SearchResult{
			ID:     id,
			Score:  float64(result.Similarity),
			Fields: fields,
		}
	}

	return searchResults, nil
}

func (c *ChromemDB) SetColumnNames(names []string) {
	c.columnNames = names
}

func toFloat32Slice[S ~[]float64](v S) []float32 {
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(val)
	}
	return result
}

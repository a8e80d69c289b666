package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryDB implements the VectorDB interface using in-memory storage. It
// provides thread-safe operations for managing collections and performing
// vector similarity searches without an external database. Intended for
// tests and ephemeral sessions; nothing survives process exit.
type MemoryDB struct {
	collections map[string]*Collection
	mu          sync.RWMutex
	// columnNames specifies which fields to include in search results
	columnNames []string
}

// Collection represents a named set of records with a defined schema.
type Collection struct {
	Schema Schema
	Data   []Record
}

func newMemoryDB(cfg *Config) (*MemoryDB, error) {
	return &MemoryDB{
		collections: make(map[string]*Collection),
	}, nil
}

// Connect is a no-op for the in-memory database.
func (m *MemoryDB) Connect(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory database.
func (m *MemoryDB) Close() error {
	return nil
}

// HasCollection checks if a collection with the given name exists.
func (m *MemoryDB) HasCollection(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.collections[name]
	return exists, nil
}

// DropCollection removes a collection and all its data.
func (m *MemoryDB) DropCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

// CreateCollection creates a new collection with the specified schema.
// Returns an error if a collection with the same name already exists.
func (m *MemoryDB) CreateCollection(ctx context.Context, name string, schema Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.collections[name]; exists {
		return fmt.Errorf("collection %s already exists", name)
	}
	m.collections[name] = &Collection{Schema: schema}
	return nil
}

// ListCollections returns the names of all collections, sorted.
func (m *MemoryDB) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Insert adds new records to the specified collection.
// Returns an error if the collection doesn't exist.
func (m *MemoryDB) Insert(ctx context.Context, collectionName string, data []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	collection, exists := m.collections[collectionName]
	if !exists {
		return fmt.Errorf("collection %s does not exist", collectionName)
	}
	collection.Data = append(collection.Data, data...)
	return nil
}

// Flush is a no-op for the in-memory database as all operations are immediate.
func (m *MemoryDB) Flush(ctx context.Context, collectionName string) error {
	return nil
}

// CreateIndex is a no-op for the in-memory database as it uses linear search.
func (m *MemoryDB) CreateIndex(ctx context.Context, collectionName, field string, index Index) error {
	return nil
}

// LoadCollection is a no-op for the in-memory database.
func (m *MemoryDB) LoadCollection(ctx context.Context, name string) error {
	return nil
}

// Search performs vector similarity search in the specified collection.
// It computes distances between the query vector and every stored vector,
// sorts ascending (smaller distance means more similar), and returns the
// top K results with the configured fields.
func (m *MemoryDB) Search(ctx context.Context, collectionName string, vectors map[string]Vector, topK int, metricType string, searchParams map[string]interface{}) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	collection, exists := m.collections[collectionName]
	if !exists {
		return nil, fmt.Errorf("collection %s does not exist", collectionName)
	}

	var results []SearchResult

	for _, record := range collection.Data {
		for fieldName, searchVector := range vectors {
			if v, ok := record.Fields[fieldName].(Vector); ok {
				distance := m.calculateDistance(searchVector, v, metricType)
				fields := make(map[string]interface{})
				for _, name := range m.columnNames {
					if value, exists := record.Fields[name]; exists {
						fields[name] = value
					}
				}
				var id int64
				if v, ok := record.Fields["ID"].(int64); ok {
					id = v
				}
				results = append(results, SearchResult{
					ID:     id,
					Score:  distance,
					Fields: fields,
				})
				break
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// calculateDistance computes the distance between two vectors using the
// specified metric. Supported metrics:
//   - "L2": Euclidean distance (default)
//   - "IP": inner product (negated, as larger means more similar)
func (m *MemoryDB) calculateDistance(a, b Vector, metricType string) float64 {
	var sum float64
	switch metricType {
	case "IP":
		for i := range a {
			sum += a[i] * b[i]
		}
		return -sum
	default: // L2
		for i := range a {
			diff := a[i] - b[i]
			sum += diff * diff
		}
		return math.Sqrt(sum)
	}
}

// SetColumnNames configures which fields should be included in search results.
func (m *MemoryDB) SetColumnNames(names []string) {
	m.columnNames = names
}

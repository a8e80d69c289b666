package studypal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spqr-86/studypal/rag"
	"github.com/spqr-86/studypal/youtube"
)

// Retriever finds transcript chunks relevant to a question. It always runs a
// dense vector search; with hybrid mode enabled it additionally runs a BM25
// keyword search over the same chunks and fuses the two rankings with
// Reciprocal Rank Fusion.
type Retriever struct {
	db       *VectorDB
	embedder Embedder

	config   *RetrieverConfig
	sparse   *rag.BM25Index
	reranker *rag.RRFReranker
	logger   rag.Logger
}

// RetrieverConfig holds settings for the retrieval process.
type RetrieverConfig struct {
	Collection   string   // vector collection to search
	TopK         int      // maximum number of results
	MinScore     float64  // score cutoff for dense-only search
	UseHybrid    bool     // fuse dense and keyword rankings
	DenseWeight  float64  // dense ranking weight in fusion
	SparseWeight float64  // keyword ranking weight in fusion
	MetricType   string   // distance metric for the vector search
	Columns      []string // fields to include in results
}

// RetrieverResult is a single retrieved chunk with its provenance.
type RetrieverResult struct {
	Content    string                 `json:"content"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata"`
	StartTime  float64                `json:"start_time"`
	TimeStr    string                 `json:"time_str"`
	ChunkIndex int                    `json:"chunk_index"`
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*RetrieverConfig)

// WithRetrieveCollection sets the collection to search.
func WithRetrieveCollection(name string) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.Collection = name
	}
}

// WithTopK sets the maximum number of results to return.
func WithTopK(k int) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.TopK = k
	}
}

// WithMinScore sets the score cutoff for dense-only search. On backends
// that report similarities it is a minimum similarity; on backends that
// report distances it is a maximum distance.
func WithMinScore(score float64) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.MinScore = score
	}
}

// WithHybrid enables keyword search fused with the vector search.
func WithHybrid(enabled bool) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.UseHybrid = enabled
	}
}

// WithFusionWeights sets the dense and sparse ranking weights used by
// Reciprocal Rank Fusion. They are normalized, only the ratio matters.
func WithFusionWeights(dense, sparse float64) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.DenseWeight = dense
		c.SparseWeight = sparse
	}
}

// WithMetricType sets the distance metric for the vector search.
func WithMetricType(metric string) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.MetricType = metric
	}
}

// WithColumns specifies which fields search results include.
func WithColumns(columns ...string) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.Columns = columns
	}
}

func defaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		TopK:         3,
		MinScore:     0,
		UseHybrid:    false,
		DenseWeight:  0.7,
		SparseWeight: 0.3,
		MetricType:   "COSINE",
		Columns:      []string{"Text", "Metadata"},
	}
}

// NewRetriever creates a Retriever over an existing store and embedder.
func NewRetriever(db *VectorDB, embedder Embedder, opts ...RetrieverOption) (*Retriever, error) {
	cfg := defaultRetrieverConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("retriever requires a collection")
	}
	return &Retriever{
		db:       db,
		embedder: embedder,
		config:   cfg,
		sparse:   rag.NewBM25Index(),
		reranker: rag.NewRRFReranker(60),
		logger:   rag.GlobalLogger,
	}, nil
}

// IndexKeywords feeds subtitles into the keyword index used by hybrid
// search. Subtitles are grouped the same way the embedding chunker groups
// them so keyword hits line up with stored chunks.
func (r *Retriever) IndexKeywords(ctx context.Context, subtitles []youtube.Subtitle, chunker *rag.SubtitleChunker) error {
	segments := make([]rag.TimedText, 0, len(subtitles))
	for _, s := range subtitles {
		segments = append(segments, rag.TimedText{Text: s.Text, Start: s.Start})
	}
	for i, chunk := range chunker.ChunkTimed(segments) {
		err := r.sparse.Add(ctx, int64(i), chunk.Text, map[string]interface{}{
			"chunk_index": i,
			"start_time":  chunk.StartTime,
			"time_str":    youtube.FormatTime(chunk.StartTime),
		})
		if err != nil {
			return fmt.Errorf("indexing chunk %d: %w", i, err)
		}
	}
	return nil
}

// Retrieve returns the chunks most relevant to the query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]RetrieverResult, error) {
	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	r.db.SetColumnNames(r.config.Columns)
	dense, err := r.db.Search(ctx, r.config.Collection, Vector(queryEmbedding), r.config.TopK, r.config.MetricType, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var merged []SearchResult
	if r.config.UseHybrid {
		sparse, err := r.sparse.Search(ctx, query, r.config.TopK)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		merged, err = r.reranker.Rerank(ctx, query, dense, sparse, r.config.DenseWeight, r.config.SparseWeight)
		if err != nil {
			return nil, fmt.Errorf("fusing results: %w", err)
		}
		if len(merged) > r.config.TopK {
			merged = merged[:r.config.TopK]
		}
	} else {
		merged = make([]SearchResult, 0, len(dense))
		for _, result := range dense {
			if !r.passesScoreFilter(result.Score) {
				continue
			}
			merged = append(merged, result)
		}
	}

	r.logger.Debug("Retrieved chunks", "collection", r.config.Collection, "count", len(merged))

	results := make([]RetrieverResult, 0, len(merged))
	for _, result := range merged {
		results = append(results, toRetrieverResult(result))
	}
	return results, nil
}

// passesScoreFilter reports whether a dense result clears the MinScore
// cutoff. Chromem scores are cosine similarities where higher means
// closer; the memory and milvus backends report distances where lower
// means closer, so there MinScore acts as a maximum distance.
func (r *Retriever) passesScoreFilter(score float64) bool {
	if r.config.MinScore <= 0 {
		return true
	}
	if r.db.Type() == "chromem" {
		return score >= r.config.MinScore
	}
	return score <= r.config.MinScore
}

func toRetrieverResult(result SearchResult) RetrieverResult {
	content, _ := result.Fields["Text"].(string)
	metadata := normalizeMetadata(result.Fields["Metadata"])

	out := RetrieverResult{
		Content:    content,
		Score:      result.Score,
		Metadata:   metadata,
		ChunkIndex: int(result.ID),
	}
	if metadata != nil {
		out.StartTime = metadataFloat(metadata, "start_time")
		if v, ok := metadata["time_str"].(string); ok {
			out.TimeStr = v
		}
	}
	if out.TimeStr == "" {
		out.TimeStr = youtube.FormatTime(out.StartTime)
	}
	return out
}

// normalizeMetadata accepts the metadata shapes the backends return.
// chromem stores string maps, the other backends keep interface maps.
func normalizeMetadata(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out
	default:
		return nil
	}
}

func metadataFloat(metadata map[string]interface{}, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func init() {
	RegisterEmbedder("huggingface", NewHuggingFaceEmbedder)
}

const (
	// defaultHFAPIBase is the Hugging Face Inference API base for feature
	// extraction pipelines. The model name is appended to this path.
	defaultHFAPIBase = "https://api-inference.huggingface.co/pipeline/feature-extraction/"
	// defaultHFModel is a small sentence-transformers model that works well
	// for transcript search.
	defaultHFModel = "sentence-transformers/all-MiniLM-L6-v2"
)

// HuggingFaceEmbedder implements the Embedder interface using the Hugging
// Face Inference API. It is the free-tier alternative to the OpenAI
// embedder and is safe for concurrent use.
type HuggingFaceEmbedder struct {
	apiKey    string
	client    *http.Client
	apiBase   string
	modelName string
}

// NewHuggingFaceEmbedder creates a new Hugging Face embedding provider.
// The config map requires "api_key" and optionally accepts:
//   - model: the feature-extraction model (defaults to all-MiniLM-L6-v2)
//   - api_url: custom API base URL
//   - timeout: custom timeout duration
func NewHuggingFaceEmbedder(config map[string]interface{}) (Embedder, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("API key is required for Hugging Face embedder")
	}

	e := &HuggingFaceEmbedder{
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 60 * time.Second},
		apiBase:   defaultHFAPIBase,
		modelName: defaultHFModel,
	}

	if model, ok := config["model"].(string); ok && model != "" {
		e.modelName = model
	}

	if apiURL, ok := config["api_url"].(string); ok && apiURL != "" {
		e.apiBase = apiURL
	}

	if timeout, ok := config["timeout"].(time.Duration); ok {
		e.client.Timeout = timeout
	}

	return e, nil
}

// hfRequest represents the JSON structure for Inference API requests.
// wait_for_model avoids 503 responses while the model spins up.
type hfRequest struct {
	Inputs  []string          `json:"inputs"`
	Options map[string]bool   `json:"options,omitempty"`
}

// Embed converts the input text into a vector representation using the
// configured feature-extraction model.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody, err := json.Marshal(hfRequest{
		Inputs:  []string{text},
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	url := e.apiBase + e.modelName
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status code %d: %s", resp.StatusCode, resp.Status)
	}

	// Sentence-transformers pipelines return one vector per input.
	var vectors [][]float64
	if err := json.Unmarshal(body, &vectors); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	return vectors[0], nil
}

// GetDimension returns the output dimension for the current model.
func (e *HuggingFaceEmbedder) GetDimension() (int, error) {
	switch {
	case strings.Contains(e.modelName, "all-MiniLM-L6-v2"),
		strings.Contains(e.modelName, "all-MiniLM-L12-v2"),
		strings.Contains(e.modelName, "paraphrase-multilingual-MiniLM-L12-v2"):
		return 384, nil
	case strings.Contains(e.modelName, "all-mpnet-base-v2"):
		return 768, nil
	default:
		return 0, fmt.Errorf("unknown model: %s", e.modelName)
	}
}

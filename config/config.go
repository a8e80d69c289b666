// Package config manages StudyPal settings. It combines three sources,
// highest precedence first:
//  1. Environment variables
//  2. Configuration file (YAML)
//  3. Built-in defaults
//
// API keys are never read from the configuration file. They come from the
// environment, with a .env file in the working directory loaded first if
// present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names for provider API keys.
const (
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvGroqKey        = "GROQ_API_KEY"
	EnvHuggingFaceKey = "HUGGINGFACEHUB_API_TOKEN"
	EnvYouTubeKey     = "YOUTUBE_DATA_API_KEY"
)

// Config holds all StudyPal settings.
type Config struct {
	// DataDir is where video records and the vector store live.
	DataDir string `yaml:"data_dir"`

	// Languages is the transcript language preference order.
	Languages []string `yaml:"languages"`

	// LogLevel is one of "off", "error", "warn", "info", "debug".
	LogLevel string `yaml:"log_level"`

	VectorDB    VectorDBConfig    `yaml:"vector_db"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chat        ChatConfig        `yaml:"chat"`
	Translation TranslationConfig `yaml:"translation"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Segments    SegmentConfig     `yaml:"segments"`

	// APIKeys holds provider keys read from the environment, keyed by the
	// environment variable name. Never persisted.
	APIKeys map[string]string `yaml:"-"`
}

// VectorDBConfig configures the vector store backend.
type VectorDBConfig struct {
	Type    string        `yaml:"type"`    // "chromem", "milvus", or "memory"
	Address string        `yaml:"address"` // directory for chromem, host:port for milvus
	Timeout time.Duration `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // "openai" or "huggingface"
	Model             string  `yaml:"model"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ChatConfig configures the conversational layer.
type ChatConfig struct {
	Provider string  `yaml:"provider"` // "openai" or "groq"
	Model    string  `yaml:"model"`
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
	Hybrid   bool    `yaml:"hybrid"`
}

// TranslationConfig configures subtitle translation.
type TranslationConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// ChunkingConfig configures transcript chunking for embedding.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// SegmentConfig configures block segmentation.
type SegmentConfig struct {
	MinBlockDuration  float64 `yaml:"min_block_duration"`
	MinPauseThreshold float64 `yaml:"min_pause_threshold"`
	MaxBlockSize      int     `yaml:"max_block_size"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		DataDir:   "./data",
		Languages: []string{"en", "ru"},
		LogLevel:  "warn",
		VectorDB: VectorDBConfig{
			Type:    "chromem",
			Address: "./data/chromem",
			Timeout: 5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:          "openai",
			Model:             "text-embedding-3-small",
			RequestsPerSecond: 5,
		},
		Chat: ChatConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			TopK:     3,
			MinScore: 0,
			Hybrid:   true,
		},
		Translation: TranslationConfig{
			BatchSize: 8,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 100,
		},
		Segments: SegmentConfig{
			MinBlockDuration:  60,
			MinPauseThreshold: 3,
			MaxBlockSize:      25,
		},
		APIKeys: make(map[string]string),
	}
}

// Load builds the configuration. The file path may be empty, in which case
// the standard locations are searched:
//  1. $STUDYPAL_CONFIG
//  2. ~/.config/studypal/studypal.yaml
//  3. ./studypal.yaml
//
// A .env file in the working directory is loaded before reading keys from
// the environment.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	loadAPIKeys(cfg)
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv("STUDYPAL_CONFIG"); path != "" {
		return path
	}
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "studypal", "studypal.yaml"))
	}
	candidates = append(candidates, "studypal.yaml")
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STUDYPAL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("STUDYPAL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STUDYPAL_VECTOR_DB"); v != "" {
		cfg.VectorDB.Type = v
	}
	if v := os.Getenv("STUDYPAL_VECTOR_DB_ADDRESS"); v != "" {
		cfg.VectorDB.Address = v
	}
	if v := os.Getenv("STUDYPAL_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("STUDYPAL_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("STUDYPAL_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("STUDYPAL_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
}

func loadAPIKeys(cfg *Config) {
	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}
	for _, name := range []string{EnvOpenAIKey, EnvGroqKey, EnvHuggingFaceKey, EnvYouTubeKey} {
		if v := os.Getenv(name); v != "" {
			cfg.APIKeys[name] = v
		}
	}
}

// KeyStatus reports whether one provider key is configured.
type KeyStatus struct {
	Name     string // human-readable provider name
	EnvVar   string
	Present  bool
	Required string // what the key unlocks
}

// APIStatus reports which provider keys are configured. Used by the CLI to
// explain what will and will not work.
func (c *Config) APIStatus() []KeyStatus {
	check := func(env string) bool {
		_, ok := c.APIKeys[env]
		return ok
	}
	return []KeyStatus{
		{Name: "OpenAI", EnvVar: EnvOpenAIKey, Present: check(EnvOpenAIKey), Required: "embeddings, chat, translation"},
		{Name: "Groq", EnvVar: EnvGroqKey, Present: check(EnvGroqKey), Required: "chat and translation via Groq"},
		{Name: "Hugging Face", EnvVar: EnvHuggingFaceKey, Present: check(EnvHuggingFaceKey), Required: "embeddings via Hugging Face"},
		{Name: "YouTube Data API", EnvVar: EnvYouTubeKey, Present: check(EnvYouTubeKey), Required: "chapter lookup from video descriptions"},
	}
}

// EmbeddingKey returns the API key for the configured embedding provider.
func (c *Config) EmbeddingKey() string {
	if c.Embedding.Provider == "huggingface" {
		return c.APIKeys[EnvHuggingFaceKey]
	}
	return c.APIKeys[EnvOpenAIKey]
}

// ChatKey returns the API key for the configured chat provider.
func (c *Config) ChatKey() string {
	if c.Chat.Provider == "groq" {
		return c.APIKeys[EnvGroqKey]
	}
	return c.APIKeys[EnvOpenAIKey]
}

// Save writes the configuration (without API keys) as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

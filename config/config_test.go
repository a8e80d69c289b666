package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets everything the loader reads so tests see a clean slate.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"STUDYPAL_CONFIG", "STUDYPAL_DATA_DIR", "STUDYPAL_LOG_LEVEL",
		"STUDYPAL_VECTOR_DB", "STUDYPAL_VECTOR_DB_ADDRESS",
		"STUDYPAL_EMBEDDING_PROVIDER", "STUDYPAL_EMBEDDING_MODEL",
		"STUDYPAL_CHAT_PROVIDER", "STUDYPAL_CHAT_MODEL",
		EnvOpenAIKey, EnvGroqKey, EnvHuggingFaceKey, EnvYouTubeKey,
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, []string{"en", "ru"}, cfg.Languages)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "chromem", cfg.VectorDB.Type)
	assert.Equal(t, 5*time.Minute, cfg.VectorDB.Timeout)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.Model)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.True(t, cfg.Chat.Hybrid)
	assert.Equal(t, 8, cfg.Translation.BatchSize)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 25, cfg.Segments.MaxBlockSize)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "studypal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /tmp/studypal
languages: [ru]
log_level: debug
chat:
  provider: groq
  model: llama3-70b-8192
  top_k: 5
chunking:
  size: 400
  overlap: 40
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/studypal", cfg.DataDir)
	assert.Equal(t, []string{"ru"}, cfg.Languages)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "groq", cfg.Chat.Provider)
	assert.Equal(t, 5, cfg.Chat.TopK)
	assert.Equal(t, 400, cfg.Chunking.Size)

	// everything the file does not mention keeps its default
	assert.Equal(t, "chromem", cfg.VectorDB.Type)
	assert.Equal(t, 8, cfg.Translation.BatchSize)
}

func TestLoadMissingFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat: [not: a: mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "studypal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\n"), 0o644))

	t.Setenv("STUDYPAL_DATA_DIR", "/from/env")
	t.Setenv("STUDYPAL_CHAT_PROVIDER", "groq")
	t.Setenv("STUDYPAL_VECTOR_DB", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, "groq", cfg.Chat.Provider)
	assert.Equal(t, "memory", cfg.VectorDB.Type)
}

func TestAPIKeysFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIKey, "sk-test")
	t.Setenv(EnvGroqKey, "gsk-test")

	path := filepath.Join(t.TempDir(), "studypal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIKeys[EnvOpenAIKey])
	assert.Equal(t, "gsk-test", cfg.APIKeys[EnvGroqKey])
	_, present := cfg.APIKeys[EnvYouTubeKey]
	assert.False(t, present)
}

func TestAPIStatus(t *testing.T) {
	cfg := Default()
	cfg.APIKeys[EnvOpenAIKey] = "sk-test"

	status := cfg.APIStatus()
	require.Len(t, status, 4)

	byVar := make(map[string]KeyStatus, len(status))
	for _, s := range status {
		byVar[s.EnvVar] = s
	}
	assert.True(t, byVar[EnvOpenAIKey].Present)
	assert.False(t, byVar[EnvGroqKey].Present)
	assert.False(t, byVar[EnvYouTubeKey].Present)
}

func TestProviderKeySelection(t *testing.T) {
	cfg := Default()
	cfg.APIKeys[EnvOpenAIKey] = "sk-openai"
	cfg.APIKeys[EnvGroqKey] = "gsk-groq"
	cfg.APIKeys[EnvHuggingFaceKey] = "hf-token"

	assert.Equal(t, "sk-openai", cfg.EmbeddingKey())
	assert.Equal(t, "sk-openai", cfg.ChatKey())

	cfg.Embedding.Provider = "huggingface"
	cfg.Chat.Provider = "groq"
	assert.Equal(t, "hf-token", cfg.EmbeddingKey())
	assert.Equal(t, "gsk-groq", cfg.ChatKey())
}

func TestSaveOmitsAPIKeys(t *testing.T) {
	cfg := Default()
	cfg.APIKeys[EnvOpenAIKey] = "sk-secret"

	path := filepath.Join(t.TempDir(), "out", "studypal.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "data_dir: ./data")
	assert.NotContains(t, string(data), "sk-secret")
}

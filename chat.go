package studypal

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/teilomillet/gollm"

	"github.com/spqr-86/studypal/rag"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatAnswer is a generated answer with the chunks it was grounded on.
type ChatAnswer struct {
	Answer  string            `json:"answer"`
	Sources []RetrieverResult `json:"sources"`
}

const condensePromptTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

const qaPromptTemplate = `You are a helpful study assistant answering questions about a video the user is studying. Use the following transcript excerpts to answer the question. Each excerpt is marked with the timestamp where it occurs in the video. If the answer is not in the excerpts, say that the video does not cover it.

Transcript excerpts:
%s

Question: %s
Helpful answer:`

// ChatSession holds a conversation about one processed video. Follow-up
// questions are condensed into standalone questions using the chat history,
// then answered from retrieved transcript chunks with their timestamps
// appended.
type ChatSession struct {
	retriever *Retriever
	history   []ChatMessage
	generate  func(ctx context.Context, prompt string) (string, error)
	logger    rag.Logger

	maxHistory int
}

// ChatOption configures a ChatSession.
type ChatOption func(*chatConfig)

type chatConfig struct {
	provider   string
	model      string
	apiKey     string
	maxHistory int
	generate   func(ctx context.Context, prompt string) (string, error)
}

// WithChatProvider sets the LLM provider: "openai" (default) or "groq".
func WithChatProvider(provider string) ChatOption {
	return func(c *chatConfig) {
		c.provider = provider
	}
}

// WithChatModel sets the model name.
func WithChatModel(model string) ChatOption {
	return func(c *chatConfig) {
		c.model = model
	}
}

// WithChatAPIKey sets the provider API key.
func WithChatAPIKey(key string) ChatOption {
	return func(c *chatConfig) {
		c.apiKey = key
	}
}

// WithMaxHistory caps how many past messages are kept for condensing
// follow-up questions. Default 10.
func WithMaxHistory(n int) ChatOption {
	return func(c *chatConfig) {
		c.maxHistory = n
	}
}

// WithGenerateFunc replaces the LLM call. Used in tests.
func WithGenerateFunc(fn func(ctx context.Context, prompt string) (string, error)) ChatOption {
	return func(c *chatConfig) {
		c.generate = fn
	}
}

// chatDefaults returns the default model for a provider.
func chatDefaults(provider string) (model, envKey string) {
	switch provider {
	case "groq":
		return "llama3-70b-8192", "GROQ_API_KEY"
	default:
		return "gpt-4o-mini", "OPENAI_API_KEY"
	}
}

// NewChatSession creates a chat session over an existing retriever.
func NewChatSession(retriever *Retriever, opts ...ChatOption) (*ChatSession, error) {
	cfg := &chatConfig{
		provider:   "openai",
		maxHistory: 10,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	defaultModel, envKey := chatDefaults(cfg.provider)
	if cfg.model == "" {
		cfg.model = defaultModel
	}
	if cfg.apiKey == "" {
		cfg.apiKey = os.Getenv(envKey)
	}

	generate := cfg.generate
	if generate == nil {
		if cfg.apiKey == "" {
			return nil, fmt.Errorf("%s is required for chat", envKey)
		}
		llm, err := gollm.NewLLM(
			gollm.SetProvider(cfg.provider),
			gollm.SetModel(cfg.model),
			gollm.SetAPIKey(cfg.apiKey),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing LLM: %w", err)
		}
		generate = func(ctx context.Context, prompt string) (string, error) {
			return llm.Generate(ctx, gollm.NewPrompt(prompt))
		}
	}

	return &ChatSession{
		retriever:  retriever,
		generate:   generate,
		logger:     rag.GlobalLogger,
		maxHistory: cfg.maxHistory,
	}, nil
}

// History returns the conversation so far.
func (s *ChatSession) History() []ChatMessage {
	return append([]ChatMessage(nil), s.history...)
}

// Reset clears the conversation history.
func (s *ChatSession) Reset() {
	s.history = nil
}

// Ask answers a question about the video. Follow-up questions are rewritten
// into standalone questions first, using the conversation history.
func (s *ChatSession) Ask(ctx context.Context, question string) (*ChatAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		// nothing to answer, leave the history as it is
		return &ChatAnswer{}, nil
	}

	standalone := question
	if len(s.history) > 0 {
		condensed, err := s.condense(ctx, question)
		if err != nil {
			s.logger.Warn("Condensing question failed, using it as-is", "error", err)
		} else if condensed != "" {
			standalone = condensed
		}
	}

	sources, err := s.retriever.Retrieve(ctx, standalone)
	if err != nil {
		return nil, err
	}

	answer, err := s.generate(ctx, fmt.Sprintf(qaPromptTemplate, formatSources(sources), standalone))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if stamps := timestampLine(sources); stamps != "" {
		answer += "\n\nRelevant timestamps: " + stamps
	}

	s.history = append(s.history,
		ChatMessage{Role: "user", Content: question},
		ChatMessage{Role: "assistant", Content: answer},
	)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}

	return &ChatAnswer{Answer: answer, Sources: sources}, nil
}

func (s *ChatSession) condense(ctx context.Context, question string) (string, error) {
	var b strings.Builder
	for _, msg := range s.history {
		role := "Human"
		if msg.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	out, err := s.generate(ctx, fmt.Sprintf(condensePromptTemplate, b.String(), question))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func formatSources(sources []RetrieverResult) string {
	if len(sources) == 0 {
		return "(no transcript excerpts found)"
	}
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("[%s] %s", src.TimeStr, src.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// timestampLine lists each source's timestamp once, in retrieval order.
func timestampLine(sources []RetrieverResult) string {
	seen := make(map[string]struct{}, len(sources))
	var stamps []string
	for _, src := range sources {
		if src.TimeStr == "" {
			continue
		}
		if _, dup := seen[src.TimeStr]; dup {
			continue
		}
		seen[src.TimeStr] = struct{}{}
		stamps = append(stamps, src.TimeStr)
	}
	return strings.Join(stamps, ", ")
}

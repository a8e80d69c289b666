package studypal

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/teilomillet/gollm"

	"github.com/spqr-86/studypal/rag"
	"github.com/spqr-86/studypal/youtube"
)

// TranslationErrorPlaceholder marks a line that could not be translated.
const TranslationErrorPlaceholder = "[Translation error]"

// SupportedLanguages maps language codes to display names for translation
// targets.
var SupportedLanguages = map[string]string{
	"en": "English",
	"ru": "Russian",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"zh": "Chinese",
	"ja": "Japanese",
}

// Translator translates subtitle batches with an LLM. Lines are sent in
// numbered batches; a batch whose response cannot be matched back to its
// lines is retried line by line, and lines that still fail are replaced
// with a placeholder.
type Translator struct {
	generate  func(ctx context.Context, prompt string) (string, error)
	batchSize int
	logger    rag.Logger
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*translatorConfig)

type translatorConfig struct {
	provider  string
	model     string
	apiKey    string
	batchSize int
	generate  func(ctx context.Context, prompt string) (string, error)
}

// WithTranslatorProvider sets the LLM provider: "openai" (default) or "groq".
func WithTranslatorProvider(provider string) TranslatorOption {
	return func(c *translatorConfig) {
		c.provider = provider
	}
}

// WithTranslatorModel sets the model name.
func WithTranslatorModel(model string) TranslatorOption {
	return func(c *translatorConfig) {
		c.model = model
	}
}

// WithTranslatorAPIKey sets the provider API key.
func WithTranslatorAPIKey(key string) TranslatorOption {
	return func(c *translatorConfig) {
		c.apiKey = key
	}
}

// WithBatchSize sets how many subtitle lines go into one request. Default 8.
func WithBatchSize(n int) TranslatorOption {
	return func(c *translatorConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithTranslateFunc replaces the LLM call. Used in tests.
func WithTranslateFunc(fn func(ctx context.Context, prompt string) (string, error)) TranslatorOption {
	return func(c *translatorConfig) {
		c.generate = fn
	}
}

// NewTranslator creates a Translator.
func NewTranslator(opts ...TranslatorOption) (*Translator, error) {
	cfg := &translatorConfig{
		provider:  "openai",
		batchSize: 8,
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
			return nil, fmt.Errorf("%s is required for translation", envKey)
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

	return &Translator{
		generate:  generate,
		batchSize: cfg.batchSize,
		logger:    rag.GlobalLogger,
	}, nil
}

// ValidateLanguage checks a target language code.
func ValidateLanguage(code string) error {
	if _, ok := SupportedLanguages[code]; !ok {
		codes := make([]string, 0, len(SupportedLanguages))
		for c := range SupportedLanguages {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		return fmt.Errorf("unsupported language %q (supported: %s)", code, strings.Join(codes, ", "))
	}
	return nil
}

// TranslateSubtitles translates subtitle texts from the source language
// into the target language, keeping timing untouched. When the source
// already matches the target it returns a copy without calling the LLM.
// Lines that cannot be translated carry the error placeholder instead of
// failing the whole run.
func (t *Translator) TranslateSubtitles(ctx context.Context, subtitles []youtube.Subtitle, sourceLang, targetLang string) ([]youtube.Subtitle, error) {
	if err := ValidateLanguage(targetLang); err != nil {
		return nil, err
	}

	translated := make([]youtube.Subtitle, len(subtitles))
	copy(translated, subtitles)

	if sourceLang == targetLang {
		return translated, nil
	}

	for start := 0; start < len(subtitles); start += t.batchSize {
		end := start + t.batchSize
		if end > len(subtitles) {
			end = len(subtitles)
		}

		lines := make([]string, end-start)
		for i := start; i < end; i++ {
			lines[i-start] = subtitles[i].Text
		}

		batch, err := t.translateBatch(ctx, lines, targetLang)
		if err != nil {
			t.logger.Warn("Batch translation failed, retrying line by line", "batch_start", start, "error", err)
			batch = t.translateOneByOne(ctx, lines, targetLang)
		}
		for i, text := range batch {
			translated[start+i].Text = text
		}
	}

	return translated, nil
}

// TranslateText translates a single piece of text.
func (t *Translator) TranslateText(ctx context.Context, text, targetLang string) (string, error) {
	if err := ValidateLanguage(targetLang); err != nil {
		return "", err
	}
	out, err := t.generate(ctx, singleTranslationPrompt(text, SupportedLanguages[targetLang]))
	if err != nil {
		return "", fmt.Errorf("translating text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

const batchTranslationPromptTemplate = `Translate the following numbered lines into %s. Reply with the same numbered lines, one translation per line, and nothing else.

%s`

func singleTranslationPrompt(text, language string) string {
	return fmt.Sprintf("Translate the following text into %s. Reply with the translation only.\n\n%s", language, text)
}

var numberedLineRe = regexp.MustCompile(`^\s*(\d+)[.):]\s*(.*)$`)

func (t *Translator) translateBatch(ctx context.Context, lines []string, targetLang string) ([]string, error) {
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, line)
	}

	out, err := t.generate(ctx, fmt.Sprintf(batchTranslationPromptTemplate,
		SupportedLanguages[targetLang], strings.Join(numbered, "\n")))
	if err != nil {
		return nil, err
	}

	parsed := make([]string, len(lines))
	found := 0
	for _, line := range strings.Split(out, "\n") {
		m := numberedLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n < 1 || n > len(lines) {
			continue
		}
		if parsed[n-1] == "" {
			parsed[n-1] = strings.TrimSpace(m[2])
			found++
		}
	}
	if found != len(lines) {
		return nil, fmt.Errorf("expected %d translated lines, matched %d", len(lines), found)
	}
	return parsed, nil
}

func (t *Translator) translateOneByOne(ctx context.Context, lines []string, targetLang string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		translated, err := t.generate(ctx, singleTranslationPrompt(line, SupportedLanguages[targetLang]))
		if err != nil {
			t.logger.Warn("Line translation failed", "line", i, "error", err)
			out[i] = TranslationErrorPlaceholder
			continue
		}
		out[i] = strings.TrimSpace(translated)
	}
	return out
}

// FormatTranslation renders original and translated subtitles side by side
// with timestamps.
func FormatTranslation(original, translated []youtube.Subtitle) string {
	if len(original) == 0 {
		return "No subtitles available."
	}
	var b strings.Builder
	for i, sub := range original {
		b.WriteString(fmt.Sprintf("[%s] %s\n", youtube.FormatTime(sub.Start), sub.Text))
		if i < len(translated) {
			b.WriteString(fmt.Sprintf("→ %s\n", translated[i].Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

package studypal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spqr-86/studypal/youtube"
)

// echoTranslator answers batch prompts by numbering each input line back
// with a marker prefix.
func echoTranslator(t *testing.T, prefix string) func(ctx context.Context, prompt string) (string, error) {
	t.Helper()
	return func(ctx context.Context, prompt string) (string, error) {
		var out []string
		for _, line := range strings.Split(prompt, "\n") {
			m := numberedLineRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			out = append(out, fmt.Sprintf("%s. %s%s", m[1], prefix, m[2]))
		}
		return strings.Join(out, "\n"), nil
	}
}

func TestValidateLanguage(t *testing.T) {
	assert.NoError(t, ValidateLanguage("ru"))
	assert.NoError(t, ValidateLanguage("ja"))

	err := ValidateLanguage("xx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "de, en, es, fr, it, ja, ru, zh")
}

func TestTranslateSubtitlesBatch(t *testing.T) {
	tr, err := NewTranslator(WithTranslateFunc(echoTranslator(t, "ru:")))
	require.NoError(t, err)

	subs := []youtube.Subtitle{
		{Text: "hello", Start: 0, Duration: 2},
		{Text: "world", Start: 2, Duration: 2},
	}

	out, err := tr.TranslateSubtitles(context.Background(), subs, "en", "ru")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ru:hello", out[0].Text)
	assert.Equal(t, "ru:world", out[1].Text)

	// timing stays untouched, and so does the input slice
	assert.Equal(t, 2.0, out[1].Start)
	assert.Equal(t, "hello", subs[0].Text)
}

func TestTranslateSubtitlesSplitsIntoBatches(t *testing.T) {
	var calls int
	tr, err := NewTranslator(
		WithBatchSize(2),
		WithTranslateFunc(func(ctx context.Context, prompt string) (string, error) {
			calls++
			return echoTranslator(t, "x ")(ctx, prompt)
		}),
	)
	require.NoError(t, err)

	subs := make([]youtube.Subtitle, 5)
	for i := range subs {
		subs[i].Text = fmt.Sprintf("line %d", i)
	}

	out, err := tr.TranslateSubtitles(context.Background(), subs, "en", "de")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "x line 4", out[4].Text)
}

func TestTranslateSubtitlesFallsBackLineByLine(t *testing.T) {
	// the batch response is garbage, per-line retries succeed except one
	var batchSeen bool
	tr, err := NewTranslator(WithTranslateFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "numbered lines") {
			batchSeen = true
			return "sorry, I cannot help with that", nil
		}
		if strings.Contains(prompt, "bad line") {
			return "", errors.New("model refused")
		}
		return "ok", nil
	}))
	require.NoError(t, err)

	subs := []youtube.Subtitle{
		{Text: "good line"},
		{Text: "bad line"},
		{Text: "another good line"},
	}

	out, err := tr.TranslateSubtitles(context.Background(), subs, "en", "fr")
	require.NoError(t, err)
	assert.True(t, batchSeen)
	assert.Equal(t, "ok", out[0].Text)
	assert.Equal(t, TranslationErrorPlaceholder, out[1].Text)
	assert.Equal(t, "ok", out[2].Text)
}

func TestTranslateSubtitlesRejectsUnknownLanguage(t *testing.T) {
	tr, err := NewTranslator(WithTranslateFunc(echoTranslator(t, "")))
	require.NoError(t, err)

	_, err = tr.TranslateSubtitles(context.Background(), []youtube.Subtitle{{Text: "hi"}}, "en", "klingon")
	require.Error(t, err)
}

func TestTranslateSubtitlesSameLanguageSkipsLLM(t *testing.T) {
	var calls int
	tr, err := NewTranslator(WithTranslateFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("should not be called")
	}))
	require.NoError(t, err)

	subs := []youtube.Subtitle{
		{Text: "hello", Start: 0, Duration: 2},
		{Text: "world", Start: 2, Duration: 2},
	}

	out, err := tr.TranslateSubtitles(context.Background(), subs, "en", "en")
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	require.Len(t, out, 2)
	assert.Equal(t, subs, out)

	// the copy is independent of the input slice
	out[0].Text = "changed"
	assert.Equal(t, "hello", subs[0].Text)
}

func TestTranslateText(t *testing.T) {
	tr, err := NewTranslator(WithTranslateFunc(func(ctx context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "Spanish")
		return "  hola  ", nil
	}))
	require.NoError(t, err)

	out, err := tr.TranslateText(context.Background(), "hello", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", out)
}

func TestTranslateBatchParsesNumberedVariants(t *testing.T) {
	tr, err := NewTranslator(WithTranslateFunc(func(ctx context.Context, prompt string) (string, error) {
		return "1) uno\n 2: dos\n3. tres", nil
	}))
	require.NoError(t, err)

	out, err := tr.translateBatch(context.Background(), []string{"one", "two", "three"}, "es")
	require.NoError(t, err)
	assert.Equal(t, []string{"uno", "dos", "tres"}, out)
}

func TestTranslateBatchCountMismatch(t *testing.T) {
	tr, err := NewTranslator(WithTranslateFunc(func(ctx context.Context, prompt string) (string, error) {
		return "1. only one line", nil
	}))
	require.NoError(t, err)

	_, err = tr.translateBatch(context.Background(), []string{"one", "two"}, "es")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched 1")
}

func TestNewTranslatorRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewTranslator()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestFormatTranslation(t *testing.T) {
	original := []youtube.Subtitle{{Text: "hello", Start: 65}}
	translated := []youtube.Subtitle{{Text: "привет", Start: 65}}

	out := FormatTranslation(original, translated)
	assert.Contains(t, out, "[00:01:05] hello")
	assert.Contains(t, out, "→ привет")

	assert.Equal(t, "No subtitles available.", FormatTranslation(nil, nil))
}

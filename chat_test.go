package studypal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatRetriever(t *testing.T) *Retriever {
	t.Helper()
	db := newTestStore(t, "video_test", transcriptRecords())

	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{1, 0, 0}},
		WithRetrieveCollection("video_test"),
		WithTopK(2),
		WithMetricType("L2"),
	)
	require.NoError(t, err)
	return r
}

func TestChatAskAnswersWithTimestamps(t *testing.T) {
	var qaPrompt string
	session, err := NewChatSession(newChatRetriever(t),
		WithGenerateFunc(func(ctx context.Context, prompt string) (string, error) {
			qaPrompt = prompt
			return "Pointers hold memory addresses.", nil
		}),
	)
	require.NoError(t, err)

	answer, err := session.Ask(context.Background(), "what are pointers?")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(answer.Answer, "Pointers hold memory addresses."))
	assert.Contains(t, answer.Answer, "Relevant timestamps: 00:00:12, 00:00:40")
	require.Len(t, answer.Sources, 2)

	// the QA prompt carries the retrieved excerpts with timestamps
	assert.Contains(t, qaPrompt, "[00:00:12] pointers store addresses")
	assert.Contains(t, qaPrompt, "Question: what are pointers?")
}

func TestChatAskCondensesFollowUps(t *testing.T) {
	var prompts []string
	session, err := NewChatSession(newChatRetriever(t),
		WithGenerateFunc(func(ctx context.Context, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			if strings.Contains(prompt, "Standalone question:") {
				return "what do pointers store?", nil
			}
			return "They store addresses.", nil
		}),
	)
	require.NoError(t, err)

	_, err = session.Ask(context.Background(), "what are pointers?")
	require.NoError(t, err)
	_, err = session.Ask(context.Background(), "what do they store?")
	require.NoError(t, err)

	// first turn has no history, so only the second one condenses
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[1], "Chat History:")
	assert.Contains(t, prompts[1], "Human: what are pointers?")
	assert.Contains(t, prompts[2], "Question: what do pointers store?")
}

func TestChatAskCondenseFailureFallsBack(t *testing.T) {
	session, err := NewChatSession(newChatRetriever(t),
		WithGenerateFunc(func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "Standalone question:") {
				return "", errors.New("model overloaded")
			}
			if strings.Contains(prompt, "Question: first question") {
				return "answer", nil
			}
			assert.Contains(t, prompt, "Question: follow up question")
			return "answer", nil
		}),
	)
	require.NoError(t, err)

	_, err = session.Ask(context.Background(), "first question")
	require.NoError(t, err)
	_, err = session.Ask(context.Background(), "follow up question")
	require.NoError(t, err)
}

func TestChatAskEmptyQuestion(t *testing.T) {
	var calls int
	session, err := NewChatSession(newChatRetriever(t),
		WithGenerateFunc(func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "the answer", nil
		}),
	)
	require.NoError(t, err)

	_, err = session.Ask(context.Background(), "what are pointers?")
	require.NoError(t, err)
	before := session.History()

	// a blank question is a no-op, the history stays as it was
	answer, err := session.Ask(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, answer.Answer)
	assert.Equal(t, before, session.History())
	assert.Equal(t, 1, calls)
}

func TestChatHistoryTrimmedToMax(t *testing.T) {
	session, err := NewChatSession(newChatRetriever(t),
		WithMaxHistory(2),
		WithGenerateFunc(func(ctx context.Context, prompt string) (string, error) {
			return "ok", nil
		}),
	)
	require.NoError(t, err)

	for _, q := range []string{"one", "two", "three"} {
		_, err := session.Ask(context.Background(), q)
		require.NoError(t, err)
	}

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "three", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)

	session.Reset()
	assert.Empty(t, session.History())
}

func TestChatAskNoSources(t *testing.T) {
	db := newTestStore(t, "video_empty", nil)
	r, err := NewRetriever(db, fixedEmbedder{vec: []float64{1, 0, 0}},
		WithRetrieveCollection("video_empty"),
	)
	require.NoError(t, err)

	var qaPrompt string
	session, err := NewChatSession(r,
		WithGenerateFunc(func(ctx context.Context, prompt string) (string, error) {
			qaPrompt = prompt
			return "The video does not cover this.", nil
		}),
	)
	require.NoError(t, err)

	answer, err := session.Ask(context.Background(), "unrelated question")
	require.NoError(t, err)
	assert.Contains(t, qaPrompt, "(no transcript excerpts found)")
	assert.NotContains(t, answer.Answer, "Relevant timestamps")
	assert.Empty(t, answer.Sources)
}

func TestNewChatSessionRequiresKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	_, err := NewChatSession(newChatRetriever(t), WithChatProvider("groq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

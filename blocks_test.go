package studypal

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spqr-86/studypal/youtube"
)

func TestSegmentSubtitlesFewSubtitlesSingleBlock(t *testing.T) {
	subs := []youtube.Subtitle{
		{Text: "short", Start: 0, Duration: 2},
		{Text: "video", Start: 2, Duration: 2},
		{Text: "here", Start: 4, Duration: 2},
	}

	blocks := SegmentSubtitles(subs, DefaultSegmentOptions())
	require.Len(t, blocks, 1)
	assert.Equal(t, "Entire content", blocks[0].Title)
	assert.Equal(t, 0.0, blocks[0].Start)
	assert.Equal(t, 6.0, blocks[0].End)
	assert.Equal(t, "short video here", blocks[0].Content)
}

func TestSegmentSubtitlesEmpty(t *testing.T) {
	blocks := SegmentSubtitles(nil, DefaultSegmentOptions())
	require.Len(t, blocks, 1)
	assert.Equal(t, "Entire content", blocks[0].Title)
}

func TestSegmentSubtitlesSplitsOnPause(t *testing.T) {
	var subs []youtube.Subtitle
	for i := 0; i < 7; i++ {
		subs = append(subs, youtube.Subtitle{Text: "part one", Start: float64(i * 10), Duration: 10})
	}
	// 10s of silence after 70s of speech
	for i := 0; i < 3; i++ {
		subs = append(subs, youtube.Subtitle{Text: "part two", Start: 80 + float64(i*10), Duration: 10})
	}

	blocks := SegmentSubtitles(subs, DefaultSegmentOptions())
	require.Len(t, blocks, 2)
	assert.Equal(t, 0.0, blocks[0].Start)
	assert.Equal(t, 70.0, blocks[0].End)
	assert.Len(t, blocks[0].Subtitles, 7)
	assert.Equal(t, 80.0, blocks[1].Start)
	assert.Equal(t, 110.0, blocks[1].End)
}

func TestSegmentSubtitlesShortBlockKeepsAccumulating(t *testing.T) {
	subs := []youtube.Subtitle{
		{Text: "a few words", Start: 0, Duration: 5},
		{Text: "then more", Start: 5, Duration: 5},
		{Text: "a pause follows", Start: 10, Duration: 5},
		{Text: "but the block", Start: 20, Duration: 5},
		{Text: "stays whole", Start: 25, Duration: 5},
		{Text: "until the end", Start: 30, Duration: 5},
	}

	blocks := SegmentSubtitles(subs, DefaultSegmentOptions())
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Subtitles, 6)
}

func TestSegmentSubtitlesMaxBlockSize(t *testing.T) {
	var subs []youtube.Subtitle
	for i := 0; i < 12; i++ {
		subs = append(subs, youtube.Subtitle{Text: "steady talk", Start: float64(i * 10), Duration: 10})
	}

	opts := SegmentOptions{MinBlockDuration: 0, MinPauseThreshold: 3, MaxBlockSize: 5}
	blocks := SegmentSubtitles(subs, opts)
	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0].Subtitles, 5)
	assert.Len(t, blocks[1].Subtitles, 5)
	assert.Len(t, blocks[2].Subtitles, 2)
}

func TestSegmentSubtitlesGeneratesTitles(t *testing.T) {
	subs := []youtube.Subtitle{
		{Text: "pointers are fun.", Start: 0, Duration: 4},
		{Text: "we use pointers to share", Start: 4, Duration: 4},
		{Text: "memory and memory is fast", Start: 8, Duration: 4},
		{Text: "because pointers rule", Start: 12, Duration: 4},
		{Text: "the end", Start: 16, Duration: 4},
	}

	blocks := SegmentSubtitles(subs, DefaultSegmentOptions())
	require.Len(t, blocks, 1)
	assert.Equal(t, "Pointers are fun [pointers, memory]", blocks[0].Title)
}

func TestBlockTitleFallbacks(t *testing.T) {
	assert.Equal(t, "Section 3", blockTitle("", 2))
	assert.Equal(t, "Topic: network", blockTitle("x y. network network network", 0))
	assert.Equal(t, "Um uh so", blockTitle("um uh so", 0))
}

func TestBlockTitleTruncatesLongPhrase(t *testing.T) {
	title := blockTitle("fundamental considerations regarding distributed consensus algorithms today. consensus matters", 0)
	assert.Equal(t, "Fundamental considerations reg... [consensus]", title)
}

func TestBlockTitleKeepsRuneBoundaries(t *testing.T) {
	// multi-byte runes must never be cut in half by the truncation
	content := "указатели хранят адреса памяти программы и данные стека. " +
		"указатели ссылаются на память."

	title := blockTitle(content, 0)
	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, "Указатели хранят адреса памяти... [указатели]", title)
}

func TestSegmentWithChapters(t *testing.T) {
	subs := []youtube.Subtitle{
		{Text: "welcome", Start: 0, Duration: 5},
		{Text: "to the course", Start: 10, Duration: 5},
		{Text: "deep dive", Start: 35, Duration: 5},
		{Text: "more content", Start: 50, Duration: 5},
	}
	chapters := []youtube.Chapter{
		{Title: "Intro", Start: 0},
		{Title: "Main", Start: 30},
		{Title: "Break", Start: 55, End: 70},
	}

	blocks := SegmentWithChapters(subs, chapters, DefaultSegmentOptions())
	require.Len(t, blocks, 2)

	assert.Equal(t, "Intro", blocks[0].Title)
	assert.True(t, blocks[0].FromChapter)
	assert.Equal(t, 30.0, blocks[0].End)
	assert.Len(t, blocks[0].Subtitles, 2)

	assert.Equal(t, "Main", blocks[1].Title)
	assert.Equal(t, 55.0, blocks[1].End)
	assert.Len(t, blocks[1].Subtitles, 2)
}

func TestSegmentWithChaptersFallsBackWithoutChapters(t *testing.T) {
	subs := []youtube.Subtitle{
		{Text: "quick", Start: 0, Duration: 2},
		{Text: "note", Start: 2, Duration: 2},
	}

	blocks := SegmentWithChapters(subs, nil, DefaultSegmentOptions())
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].FromChapter)
	assert.Equal(t, "Entire content", blocks[0].Title)
}

func TestTableOfContents(t *testing.T) {
	blocks := []Block{
		{Title: "Intro", Start: 0, End: 90, FromChapter: true},
		{Title: "Main", Start: 90, End: 210, FromChapter: true},
	}

	toc := TableOfContents(blocks)
	assert.Contains(t, toc, "# Video Table of Contents")
	assert.Equal(t, 1, strings.Count(toc, "built from YouTube chapters"))
	assert.Contains(t, toc, "### 1. 🔖 Intro")
	assert.Contains(t, toc, "**Time:** 00:01:30 | **Duration:** 00:02:00")
}

func TestTableOfContentsWithoutChapters(t *testing.T) {
	toc := TableOfContents([]Block{{Title: "Section 1", Start: 0, End: 60}})
	assert.NotContains(t, toc, "built from YouTube chapters")
	assert.Contains(t, toc, "### 1. Section 1")
}

func TestBlockContent(t *testing.T) {
	blocks := []Block{{
		Title: "Intro",
		Start: 10,
		End:   20,
		Subtitles: []youtube.Subtitle{
			{Text: "hello there", Start: 10, Duration: 5},
		},
	}}

	out, err := BlockContent(blocks, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "## Intro")
	assert.Contains(t, out, "**Timestamp:** 00:00:10 - 00:00:20")
	assert.Contains(t, out, "**[00:00:10]** hello there")
}

func TestBlockContentWithoutSubtitles(t *testing.T) {
	blocks := []Block{
		{Title: "Text only", Content: "just the content string"},
		{Title: "Nothing"},
	}

	out, err := BlockContent(blocks, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "just the content string")

	out, err = BlockContent(blocks, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "No content available.")
}

func TestBlockContentOutOfRange(t *testing.T) {
	_, err := BlockContent([]Block{{Title: "only"}}, 1)
	require.Error(t, err)
	_, err = BlockContent(nil, 0)
	require.Error(t, err)
}

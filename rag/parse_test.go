package rag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSubtitleParserSRT(t *testing.T) {
	path := writeTempFile(t, "lecture.srt", `1
00:00:01,000 --> 00:00:04,000
Welcome to the course.

2
00:00:04,500 --> 00:00:08,000
Today we cover <i>vectors</i>.
`)

	doc, err := NewSubtitleParser().Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "Welcome to the course.\nToday we cover vectors.", doc.Content)
	assert.Equal(t, "subtitle", doc.Metadata["file_type"])
}

func TestSubtitleParserVTT(t *testing.T) {
	path := writeTempFile(t, "lecture.vtt", `WEBVTT

NOTE metadata here

00:00:01.000 --> 00:00:04.000
First cue.

00:00:04.000 --> 00:00:07.000
Second cue.
`)

	doc, err := NewSubtitleParser().Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "First cue.\nSecond cue.", doc.Content)
}

func TestParserManagerRoutesByExtension(t *testing.T) {
	pm := NewParserManager()

	txt := writeTempFile(t, "notes.md", "# Heading\nBody text.")
	doc, err := pm.Parse(txt)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "Body text.")

	srt := writeTempFile(t, "subs.srt", "1\n00:00:00,000 --> 00:00:02,000\nHi.\n")
	doc, err = pm.Parse(srt)
	require.NoError(t, err)
	assert.Equal(t, "Hi.", doc.Content)
}

func TestParserManagerUnknownType(t *testing.T) {
	pm := NewParserManager()
	_, err := pm.Parse("photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser available")
}

func TestParserManagerCustomDetector(t *testing.T) {
	pm := NewParserManager()
	pm.SetFileTypeDetector(func(string) string { return "text" })

	path := writeTempFile(t, "odd.extension", "plain content")
	doc, err := pm.Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "plain content", doc.Content)
}

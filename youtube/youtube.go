// Package youtube retrieves video transcripts, metadata, and chapter lists
// from YouTube without requiring an official client library. Transcripts are
// read from the caption tracks the watch page exposes; metadata comes from
// the public oEmbed endpoint; chapters come from the watch page or, as a
// fallback, from timestamp lines in the video description via the Data API.
package youtube

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Subtitle is a single caption entry: what was said, when, and for how long.
// Start and Duration are in seconds.
type Subtitle struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Chapter is a titled span of the video. End is zero when the chapter runs
// to the end of the video.
type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time,omitempty"`
}

// VideoInfo holds the metadata StudyPal keeps about a video.
type VideoInfo struct {
	ID        string    `json:"video_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Thumbnail string    `json:"thumbnail"`
	Language  string    `json:"language"`
	Chapters  []Chapter `json:"chapters,omitempty"`
}

// Sentinel errors returned by this package.
var (
	// ErrInvalidURL means no video ID could be extracted from the input.
	ErrInvalidURL = errors.New("invalid YouTube URL")
	// ErrNoTranscript means the video has no caption tracks at all.
	ErrNoTranscript = errors.New("no transcript available")
)

// videoIDPatterns cover the URL shapes users paste: standard watch URLs,
// embed URLs, and youtu.be short links. A video ID is 11 characters of
// [0-9A-Za-z_-].
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:watch\?v=)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
}

// ExtractVideoID pulls the 11-character video ID out of a YouTube URL.
// A bare video ID is accepted as-is.
func ExtractVideoID(url string) (string, error) {
	if regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`).MatchString(url) {
		return url, nil
	}
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidURL, url)
}

// FormatTime renders seconds as HH:MM:SS.
func FormatTime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatSubtitles renders subtitles one per line as "[HH:MM:SS] text".
func FormatSubtitles(subtitles []Subtitle) string {
	if len(subtitles) == 0 {
		return "No subtitles available."
	}

	var b strings.Builder
	for _, entry := range subtitles {
		b.WriteString(fmt.Sprintf("[%s] %s\n\n", FormatTime(entry.Start), entry.Text))
	}
	return b.String()
}

// parseTimestamp converts "MM:SS" or "H:MM:SS" to seconds. Returns false
// when the string is not a timestamp.
func parseTimestamp(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var h, m, sec int
	var err error
	switch len(parts) {
	case 2:
		if m, err = atoi(parts[0]); err != nil {
			return 0, false
		}
		if sec, err = atoi(parts[1]); err != nil {
			return 0, false
		}
	case 3:
		if h, err = atoi(parts[0]); err != nil {
			return 0, false
		}
		if m, err = atoi(parts[1]); err != nil {
			return 0, false
		}
		if sec, err = atoi(parts[2]); err != nil {
			return 0, false
		}
	}
	return float64(h*3600 + m*60 + sec), true
}

func atoi(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

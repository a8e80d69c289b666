package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/spqr-86/studypal/rag"
)

const (
	defaultWatchBase  = "https://www.youtube.com/watch"
	defaultOEmbedBase = "https://www.youtube.com/oembed"
	defaultDataAPIURL = "https://www.googleapis.com/youtube/v3/videos"
)

// Client talks to YouTube. All requests honor the passed context, share a
// single rate limiter, and go through one HTTP client with a timeout.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     rag.Logger

	// apiKey enables the Data API chapter fallback when set.
	apiKey string

	watchBase  string
	oembedBase string
	dataAPIURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIKey sets the YouTube Data API key used for the chapter fallback.
func WithAPIKey(key string) ClientOption {
	return func(cl *Client) {
		cl.apiKey = key
	}
}

// WithRateLimit overrides the default request rate of 2 req/s.
func WithRateLimit(requestsPerSecond float64, burst int) ClientOption {
	return func(cl *Client) {
		cl.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger rag.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithBaseURLs points the client at alternative endpoints. Tests use this
// to run against a local server.
func WithBaseURLs(watchBase, oembedBase, dataAPIURL string) ClientOption {
	return func(cl *Client) {
		cl.watchBase = watchBase
		cl.oembedBase = oembedBase
		cl.dataAPIURL = dataAPIURL
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		logger:     rag.GlobalLogger,
		watchBase:  defaultWatchBase,
		oembedBase: defaultOEmbedBase,
		dataAPIURL: defaultDataAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(resp.Body)
}

// captionTrack is one entry of the captionTracks array embedded in the
// watch page's player response.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

var captionTracksRe = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

// FetchTranscript retrieves the caption track for the first preferred
// language that has one, falling back to any available track. Returns
// ErrNoTranscript when the video has no caption tracks at all.
func (c *Client) FetchTranscript(ctx context.Context, videoID string, languages ...string) ([]Subtitle, string, error) {
	page, err := c.get(ctx, fmt.Sprintf("%s?v=%s", c.watchBase, url.QueryEscape(videoID)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch watch page: %w", err)
	}

	m := captionTracksRe.FindSubmatch(page)
	if m == nil {
		return nil, "", fmt.Errorf("%w: video %s has no caption tracks", ErrNoTranscript, videoID)
	}

	var tracks []captionTrack
	if err := json.Unmarshal(m[1], &tracks); err != nil {
		return nil, "", fmt.Errorf("failed to parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, "", fmt.Errorf("%w: video %s has no caption tracks", ErrNoTranscript, videoID)
	}

	track := pickTrack(tracks, languages)
	c.logger.Debug("Selected caption track", "video", videoID, "language", track.LanguageCode, "kind", track.Kind)

	subtitles, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return subtitles, track.LanguageCode, nil
}

// pickTrack prefers a manual track in a requested language, then a generated
// one, then falls back to the first track.
func pickTrack(tracks []captionTrack, languages []string) captionTrack {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	return tracks[0]
}

// timedTextDoc matches the timedtext XML a caption track's baseUrl serves.
type timedTextDoc struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) ([]Subtitle, error) {
	body, err := c.get(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch caption track: %w", err)
	}

	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse caption XML: %w", err)
	}

	subtitles := make([]Subtitle, 0, len(doc.Texts))
	for _, line := range doc.Texts {
		// the transcript XML carries entities escaped twice
		text := strings.TrimSpace(html.UnescapeString(line.Body))
		if text == "" {
			continue
		}
		subtitles = append(subtitles, Subtitle{
			Text:     text,
			Start:    line.Start,
			Duration: line.Dur,
		})
	}
	return subtitles, nil
}

// oembedResponse is the subset of the oEmbed payload StudyPal uses.
type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// FetchVideoInfo retrieves title, author, and thumbnail via the public
// oEmbed endpoint. Fields YouTube does not return default to "Unknown".
func (c *Client) FetchVideoInfo(ctx context.Context, videoID string) (VideoInfo, error) {
	videoURL := "https://www.youtube.com/watch?v=" + videoID
	info := VideoInfo{
		ID:        videoID,
		URL:       videoURL,
		Title:     "Unknown",
		Author:    "Unknown",
		Thumbnail: "",
	}

	body, err := c.get(ctx, fmt.Sprintf("%s?url=%s&format=json", c.oembedBase, url.QueryEscape(videoURL)))
	if err != nil {
		return info, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return info, fmt.Errorf("failed to parse oEmbed response: %w", err)
	}

	if resp.Title != "" {
		info.Title = resp.Title
	}
	if resp.AuthorName != "" {
		info.Author = resp.AuthorName
	}
	info.Thumbnail = resp.ThumbnailURL
	return info, nil
}

var chaptersRe = regexp.MustCompile(`"chapters":(\[.*?\])`)

// FetchChapters retrieves the video's chapter list. It first scrapes the
// watch page's embedded chapter data; when that yields nothing and a Data
// API key is configured, it falls back to timestamp lines in the video
// description. Both sources failing is not an error: the result is simply
// an empty list.
func (c *Client) FetchChapters(ctx context.Context, videoID string) ([]Chapter, error) {
	chapters, err := c.chaptersFromWatchPage(ctx, videoID)
	if err != nil {
		c.logger.Warn("Failed to scrape chapters from watch page", "video", videoID, "error", err)
	}
	if len(chapters) > 0 {
		return chapters, nil
	}

	if c.apiKey == "" {
		return nil, nil
	}

	chapters, err = c.chaptersFromDescription(ctx, videoID)
	if err != nil {
		c.logger.Warn("Failed to read chapters from description", "video", videoID, "error", err)
		return nil, nil
	}
	return chapters, nil
}

func (c *Client) chaptersFromWatchPage(ctx context.Context, videoID string) ([]Chapter, error) {
	page, err := c.get(ctx, fmt.Sprintf("%s?v=%s", c.watchBase, url.QueryEscape(videoID)))
	if err != nil {
		return nil, err
	}

	m := chaptersRe.FindSubmatch(page)
	if m == nil {
		return nil, nil
	}

	// The embedded chapter objects vary by page version; read them loosely.
	var raw []map[string]interface{}
	if err := json.Unmarshal(m[1], &raw); err != nil {
		return nil, fmt.Errorf("failed to parse chapters JSON: %w", err)
	}

	chapters := make([]Chapter, 0, len(raw))
	for i, entry := range raw {
		title := stringField(entry, "title", "chapterName")
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		chapters = append(chapters, Chapter{
			Title: title,
			Start: numberField(entry, "start_time", "startTime"),
		})
	}
	fillChapterEnds(chapters)
	return chapters, nil
}

// dataAPIResponse is the subset of the Data API videos.list payload used
// for the description fallback.
type dataAPIResponse struct {
	Items []struct {
		Snippet struct {
			Description string `json:"description"`
		} `json:"snippet"`
	} `json:"items"`
}

var descriptionTimestampRe = regexp.MustCompile(`^((?:\d{1,2}:)?\d{1,2}:\d{2})\s+(.+)$`)

func (c *Client) chaptersFromDescription(ctx context.Context, videoID string) ([]Chapter, error) {
	reqURL := fmt.Sprintf("%s?part=snippet&id=%s&key=%s", c.dataAPIURL, url.QueryEscape(videoID), url.QueryEscape(c.apiKey))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp dataAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Data API response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no video data found for %s", videoID)
	}

	var chapters []Chapter
	for _, line := range strings.Split(resp.Items[0].Snippet.Description, "\n") {
		m := descriptionTimestampRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		start, ok := parseTimestamp(m[1])
		if !ok {
			continue
		}
		chapters = append(chapters, Chapter{
			Title: strings.TrimSpace(m[2]),
			Start: start,
		})
	}
	fillChapterEnds(chapters)
	return chapters, nil
}

// fillChapterEnds sets each chapter's End to the next chapter's Start.
// The last chapter's End stays zero (runs to end of video).
func fillChapterEnds(chapters []Chapter) {
	for i := 0; i < len(chapters)-1; i++ {
		chapters[i].End = chapters[i+1].Start
	}
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func numberField(m map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := m[key].(float64); ok {
			return v
		}
	}
	return 0
}

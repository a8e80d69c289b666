package studypal

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/spqr-86/studypal/youtube"
)

// Block is a logical segment of a video: a titled span of subtitles.
// Blocks come either from the video's own chapters or from pause-based
// segmentation of the transcript.
type Block struct {
	Title       string              `json:"title"`
	Start       float64             `json:"start_time"`
	End         float64             `json:"end_time"`
	Subtitles   []youtube.Subtitle  `json:"subtitles,omitempty"`
	Content     string              `json:"content_text,omitempty"`
	FromChapter bool                `json:"is_chapter,omitempty"`
}

// SegmentOptions controls pause-based segmentation.
type SegmentOptions struct {
	// MinBlockDuration is the minimum length of a block in seconds.
	// Shorter candidate blocks keep accumulating subtitles.
	MinBlockDuration float64
	// MinPauseThreshold is the silence gap in seconds that ends a block.
	MinPauseThreshold float64
	// MaxBlockSize caps the number of subtitles per block.
	MaxBlockSize int
}

// DefaultSegmentOptions returns the segmentation defaults: 60s minimum
// block duration, 3s pause threshold, 25 subtitles per block.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		MinBlockDuration:  60,
		MinPauseThreshold: 3,
		MaxBlockSize:      25,
	}
}

// subtitleEnd returns when a subtitle stops being shown. Subtitles without
// a duration are assumed to run five seconds, matching how YouTube pads
// caption timing.
func subtitleEnd(s youtube.Subtitle) float64 {
	d := s.Duration
	if d == 0 {
		d = 5
	}
	return s.Start + d
}

// SegmentSubtitles splits subtitles into logical blocks based on pauses in
// speech and block size. A block ends when the gap to the next subtitle
// reaches the pause threshold or the block hits the size cap, but only
// once it is at least the minimum duration long. Fewer than five subtitles
// yield a single block covering everything. Untitled blocks get generated
// titles.
func SegmentSubtitles(subtitles []youtube.Subtitle, opts SegmentOptions) []Block {
	if len(subtitles) < 5 {
		if len(subtitles) == 0 {
			return []Block{{Title: "Entire content"}}
		}
		return []Block{{
			Title:     "Entire content",
			Start:     subtitles[0].Start,
			End:       subtitleEnd(subtitles[len(subtitles)-1]),
			Subtitles: subtitles,
			Content:   joinSubtitleText(subtitles),
		}}
	}

	var blocks []Block
	var current []youtube.Subtitle

	for i, subtitle := range subtitles {
		current = append(current, subtitle)

		shouldSplit := false
		if i < len(subtitles)-1 {
			pause := subtitles[i+1].Start - subtitleEnd(subtitle)
			if pause >= opts.MinPauseThreshold {
				shouldSplit = true
			}
		}
		if len(current) >= opts.MaxBlockSize {
			shouldSplit = true
		}

		last := i == len(subtitles)-1
		if (shouldSplit || last) && len(current) > 0 {
			start := current[0].Start
			end := subtitleEnd(current[len(current)-1])
			if end-start >= opts.MinBlockDuration || last {
				blocks = append(blocks, Block{
					Start:     start,
					End:       end,
					Subtitles: append([]youtube.Subtitle(nil), current...),
					Content:   joinSubtitleText(current),
				})
				current = nil
			}
		}
	}

	generateBlockTitles(blocks)
	return blocks
}

// SegmentWithChapters builds blocks along the video's chapter boundaries.
// Each chapter keeps its own title and is flagged as chapter-derived.
// Chapters that have no subtitles and run shorter than the minimum block
// duration are dropped. With no chapters at all, pause-based segmentation
// is used instead.
func SegmentWithChapters(subtitles []youtube.Subtitle, chapters []youtube.Chapter, opts SegmentOptions) []Block {
	if len(chapters) == 0 {
		return SegmentSubtitles(subtitles, opts)
	}

	videoEnd := 0.0
	if len(subtitles) > 0 {
		videoEnd = subtitleEnd(subtitles[len(subtitles)-1])
	}

	var blocks []Block
	for i, chapter := range chapters {
		start := chapter.Start
		end := chapter.End
		if end == 0 {
			if i < len(chapters)-1 {
				end = chapters[i+1].Start
			} else {
				end = videoEnd
			}
		}

		var chapterSubs []youtube.Subtitle
		for _, s := range subtitles {
			if s.Start >= start && s.Start < end {
				chapterSubs = append(chapterSubs, s)
			}
		}

		if len(chapterSubs) == 0 && end-start < opts.MinBlockDuration {
			continue
		}

		blocks = append(blocks, Block{
			Title:       chapter.Title,
			Start:       start,
			End:         end,
			Subtitles:   chapterSubs,
			Content:     joinSubtitleText(chapterSubs),
			FromChapter: true,
		})
	}

	generateBlockTitles(blocks)
	return blocks
}

func joinSubtitleText(subtitles []youtube.Subtitle) string {
	parts := make([]string, len(subtitles))
	for i, s := range subtitles {
		parts[i] = s.Text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// generateBlockTitles fills in titles for blocks that lack one. The title
// is the block's opening phrase followed by its most frequent non-stopword
// keywords, e.g. "Today we look at pointers [memory, heap, stack]".
func generateBlockTitles(blocks []Block) {
	for i := range blocks {
		if blocks[i].Title != "" {
			continue
		}
		blocks[i].Title = blockTitle(blocks[i].Content, i)
	}
}

func blockTitle(content string, index int) string {
	text := strings.ToLower(content)

	firstPhrase := openingPhrase(text)
	keywords := topKeywords(text, 3)

	var title string
	switch {
	case firstPhrase != "" && len(keywords) > 0:
		title = capitalize(truncateRunes(firstPhrase, 30)) + " [" + strings.Join(keywords, ", ") + "]"
	case firstPhrase != "":
		title = capitalize(firstPhrase)
	case len(keywords) > 0:
		title = "Topic: " + strings.Join(keywords, ", ")
	default:
		title = fmt.Sprintf("Section %d", index+1)
	}

	return truncateRunes(title, 70)
}

// truncateRunes cuts s to max runes, never mid-rune, appending an ellipsis
// when something was dropped.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// openingPhrase takes up to seven cleaned words from the first sentence.
func openingPhrase(text string) string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) == 0 {
		return ""
	}

	var words []string
	for _, word := range strings.Fields(sentences[0]) {
		clean := stripNonAlnum(word)
		if len([]rune(clean)) > 1 {
			words = append(words, clean)
		}
		if len(words) == 7 {
			break
		}
	}
	return strings.Join(words, " ")
}

// topKeywords returns the most frequent words that are not stopwords,
// appear more than once, and are longer than two characters.
func topKeywords(text string, n int) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(text) {
		clean := stripNonAlnum(word)
		if len([]rune(clean)) <= 2 {
			continue
		}
		if _, stop := stopwords[clean]; stop {
			continue
		}
		counts[clean]++
	}

	type wordCount struct {
		word  string
		count int
	}
	frequent := make([]wordCount, 0, len(counts))
	for word, count := range counts {
		if count > 1 {
			frequent = append(frequent, wordCount{word, count})
		}
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].count != frequent[j].count {
			return frequent[i].count > frequent[j].count
		}
		return frequent[i].word < frequent[j].word
	})

	if len(frequent) > n {
		frequent = frequent[:n]
	}
	words := make([]string, len(frequent))
	for i, wc := range frequent {
		words[i] = wc.word
	}
	return words
}

func stripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// TableOfContents renders blocks as a Markdown table of contents. Blocks
// taken from the video's own chapters are marked with a bookmark icon.
func TableOfContents(blocks []Block) string {
	var b strings.Builder
	b.WriteString("# Video Table of Contents\n\n")

	for _, block := range blocks {
		if block.FromChapter {
			b.WriteString("> Table of contents built from YouTube chapters\n\n")
			break
		}
	}

	for i, block := range blocks {
		icon := ""
		if block.FromChapter {
			icon = "🔖 "
		}
		b.WriteString(fmt.Sprintf("### %d. %s%s\n", i+1, icon, block.Title))
		b.WriteString(fmt.Sprintf("**Time:** %s | **Duration:** %s\n\n",
			youtube.FormatTime(block.Start),
			youtube.FormatTime(block.End-block.Start)))
	}

	return b.String()
}

// BlockContent renders one block's subtitles with timestamps as Markdown.
// Returns an error when the index is out of range.
func BlockContent(blocks []Block, index int) (string, error) {
	if index < 0 || index >= len(blocks) {
		return "", fmt.Errorf("block index %d out of range (0-%d)", index, len(blocks)-1)
	}

	block := blocks[index]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s\n\n", block.Title))
	b.WriteString(fmt.Sprintf("**Timestamp:** %s - %s\n\n",
		youtube.FormatTime(block.Start), youtube.FormatTime(block.End)))
	b.WriteString("### Content:\n\n")

	if len(block.Subtitles) > 0 {
		for _, s := range block.Subtitles {
			b.WriteString(fmt.Sprintf("**[%s]** %s\n\n", youtube.FormatTime(s.Start), s.Text))
		}
	} else if block.Content != "" {
		b.WriteString(block.Content)
	} else {
		b.WriteString("No content available.")
	}

	return b.String(), nil
}

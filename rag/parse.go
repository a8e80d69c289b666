package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document represents a parsed document with its content and associated
// metadata such as file type and path.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Parser defines the interface for document parsing implementations.
// Any type that implements this interface can be registered with the
// ParserManager to handle specific file types.
type Parser interface {
	// Parse processes a file at the given path and returns a Document.
	Parse(filePath string) (Document, error)
}

// ParserManager routes files to the appropriate parser based on their type.
// It handles the formats study notes usually come in: plain text, Markdown,
// PDF, and subtitle files (.srt, .vtt).
type ParserManager struct {
	fileTypeDetector func(string) string
	parsers          map[string]Parser
}

// NewParserManager creates a ParserManager with the default detectors and
// parsers registered.
func NewParserManager() *ParserManager {
	pm := &ParserManager{
		fileTypeDetector: defaultFileTypeDetector,
		parsers:          make(map[string]Parser),
	}

	pm.parsers["pdf"] = NewPDFParser()
	pm.parsers["text"] = NewTextParser()
	pm.parsers["subtitle"] = NewSubtitleParser()

	return pm
}

// Parse processes a document using the parser registered for its file type.
func (pm *ParserManager) Parse(filePath string) (Document, error) {
	GlobalLogger.Debug("Starting to parse file", "path", filePath)
	fileType := pm.fileTypeDetector(filePath)
	parser, ok := pm.parsers[fileType]
	if !ok {
		GlobalLogger.Error("No parser available for file type", "type", fileType)
		return Document{}, fmt.Errorf("no parser available for file type: %s", fileType)
	}
	doc, err := parser.Parse(filePath)
	if err != nil {
		GlobalLogger.Error("Failed to parse document", "path", filePath, "error", err)
		return Document{}, err
	}
	GlobalLogger.Debug("Successfully parsed document", "path", filePath, "type", fileType)
	return doc, nil
}

func defaultFileTypeDetector(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return "pdf"
	case ".txt", ".md":
		return "text"
	case ".srt", ".vtt":
		return "subtitle"
	default:
		return "unknown"
	}
}

// SetFileTypeDetector allows customization of how file types are detected.
func (pm *ParserManager) SetFileTypeDetector(detector func(string) string) {
	pm.fileTypeDetector = detector
}

// AddParser registers a new parser for a specific file type.
func (pm *ParserManager) AddParser(fileType string, parser Parser) {
	pm.parsers[fileType] = parser
}

// PDFParser implements the Parser interface for PDF files using the
// ledongthuc/pdf library for text extraction.
type PDFParser struct{}

// NewPDFParser creates a new PDFParser instance.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts text content from the PDF page by page.
func (p *PDFParser) Parse(filePath string) (Document, error) {
	GlobalLogger.Debug("Starting to parse PDF", "path", filePath)
	content, err := p.extractText(filePath)
	if err != nil {
		GlobalLogger.Error("Failed to extract text from PDF", "path", filePath, "error", err)
		return Document{}, fmt.Errorf("failed to extract text: %w", err)
	}
	return Document{
		Content: content,
		Metadata: map[string]string{
			"file_type": "pdf",
			"file_path": filePath,
		},
	}, nil
}

func (p *PDFParser) extractText(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(file, fileInfo.Size())
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		textBuilder.WriteString(content)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}

// TextParser implements the Parser interface for plain text and Markdown files.
type TextParser struct{}

// NewTextParser creates a new TextParser instance.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse reads the entire file content.
func (p *TextParser) Parse(filePath string) (Document, error) {
	GlobalLogger.Debug("Starting to parse text file", "path", filePath)
	content, err := os.ReadFile(filePath)
	if err != nil {
		GlobalLogger.Error("Failed to read text file", "path", filePath, "error", err)
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Document{
		Content: string(content),
		Metadata: map[string]string{
			"file_type": "text",
			"file_path": filePath,
		},
	}, nil
}

// SubtitleParser implements the Parser interface for SubRip (.srt) and
// WebVTT (.vtt) subtitle files. Cue numbers, timing lines, and inline
// formatting tags are stripped; the result is the spoken text one cue per
// line, so it can feed the same chunking path as transcripts.
type SubtitleParser struct{}

// NewSubtitleParser creates a new SubtitleParser instance.
func NewSubtitleParser() *SubtitleParser {
	return &SubtitleParser{}
}

var (
	srtTimingRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[,.]\d{3}`)
	srtTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// Parse reads the subtitle file and returns the cue texts joined by newlines.
func (p *SubtitleParser) Parse(filePath string) (Document, error) {
	GlobalLogger.Debug("Starting to parse subtitle file", "path", filePath)
	raw, err := os.ReadFile(filePath)
	if err != nil {
		GlobalLogger.Error("Failed to read subtitle file", "path", filePath, "error", err)
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	var cues []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))
		if line == "" || line == "WEBVTT" {
			continue
		}
		if srtTimingRe.MatchString(line) {
			continue
		}
		if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		// bare cue numbers
		if _, err := strconv.Atoi(line); err == nil {
			continue
		}
		cues = append(cues, srtTagRe.ReplaceAllString(line, ""))
	}

	return Document{
		Content: strings.Join(cues, "\n"),
		Metadata: map[string]string{
			"file_type": "subtitle",
			"file_path": filePath,
		},
	}, nil
}

package studypal

import (
	"github.com/spqr-86/studypal/rag"
)

// Document represents a parsed document.
type Document = rag.Document

// Parser defines the interface for parsing documents.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// NewParser creates a Parser that handles PDF, plain text, Markdown, and
// subtitle files by extension.
func NewParser() Parser {
	return rag.NewParserManager()
}

// SetFileTypeDetector sets a custom file type detector.
func SetFileTypeDetector(p Parser, detector func(string) string) {
	if pm, ok := p.(*rag.ParserManager); ok {
		pm.SetFileTypeDetector(detector)
	}
}

// WithParser adds a parser for a specific file type.
func WithParser(p Parser, fileType string, parser Parser) {
	if pm, ok := p.(*rag.ParserManager); ok {
		pm.AddParser(fileType, parser)
	}
}

// TextParser returns a new text parser.
func TextParser() Parser {
	return rag.NewTextParser()
}

// PDFParser returns a new PDF parser.
func PDFParser() Parser {
	return rag.NewPDFParser()
}

// SubtitleParser returns a parser for .srt and .vtt files.
func SubtitleParser() Parser {
	return rag.NewSubtitleParser()
}

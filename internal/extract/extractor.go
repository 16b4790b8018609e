// Package extract converts raw uploaded documents into plain text.
package extract

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hoybrett99/StudyBuddy/internal/document"
)

// ErrUnsupportedType is returned when a declared file type has no extractor.
var ErrUnsupportedType = errors.New("unsupported file type")

// ExtractionError indicates that a document's content could not be read.
// The server reports it as an internal failure, since the file already
// passed type and size validation.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor turns document bytes into cleaned plain text.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract produces plain text from content according to the declared file
// type. It has no side effects and never mutates its input.
func (e *Extractor) Extract(content []byte, fileType document.FileType) (string, error) {
	switch fileType {
	case document.TypePDF:
		return e.extractPDF(content)
	case document.TypeTXT:
		return e.extractTXT(content)
	case document.TypeDOCX:
		return e.extractDOCX(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
}

func (e *Extractor) extractTXT(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", &ExtractionError{Reason: "text file is not valid UTF-8"}
	}
	return string(content), nil
}

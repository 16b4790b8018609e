package document

import (
	"fmt"
	"strings"
	"time"
)

// FileType is the set of supported upload formats.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeTXT  FileType = "txt"
	TypeDOCX FileType = "docx"
)

// ParseFileType maps a file extension (without dot) to a FileType.
func ParseFileType(ext string) (FileType, error) {
	switch FileType(strings.ToLower(ext)) {
	case TypePDF:
		return TypePDF, nil
	case TypeTXT:
		return TypeTXT, nil
	case TypeDOCX:
		return TypeDOCX, nil
	default:
		return "", fmt.Errorf("unknown file type %q", ext)
	}
}

// Document is the metadata record for one uploaded file. It is created on
// upload and, apart from ChunkCount being set after chunking, never mutated.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   FileType  `json:"file_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
}

// Chunk is a contiguous span of a document's extracted text, the unit of
// embedding and retrieval.
//
// StartChar/EndChar are a running cursor over the concatenated chunk stream,
// not positions in the original text: because adjacent chunks overlap, the
// cursor advances by each chunk's full length. Downstream code must not
// treat these as original-document offsets.
type Chunk struct {
	ID         string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Index      int       `json:"chunk_index"`
	StartChar  int       `json:"start_char"`
	EndChar    int       `json:"end_char"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Meta       Document  `json:"metadata"`
}

// ChunkID builds the deterministic chunk identifier for a document ordinal.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// WithEmbedding returns a copy of the chunk carrying the given vector.
// Chunks are treated as immutable values once built, so embedding
// assignment constructs a new value instead of mutating in place.
func (c Chunk) WithEmbedding(vec []float32) Chunk {
	c.Embedding = vec
	return c
}

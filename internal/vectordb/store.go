// Package vectordb persists embedded chunks and serves nearest-neighbor
// retrieval over them.
package vectordb

import (
	"context"
	"errors"

	"github.com/hoybrett99/StudyBuddy/internal/document"
)

// ErrStoreUnavailable indicates the underlying store could not be reached
// or errored. It is a transient infrastructure fault: callers may retry,
// and read paths should degrade to empty results instead of crashing.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// SearchResult pairs stored chunk metadata with its similarity score.
type SearchResult struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	Text         string
	Score        float64 // raw cosine similarity
}

// Store is a persistent nearest-neighbor index over chunks.
type Store interface {
	// Upsert stores or overwrites chunks keyed by chunk ID. Every chunk
	// must already carry its embedding; a query must never observe a chunk
	// without one.
	Upsert(ctx context.Context, chunks []document.Chunk) error

	// Query returns up to topK chunks ordered by descending similarity to
	// the query vector. When documentIDs is non-empty, only chunks from
	// those documents are eligible. An empty store or a filter matching
	// nothing yields an empty result, not an error.
	Query(ctx context.Context, vector []float32, topK int, documentIDs []string) ([]SearchResult, error)

	// Count returns the total number of stored chunks.
	Count() int

	// DocumentIDs returns the distinct document identifiers present.
	DocumentIDs() []string

	// DeleteByDocumentID removes every chunk belonging to a document.
	DeleteByDocumentID(ctx context.Context, documentID string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error
}

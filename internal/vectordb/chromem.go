package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/hoybrett99/StudyBuddy/internal/document"
	"github.com/hoybrett99/StudyBuddy/internal/embeddings"
)

const (
	collectionName = "study_buddy"
	storeFile      = "chromem.gob.gz"
	indexFile      = "chunk_index.json"
)

// ChromemStore implements Store using chromem-go. Alongside the collection
// it keeps a chunkID -> documentID index, since chromem has no listing API
// and DocumentIDs needs one; the index is persisted next to the gob file.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc

	mu    sync.RWMutex
	owner map[string]string // chunk ID -> document ID
}

// NewChromemStore creates an empty in-memory ChromemStore. The embedder is
// only a fallback for chromem's collection plumbing: all vectors are
// supplied precomputed by the caller.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("%w: create collection: %v", ErrStoreUnavailable, err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
		owner:      make(map[string]string),
	}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", ch.ID)
		}
		docs[i] = chromem.Document{
			ID:        ch.ID,
			Content:   ch.Text,
			Embedding: ch.Embedding,
			Metadata: map[string]string{
				"document_id":   ch.DocumentID,
				"document_name": ch.Meta.Filename,
				"chunk_index":   strconv.Itoa(ch.Index),
			},
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("%w: upsert: %v", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	for _, ch := range chunks {
		s.owner[ch.ID] = ch.DocumentID
	}
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, topK int, documentIDs []string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 4
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit := topK
	if limit > count {
		limit = count
	}

	// chromem where-filters are single-valued, so a multi-document filter
	// runs one query per document and merges.
	//
	// chromem's similarity workers stop silently when the context is
	// canceled, returning an empty result set with a nil error. Without
	// the ctx.Err() checks below, a timed-out query would look identical
	// to a query with no matches.
	var results []chromem.Result
	if len(documentIDs) == 0 {
		r, err := s.collection.QueryEmbedding(ctx, vector, limit, nil, nil)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: query: %v", ErrStoreUnavailable, err)
		}
		results = r
	} else {
		for _, docID := range documentIDs {
			if !s.hasDocument(docID) {
				continue
			}
			r, err := s.collection.QueryEmbedding(ctx, vector, limit, map[string]string{"document_id": docID}, nil)
			if err == nil {
				err = ctx.Err()
			}
			if err != nil {
				return nil, fmt.Errorf("%w: query document %s: %v", ErrStoreUnavailable, docID, err)
			}
			results = append(results, r...)
		}
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		idx, _ := strconv.Atoi(r.Metadata["chunk_index"])
		out = append(out, SearchResult{
			ChunkID:      r.ID,
			DocumentID:   r.Metadata["document_id"],
			DocumentName: r.Metadata["document_name"],
			ChunkIndex:   idx,
			Text:         r.Content,
			Score:        float64(r.Similarity),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func (s *ChromemStore) DocumentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, docID := range s.owner {
		if !seen[docID] {
			seen[docID] = true
			ids = append(ids, docID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *ChromemStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	if !s.hasDocument(documentID) {
		return nil
	}
	if err := s.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil); err != nil {
		return fmt.Errorf("%w: delete document %s: %v", ErrStoreUnavailable, documentID, err)
	}

	s.mu.Lock()
	for chunkID, owner := range s.owner {
		if owner == documentID {
			delete(s.owner, chunkID)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create store dir: %v", ErrStoreUnavailable, err)
	}
	if err := s.db.ExportToFile(filepath.Join(dir, storeFile), true, ""); err != nil {
		return fmt.Errorf("%w: export: %v", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	data, err := json.Marshal(s.owner)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal chunk index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexFile), data, 0o644); err != nil {
		return fmt.Errorf("%w: write chunk index: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, storeFile), ""); err != nil {
		return fmt.Errorf("%w: import: %v", ErrStoreUnavailable, err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("%w: collection %q not found after import", ErrStoreUnavailable, collectionName)
	}
	s.collection = col

	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		return fmt.Errorf("%w: read chunk index: %v", ErrStoreUnavailable, err)
	}
	owner := make(map[string]string)
	if err := json.Unmarshal(data, &owner); err != nil {
		return fmt.Errorf("unmarshal chunk index: %w", err)
	}

	s.mu.Lock()
	s.owner = owner
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) hasDocument(documentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, owner := range s.owner {
		if owner == documentID {
			return true
		}
	}
	return false
}

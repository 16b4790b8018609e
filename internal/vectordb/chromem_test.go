package vectordb

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/hoybrett99/StudyBuddy/internal/document"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text.
// Similar texts will produce similar vectors because shared characters contribute
// to the same positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	// Normalize
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func testChunks(embedder *mockEmbedder) []document.Chunk {
	meta1 := document.Document{ID: "doc1", Filename: "biology.pdf", FileType: document.TypePDF, UploadedAt: time.Now()}
	meta2 := document.Document{ID: "doc2", Filename: "history.txt", FileType: document.TypeTXT, UploadedAt: time.Now()}

	texts := []struct {
		docMeta document.Document
		index   int
		text    string
	}{
		{meta1, 0, "The mitochondria is the powerhouse of the cell and produces ATP"},
		{meta1, 1, "Photosynthesis converts sunlight into chemical energy in plants"},
		{meta2, 0, "The Roman Empire reached its greatest extent under Trajan"},
	}

	chunks := make([]document.Chunk, len(texts))
	for i, tc := range texts {
		chunks[i] = document.Chunk{
			ID:         document.ChunkID(tc.docMeta.ID, tc.index),
			DocumentID: tc.docMeta.ID,
			Text:       tc.text,
			Index:      tc.index,
			Embedding:  embedder.deterministicVector(tc.text),
			Meta:       tc.docMeta,
		}
	}
	return chunks
}

func TestChromemStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if count := store.Count(); count != 3 {
		t.Errorf("Count: got %d, want 3", count)
	}

	query := embedder.deterministicVector("cell energy mitochondria ATP")
	results, err := store.Query(ctx, query, 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Query returned no results")
	}
	if len(results) > 2 {
		t.Errorf("Query returned %d results, expected at most 2", len(results))
	}

	for _, r := range results {
		if r.Score == 0 {
			t.Error("result has zero score")
		}
		if r.ChunkID == "" || r.DocumentID == "" {
			t.Errorf("result missing identity: %+v", r)
		}
	}

	// Results must be ordered by descending score.
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted: %f before %f", results[i-1].Score, results[i].Score)
		}
	}
}

func TestChromemStore_QueryExpiredContext(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// chromem reports no error on a canceled context and just returns no
	// matches. The store must surface the cancellation instead of letting
	// a populated collection look empty.
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	query := embedder.deterministicVector("cell energy mitochondria ATP")

	if _, err := store.Query(canceled, query, 2, nil); err == nil {
		t.Error("expected error for canceled context, got none")
	} else if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	if _, err := store.Query(canceled, query, 2, []string{"doc1"}); err == nil {
		t.Error("expected error for canceled context with document filter, got none")
	} else if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestChromemStore_QueryWithDocumentFilter(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	query := embedder.deterministicVector("historical empires")
	results, err := store.Query(ctx, query, 10, []string{"doc2"})
	if err != nil {
		t.Fatalf("Query with filter: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("filtered query returned no results")
	}
	for _, r := range results {
		if r.DocumentID != "doc2" {
			t.Errorf("expected document_id doc2, got %s", r.DocumentID)
		}
	}

	// Filter naming only unknown documents returns nothing rather than erroring.
	results, err = store.Query(ctx, query, 10, []string{"missing"})
	if err != nil {
		t.Fatalf("Query with unknown filter: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for unknown document, got %d", len(results))
	}
}

func TestChromemStore_QueryMultipleDocuments(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	query := embedder.deterministicVector("energy and empires")
	results, err := store.Query(ctx, query, 2, []string{"doc1", "doc2"})
	if err != nil {
		t.Fatalf("Query across documents: %v", err)
	}
	if len(results) > 2 {
		t.Errorf("merged query exceeded topK: got %d results", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("merged results not sorted by score")
		}
	}
}

func TestChromemStore_RejectsMissingEmbedding(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	chunk := document.Chunk{
		ID:         document.ChunkID("doc1", 0),
		DocumentID: "doc1",
		Text:       "text without a vector",
		Index:      0,
	}
	if err := store.Upsert(ctx, []document.Chunk{chunk}); err == nil {
		t.Error("expected error for chunk without embedding")
	}
}

func TestChromemStore_DocumentIDs(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	if ids := store.DocumentIDs(); len(ids) != 0 {
		t.Errorf("expected no document IDs in empty store, got %v", ids)
	}

	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ids := store.DocumentIDs()
	if len(ids) != 2 {
		t.Fatalf("DocumentIDs: got %v, want [doc1 doc2]", ids)
	}
	if ids[0] != "doc1" || ids[1] != "doc2" {
		t.Errorf("DocumentIDs: got %v, want sorted [doc1 doc2]", ids)
	}
}

func TestChromemStore_DeleteByDocumentID(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := store.DeleteByDocumentID(ctx, "doc1"); err != nil {
		t.Fatalf("DeleteByDocumentID: %v", err)
	}

	if count := store.Count(); count != 1 {
		t.Errorf("Count after delete: got %d, want 1", count)
	}
	if ids := store.DocumentIDs(); len(ids) != 1 || ids[0] != "doc2" {
		t.Errorf("DocumentIDs after delete: got %v, want [doc2]", ids)
	}

	// Deleting an unknown document is a no-op.
	if err := store.DeleteByDocumentID(ctx, "missing"); err != nil {
		t.Errorf("delete of unknown document: %v", err)
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	if err := store.Upsert(ctx, testChunks(embedder)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	tmpDir, err := os.MkdirTemp("", "chromem-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := store.Persist(ctx, tmpDir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store2, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore for load: %v", err)
	}
	if err := store2.Load(ctx, tmpDir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if count := store2.Count(); count != 3 {
		t.Errorf("Count after load: got %d, want 3", count)
	}
	if ids := store2.DocumentIDs(); len(ids) != 2 {
		t.Errorf("DocumentIDs after load: got %v, want 2 documents", ids)
	}

	query := embedder.deterministicVector("mitochondria ATP")
	results, err := store2.Query(ctx, query, 3, nil)
	if err != nil {
		t.Fatalf("Query after load: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Query after load returned %d results, want 3", len(results))
	}

	found := false
	for _, r := range results {
		if r.DocumentID == "doc1" && r.DocumentName != "biology.pdf" {
			t.Errorf("doc1 chunk lost its document name: %+v", r)
		}
		if r.ChunkID == document.ChunkID("doc1", 0) {
			found = true
		}
	}
	if !found {
		t.Error("doc1_chunk_0 not found after load")
	}
}

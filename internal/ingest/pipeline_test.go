package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hoybrett99/StudyBuddy/internal/config"
	"github.com/hoybrett99/StudyBuddy/internal/db"
	"github.com/hoybrett99/StudyBuddy/internal/embeddings"
	"github.com/hoybrett99/StudyBuddy/internal/extract"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.dims)
		for j, ch := range text {
			vec[(int(ch)+j)%m.dims] += 1.0
		}
		results[i] = vec
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func newTestPipeline(t *testing.T) (*Pipeline, vectordb.Store, *db.DB) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.UploadDir = t.TempDir()
	cfg.ChunkSize = 200
	cfg.ChunkOverlap = 40

	embedder := &mockEmbedder{dims: 32}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	registry, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { registry.Close() })

	return NewPipeline(cfg, embeddings.NewService(embedder), store, registry), store, registry
}

var docIDPattern = regexp.MustCompile(`^[0-9a-f]{8}_[A-Za-z0-9_-]+$`)

func TestPipeline_IngestTXT(t *testing.T) {
	p, store, registry := newTestPipeline(t)
	ctx := context.Background()

	content := []byte(strings.Repeat("The cell is the basic unit of life. ", 20))
	res, err := p.Ingest(ctx, "biology notes.txt", content)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if res.ChunksCreated == 0 {
		t.Fatal("expected chunks to be created")
	}
	if !docIDPattern.MatchString(res.Document.ID) {
		t.Errorf("document ID %q does not match expected shape", res.Document.ID)
	}
	if res.Document.Filename != "biology notes.txt" {
		t.Errorf("unexpected filename: %q", res.Document.Filename)
	}
	if res.Document.ChunkCount != res.ChunksCreated {
		t.Errorf("ChunkCount %d != ChunksCreated %d", res.Document.ChunkCount, res.ChunksCreated)
	}

	// The document must be fully query-visible.
	if store.Count() != res.ChunksCreated {
		t.Errorf("store holds %d chunks, want %d", store.Count(), res.ChunksCreated)
	}
	ids := store.DocumentIDs()
	if len(ids) != 1 || ids[0] != res.Document.ID {
		t.Errorf("store document IDs: %v", ids)
	}

	// And registered.
	got, err := registry.GetDocument(ctx, res.Document.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.ChunkCount != res.ChunksCreated {
		t.Errorf("registry chunk count %d, want %d", got.ChunkCount, res.ChunksCreated)
	}
}

func TestPipeline_SavesUpload(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	res, err := p.Ingest(context.Background(), "notes.txt", []byte("some study material about enzymes"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	saved := filepath.Join(p.cfg.UploadDir, res.Document.ID+".txt")
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("expected saved upload at %s: %v", saved, err)
	}
}

func TestPipeline_IngestUppercaseExtension(t *testing.T) {
	p, store, _ := newTestPipeline(t)

	res, err := p.Ingest(context.Background(), "NOTES.TXT", []byte("Enzymes lower the activation energy of reactions."))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ChunksCreated == 0 {
		t.Fatal("expected chunks to be created")
	}
	if store.Count() != res.ChunksCreated {
		t.Errorf("store holds %d chunks, want %d", store.Count(), res.ChunksCreated)
	}

	// The saved upload carries the normalized extension.
	saved := filepath.Join(p.cfg.UploadDir, res.Document.ID+".txt")
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("expected saved upload at %s: %v", saved, err)
	}
}

func TestPipeline_RejectsUnsupportedType(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	_, err := p.Ingest(context.Background(), "slides.pptx", []byte("data"))
	if !errors.Is(err, extract.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestPipeline_RejectsOversizedFile(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	p.cfg.MaxFileSizeMB = 1

	big := make([]byte, 2*1024*1024)
	_, err := p.Ingest(context.Background(), "big.txt", big)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestPipeline_RejectsEmptyText(t *testing.T) {
	p, store, _ := newTestPipeline(t)

	_, err := p.Ingest(context.Background(), "blank.txt", []byte("   \n\n  "))
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
	if store.Count() != 0 {
		t.Error("rejected document must not reach the store")
	}

	// The saved upload must have been cleaned up.
	entries, err := os.ReadDir(p.cfg.UploadDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty upload dir, found %d entries", len(entries))
	}
}

func TestPipeline_UniqueIDsForSameFilename(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	first, err := p.Ingest(ctx, "notes.txt", []byte("first version of the notes"))
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := p.Ingest(ctx, "notes.txt", []byte("second version of the notes"))
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if first.Document.ID == second.Document.ID {
		t.Error("re-uploading the same filename must produce a new document ID")
	}
}

func TestPipeline_Delete(t *testing.T) {
	p, store, registry := newTestPipeline(t)
	ctx := context.Background()

	res, err := p.Ingest(ctx, "notes.txt", []byte("material that will be deleted shortly"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := p.Delete(ctx, res.Document.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if store.Count() != 0 {
		t.Errorf("store still holds %d chunks after delete", store.Count())
	}
	if _, err := registry.GetDocument(ctx, res.Document.ID); err == nil {
		t.Error("registry entry should be gone after delete")
	}
	entries, _ := os.ReadDir(p.cfg.UploadDir)
	if len(entries) != 0 {
		t.Errorf("saved upload should be gone, found %d entries", len(entries))
	}
}

func TestSanitizeStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Lecture Notes", "My_Lecture_Notes"},
		{"chapter-2_draft", "chapter-2_draft"},
		{"日本語", "___"},
		{"", "document"},
	}
	for _, tt := range tests {
		if got := sanitizeStem(tt.in); got != tt.want {
			t.Errorf("sanitizeStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

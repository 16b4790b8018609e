package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hoybrett99/StudyBuddy/internal/config"
	"github.com/hoybrett99/StudyBuddy/internal/db"
	"github.com/hoybrett99/StudyBuddy/internal/document"
	"github.com/hoybrett99/StudyBuddy/internal/embeddings"
	"github.com/hoybrett99/StudyBuddy/internal/extract"
	"github.com/hoybrett99/StudyBuddy/internal/vectordb"
)

var (
	// ErrFileTooLarge rejects uploads over the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrEmptyDocument rejects files whose extraction yields no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Result reports one completed ingestion.
type Result struct {
	Document      document.Document
	ChunksCreated int
}

// Pipeline runs the full ingestion sequence for one file: validate,
// save, extract, chunk, embed, store, register. A document only becomes
// query-visible after every stage has completed, so a query never sees a
// partially embedded document.
type Pipeline struct {
	cfg      *config.Config
	extract  *extract.Extractor
	chunker  *document.Chunker
	embedder *embeddings.Service
	store    vectordb.Store
	registry *db.DB
}

func NewPipeline(cfg *config.Config, embedder *embeddings.Service, store vectordb.Store, registry *db.DB) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		extract:  extract.New(),
		chunker:  document.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder: embedder,
		store:    store,
		registry: registry,
	}
}

// Ingest processes one uploaded file. Validation failures return
// ErrFileTooLarge, ErrEmptyDocument, or extract.ErrUnsupportedType;
// anything else is a backend failure.
func (p *Pipeline) Ingest(ctx context.Context, filename string, content []byte) (*Result, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !p.cfg.TypeAllowed(ext) {
		return nil, fmt.Errorf("%w: .%s", extract.ErrUnsupportedType, ext)
	}
	fileType, err := document.ParseFileType(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: .%s", extract.ErrUnsupportedType, ext)
	}

	if int64(len(content)) > p.cfg.MaxFileSizeBytes() {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(content), p.cfg.MaxFileSizeBytes())
	}

	docID := documentID(filename)

	savedPath, err := p.saveUpload(docID, filename, content)
	if err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	text, err := p.extract.Extract(content, fileType)
	if err != nil {
		p.discardUpload(savedPath)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		p.discardUpload(savedPath)
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	meta := document.Document{
		ID:         docID,
		Filename:   filename,
		FileType:   fileType,
		SizeBytes:  int64(len(content)),
		UploadedAt: time.Now().UTC(),
	}

	chunks := p.chunker.ChunkDocument(text, docID, meta)
	meta.ChunkCount = len(chunks)

	log.Printf("ingest: %s -> %d chunks, embedding", filename, len(chunks))

	embedded, err := p.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		p.discardUpload(savedPath)
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	if err := p.store.Upsert(ctx, embedded); err != nil {
		p.discardUpload(savedPath)
		return nil, err
	}

	if p.registry != nil {
		if err := p.registry.InsertDocument(ctx, meta); err != nil {
			return nil, err
		}
	}

	return &Result{Document: meta, ChunksCreated: len(chunks)}, nil
}

// Delete removes a document everywhere: vector store, registry, and the
// saved upload file.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	if err := p.store.DeleteByDocumentID(ctx, documentID); err != nil {
		return err
	}
	if p.registry != nil {
		if _, err := p.registry.DeleteDocument(ctx, documentID); err != nil {
			return err
		}
	}

	matches, err := filepath.Glob(filepath.Join(p.cfg.UploadDir, documentID+".*"))
	if err == nil {
		for _, m := range matches {
			p.discardUpload(m)
		}
	}
	return nil
}

// documentID derives a stable identifier from the filename with a short
// random prefix, so re-uploading the same filename never collides.
func documentID(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = sanitizeStem(stem)
	return uuid.NewString()[:8] + "_" + stem
}

// sanitizeStem keeps identifiers filesystem- and URL-safe.
func sanitizeStem(stem string) string {
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// saveUpload writes the raw bytes under the upload directory, named by
// document ID so the original can be re-read later.
func (p *Pipeline) saveUpload(docID, filename string, content []byte) (string, error) {
	if p.cfg.UploadDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(p.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(p.cfg.UploadDir, docID+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Pipeline) discardUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("ingest: removing %s: %v", path, err)
	}
}

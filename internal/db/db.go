package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hoybrett99/StudyBuddy/internal/document"
)

// DB is the document registry: which files were ingested, when, and how
// many chunks each produced, plus a running count of answered queries.
// Vector data lives in the vector store; this is the durable metadata side.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    file_type TEXT NOT NULL CHECK(file_type IN ('pdf','txt','docx')),
    size_bytes INTEGER NOT NULL DEFAULT 0,
    chunk_count INTEGER NOT NULL DEFAULT 0,
    uploaded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents(filename);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded ON documents(uploaded_at);

CREATE TABLE IF NOT EXISTS counters (
    name TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);
`

// InsertDocument records one fully ingested document.
func (d *DB) InsertDocument(ctx context.Context, doc document.Document) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO documents (id, filename, file_type, size_bytes, chunk_count, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, string(doc.FileType), doc.SizeBytes, doc.ChunkCount, doc.UploadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument returns one document by ID, or sql.ErrNoRows.
func (d *DB) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var doc document.Document
	var fileType string
	err := d.QueryRowContext(ctx,
		`SELECT id, filename, file_type, size_bytes, chunk_count, uploaded_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Filename, &fileType, &doc.SizeBytes, &doc.ChunkCount, &doc.UploadedAt)
	if err != nil {
		return document.Document{}, err
	}
	doc.FileType = document.FileType(fileType)
	return doc, nil
}

// ListDocuments returns all documents, newest first.
func (d *DB) ListDocuments(ctx context.Context) ([]document.Document, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT id, filename, file_type, size_bytes, chunk_count, uploaded_at
		 FROM documents ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var doc document.Document
		var fileType string
		if err := rows.Scan(&doc.ID, &doc.Filename, &fileType, &doc.SizeBytes, &doc.ChunkCount, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		doc.FileType = document.FileType(fileType)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes one registry entry. Returns false if the ID was
// not registered.
func (d *DB) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountDocuments returns the number of registered documents.
func (d *DB) CountDocuments(ctx context.Context) (int, error) {
	var n int
	err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// IncrementQueries bumps the answered-query counter by one.
func (d *DB) IncrementQueries(ctx context.Context) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO counters (name, value) VALUES ('total_queries', 1)
		 ON CONFLICT(name) DO UPDATE SET value = value + 1`)
	if err != nil {
		return fmt.Errorf("incrementing query counter: %w", err)
	}
	return nil
}

// TotalQueries returns the answered-query counter. A missing row is zero.
func (d *DB) TotalQueries(ctx context.Context) (int, error) {
	var n int
	err := d.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = 'total_queries'`).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

// Touch is a connectivity check with a short deadline.
func (d *DB) Touch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.PingContext(ctx)
}

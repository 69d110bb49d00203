// Package store persists knowledge bases to SQLite. Each converted URL is
// one document; re-saving a URL replaces its rows.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gaurav-prasanna/docrows/core"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS documents (
    document_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    topic TEXT NOT NULL,
    category TEXT NOT NULL,
    language TEXT,
    row_count INTEGER DEFAULT 0,
    converted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS kb_rows (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL REFERENCES documents(document_id) ON DELETE CASCADE,
    ordinal INTEGER NOT NULL,
    category TEXT NOT NULL,
    topic TEXT NOT NULL,
    concept TEXT NOT NULL,
    content TEXT NOT NULL,
    usage_example TEXT,
    url TEXT NOT NULL,
    links TEXT,          -- newline-joined, first-seen order
    tags TEXT,
    UNIQUE (document_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_kb_rows_document ON kb_rows(document_id);
`

// DB wraps a SQLite handle.
type DB struct {
	*sql.DB
	path string
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps ":memory:" databases coherent and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return sqlDB, nil
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*DB, error) {
	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema creates the tables if they do not exist.
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}

// SaveKnowledgeBase upserts the document for kb.URL and replaces its rows.
// It returns the document id.
func (db *DB) SaveKnowledgeBase(ctx context.Context, kb *core.KnowledgeBase) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (url, topic, category, language, row_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			topic = excluded.topic,
			category = excluded.category,
			language = excluded.language,
			row_count = excluded.row_count,
			converted_at = CURRENT_TIMESTAMP`,
		kb.URL, kb.Topic, kb.Category, kb.Language, len(kb.Rows))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert document: %w", err)
	}

	var docID int64
	if err := tx.QueryRowContext(ctx, "SELECT document_id FROM documents WHERE url = ?", kb.URL).Scan(&docID); err != nil {
		return 0, fmt.Errorf("failed to get document id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM kb_rows WHERE document_id = ?", docID); err != nil {
		return 0, fmt.Errorf("failed to clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kb_rows (document_id, ordinal, category, topic, concept, content, usage_example, url, links, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range kb.Rows {
		_, err := stmt.ExecContext(ctx, docID, r.ID, r.Category, r.Topic, r.Concept, r.Content,
			r.UsageExample, r.URL, strings.Join(r.Links, "\n"), r.Tags)
		if err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return docID, nil
}

// Rows returns the stored rows of the document at url, in id order.
func (db *DB) Rows(ctx context.Context, url string) ([]core.Row, error) {
	rs, err := db.QueryContext(ctx, `
		SELECT r.ordinal, r.category, r.topic, r.concept, r.content,
		       COALESCE(r.usage_example, ''), r.url, COALESCE(r.links, ''), COALESCE(r.tags, '')
		FROM kb_rows r
		JOIN documents d ON d.document_id = r.document_id
		WHERE d.url = ?
		ORDER BY r.ordinal`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rs.Close()

	var rows []core.Row
	for rs.Next() {
		var r core.Row
		var links string
		if err := rs.Scan(&r.ID, &r.Category, &r.Topic, &r.Concept, &r.Content,
			&r.UsageExample, &r.URL, &links, &r.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Links = []string{}
		if links != "" {
			r.Links = strings.Split(links, "\n")
		}
		rows = append(rows, r)
	}
	return rows, rs.Err()
}

// DocumentCount returns the number of stored documents.
func (db *DB) DocumentCount(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

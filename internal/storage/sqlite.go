package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"mdtoc/internal/document"
	"mdtoc/internal/toc"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ DocumentStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			path TEXT UNIQUE,
			title TEXT,
			content_hash TEXT,
			section_count INTEGER,
			indexed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS sections (
			doc_id TEXT,
			ord INTEGER,
			title TEXT,
			level INTEGER,
			anchor TEXT,
			hash TEXT,
			PRIMARY KEY (doc_id, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			doc_id TEXT,
			section_ord INTEGER,
			ord INTEGER,
			kind TEXT,
			lang TEXT,
			content TEXT,
			PRIMARY KEY (doc_id, section_ord, ord)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sections_anchor ON sections(anchor);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveDocument replaces the indexed snapshot of one document: the
// document row is upserted, its sections and blocks rewritten.
func (s *SQLiteStore) SaveDocument(ctx context.Context, path string, doc *document.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := documentID(path)
	table := toc.Build(doc)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, path, title, content_hash, section_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path,
			title=excluded.title,
			content_hash=excluded.content_hash,
			section_count=excluded.section_count,
			indexed_at=excluded.indexed_at
	`, id, path, documentTitle(path, doc), contentHash(doc), len(doc.Sections), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	// Snapshot semantics: wipe and rewrite sections/blocks for this doc.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE doc_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE doc_id = ?`, id); err != nil {
		return err
	}

	secStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sections (doc_id, ord, title, level, anchor, hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer secStmt.Close()

	blkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocks (doc_id, section_ord, ord, kind, lang, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer blkStmt.Close()

	// Preamble blocks live at section_ord -1.
	if err := saveBlocks(ctx, blkStmt, id, -1, doc.Preamble); err != nil {
		return err
	}
	for i, sec := range doc.Sections {
		if _, err := secStmt.ExecContext(ctx, id, i, sec.Title, sec.Level, table.Entries[i].Anchor, document.SectionHash(sec)); err != nil {
			return err
		}
		if err := saveBlocks(ctx, blkStmt, id, i, sec.Blocks); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func saveBlocks(ctx context.Context, stmt *sql.Stmt, docID string, sectionOrd int, blocks []document.Block) error {
	for j, b := range blocks {
		var kind, lang, content string
		switch v := b.(type) {
		case document.ProseBlock:
			kind, content = "prose", v.Text
		case document.CodeBlock:
			kind, lang, content = "code", v.Lang, v.Content
		default:
			return fmt.Errorf("unknown block kind %T", b)
		}
		if _, err := stmt.ExecContext(ctx, docID, sectionOrd, j, kind, lang, content); err != nil {
			return err
		}
	}
	return nil
}

// LoadDocument rebuilds a document from its indexed snapshot.
func (s *SQLiteStore) LoadDocument(ctx context.Context, path string) (*document.Document, error) {
	id := documentID(path)

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("document not indexed: %s", path)
	}

	doc := &document.Document{}

	secRows, err := s.db.QueryContext(ctx, `
		SELECT ord, title, level FROM sections WHERE doc_id = ? ORDER BY ord
	`, id)
	if err != nil {
		return nil, err
	}
	defer secRows.Close()

	for secRows.Next() {
		var ord, level int
		var title string
		if err := secRows.Scan(&ord, &title, &level); err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, document.Section{Title: title, Level: level})
	}
	if err := secRows.Err(); err != nil {
		return nil, err
	}

	blkRows, err := s.db.QueryContext(ctx, `
		SELECT section_ord, kind, lang, content FROM blocks WHERE doc_id = ? ORDER BY section_ord, ord
	`, id)
	if err != nil {
		return nil, err
	}
	defer blkRows.Close()

	for blkRows.Next() {
		var sectionOrd int
		var kind, lang, content string
		if err := blkRows.Scan(&sectionOrd, &kind, &lang, &content); err != nil {
			return nil, err
		}
		var b document.Block
		switch kind {
		case "prose":
			b = document.ProseBlock{Text: content}
		case "code":
			b = document.CodeBlock{Lang: lang, Content: content}
		default:
			return nil, fmt.Errorf("unknown block kind in index: %q", kind)
		}
		if sectionOrd < 0 {
			doc.Preamble = append(doc.Preamble, b)
			continue
		}
		if sectionOrd >= len(doc.Sections) {
			return nil, fmt.Errorf("block references missing section %d", sectionOrd)
		}
		doc.Sections[sectionOrd].Blocks = append(doc.Sections[sectionOrd].Blocks, b)
	}
	return doc, blkRows.Err()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, title, content_hash, section_count, indexed_at
		FROM documents ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		if err := rows.Scan(&info.ID, &info.Path, &info.Title, &info.ContentHash, &info.SectionCount, &info.IndexedAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// FindSectionByAnchor resolves an anchor across the index. Ties
// resolve to the first occurrence in document order, documents
// ordered by path.
func (s *SQLiteStore) FindSectionByAnchor(ctx context.Context, anchor string) (*SectionRef, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT d.path, s.ord, s.title, s.level, s.anchor
		FROM sections s JOIN documents d ON d.id = s.doc_id
		WHERE s.anchor = ?
		ORDER BY d.path, s.ord
		LIMIT 1
	`, anchor)

	ref := &SectionRef{}
	err := row.Scan(&ref.DocPath, &ref.Order, &ref.Title, &ref.Level, &ref.Anchor)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("anchor not found: %s", anchor)
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func documentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

func documentTitle(path string, doc *document.Document) string {
	for _, s := range doc.Sections {
		if s.Level == 1 {
			return s.Title
		}
	}
	if len(doc.Sections) > 0 {
		return doc.Sections[0].Title
	}
	return path
}

func contentHash(doc *document.Document) string {
	var parts string
	for _, s := range doc.Sections {
		parts += document.SectionHash(s) + "\n"
	}
	sum := sha256.Sum256([]byte(parts))
	return "sha256:" + hex.EncodeToString(sum[:])
}

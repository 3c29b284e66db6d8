// Package index stores document records in a SQLite FTS5 table for keyword
// search.
//
// Each record page becomes one row. Matching is case and accent insensitive
// and hits are ranked by bm25.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/record"
)

// DefaultFileName is the index file created inside a documents directory
// when no path is configured.
const DefaultFileName = ".ocrsearch.db"

// DefaultLimit caps the number of hits when the caller gives none.
const DefaultLimit = 10

// Hit is one matching page.
type Hit struct {
	Title      string  `json:"title"`
	PDFPath    string  `json:"pdf_path"`
	PageNumber int     `json:"page_number"`
	Rank       float64 `json:"rank"`
	// Excerpt is a fragment of the page with the match wrapped in [ and ].
	Excerpt string `json:"excerpt"`
}

// Document is an indexed record.
type Document struct {
	Title          string    `json:"title"`
	PDFPath        string    `json:"pdf_path"`
	SourcePath     string    `json:"source_path,omitempty"`
	ExtractionDate time.Time `json:"extraction_date"`
	TotalPages     int       `json:"total_pages"`
	TextPages      int       `json:"text_pages"`
	IndexedAt      time.Time `json:"indexed_at"`
}

// Index is a search index backed by one SQLite database.
type Index struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// Open opens or creates the index at path.
func Open(path string) (*Index, error) {
	const op = "Open"

	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, WrapIndexError(op, err, path)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, WrapIndexError(op, err, path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, WrapIndexError(op, fmt.Errorf("create schema: %w", err), path)
	}

	idx := &Index{
		db:  db,
		now: time.Now,
		log: logger.WithComponent("index"),
	}
	idx.log.Debug().Str("path", path).Msg("Index opened")
	return idx, nil
}

// Close releases the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// IndexDocument stores rec, replacing whatever was indexed for the same PDF.
// sourcePath is the sidecar the record came from and may be empty.
func (x *Index) IndexDocument(ctx context.Context, rec *record.DocumentRecord, sourcePath string) error {
	const op = "IndexDocument"

	if err := rec.Validate(); err != nil {
		return WrapIndexError(op, err, rec.Info.Path)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return WrapIndexError(op, err, rec.Info.Path)
	}
	defer tx.Rollback()

	if err := deleteDocument(ctx, tx, rec.Info.Path); err != nil {
		return WrapIndexError(op, err, rec.Info.Path)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (title, pdf_path, source_path, extraction_date, total_pages, text_pages, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Info.Filename,
		rec.Info.Path,
		sourcePath,
		record.FormatTime(rec.Info.ExtractionDate),
		rec.Info.TotalPages,
		len(rec.Pages),
		x.now().Unix(),
	)
	if err != nil {
		return WrapIndexError(op, fmt.Errorf("insert document: %w", err), rec.Info.Path)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages_fts (content, title, pdf_path, page_number)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return WrapIndexError(op, err, rec.Info.Path)
	}
	defer stmt.Close()

	for _, page := range rec.Pages {
		if _, err := stmt.ExecContext(ctx, page.Content, rec.Info.Filename, rec.Info.Path, page.PageNumber); err != nil {
			return WrapIndexError(op, fmt.Errorf("insert page %d: %w", page.PageNumber, err), rec.Info.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return WrapIndexError(op, err, rec.Info.Path)
	}

	x.log.Debug().
		Str("file", rec.Info.Filename).
		Int("pages", len(rec.Pages)).
		Msg("Document indexed")
	return nil
}

// IndexDirectory indexes every kind sidecar directly inside dir. Sidecars
// that cannot be read are logged and skipped. It returns the number of
// documents indexed.
func (x *Index) IndexDirectory(ctx context.Context, dir string, kind record.Kind) (int, error) {
	const op = "IndexDirectory"

	paths, err := record.ListSidecars(dir, kind)
	if err != nil {
		return 0, WrapIndexError(op, err, dir)
	}

	indexed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		rec, err := record.LoadSidecar(path)
		if err != nil {
			x.log.Error().Err(err).Str("file", path).Msg("Skipping unreadable sidecar")
			continue
		}
		if err := x.IndexDocument(ctx, rec, path); err != nil {
			x.log.Error().Err(err).Str("file", path).Msg("Failed to index sidecar")
			continue
		}
		indexed++
	}

	x.log.Info().
		Str("dir", dir).
		Int("sidecars", len(paths)).
		Int("indexed", indexed).
		Msg("Directory indexed")
	return indexed, nil
}

// Search returns up to limit pages matching term, best first. The term is
// matched as a phrase; FTS5 query syntax in it has no effect.
func (x *Index) Search(ctx context.Context, term string, limit int) ([]Hit, error) {
	const op = "Search"

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT title, pdf_path, page_number, rank,
		       snippet(pages_fts, 0, '[', ']', '...', 16)
		FROM pages_fts
		WHERE pages_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, quoteTerm(term), limit)
	if err != nil {
		return nil, WrapIndexError(op, err, term)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Title, &h.PDFPath, &h.PageNumber, &h.Rank, &h.Excerpt); err != nil {
			return nil, WrapIndexError(op, err, term)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapIndexError(op, err, term)
	}
	return hits, nil
}

// Documents lists the indexed documents by title.
func (x *Index) Documents(ctx context.Context) ([]Document, error) {
	const op = "Documents"

	rows, err := x.db.QueryContext(ctx, `
		SELECT title, pdf_path, source_path, extraction_date, total_pages, text_pages, indexed_at
		FROM documents
		ORDER BY title, pdf_path`)
	if err != nil {
		return nil, WrapIndexError(op, err, "")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, WrapIndexError(op, err, "")
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapIndexError(op, err, "")
	}
	return docs, nil
}

// Document returns the indexed document for pdfPath.
func (x *Index) Document(ctx context.Context, pdfPath string) (Document, error) {
	const op = "Document"

	row := x.db.QueryRowContext(ctx, `
		SELECT title, pdf_path, source_path, extraction_date, total_pages, text_pages, indexed_at
		FROM documents
		WHERE pdf_path = ?`, pdfPath)

	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, WrapIndexError(op, ErrDocumentNotFound, pdfPath)
	}
	if err != nil {
		return Document{}, WrapIndexError(op, err, pdfPath)
	}
	return d, nil
}

// Remove drops pdfPath from the index.
func (x *Index) Remove(ctx context.Context, pdfPath string) error {
	const op = "Remove"

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return WrapIndexError(op, err, pdfPath)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE pdf_path = ?`, pdfPath)
	if err != nil {
		return WrapIndexError(op, err, pdfPath)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return WrapIndexError(op, ErrDocumentNotFound, pdfPath)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages_fts WHERE pdf_path = ?`, pdfPath); err != nil {
		return WrapIndexError(op, err, pdfPath)
	}
	if err := tx.Commit(); err != nil {
		return WrapIndexError(op, err, pdfPath)
	}
	return nil
}

func deleteDocument(ctx context.Context, tx *sql.Tx, pdfPath string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages_fts WHERE pdf_path = ?`, pdfPath); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE pdf_path = ?`, pdfPath)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var (
		d         Document
		extracted string
		indexedAt int64
	)
	if err := s.Scan(&d.Title, &d.PDFPath, &d.SourcePath, &extracted, &d.TotalPages, &d.TextPages, &indexedAt); err != nil {
		return Document{}, err
	}
	t, err := record.ParseTime(extracted)
	if err != nil {
		return Document{}, err
	}
	d.ExtractionDate = t
	d.IndexedAt = time.Unix(indexedAt, 0)
	return d, nil
}

// quoteTerm turns term into an FTS5 string so operators and column filters
// in user input are matched literally.
func quoteTerm(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

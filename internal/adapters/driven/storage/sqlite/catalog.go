package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure catalogStore implements the interface.
var _ driven.CatalogStore = (*catalogStore)(nil)

type catalogStore struct {
	db *sql.DB
}

const documentColumns = "id, filename, format, title, metadata, created_at"

// CreateDocument stamps CreatedAt when unset. A taken ID returns
// domain.ErrAlreadyExists.
func (c *catalogStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT INTO documents ("+documentColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		doc.ID, doc.Filename, string(doc.Format), doc.Title, string(meta), doc.CreatedAt)
	switch {
	case err == nil:
		return nil
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return domain.ErrAlreadyExists
	default:
		return fmt.Errorf("inserting document: %w", err)
	}
}

func (c *catalogStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func (c *catalogStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns documents newest first, ties broken by ID.
func (c *catalogStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// rowScanner is *sql.Row or *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument passes sql.ErrNoRows through unwrapped.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc    domain.Document
		format string
		meta   string
	)
	if err := row.Scan(&doc.ID, &doc.Filename, &format, &doc.Title, &meta, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Format = domain.Format(format)

	if err := decodeJSON(meta, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata of %s: %w", doc.ID, err)
	}
	return &doc, nil
}

// decodeJSON leaves dst untouched for an empty or null column.
func decodeJSON(raw string, dst any) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure vectorIndex implements the interface.
var _ driven.VectorIndex = (*vectorIndex)(nil)

// vectorIndex scores every row on Query. document_id and position are
// copied out of the metadata into columns so Find and DeleteWhere can
// use the index.
type vectorIndex struct {
	db *sql.DB
}

// Add inserts the batch in one transaction.
func (v *vectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO index_entries
		(id, document_id, position, content, embedding, metadata) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of %s: %w", e.ID, err)
		}
		position, _ := strconv.Atoi(e.Metadata[driven.MetaPosition])
		if _, err := stmt.ExecContext(ctx, e.ID, e.Metadata[driven.MetaDocumentID], position,
			e.Content, vecmath.Encode(e.Vector), string(meta)); err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (v *vectorIndex) Query(ctx context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidInput
	}

	rows, err := v.db.QueryContext(ctx, "SELECT id, content, embedding, metadata FROM index_entries")
	if err != nil {
		return nil, fmt.Errorf("scanning index: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]driven.VectorEntry)
	var scored []vecmath.Scored
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		byID[e.ID] = e
		scored = append(scored, vecmath.Scored{ID: e.ID, Score: vecmath.Cosine(vector, e.Vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning index: %w", err)
	}

	top := vecmath.TopK(scored, k)
	hits := make([]driven.VectorHit, len(top))
	for i, s := range top {
		hits[i] = driven.VectorHit{VectorEntry: byID[s.ID], Similarity: s.Score}
	}
	return hits, nil
}

func (v *vectorIndex) Find(ctx context.Context, filter driven.Filter) ([]string, error) {
	where, args, err := filterClause(filter)
	if err != nil {
		return nil, err
	}

	rows, err := v.db.QueryContext(ctx,
		"SELECT id FROM index_entries WHERE "+where+" ORDER BY document_id, position, id", args...)
	if err != nil {
		return nil, fmt.Errorf("finding entries: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning entry id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding entries: %w", err)
	}
	return ids, nil
}

// DeleteWhere is a single statement, so it is atomic without a transaction.
func (v *vectorIndex) DeleteWhere(ctx context.Context, filter driven.Filter) (int, error) {
	where, args, err := filterClause(filter)
	if err != nil {
		return 0, err
	}

	res, err := v.db.ExecContext(ctx, "DELETE FROM index_entries WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted entries: %w", err)
	}
	return int(n), nil
}

func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

func (v *vectorIndex) Close() error {
	return nil
}

// filterClause matches document_id on its column and any other key inside
// the JSON metadata. Keys are sorted so the SQL text is stable.
func filterClause(filter driven.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, fmt.Errorf("%w: empty filter", domain.ErrInvalidInput)
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		if k == driven.MetaDocumentID {
			clauses = append(clauses, "document_id = ?")
			args = append(args, filter[k])
			continue
		}
		clauses = append(clauses, "json_extract(metadata, ?) = ?")
		args = append(args, `$."`+k+`"`, filter[k])
	}
	return strings.Join(clauses, " AND "), args, nil
}

func scanEntry(rows *sql.Rows) (driven.VectorEntry, error) {
	var (
		e    driven.VectorEntry
		blob []byte
		meta string
	)
	if err := rows.Scan(&e.ID, &e.Content, &blob, &meta); err != nil {
		return e, fmt.Errorf("scanning entry: %w", err)
	}

	vec, err := vecmath.Decode(blob)
	if err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Vector = vec

	if err := decodeJSON(meta, &e.Metadata); err != nil {
		return e, fmt.Errorf("decoding metadata of %s: %w", e.ID, err)
	}
	return e, nil
}

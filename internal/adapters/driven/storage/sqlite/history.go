package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure historyStore implements the interface.
var _ driven.HistoryStore = (*historyStore)(nil)

// historyStore orders turns by their autoincrement ID, which is the
// insertion order within a session.
type historyStore struct {
	db *sql.DB
}

func (h *historyStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	res, err := h.db.ExecContext(ctx,
		"INSERT INTO turns (session_id, question, answer, model, created_at) VALUES (?, ?, ?, ?, ?)",
		turn.SessionID, turn.Question, turn.Answer, turn.Model, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		turn.ID = id
	}
	return nil
}

func (h *historyStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT id, session_id, question, answer, model, created_at FROM turns WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Question, &t.Answer, &t.Model, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	return turns, nil
}

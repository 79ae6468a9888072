// Package redisstore keeps session history in Redis lists.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

const (
	keyPrefix  = "ragchat:session:"
	counterKey = "ragchat:turn_id"
)

// HistoryStore implements driven.HistoryStore with one list per session.
type HistoryStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*HistoryStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(rdb, opts.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{rdb: rdb, ttl: ttl}
}

// Close closes the client.
func (s *HistoryStore) Close() error {
	return s.rdb.Close()
}

type storedTurn struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendTurn pushes the turn onto the session list.
func (s *HistoryStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	id, err := s.rdb.Incr(ctx, counterKey).Result()
	if err != nil {
		return fmt.Errorf("allocate turn id: %w", err)
	}
	turn.ID = id
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(storedTurn{
		ID:        turn.ID,
		Question:  turn.Question,
		Answer:    turn.Answer,
		Model:     turn.Model,
		CreatedAt: turn.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := sessionKey(turn.SessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ListTurns returns the whole session list in order.
func (s *HistoryStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := s.rdb.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	turns := make([]domain.Turn, 0, len(raw))
	for _, item := range raw {
		var st storedTurn
		if err := json.Unmarshal([]byte(item), &st); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, domain.Turn{
			ID:        st.ID,
			SessionID: sessionID,
			Question:  st.Question,
			Answer:    st.Answer,
			Model:     st.Model,
			CreatedAt: st.CreatedAt,
		})
	}
	return turns, nil
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

type questionRewriter interface {
	Rewrite(ctx context.Context, history []domain.Turn, question, model string) (string, error)
}

type chunkRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}

type answerSynthesizer interface {
	Synthesize(ctx context.Context, chunks []domain.RetrievedChunk, history []domain.Turn, question, model string) (string, error)
}

// ChatConfig holds the per-turn settings of a ChatService.
type ChatConfig struct {
	// LLM selects the default model and the allowed overrides.
	LLM domain.LLMSettings

	// TopK is the number of chunks retrieved per question.
	TopK int
}

// ChatService answers questions within sessions.
//
// One turn is: load history, rewrite the question, retrieve, synthesise,
// append the turn. Turns in the same session run one at a time; separate
// sessions run concurrently.
type ChatService struct {
	history     driven.HistoryStore
	rewriter    questionRewriter
	retriever   chunkRetriever
	synthesizer answerSynthesizer
	cfg         ChatConfig

	locks *KeyLocks
	now   func() time.Time
	newID func() string
}

// NewChatService creates a chat service. A TopK below 1 uses domain.DefaultTopK.
func NewChatService(
	history driven.HistoryStore,
	rewriter questionRewriter,
	retriever chunkRetriever,
	synthesizer answerSynthesizer,
	cfg ChatConfig,
) *ChatService {
	if cfg.TopK < 1 {
		cfg.TopK = domain.DefaultTopK
	}
	return &ChatService{
		history:     history,
		rewriter:    rewriter,
		retriever:   retriever,
		synthesizer: synthesizer,
		cfg:         cfg,
		locks:       NewKeyLocks(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Ask runs one turn. Nothing is persisted unless every step succeeds.
func (s *ChatService) Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	logger.Section("Chat Turn")

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	model, err := s.cfg.LLM.ResolveModel(req.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: model %q is not allowed", err, req.Model)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.newID()
		logger.Debug("New session %s", sessionID)
	}

	unlock, err := s.locks.lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("waiting for session %s: %w", sessionID, err)
	}
	defer unlock()

	history, err := s.history.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	logger.Debug("Session %s has %d prior turns", sessionID, len(history))

	standalone, err := s.rewriter.Rewrite(ctx, history, question, model)
	if err != nil {
		return nil, err
	}

	chunks, err := s.retriever.Retrieve(ctx, standalone, s.cfg.TopK)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d chunks", len(chunks))

	answer, err := s.synthesizer.Synthesize(ctx, chunks, history, standalone, model)
	if err != nil {
		return nil, err
	}

	turn := &domain.Turn{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Model:     model,
		CreatedAt: s.now().UTC(),
	}
	if err := s.history.AppendTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("saving turn: %w", err)
	}
	logger.Debug("Persisted turn %d in session %s", turn.ID, sessionID)

	return &domain.ChatResponse{
		Answer:             answer,
		SessionID:          sessionID,
		Model:              model,
		StandaloneQuestion: standalone,
		Sources:            chunks,
	}, nil
}

// History returns a session's turns in insertion order.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.history.ListTurns(ctx, sessionID)
}

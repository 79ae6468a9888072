package tui

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

type mockChat struct {
	ask     func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	history func(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

func (m *mockChat) Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if m.ask != nil {
		return m.ask(ctx, req)
	}
	return &domain.ChatResponse{Answer: "answer", SessionID: "session-1", Model: "gpt-4o-mini"}, nil
}

func (m *mockChat) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if m.history != nil {
		return m.history(ctx, sessionID)
	}
	return nil, nil
}

type mockDocuments struct {
	list   func(ctx context.Context) ([]domain.Document, error)
	delete func(ctx context.Context, documentID string) (*driving.DeleteResult, error)
}

func (m *mockDocuments) List(ctx context.Context) ([]domain.Document, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, nil
}

func (m *mockDocuments) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Delete(ctx context.Context, documentID string) (*driving.DeleteResult, error) {
	if m.delete != nil {
		return m.delete(ctx, documentID)
	}
	return &driving.DeleteResult{DocumentID: documentID}, nil
}

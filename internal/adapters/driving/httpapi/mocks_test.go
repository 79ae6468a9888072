package httpapi

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

type mockIngestService struct {
	err          error
	lastFilename string
	lastContent  []byte
}

func (m *mockIngestService) Ingest(_ context.Context, filename string, content []byte) (*domain.Document, error) {
	m.lastFilename = filename
	m.lastContent = content
	if m.err != nil {
		return nil, m.err
	}
	format, _ := domain.ParseFormat(filename)
	return &domain.Document{
		ID:        "doc-1",
		Filename:  filename,
		Format:    format,
		Metadata:  map[string]any{"chunks": 3},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

type mockDocumentService struct {
	documents []domain.Document
	result    *driving.DeleteResult
	err       error
	deletedID string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(_ context.Context, id string) (*driving.DeleteResult, error) {
	m.deletedID = id
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &driving.DeleteResult{DocumentID: id}, nil
}

type mockChatService struct {
	response *domain.ChatResponse
	turns    []domain.Turn
	err      error
	lastReq  domain.ChatRequest
}

func (m *mockChatService) Ask(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.lastReq = req
	return m.response, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return m.turns, m.err
}

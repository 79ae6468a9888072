package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// MockIngestService implements driving.IngestService.
type MockIngestService struct {
	IngestFunc func(ctx context.Context, filename string, content []byte) (*domain.Document, error)
	calls      []string
}

func (m *MockIngestService) Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error) {
	m.calls = append(m.calls, filename)
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, filename, content)
	}
	return &domain.Document{
		ID:        "doc-" + filename,
		Filename:  filename,
		Format:    domain.FormatText,
		Metadata:  map[string]any{"chunks": 3},
		CreatedAt: testTime,
	}, nil
}

// MockDocumentService implements driving.DocumentService.
type MockDocumentService struct {
	ListFunc   func(ctx context.Context) ([]domain.Document, error)
	GetFunc    func(ctx context.Context, id string) (*domain.Document, error)
	DeleteFunc func(ctx context.Context, id string) (*driving.DeleteResult, error)
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{
		{ID: "doc-1", Filename: "notes.md", Format: domain.FormatMarkdown, CreatedAt: testTime},
		{ID: "doc-2", Filename: "report.pdf", Format: domain.FormatPDF, CreatedAt: testTime},
	}, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &domain.Document{
		ID:        id,
		Filename:  "notes.md",
		Title:     "Notes",
		Format:    domain.FormatMarkdown,
		Metadata:  map[string]any{"chunks": 4, "author": "sam"},
		CreatedAt: testTime,
	}, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) (*driving.DeleteResult, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return &driving.DeleteResult{DocumentID: id, ChunksRemoved: 4}, nil
}

// MockChatService implements driving.ChatService.
type MockChatService struct {
	AskFunc     func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	HistoryFunc func(ctx context.Context, sessionID string) ([]domain.Turn, error)
	requests    []domain.ChatRequest
}

func (m *MockChatService) Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.requests = append(m.requests, req)
	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	session := req.SessionID
	if session == "" {
		session = "sess-new"
	}
	model := req.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &domain.ChatResponse{
		Answer:             "The answer is 42.",
		SessionID:          session,
		Model:              model,
		StandaloneQuestion: req.Question,
		Sources: []domain.RetrievedChunk{
			{
				Chunk: domain.Chunk{
					DocumentID: "doc-1",
					Content:    "Forty-two is the answer.",
					Position:   1,
					Metadata:   map[string]any{driven.MetaFilename: "guide.txt"},
				},
				Score: 0.91,
			},
		},
	}, nil
}

func (m *MockChatService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, sessionID)
	}
	return []domain.Turn{
		{ID: 1, SessionID: sessionID, Question: "What is it?", Answer: "It is 42.", Model: "gpt-4o-mini", CreatedAt: testTime},
	}, nil
}

// MockSettingsService implements driving.SettingsService.
type MockSettingsService struct {
	Settings         domain.AppSettings
	GetErr           error
	SetTopKFunc      func(k int) error
	SetChunkingFunc  func(size, overlap int) error
	ValidateEmbedErr error
	ValidateLLMErr   error
}

func newMockSettingsService() *MockSettingsService {
	return &MockSettingsService{Settings: domain.DefaultAppSettings()}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.LLM.Provider = provider
	m.Settings.LLM.Model = model
	m.Settings.LLM.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetTopK(k int) error {
	if m.SetTopKFunc != nil {
		return m.SetTopKFunc(k)
	}
	m.Settings.Retrieval.TopK = k
	return nil
}

func (m *MockSettingsService) SetChunking(size, overlap int) error {
	if m.SetChunkingFunc != nil {
		return m.SetChunkingFunc(size, overlap)
	}
	m.Settings.Chunking = domain.ChunkingSettings{Size: size, Overlap: overlap}
	return nil
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) ValidateEmbeddingConfig(context.Context) error {
	return m.ValidateEmbedErr
}

func (m *MockSettingsService) ValidateLLMConfig(context.Context) error {
	return m.ValidateLLMErr
}

// MockWatchService implements driving.WatchService.
type MockWatchService struct {
	SyncFunc func(ctx context.Context) (int, error)
	RunFunc  func(ctx context.Context) error
	ran      bool
}

func (m *MockWatchService) Sync(ctx context.Context) (int, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx)
	}
	return 2, nil
}

func (m *MockWatchService) Run(ctx context.Context) error {
	m.ran = true
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest   *MockIngestService
	document *MockDocumentService
	chat     *MockChatService
	settings *MockSettingsService
	watch    *MockWatchService
	watchOpt WatchOptions
	closed   bool
}

var current *testServices

// setupTestServices installs mocks for every service and returns a cleanup
// function that restores the previous state and resets command flags.
func setupTestServices() func() {
	oldIngest, oldDoc, oldChat := ingestService, documentService, chatService
	oldSettings, oldWatch, oldAddr := settingsService, watchFactory, serverAddr
	oldInit, oldReload := initializer, reloadPrompts

	ts := &testServices{
		ingest:   &MockIngestService{},
		document: &MockDocumentService{},
		chat:     &MockChatService{},
		settings: newMockSettingsService(),
		watch:    &MockWatchService{},
	}
	current = ts

	ingestService = ts.ingest
	documentService = ts.document
	chatService = ts.chat
	settingsService = ts.settings
	watchFactory = func(opts WatchOptions) (driving.WatchService, func() error, error) {
		ts.watchOpt = opts
		return ts.watch, func() error { ts.closed = true; return nil }, nil
	}
	serverAddr = ""
	initializer = nil
	reloadPrompts = nil
	resetFlags()

	return func() {
		ingestService, documentService, chatService = oldIngest, oldDoc, oldChat
		settingsService, watchFactory, serverAddr = oldSettings, oldWatch, oldAddr
		initializer, reloadPrompts = oldInit, oldReload
		current = nil
		resetFlags()
	}
}

// clearServices leaves every service unset.
func clearServices() func() {
	cleanup := setupTestServices()
	ingestService = nil
	documentService = nil
	chatService = nil
	settingsService = nil
	watchFactory = nil
	return cleanup
}

// resetFlags restores flag variables, which persist across Execute calls.
func resetFlags() {
	verbose = false
	configDir = ""
	docsJSON = false
	uploadJSON = false
	askSession, askModel = "", ""
	askSources, askJSON, historyJSON = false, false, false
	chatSession, chatModel = "", ""
	serveAddr = ""
	serveMaxUpload = 0
	watchInclude, watchExclude = nil, nil
	watchOnce = false
	mcpPort, mcpHost = 0, "127.0.0.1"
	versionShort = false
}

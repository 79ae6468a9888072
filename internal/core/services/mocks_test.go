package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

var errBoom = errors.New("boom")

// --- Embedding ---

// mockEmbeddingService hashes character trigrams into a fixed-size vector,
// so texts sharing substrings land close together.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedErr   error
	batchCalls int
	shortBatch bool
	// dims overrides the advertised dimension count when non-zero.
	dims int
	// When gate is set, EmbedBatch signals entered and waits for gate to
	// close.
	gate    chan struct{}
	entered chan struct{}
}

const mockDims = 64

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return trigramVector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.gate != nil {
		m.entered <- struct{}{}
		<-m.gate
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = trigramVector(t)
	}
	if m.shortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims != 0 {
		return m.dims
	}
	return mockDims
}

func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

func trigramVector(text string) []float32 {
	v := make([]float32, mockDims)
	runes := []rune(strings.ToLower(text))
	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		v[h.Sum32()%mockDims]++
	}
	return v
}

// --- LLM ---

// mockLLMService records every call and replies from a script.
type mockLLMService struct {
	mu      sync.Mutex
	calls   []llmCall
	replies []string
	reply   func(messages []driven.ChatMessage) string
	err     error
}

type llmCall struct {
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, llmCall{messages: append([]driven.ChatMessage(nil), messages...), opts: opts})
	if m.err != nil {
		return "", m.err
	}
	if m.reply != nil {
		return m.reply(messages), nil
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// --- Prompts ---

type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptQueryRewrite: "REWRITE",
		driven.PromptAnswerSystem: "ANSWER",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// --- Vector index ---

// faultyVectorIndex wraps a memory index and injects failures.
type faultyVectorIndex struct {
	*memory.VectorIndex
	addErr    error
	findErr   error
	deleteErr error
	queryErr  error
	findCalls int
}

func newFaultyVectorIndex() *faultyVectorIndex {
	return &faultyVectorIndex{VectorIndex: memory.NewVectorIndex()}
}

func (f *faultyVectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) error {
	if f.addErr != nil {
		return f.addErr
	}
	return f.VectorIndex.Add(ctx, entries)
}

func (f *faultyVectorIndex) Query(ctx context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorIndex.Query(ctx, vector, k)
}

func (f *faultyVectorIndex) Find(ctx context.Context, filter driven.Filter) ([]string, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.VectorIndex.Find(ctx, filter)
}

func (f *faultyVectorIndex) DeleteWhere(ctx context.Context, filter driven.Filter) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.VectorIndex.DeleteWhere(ctx, filter)
}

// --- Catalogue ---

// faultyCatalogStore wraps a memory catalogue and injects failures.
type faultyCatalogStore struct {
	*memory.CatalogStore
	createErr error
	deleteErr error
	listErr   error
}

func newFaultyCatalogStore() *faultyCatalogStore {
	return &faultyCatalogStore{CatalogStore: memory.NewCatalogStore()}
}

func (f *faultyCatalogStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.CatalogStore.CreateDocument(ctx, doc)
}

func (f *faultyCatalogStore) DeleteDocument(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.CatalogStore.DeleteDocument(ctx, id)
}

func (f *faultyCatalogStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.CatalogStore.ListDocuments(ctx)
}

// --- History ---

// faultyHistoryStore wraps a memory history store and injects failures.
type faultyHistoryStore struct {
	*memory.HistoryStore
	listErr   error
	appendErr error
}

func newFaultyHistoryStore() *faultyHistoryStore {
	return &faultyHistoryStore{HistoryStore: memory.NewHistoryStore()}
}

func (f *faultyHistoryStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.HistoryStore.ListTurns(ctx, sessionID)
}

func (f *faultyHistoryStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.HistoryStore.AppendTurn(ctx, turn)
}

// --- File watcher ---

type mockFileWatcher struct {
	paths   []string
	scanErr error
	changes chan domain.FileChange
}

func (m *mockFileWatcher) Scan(_ context.Context) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return m.paths, nil
}

func (m *mockFileWatcher) Watch(_ context.Context) (<-chan domain.FileChange, error) {
	return m.changes, nil
}

func (m *mockFileWatcher) Close() error { return nil }

// --- AI validator ---

type mockAIConfigValidator struct {
	embeddingErr error
	llmErr       error
	embedding    *domain.EmbeddingSettings
	llm          *domain.LLMSettings
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ context.Context, cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.embeddingErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ context.Context, cfg *domain.LLMSettings) error {
	m.llm = cfg
	return m.llmErr
}

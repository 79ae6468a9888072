package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ragchat-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// testEntry builds a vector entry for a document position.
func testEntry(docID string, pos int, vec []float32) driven.VectorEntry {
	return driven.VectorEntry{
		ID:      fmt.Sprintf("%s-%d", docID, pos),
		Vector:  vec,
		Content: fmt.Sprintf("chunk %d of %s", pos, docID),
		Metadata: map[string]string{
			driven.MetaDocumentID: docID,
			driven.MetaPosition:   fmt.Sprintf("%d", pos),
			driven.MetaFilename:   docID + ".txt",
		},
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "ragchat.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, table := range []string{"documents", "index_entries", "turns"} {
		var tableExists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&tableExists)
		require.NoError(t, err)
		assert.Equal(t, 1, tableExists, "table %s should exist", table)
	}
}

func TestStore_MigrationIdempotency(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.CatalogStore().CreateDocument(context.Background(), &domain.Document{
		ID: "doc-1", Filename: "a.txt", Format: domain.FormatText,
	}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	docs, err := reopened.CatalogStore().ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_Close(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

func TestStore_InterfaceGetters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotNil(t, store.CatalogStore())
	assert.NotNil(t, store.HistoryStore())
	assert.NotNil(t, store.VectorIndex())
}

// ==================== CatalogStore Tests ====================

func TestCatalogStore_CreateAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.CatalogStore()

	now := time.Now().UTC().Truncate(time.Second)
	doc := &domain.Document{
		ID:        "doc-1",
		Filename:  "report.pdf",
		Format:    domain.FormatPDF,
		Title:     "Quarterly Report",
		Metadata:  map[string]any{"page_count": float64(3)},
		CreatedAt: now,
	}
	require.NoError(t, catalog.CreateDocument(ctx, doc))

	got, err := catalog.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, domain.FormatPDF, got.Format)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, float64(3), got.Metadata["page_count"])
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestCatalogStore_CreateDuplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.CatalogStore()

	doc := &domain.Document{ID: "doc-1", Filename: "a.txt", Format: domain.FormatText}
	require.NoError(t, catalog.CreateDocument(ctx, doc))

	err := catalog.CreateDocument(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCatalogStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.CatalogStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.CatalogStore()

	require.NoError(t, catalog.CreateDocument(ctx, &domain.Document{ID: "doc-1", Filename: "a.txt", Format: domain.FormatText}))
	require.NoError(t, catalog.DeleteDocument(ctx, "doc-1"))

	_, err := catalog.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Absent records are not an error.
	assert.NoError(t, catalog.DeleteDocument(ctx, "doc-1"))
}

func TestCatalogStore_ListNewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	catalog := store.CatalogStore()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "middle", "new"} {
		require.NoError(t, catalog.CreateDocument(ctx, &domain.Document{
			ID:        id,
			Filename:  id + ".md",
			Format:    domain.FormatMarkdown,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, err := catalog.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "middle", docs[1].ID)
	assert.Equal(t, "old", docs[2].ID)
}

func TestCatalogStore_ListEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	docs, err := store.CatalogStore().ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// ==================== HistoryStore Tests ====================

func TestHistoryStore_AppendAndList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	history := store.HistoryStore()

	first := &domain.Turn{SessionID: "s1", Question: "What is X?", Answer: "X is a thing.", Model: "gpt-4o-mini"}
	second := &domain.Turn{SessionID: "s1", Question: "Why?", Answer: "Because.", Model: "gpt-4o-mini"}
	other := &domain.Turn{SessionID: "s2", Question: "Hi", Answer: "Hello", Model: "gpt-4o"}

	require.NoError(t, history.AppendTurn(ctx, first))
	require.NoError(t, history.AppendTurn(ctx, second))
	require.NoError(t, history.AppendTurn(ctx, other))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	turns, err := history.ListTurns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "What is X?", turns[0].Question)
	assert.Equal(t, "Because.", turns[1].Answer)
	assert.Equal(t, "gpt-4o-mini", turns[1].Model)
}

func TestHistoryStore_UnknownSessionIsEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	turns, err := store.HistoryStore().ListTurns(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

// ==================== VectorIndex Tests ====================

func TestVectorIndex_AddAndQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	index := store.VectorIndex()

	require.NoError(t, index.Add(ctx, []driven.VectorEntry{
		testEntry("doc-a", 0, []float32{1, 0, 0}),
		testEntry("doc-a", 1, []float32{0.7, 0.7, 0}),
		testEntry("doc-b", 0, []float32{0, 0, 1}),
	}))

	hits, err := index.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-a-0", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "doc-a-1", hits[1].ID)
	assert.Equal(t, "doc-a", hits[0].Metadata[driven.MetaDocumentID])
	assert.Equal(t, "chunk 0 of doc-a", hits[0].Content)
	assert.Equal(t, []float32{1, 0, 0}, hits[0].Vector)
}

func TestVectorIndex_QueryTiesOrderedByID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	index := store.VectorIndex()

	require.NoError(t, index.Add(ctx, []driven.VectorEntry{
		testEntry("z", 0, []float32{1, 0}),
		testEntry("a", 0, []float32{1, 0}),
	}))

	hits, err := index.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a-0", hits[0].ID)
	assert.Equal(t, "z-0", hits[1].ID)
}

func TestVectorIndex_QueryFewerThanK(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	index := store.VectorIndex()

	hits, err := index.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, index.Add(ctx, []driven.VectorEntry{testEntry("a", 0, []float32{1, 0})}))
	hits, err = index.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestVectorIndex_QueryInvalidK(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.VectorIndex().Query(context.Background(), []float32{1}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorIndex_AddIsAtomic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	index := store.VectorIndex()

	dup := testEntry("a", 0, []float32{1, 0})
	err := index.Add(ctx, []driven.VectorEntry{dup, testEntry("a", 1, []float32{0, 1}), dup})
	require.Error(t, err)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestVectorIndex_FindAndDeleteWhere(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	index := store.VectorIndex()

	require.NoError(t, index.Add(ctx, []driven.VectorEntry{
		testEntry("doc-a", 1, []float32{1, 0}),
		testEntry("doc-a", 0, []float32{1, 0}),
		testEntry("doc-b", 0, []float32{0, 1}),
	}))

	tests := []struct {
		name   string
		filter driven.Filter
		want   []string
	}{
		{"by document", driven.Filter{driven.MetaDocumentID: "doc-a"}, []string{"doc-a-0", "doc-a-1"}},
		{"by metadata key", driven.Filter{driven.MetaFilename: "doc-b.txt"}, []string{"doc-b-0"}},
		{"combined", driven.Filter{driven.MetaDocumentID: "doc-a", driven.MetaPosition: "1"}, []string{"doc-a-1"}},
		{"no match", driven.Filter{driven.MetaDocumentID: "doc-z"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := index.Find(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}

	removed, err := index.DeleteWhere(ctx, driven.Filter{driven.MetaDocumentID: "doc-a"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = index.DeleteWhere(ctx, driven.Filter{driven.MetaDocumentID: "doc-a"})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorIndex_EmptyFilterRejected(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	index := store.VectorIndex()

	_, err := index.Find(ctx, driven.Filter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = index.DeleteWhere(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorIndex_CloseLeavesStoreOpen(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.VectorIndex().Close())
	assert.NoError(t, store.db.Ping())
}

// ==================== Concurrent Access Tests ====================

func TestStore_ConcurrentWrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	history := store.HistoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := history.AppendTurn(ctx, &domain.Turn{
				SessionID: "s1",
				Question:  fmt.Sprintf("q%d", i),
				Answer:    "a",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	turns, err := history.ListTurns(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 10)
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_turn_model.up.sql": {Data: []byte("-- 2")},
		"migrations/001_initial.up.sql":    {Data: []byte("-- 1")},
		"migrations/001_initial.down.sql":  {Data: []byte("-- down")},
		"migrations/010_late.up.sql":       {Data: []byte("-- 10")},
		"migrations/notes.up.sql":          {Data: []byte("-- ignored")},
		"migrations/README.md":             {Data: []byte("docs")},
	}

	tests := []struct {
		name    string
		current int
		want    []migration
	}{
		{"fresh", 0, []migration{
			{1, "001_initial.up.sql"},
			{2, "002_turn_model.up.sql"},
			{10, "010_late.up.sql"},
		}},
		{"partly applied", 2, []migration{{10, "010_late.up.sql"}}},
		{"up to date", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(fsys, tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingMigrations_MissingDir(t *testing.T) {
	_, err := pendingMigrations(fstest.MapFS{}, 0)
	assert.Error(t, err)
}

func TestVectorIndex_PreservesVectors(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	index := store.VectorIndex()
	vec := []float32{-1.25, 0, 3.5, 1e-7}
	require.NoError(t, index.Add(context.Background(), []driven.VectorEntry{{
		ID:       "c1",
		Vector:   vec,
		Content:  "text",
		Metadata: map[string]string{driven.MetaDocumentID: "d1", driven.MetaPosition: "0"},
	}}))

	hits, err := index.Query(context.Background(), vec, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, vec, hits[0].Vector)
	assert.Equal(t, "d1", hits[0].Metadata[driven.MetaDocumentID])
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// Catalogue metadata keys written for watched files.
const (
	MetaSourcePath = "source_path"
	MetaSourceHash = "source_hash"
)

type metadataIngester interface {
	IngestWithMetadata(ctx context.Context, filename string, content []byte, metadata map[string]any) (*domain.Document, error)
}

type documentDeleter interface {
	List(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, documentID string) (*driving.DeleteResult, error)
}

// watchedFile is the catalogue state of one watched path.
type watchedFile struct {
	documentID string
	hash       string
}

// WatchService keeps the documents under a watched directory in sync
// with the catalogue and index. Each file maps to at most one document,
// found through its source_path metadata.
type WatchService struct {
	watcher   driven.FileWatcher
	ingester  metadataIngester
	documents documentDeleter
	readFile  func(string) ([]byte, error)

	mu    sync.Mutex
	files map[string]watchedFile
}

// NewWatchService creates a watch service.
func NewWatchService(watcher driven.FileWatcher, ingester metadataIngester, documents documentDeleter) *WatchService {
	return &WatchService{
		watcher:   watcher,
		ingester:  ingester,
		documents: documents,
		readFile:  os.ReadFile,
	}
}

// Sync ingests every matching file that is new or whose content changed
// since it was catalogued, and returns how many were ingested. Files that
// fail are logged and skipped. Older documents left behind for a path
// that has a newer one are deleted first.
func (s *WatchService) Sync(ctx context.Context) (int, error) {
	logger.Section("Watch Sync")
	stale, err := s.loadCatalogue(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range stale {
		if _, err := s.documents.Delete(ctx, id); err != nil {
			logger.Warn("Removing stale document %s: %v", id, err)
			continue
		}
		logger.Debug("Removed stale document %s", id)
	}

	paths, err := s.watcher.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scanning: %w", err)
	}

	ingested := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return ingested, err
		}
		changed, err := s.upsert(ctx, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		if changed {
			ingested++
		}
	}
	logger.Info("Synced %d of %d files", ingested, len(paths))
	return ingested, nil
}

// Run syncs once, then applies change events until ctx is cancelled.
func (s *WatchService) Run(ctx context.Context) error {
	if _, err := s.Sync(ctx); err != nil {
		return err
	}

	changes, err := s.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	for change := range changes {
		if err := s.apply(ctx, change); err != nil {
			logger.Warn("%s %s: %v", change.Type, change.Path, err)
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (s *WatchService) apply(ctx context.Context, change domain.FileChange) error {
	logger.Debug("Change: %s %s", change.Type, change.Path)
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		_, err := s.upsert(ctx, change.Path)
		return err
	case domain.ChangeDeleted:
		return s.remove(ctx, change.Path)
	default:
		return nil
	}
}

// upsert ingests path unless its content is unchanged. A replaced file's
// previous document is deleted only after the new one is indexed.
func (s *WatchService) upsert(ctx context.Context, path string) (bool, error) {
	content, err := s.readFile(path)
	if err != nil {
		return false, err
	}
	hash := contentHash(content)

	s.mu.Lock()
	previous, known := s.files[path]
	s.mu.Unlock()
	if known && previous.hash == hash {
		return false, nil
	}

	doc, err := s.ingester.IngestWithMetadata(ctx, path, content, map[string]any{
		MetaSourcePath: path,
		MetaSourceHash: hash,
	})
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.files[path] = watchedFile{documentID: doc.ID, hash: hash}
	s.mu.Unlock()

	if known {
		if _, err := s.documents.Delete(ctx, previous.documentID); err != nil {
			return true, fmt.Errorf("removing previous version %s: %w", previous.documentID, err)
		}
	}
	return true, nil
}

func (s *WatchService) remove(ctx context.Context, path string) error {
	s.mu.Lock()
	previous, known := s.files[path]
	s.mu.Unlock()
	if !known {
		return nil
	}

	if _, err := s.documents.Delete(ctx, previous.documentID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.files[path] == previous {
		delete(s.files, path)
	}
	s.mu.Unlock()
	return nil
}

// loadCatalogue rebuilds the path map from catalogue metadata. When a path
// has several documents the newest wins and the IDs of the others are
// returned. List returns newest first.
func (s *WatchService) loadCatalogue(ctx context.Context) ([]string, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var stale []string
	files := make(map[string]watchedFile)
	for _, doc := range docs {
		path, _ := doc.Metadata[MetaSourcePath].(string)
		if path == "" {
			continue
		}
		if _, seen := files[path]; seen {
			stale = append(stale, doc.ID)
			continue
		}
		hash, _ := doc.Metadata[MetaSourceHash].(string)
		files[path] = watchedFile{documentID: doc.ID, hash: hash}
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	return stale, nil
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/gormstore"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/redisstore"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/watcher/fswatch"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
	"github.com/custodia-labs/ragchat/internal/normalisers"
	"github.com/custodia-labs/ragchat/internal/postprocessors"
)

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("closing: %v", err)
		}
	}
}

// resolveConfigDir returns dir, or ~/.ragchat when dir is empty.
func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

func newSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// initialize is the composition root. It builds the stores, AI clients and
// core services selected by the saved settings.
func initialize(ctx context.Context, opts cli.InitOptions) (*cli.Services, error) {
	dir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	settingsSvc, err := newSettingsService(dir)
	if err != nil {
		return nil, err
	}
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsSvc}, nil
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var cl closers
	ok := false
	defer func() {
		if !ok {
			cl.close()
		}
	}()

	aiSvc, err := ai.Build(ctx, settings)
	if err != nil {
		return nil, err
	}
	cl.add(func() error { aiSvc.Close(); return nil })
	if aiSvc.Embedding == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}
	if aiSvc.LLM == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrGenerationUnavailable)
	}

	st, err := openStores(ctx, settings, filepath.Join(dir, "data"), &cl)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, err
	}

	pipeline, err := newPipeline(settings.Chunking)
	if err != nil {
		return nil, err
	}

	indexer := services.NewIndexer(aiSvc.Embedding, st.index)
	retriever := services.NewRetriever(aiSvc.Embedding, st.index)
	docLocks := services.NewKeyLocks()
	ingest := services.NewIngestService(st.catalog, normalisers.NewDefaultRegistry(), pipeline, indexer, docLocks)
	documents := services.NewDocumentService(st.catalog, services.NewDeleter(st.index), docLocks)
	chat := services.NewChatService(
		st.history,
		services.NewQueryRewriter(aiSvc.LLM, prompts),
		retriever,
		services.NewAnswerSynthesizer(aiSvc.LLM, prompts),
		services.ChatConfig{LLM: settings.LLM, TopK: settings.Retrieval.TopK},
	)

	ok = true
	return &cli.Services{
		Ingest:        ingest,
		Document:      documents,
		Chat:          chat,
		Settings:      settingsSvc,
		Watch:         newWatchFactory(ingest, documents),
		ServerAddr:    settings.Server.Addr,
		ReloadPrompts: prompts.Reload,
		Close:         cl.close,
	}, nil
}

func newPipeline(chunking domain.ChunkingSettings) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(domain.PipelineConfigFor(chunking))
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	return pipeline, nil
}

func newWatchFactory(ingest *services.IngestService, documents *services.DocumentService) cli.WatchFactory {
	return func(opts cli.WatchOptions) (driving.WatchService, func() error, error) {
		w, err := fswatch.New(fswatch.Config{
			Root:    opts.Root,
			Include: opts.Include,
			Exclude: opts.Exclude,
		})
		if err != nil {
			return nil, nil, err
		}
		return services.NewWatchService(w, ingest, documents), w.Close, nil
	}
}

// stores holds the three persistence ports.
type stores struct {
	catalog driven.CatalogStore
	history driven.HistoryStore
	index   driven.VectorIndex
}

// openStores opens the backends named in settings. Backends shared by
// several stores, such as one SQLite file, are opened once.
func openStores(ctx context.Context, settings *domain.AppSettings, dataDir string, cl *closers) (*stores, error) {
	storage := settings.Storage

	var sqliteStore *sqlite.Store
	useSQLite := func() (*sqlite.Store, error) {
		if sqliteStore != nil {
			return sqliteStore, nil
		}
		s, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		cl.add(s.Close)
		logger.Debug("SQLite store at %s", s.Path())
		sqliteStore = s
		return s, nil
	}

	var gormStore *gormstore.Store
	useGorm := func() (*gormstore.Store, error) {
		if gormStore != nil {
			return gormStore, nil
		}
		s, err := gormstore.Open(gormstore.Config{
			Driver: storage.CatalogDriver,
			DSN:    storage.CatalogDSN,
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", storage.CatalogDriver, err)
		}
		cl.add(s.Close)
		gormStore = s
		return s, nil
	}

	st := &stores{}

	switch storage.Catalog {
	case domain.StorageSQLite, "":
		s, err := useSQLite()
		if err != nil {
			return nil, err
		}
		st.catalog = s.CatalogStore()
	case domain.StorageMemory:
		st.catalog = memory.NewCatalogStore()
	case domain.StorageGorm:
		s, err := useGorm()
		if err != nil {
			return nil, err
		}
		st.catalog = s.CatalogStore()
	default:
		return nil, fmt.Errorf("%w: unknown catalogue backend %q", domain.ErrInvalidInput, storage.Catalog)
	}

	switch storage.History {
	case domain.StorageSQLite, "":
		s, err := useSQLite()
		if err != nil {
			return nil, err
		}
		st.history = s.HistoryStore()
	case domain.StorageMemory:
		st.history = memory.NewHistoryStore()
	case domain.StorageGorm:
		s, err := useGorm()
		if err != nil {
			return nil, err
		}
		st.history = s.HistoryStore()
	case domain.StorageRedis:
		h, err := redisstore.New(ctx, redisstore.Options{
			Addr:     storage.RedisAddr,
			Password: os.Getenv(envRedisPassword),
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis history: %w", err)
		}
		cl.add(h.Close)
		st.history = h
	default:
		return nil, fmt.Errorf("%w: unknown history backend %q", domain.ErrInvalidInput, storage.History)
	}

	switch storage.Index {
	case domain.StorageSQLite, "":
		s, err := useSQLite()
		if err != nil {
			return nil, err
		}
		st.index = s.VectorIndex()
	case domain.StorageMemory:
		st.index = memory.NewVectorIndex()
	case domain.StoragePGVector:
		dim, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]
		if !ok {
			return nil, fmt.Errorf("%w: unknown vector dimension for embedding model %q",
				domain.ErrInvalidInput, settings.Embedding.Model)
		}
		idx, err := pgvector.New(ctx, pgvector.Config{DSN: storage.PGVectorDSN, Dimension: dim})
		if err != nil {
			return nil, fmt.Errorf("opening pgvector index: %w", err)
		}
		cl.add(idx.Close)
		st.index = idx
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, storage.Index)
	}

	return st, nil
}

// envRedisPassword keeps the Redis password out of the config file.
const envRedisPassword = "REDIS_PASSWORD"

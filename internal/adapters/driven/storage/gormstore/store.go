// Package gormstore persists the document catalogue and session history
// through GORM, so either can live in SQLite, MySQL or PostgreSQL.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// slowQueryThreshold marks queries gorm reports as slow.
const slowQueryThreshold = 200 * time.Millisecond

// Config configures the GORM connection.
type Config struct {
	// Driver is one of sqlite, mysql or postgres.
	Driver string

	// DSN is the driver-specific connection string, for example
	// "user:pass@tcp(127.0.0.1:3306)/ragchat?parseTime=True" for MySQL.
	DSN string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// LogLevel is the GORM logger level. Zero means Warn, or Info with --verbose.
	LogLevel gormlogger.LogLevel
}

// Store wraps a GORM connection.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the documents and turns tables.
func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: dsn is required", domain.ErrInvalidInput)
	}

	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if level == 0 {
		level = gormlogger.Warn
		if logger.IsVerbose() {
			level = gormlogger.Info
		}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger.NewPrinter("gorm"), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return New(db)
}

// New wraps an existing connection and migrates its schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&documentModel{}, &turnModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite, "":
		return sqlite.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: unknown catalog driver %q", domain.ErrInvalidInput, driver)
	}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CatalogStore returns the catalogue view of this store.
func (s *Store) CatalogStore() driven.CatalogStore {
	return &catalogStore{db: s.db}
}

// HistoryStore returns the history view of this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{db: s.db}
}

type catalogStore struct {
	db *gorm.DB
}

// Ensure catalogStore implements the interface.
var _ driven.CatalogStore = (*catalogStore)(nil)

func (c *catalogStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	model := &documentModel{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Format:    string(doc.Format),
		Title:     doc.Title,
		Metadata:  string(meta),
		CreatedAt: doc.CreatedAt,
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&documentModel{}).Where("id = ?", doc.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("check document: %w", err)
		}
		if n > 0 {
			return domain.ErrAlreadyExists
		}
		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
}

func (c *catalogStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var model documentModel
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return model.toDomain()
}

func (c *catalogStore) DeleteDocument(ctx context.Context, id string) error {
	if err := c.db.WithContext(ctx).Delete(&documentModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (c *catalogStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var models []documentModel
	if err := c.db.WithContext(ctx).Order("created_at DESC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(models))
	for i := range models {
		doc, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (m *documentModel) toDomain() (*domain.Document, error) {
	doc := &domain.Document{
		ID:        m.ID,
		Filename:  m.Filename,
		Format:    domain.Format(m.Format),
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
	}
	if m.Metadata != "" && m.Metadata != "null" {
		if err := json.Unmarshal([]byte(m.Metadata), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return doc, nil
}

type historyStore struct {
	db *gorm.DB
}

// Ensure historyStore implements the interface.
var _ driven.HistoryStore = (*historyStore)(nil)

func (h *historyStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	model := &turnModel{
		SessionID: turn.SessionID,
		Question:  turn.Question,
		Answer:    turn.Answer,
		Model:     turn.Model,
		CreatedAt: turn.CreatedAt,
	}
	if err := h.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	turn.ID = model.ID
	return nil
}

func (h *historyStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	var models []turnModel
	if err := h.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	turns := make([]domain.Turn, len(models))
	for i, m := range models {
		turns[i] = domain.Turn{
			ID:        m.ID,
			SessionID: m.SessionID,
			Question:  m.Question,
			Answer:    m.Answer,
			Model:     m.Model,
			CreatedAt: m.CreatedAt,
		}
	}
	return turns, nil
}

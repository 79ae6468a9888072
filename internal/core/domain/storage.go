package domain

// StorageBackend names a persistence implementation.
type StorageBackend string

const (
	StorageSQLite   StorageBackend = "sqlite"
	StorageMemory   StorageBackend = "memory"
	StorageGorm     StorageBackend = "gorm"
	StorageRedis    StorageBackend = "redis"
	StoragePGVector StorageBackend = "pgvector"
)

// StorageSettings picks a backend for each of the three stores.
//
//	Catalog: sqlite, memory or gorm
//	History: sqlite, memory, gorm or redis
//	Index:   sqlite, memory or pgvector
type StorageSettings struct {
	Catalog StorageBackend
	History StorageBackend
	Index   StorageBackend

	// CatalogDriver is the gorm dialect: sqlite, mysql or postgres.
	// Gorm history shares it.
	CatalogDriver string
	CatalogDSN    string

	RedisAddr   string
	PGVectorDSN string
}

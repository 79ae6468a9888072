// Package sqlite is the default store: the catalogue, session history and
// vector index share one pure-Go SQLite file under ~/.ragchat/data. The
// driver is glebarez/go-sqlite, the modernc engine that gormstore's sqlite
// dialector also registers, so one binary can link both stores.
//
// The index is exhaustive: Query scores every entry with cosine
// similarity. Batch inserts run in a transaction and filtered deletes are
// single statements, so readers never see a partial batch. WAL mode lets
// readers run alongside the writer.
//
// Schema changes live in migrations/ as numbered .up.sql/.down.sql pairs
// embedded in the binary.
package sqlite

// Package driven holds the ports the core services call out through:
// extraction, chunking, embedding, generation, the three stores and
// configuration. Adapters under internal/adapters/driven implement them.
//
// The ports import only the domain package.
package driven

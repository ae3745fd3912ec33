// Package sqlite is the local database behind galassia, built on the pure
// Go modernc.org/sqlite driver. One Store serves three ports:
//
//   - DocumentStore: menu and blog chunks per partition, with embeddings
//     kept as little-endian float32 blobs and a lexical fallback when no
//     embedder is configured
//   - JudgmentCache: validated LLM payloads keyed by prompt digest
//   - GraphStore: dishes linked to ingredients and techniques, queried
//     with read-only SQL
//
// Migrations under migrations/ run in filename order when a Store opens.
// NewStore places galassia.db in the data directory; OpenFile opens any
// path, which lets the dish graph live in its own file. Connections use
// WAL with a busy timeout so concurrent batch workers do not fail on lock.
package sqlite

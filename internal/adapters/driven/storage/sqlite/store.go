package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/galassia/internal/adapters/driven/storage/scoring"
	"github.com/custodia-labs/galassia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "galassia.db"

// Store is a unified SQLite-based storage that provides access to
// the document store and the judgment cache through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.galassia/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".galassia", "data")
	}

	return OpenFile(filepath.Join(dataDir, DatabaseFile))
}

// OpenFile opens the database at path, creating its directory and applying
// migrations as needed.
func OpenFile(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore backed by this store. With a nil
// embedder documents are stored without vectors and ranked lexically.
func (s *Store) DocumentStore(embedder driven.EmbeddingService) driven.DocumentStore {
	return &documentStore{store: s, embedder: embedder}
}

// JudgmentCache returns a JudgmentCache backed by this store.
func (s *Store) JudgmentCache() driven.JudgmentCache {
	return &judgmentCache{store: s}
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store    *Store
	embedder driven.EmbeddingService
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Add embeds and stores documents, assigning ids to those without one.
func (s *documentStore) Add(ctx context.Context, partition domain.Partition, docs []domain.Document) error {
	if !partition.IsValid() {
		return fmt.Errorf("%w: partition %q", domain.ErrInvalidInput, partition)
	}
	if len(docs) == 0 {
		return nil
	}

	var vectors [][]float32
	if s.embedder != nil {
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Content
		}
		var err error
		vectors, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, partition, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			partition = excluded.partition,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		var embedding []byte
		if i < len(vectors) {
			embedding = float32SliceToBytes(vectors[i])
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, string(partition), doc.Content,
			string(metadataJSON), embedding); err != nil {
			return fmt.Errorf("saving document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SimilaritySearch scans the partition and returns the k best documents
// accepted by the filter, by cosine similarity or lexical overlap.
func (s *documentStore) SimilaritySearch(
	ctx context.Context, query string, k int, filter driven.SearchFilter,
) ([]domain.Document, error) {
	var queryVector []float32
	if s.embedder != nil {
		var err error
		queryVector, err = s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, content, metadata, embedding
		FROM documents WHERE partition = ?
		ORDER BY rowid
	`, string(filter.Partition))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var (
		docs       []domain.Document
		candidates []scoring.Candidate
	)
	for rows.Next() {
		doc, embedding, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if !filter.Predicate.Accepts(doc.Metadata) {
			continue
		}
		score := scoring.Lexical(query, doc.Content)
		if queryVector != nil {
			score = scoring.Cosine(queryVector, embedding)
		}
		candidates = append(candidates, scoring.Candidate{Index: len(docs), Score: score})
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	top := scoring.TopK(candidates, k)
	result := make([]domain.Document, len(top))
	for i, c := range top {
		result[i] = docs[c.Index]
	}
	return result, nil
}

// Count returns the number of documents in a partition.
func (s *documentStore) Count(ctx context.Context, partition domain.Partition) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE partition = ?", string(partition))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *documentStore) Close() error {
	return nil
}

// ==================== Judgment Cache ====================

// judgmentCache implements driven.JudgmentCache.
type judgmentCache struct {
	store *Store
}

var _ driven.JudgmentCache = (*judgmentCache)(nil)

// Get returns the cached payload.
func (c *judgmentCache) Get(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := c.store.db.QueryRowContext(ctx, "SELECT payload FROM judgments WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading judgment: %w", err)
	}
	return payload, true, nil
}

// Set stores a payload.
func (c *judgmentCache) Set(ctx context.Context, key, payload string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO judgments (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload
	`, key, payload)
	if err != nil {
		return fmt.Errorf("saving judgment: %w", err)
	}
	return nil
}

// scanDocument scans a document row and its embedding.
func scanDocument(rows *sql.Rows) (domain.Document, []float32, error) {
	var (
		doc          domain.Document
		metadataJSON string
		embedding    []byte
	)
	if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &embedding); err != nil {
		return domain.Document{}, nil, fmt.Errorf("scanning document: %w", err)
	}
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return domain.Document{}, nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return doc, bytesToFloat32Slice(embedding), nil
}

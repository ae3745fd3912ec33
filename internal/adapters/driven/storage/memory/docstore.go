package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/galassia/internal/adapters/driven/storage/scoring"
	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

type storedDocument struct {
	doc       domain.Document
	embedding []float32
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// With an embedding service it ranks by cosine similarity, otherwise by
// lexical term overlap.
type DocumentStore struct {
	mu         sync.RWMutex
	partitions map[domain.Partition][]storedDocument
	embedder   driven.EmbeddingService
}

// NewDocumentStore creates a new in-memory document store. embedder may be nil.
func NewDocumentStore(embedder driven.EmbeddingService) *DocumentStore {
	return &DocumentStore{
		partitions: make(map[domain.Partition][]storedDocument),
		embedder:   embedder,
	}
}

// Add stores documents in a partition, assigning ids to those without one.
func (s *DocumentStore) Add(ctx context.Context, partition domain.Partition, docs []domain.Document) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		stored := storedDocument{doc: d}
		if i < len(vectors) {
			stored.embedding = vectors[i]
		}
		s.partitions[partition] = append(s.partitions[partition], stored)
	}
	return nil
}

// SimilaritySearch returns the k best documents accepted by the filter.
func (s *DocumentStore) SimilaritySearch(
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

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.partitions[filter.Partition]
	candidates := make([]scoring.Candidate, 0, len(stored))
	for i, sd := range stored {
		if !filter.Predicate.Accepts(sd.doc.Metadata) {
			continue
		}
		score := scoring.Lexical(query, sd.doc.Content)
		if queryVector != nil {
			score = scoring.Cosine(queryVector, sd.embedding)
		}
		candidates = append(candidates, scoring.Candidate{Index: i, Score: score})
	}

	top := scoring.TopK(candidates, k)
	docs := make([]domain.Document, len(top))
	for i, c := range top {
		docs[i] = stored[c.Index].doc
	}
	return docs, nil
}

// Count returns the number of documents in a partition.
func (s *DocumentStore) Count(_ context.Context, partition domain.Partition) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.partitions[partition]), nil
}

// Close releases resources (no-op for memory store).
func (s *DocumentStore) Close() error {
	return nil
}

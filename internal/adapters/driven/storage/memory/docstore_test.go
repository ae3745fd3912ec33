package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// keywordEmbedder embeds text as presence flags over a fixed vocabulary.
type keywordEmbedder struct {
	vocabulary []string
	err        error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, len(e.vocabulary))
	for i, word := range e.vocabulary {
		if containsWord(text, word) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int              { return len(e.vocabulary) }
func (e *keywordEmbedder) ModelName() string            { return "keywords" }
func (e *keywordEmbedder) Ping(_ context.Context) error { return nil }
func (e *keywordEmbedder) Close() error                 { return nil }

func containsWord(text, word string) bool {
	for _, t := range splitWords(text) {
		if t == word {
			return true
		}
	}
	return false
}

func splitWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text + " " {
		if r == ' ' || r == ',' || r == '.' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return words
}

func menuDocs() []domain.Document {
	return []domain.Document{
		{Content: "Sinfonia di kraken e alghe", Metadata: map[string]any{domain.KeyPlanetName: "Pandora"}},
		{Content: "Nebulosa di funghi lunari", Metadata: map[string]any{domain.KeyPlanetName: "Tatooine"}},
		{Content: "Kraken arrosto con funghi", Metadata: map[string]any{domain.KeyPlanetName: "Tatooine"}},
	}
}

func TestDocumentStore_AddAssignsIDsAndCounts(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, domain.PartitionMenu, menuDocs()))
	require.NoError(t, store.Add(ctx, domain.PartitionCode, []domain.Document{{ID: "code-1", Content: "Articolo 1"}}))

	menuCount, err := store.Count(ctx, domain.PartitionMenu)
	require.NoError(t, err)
	assert.Equal(t, 3, menuCount)

	docs, err := store.SimilaritySearch(ctx, "articolo", 5, driven.SearchFilter{Partition: domain.PartitionCode})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "code-1", docs[0].ID)

	all, err := store.SimilaritySearch(ctx, "kraken", 5, driven.SearchFilter{Partition: domain.PartitionMenu})
	require.NoError(t, err)
	for _, d := range all {
		assert.NotEmpty(t, d.ID)
	}
}

func TestDocumentStore_AddInvalidPartition(t *testing.T) {
	store := NewDocumentStore(nil)

	err := store.Add(context.Background(), domain.Partition("recipes"), menuDocs())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_LexicalRanking(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, domain.PartitionMenu, menuDocs()))

	docs, err := store.SimilaritySearch(ctx, "kraken con funghi", 2, driven.SearchFilter{Partition: domain.PartitionMenu})

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Kraken arrosto con funghi", docs[0].Content)
}

func TestDocumentStore_PredicateFilters(t *testing.T) {
	store := NewDocumentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, domain.PartitionMenu, menuDocs()))

	onTatooine := func(meta map[string]any) bool { return meta[domain.KeyPlanetName] == "Tatooine" }
	docs, err := store.SimilaritySearch(ctx, "kraken", 10, driven.SearchFilter{
		Partition: domain.PartitionMenu,
		Predicate: onTatooine,
	})

	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, "Tatooine", d.Metadata[domain.KeyPlanetName])
	}
}

func TestDocumentStore_EmbeddingRanking(t *testing.T) {
	embedder := &keywordEmbedder{vocabulary: []string{"kraken", "funghi", "alghe", "nebulosa"}}
	store := NewDocumentStore(embedder)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, domain.PartitionMenu, menuDocs()))

	docs, err := store.SimilaritySearch(ctx, "alghe", 1, driven.SearchFilter{Partition: domain.PartitionMenu})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Sinfonia di kraken e alghe", docs[0].Content)
}

func TestDocumentStore_EmbeddingFailure(t *testing.T) {
	embedder := &keywordEmbedder{err: domain.ErrEmbeddingUnavailable}
	store := NewDocumentStore(embedder)

	err := store.Add(context.Background(), domain.PartitionMenu, menuDocs())
	assert.True(t, errors.Is(err, domain.ErrUnavailable))

	_, err = store.SimilaritySearch(context.Background(), "kraken", 1, driven.SearchFilter{Partition: domain.PartitionMenu})
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestDocumentStore_EmptyPartition(t *testing.T) {
	store := NewDocumentStore(nil)

	docs, err := store.SimilaritySearch(context.Background(), "kraken", 3, driven.SearchFilter{Partition: domain.PartitionManual})

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, store.Close())
}

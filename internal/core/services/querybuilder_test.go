package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

func menuRecord(id, content string) domain.Record {
	return domain.Record{"_id": id, "page_content": content, "embedding": []any{0.1, 0.2}}
}

func manyRecords(n int, content func(i int) string) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = menuRecord(fmt.Sprintf("r%d", i), content(i))
	}
	return out
}

func TestQueryBuilder_Build_NormalisesEntityNames(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration,
		`{"restaurant_name": "L'Essenza_dell-Infinito", "planet_name": "Pandora"}`)
	builder := NewQueryBuilder(newTestJudge(llm), &mockRecordStore{})

	query, err := builder.Build(context.Background(), "q", nil, "", 1)

	require.NoError(t, err)
	assert.Equal(t, "l essenza dell infinito", query.Filter[domain.KeyRestaurantName])
	assert.Equal(t, "Pandora", query.Filter[domain.KeyPlanetName])
	assert.Equal(t, 1, query.Attempt)
}

func TestQueryBuilder_Retrieve_FirstAttemptSucceeds(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
	records := &mockRecordStore{responses: []recordResponse{{records: []domain.Record{
		menuRecord("r1", "Menu di Pandora"),
	}}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Menu di Pandora", docs[0].Content)
	assert.Equal(t, "r1", docs[0].ID)
	assert.NotContains(t, docs[0].Metadata, "embedding")
	assert.Equal(t, 1, llm.callCount(driven.PromptQueryGeneration))
}

func TestQueryBuilder_Retrieve_RetriesWithContext(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration,
		`{"planet_name": {"$bad": 1}}`,
		`{"planet_name": "Nowhere"}`,
		`{"planet_name": "Pandora"}`,
	)
	records := &mockRecordStore{responses: []recordResponse{
		{err: fmt.Errorf("%w: unknown operator $bad", domain.ErrStoreQuery)},
		{},
		{records: []domain.Record{menuRecord("r1", "Menu di Pandora")}},
	}}
	builder := NewQueryBuilder(newTestJudge(llm), records)

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

	require.NoError(t, err)
	require.Len(t, docs, 1)

	calls := llm.callsFor(driven.PromptQueryGeneration)
	require.Len(t, calls, 3)
	assert.NotContains(t, calls[0].Rendered, "previous query")
	assert.Contains(t, calls[1].Rendered, `The previous query '{"planet_name":{"$bad":1}}' caused an error`)
	assert.Contains(t, calls[2].Rendered, `caused an error`, "context accumulates")
	assert.Contains(t, calls[2].Rendered, `The previous query '{"planet_name":"Nowhere"}' returned 0 results`)
}

func TestQueryBuilder_Retrieve_BoundedAttempts(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, "not a query")
	records := &mockRecordStore{}
	builder := NewQueryBuilder(newTestJudge(llm), records)

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, MaxQueryAttempts, llm.callCount(driven.PromptQueryGeneration))
	assert.Zero(t, records.findCount(), "no values means no full scan")
}

func TestQueryBuilder_Retrieve_EmptyEveryAttemptWithoutMetadata(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Nowhere"}`)
	records := &mockRecordStore{responses: []recordResponse{{}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

	require.NoError(t, err)
	require.NotNil(t, docs)
	assert.Empty(t, docs)
	assert.Equal(t, MaxQueryAttempts, llm.callCount(driven.PromptQueryGeneration))
	assert.Equal(t, MaxQueryAttempts, records.findCount(), "no full scan after the generated queries")
	for _, f := range records.filters {
		assert.NotEmpty(t, f)
	}
}

func TestQueryBuilder_Retrieve_BroadResultWithoutMetadataIsEmpty(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
	found := manyRecords(BroadResultThreshold+1, func(i int) string { return fmt.Sprintf("Menu %d", i) })
	records := &mockRecordStore{responses: []recordResponse{{records: found}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

	require.NoError(t, err)
	require.NotNil(t, docs)
	assert.Empty(t, docs)
	assert.Equal(t, 1, records.findCount())
}

func TestQueryBuilder_Retrieve_BroadResultIsFiltered(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
	found := manyRecords(20, func(i int) string {
		if i%5 == 0 {
			return fmt.Sprintf("Menu %d con Kraken", i)
		}
		return fmt.Sprintf("Menu %d", i)
	})
	records := &mockRecordStore{responses: []recordResponse{{records: found}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)
	dish := &domain.DishMetadata{Ingredients: []string{"Kraken"}}

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, dish)

	require.NoError(t, err)
	require.Len(t, docs, 4)
	for _, d := range docs {
		assert.Contains(t, d.Content, "Kraken")
	}
}

func TestQueryBuilder_Retrieve_ThresholdIsExclusive(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
	found := manyRecords(BroadResultThreshold, func(i int) string { return fmt.Sprintf("Menu %d", i) })
	records := &mockRecordStore{responses: []recordResponse{{records: found}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)
	dish := &domain.DishMetadata{Ingredients: []string{"Kraken"}}

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, dish)

	require.NoError(t, err)
	assert.Len(t, docs, BroadResultThreshold)
}

func TestQueryBuilder_Retrieve_EmptyFallsBackToFullScan(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Nowhere"}`)
	records := &mockRecordStore{
		all: manyRecords(40, func(i int) string {
			if i%2 == 0 {
				return fmt.Sprintf("Menu %d di Pandora", i)
			}
			return fmt.Sprintf("Menu %d", i)
		}),
	}
	builder := NewQueryBuilder(newTestJudge(llm), records)
	menu := &domain.MenuMetadata{PlanetName: domain.StringPtr("Pandora")}

	docs, err := builder.Retrieve(context.Background(), "q", nil, menu, nil)

	require.NoError(t, err)
	assert.Len(t, docs, 20)
	assert.Equal(t, MaxQueryAttempts+1, records.findCount())
}

func TestQueryBuilder_Retrieve_TruncatesOutput(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
	found := manyRecords(60, func(i int) string { return fmt.Sprintf("Menu %d con Kraken", i) })
	records := &mockRecordStore{responses: []recordResponse{{records: found}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)
	dish := &domain.DishMetadata{Ingredients: []string{"Kraken"}}

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, dish)

	require.NoError(t, err)
	require.Len(t, docs, MaxRetrievedDocuments)
	assert.Equal(t, "Menu 0 con Kraken", docs[0].Content)
}

func TestQueryBuilder_Retrieve_SubstringFilterIsCaseSensitive(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
	found := manyRecords(16, func(i int) string {
		if i == 0 {
			return "menu con kraken"
		}
		return fmt.Sprintf("Menu %d", i)
	})
	records := &mockRecordStore{responses: []recordResponse{{records: found}}}
	builder := NewQueryBuilder(newTestJudge(llm), records)

	docs, err := builder.Retrieve(context.Background(), "q", nil, nil, &domain.DishMetadata{Ingredients: []string{"Kraken"}})

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryBuilder_Retrieve_ConnectivityFailurePropagates(t *testing.T) {
	t.Run("llm", func(t *testing.T) {
		llm := newMockLLM().fail(driven.PromptQueryGeneration, errTransport)
		builder := NewQueryBuilder(newTestJudge(llm), &mockRecordStore{})

		_, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

		assert.True(t, domain.IsFatal(err))
		assert.Equal(t, 1, llm.callCount(driven.PromptQueryGeneration))
	})

	t.Run("store", func(t *testing.T) {
		llm := newMockLLM().on(driven.PromptQueryGeneration, `{"planet_name": "Pandora"}`)
		records := &mockRecordStore{responses: []recordResponse{
			{err: fmt.Errorf("server selection: %w", domain.ErrStoreUnavailable)},
		}}
		builder := NewQueryBuilder(newTestJudge(llm), records)

		_, err := builder.Retrieve(context.Background(), "q", nil, nil, nil)

		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestQueryBuilder_Build_PassesFieldDescriptions(t *testing.T) {
	llm := newMockLLM().on(driven.PromptQueryGeneration, `{}`)
	builder := NewQueryBuilder(newTestJudge(llm), &mockRecordStore{})
	fields := domain.FieldDescriptions{domain.KeyPlanetName: {"Pandora", "Tatooine"}}

	query, err := builder.Build(context.Background(), "q", fields, "\nprior", 2)

	require.NoError(t, err)
	assert.Empty(t, query.Filter)
	assert.Equal(t, "prior", query.PriorError)
	rendered := llm.callsFor(driven.PromptQueryGeneration)[0].Rendered
	assert.True(t, strings.Contains(rendered, "planet_name: Pandora, Tatooine"))
}

func TestNormalizeEntity(t *testing.T) {
	tests := map[string]string{
		"L'Essenza dell'Infinito":  "l essenza dell infinito",
		"Anima_Cosmica":            "anima cosmica",
		"  Ristorante   Stellare ": "ristorante stellare",
		"Dr. Who-Kitchen":          "dr who kitchen",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeEntity(in), in)
	}
}

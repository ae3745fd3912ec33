package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []domain.Question
	}{
		{
			name:  "numbered from one",
			input: "domanda\n\"Quali piatti usano il Kraken?\"\nChe cos'è la Sinfonia?\n",
			want: []domain.Question{
				{ID: 1, Text: "Quali piatti usano il Kraken?"},
				{ID: 2, Text: "Che cos'è la Sinfonia?"},
			},
		},
		{
			name:  "explicit ids",
			input: "row_id,question\n10,first\n4,second\n",
			want:  []domain.Question{{ID: 10, Text: "first"}, {ID: 4, Text: "second"}},
		},
		{
			name:  "byte order mark",
			input: "\ufeffDomanda\nuno\n",
			want:  []domain.Question{{ID: 1, Text: "uno"}},
		},
		{
			name:  "first column fallback",
			input: "testo\nuno\n",
			want:  []domain.Question{{ID: 1, Text: "uno"}},
		},
		{
			name:  "empty file",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuestions(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestions_InvalidID(t *testing.T) {
	_, err := ParseQuestions(strings.NewReader("id,text\nx,hello\n"))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadQuestions(t *testing.T) {
	path := writeFile(t, "domande.csv", "domanda\nuno\ndue\n")

	questions, err := LoadQuestions(path)

	require.NoError(t, err)
	assert.Len(t, questions, 2)

	_, err = LoadQuestions(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadRecords(t *testing.T) {
	path := writeFile(t, "records.jsonl", `{"page_content": "Sinfonia", "planet_name": "Pandora"}

{"page_content": "Nebulosa", "dish_ingredients": ["Kraken"]}
`)

	records, err := LoadRecords(path)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Pandora", records[0]["planet_name"])
	assert.Equal(t, []any{"Kraken"}, records[1]["dish_ingredients"])
}

func TestLoadRecords_ReportsLine(t *testing.T) {
	path := writeFile(t, "records.jsonl", "{}\n{broken\n")

	_, err := LoadRecords(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
}

func TestLoadDocuments(t *testing.T) {
	path := writeFile(t, "code.jsonl", `{"id": "art-1", "content": "Articolo 1", "metadata": {"section": "licenze"}}
{"page_content": "Articolo 2"}
`)

	docs, err := LoadDocuments(path)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "art-1", docs[0].ID)
	assert.Equal(t, "licenze", docs[0].Metadata["section"])
	assert.Equal(t, "Articolo 2", docs[1].Content)
}

func TestLoadDocuments_RequiresContent(t *testing.T) {
	path := writeFile(t, "code.jsonl", `{"id": "art-1"}`)

	_, err := LoadDocuments(path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadDishes(t *testing.T) {
	path := writeFile(t, "dishes.jsonl",
		`{"name": "Sinfonia Cosmica", "planet": "Pandora", "ingredients": ["Kraken", "Alghe"]}`)

	dishes, err := LoadDishes(path)

	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, []string{"Kraken", "Alghe"}, dishes[0].Ingredients)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_ToDocument(t *testing.T) {
	rec := Record{
		"_id":             "665f",
		"embedding":       []float64{0.1, 0.2},
		"page_content":    "Piatto: Nebulosa Croccante",
		"chef_name":       "Sirius Cosmo",
		"dish_techniques": []any{"Bollitura Entropica"},
	}

	doc := rec.ToDocument()

	assert.Equal(t, "665f", doc.ID)
	assert.Equal(t, "Piatto: Nebulosa Croccante", doc.Content)
	assert.Equal(t, "Sirius Cosmo", doc.Metadata["chef_name"])
	assert.NotContains(t, doc.Metadata, "_id")
	assert.NotContains(t, doc.Metadata, "embedding")
	assert.NotContains(t, doc.Metadata, "page_content")

	// The record is left untouched.
	assert.Contains(t, rec, "embedding")
	assert.Contains(t, rec, "page_content")
}

func TestRecord_ToDocument_MissingContent(t *testing.T) {
	doc := Record{"planet_name": "Pandora"}.ToDocument()

	assert.Empty(t, doc.ID)
	assert.Empty(t, doc.Content)
	assert.Equal(t, "Pandora", doc.Metadata["planet_name"])
}

func TestRecordsToDocuments_PreservesOrder(t *testing.T) {
	docs := RecordsToDocuments([]Record{
		{"page_content": "a"},
		{"page_content": "b"},
		{"page_content": "c"},
	})

	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].Content)
	assert.Equal(t, "b", docs[1].Content)
	assert.Equal(t, "c", docs[2].Content)
}

func TestDocument_Format(t *testing.T) {
	doc := Document{
		Content:  "Il piatto usa Teste di Idra.",
		Metadata: map[string]any{"planet_name": "Tatooine", "chef_name": "Nova"},
	}

	assert.Equal(t,
		"Metadata: {chef_name: Nova, planet_name: Tatooine}\nText: Il piatto usa Teste di Idra.\n",
		doc.Format())
}

func TestFormatDocuments_Empty(t *testing.T) {
	assert.Empty(t, FormatDocuments(nil))
}

func TestPartition_IsValid(t *testing.T) {
	for _, p := range AllPartitions() {
		assert.True(t, p.IsValid(), p.String())
	}
	assert.False(t, Partition("recipes").IsValid())
	assert.False(t, Partition("").IsValid())
}

func TestFieldDescriptions_String(t *testing.T) {
	fd := FieldDescriptions{
		"planet_name": {"Pandora", "Tatooine"},
		"chef_name":   {"Nova"},
	}

	assert.Equal(t, "chef_name: Nova\nplanet_name: Pandora, Tatooine", fd.String())
	assert.Empty(t, FieldDescriptions{}.String())
}

func TestDish_ToDocument(t *testing.T) {
	dish := Dish{
		Name:        "Sinfonia Cosmica",
		Restaurant:  "Le Stelle",
		Ingredients: []string{"Teste di Idra", "Muschio Lunare"},
	}

	doc := dish.ToDocument()

	assert.Contains(t, doc.Content, "Sinfonia Cosmica")
	assert.Contains(t, doc.Content, "Teste di Idra, Muschio Lunare")
	assert.Equal(t, "Sinfonia Cosmica", doc.Metadata[KeyDishName])
	assert.Equal(t, "Le Stelle", doc.Metadata[KeyRestaurantName])
	assert.NotContains(t, doc.Metadata, KeyDishTechniques)
}

func TestGeneratedQuery_String(t *testing.T) {
	assert.Equal(t, "{}", GeneratedQuery{}.String())
	q := GeneratedQuery{Filter: map[string]any{"planet_name": "Pandora"}}
	assert.Equal(t, `{"planet_name":"Pandora"}`, q.String())
}

func TestSourceFile_FallbackTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/manual/cooking_manual.txt", "cooking manual"},
		{"galactic_code-v2.docx", "galactic code v2"},
		{"notes", "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, (&SourceFile{Path: tt.path}).FallbackTitle())
		})
	}
}

func TestSourceFile_Metadata(t *testing.T) {
	f := &SourceFile{Path: "/data/menu/nebula_menu.html"}

	assert.Equal(t, map[string]any{
		MetadataSource: "nebula_menu.html",
		MetadataTitle:  "Menu Nebula",
		MetadataFormat: "html",
	}, f.Metadata("html", "Menu Nebula"))

	assert.Equal(t, map[string]any{
		MetadataSource: "nebula_menu.html",
		MetadataTitle:  "nebula menu",
	}, f.Metadata("", ""))
}

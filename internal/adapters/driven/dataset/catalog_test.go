package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDishCatalog(t *testing.T) {
	path := writeFile(t, "dish_mapping.json", `{
		"Sinfonia Cosmica": 12,
		"Nebulosa  Fritta": "7"
	}`)

	catalog, err := LoadDishCatalog(path)

	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	id, ok := catalog.Lookup("sinfonia cosmica")
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	id, ok = catalog.Lookup(" Nebulosa Fritta ")
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	_, ok = catalog.Lookup("Eco di Pandora")
	assert.False(t, ok)
}

func TestLoadDishCatalog_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":   `{`,
		"bad id":     `{"a": "seven"}`,
		"nested ids": `{"a": {"id": 1}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDishCatalog(writeFile(t, "m.json", content))
			assert.Error(t, err)
		})
	}

	_, err := LoadDishCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewDishCatalog(t *testing.T) {
	catalog := NewDishCatalog(map[string]int{"Sinfonia Cosmica": 3})

	id, ok := catalog.Lookup("SINFONIA COSMICA")

	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

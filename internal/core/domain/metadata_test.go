package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuMetadata_Fields(t *testing.T) {
	menu := &MenuMetadata{
		ChefName: StringPtr("Sirius Cosmo"),
		Licences: []string{"P 5"},
	}

	fields := menu.Fields()

	require.Len(t, fields, 2)
	assert.Equal(t, MetadataField{Key: KeyChefName, Values: []string{"Sirius Cosmo"}}, fields[0])
	assert.Equal(t, MetadataField{Key: KeyLicences, Values: []string{"P 5"}}, fields[1])
}

func TestMetadata_NilReceiverHasNoFields(t *testing.T) {
	var menu *MenuMetadata
	var dish *DishMetadata

	assert.Empty(t, menu.Fields())
	assert.Empty(t, dish.Fields())
	assert.Empty(t, MetadataValues(nil, nil))
}

func TestMetadata_EmptyListIsSet(t *testing.T) {
	dish := &DishMetadata{Ingredients: []string{}}

	fields := dish.Fields()

	require.Len(t, fields, 1)
	assert.Equal(t, KeyDishIngredients, fields[0].Key)
	assert.Empty(t, fields[0].Values)
}

func TestMetadataValues_Flattens(t *testing.T) {
	menu := &MenuMetadata{PlanetName: StringPtr("Pandora")}
	dish := &DishMetadata{
		DishName:    StringPtr(""),
		Ingredients: []string{"Teste di Idra", "Radici di Gravitone"},
	}

	assert.Equal(t,
		[]string{"Pandora", "Teste di Idra", "Radici di Gravitone"},
		MetadataValues(menu, dish))
}

func TestMetadata_UnmarshalDistinguishesUnsetFromEmpty(t *testing.T) {
	var dish DishMetadata
	err := json.Unmarshal([]byte(`{"dish_name": null, "dish_ingredients": []}`), &dish)
	require.NoError(t, err)

	assert.Nil(t, dish.DishName)
	assert.Nil(t, dish.Techniques)
	assert.NotNil(t, dish.Ingredients)
	assert.Empty(t, dish.Ingredients)
}

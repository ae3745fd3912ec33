package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

var (
	nullableString = map[string]any{"type": []string{"string", "null"}}
	nullableList   = map[string]any{
		"type":  []string{"array", "null"},
		"items": map[string]any{"type": "string"},
	}

	menuMetadataFormat = &driven.ResponseFormat{
		Name: "menu_metadata",
		Schema: objectSchema(map[string]any{
			domain.KeyChefName:       nullableString,
			domain.KeyRestaurantName: nullableString,
			domain.KeyPlanetName:     nullableString,
			domain.KeyLicences:       nullableList,
		}, domain.KeyChefName, domain.KeyRestaurantName, domain.KeyPlanetName, domain.KeyLicences),
	}

	dishMetadataFormat = &driven.ResponseFormat{
		Name: "dish_metadata",
		Schema: objectSchema(map[string]any{
			domain.KeyDishName:        nullableString,
			domain.KeyDishTechniques:  nullableList,
			domain.KeyDishIngredients: nullableList,
		}, domain.KeyDishName, domain.KeyDishTechniques, domain.KeyDishIngredients),
	}
)

// MetadataExtractor pulls menu and dish attributes out of a question.
type MetadataExtractor struct {
	judge *StructuredJudge
}

// NewMetadataExtractor creates a metadata extractor.
func NewMetadataExtractor(judge *StructuredJudge) *MetadataExtractor {
	return &MetadataExtractor{judge: judge}
}

// Extract runs the menu and dish extractions in parallel. A scope whose
// payload does not conform is left nil, which means "no constraint".
func (e *MetadataExtractor) Extract(
	ctx context.Context, question string, fields domain.FieldDescriptions,
) (*domain.MenuMetadata, *domain.DishMetadata, error) {
	vars := map[string]string{
		"question":           question,
		"field_descriptions": fields.String(),
	}

	var (
		menu *domain.MenuMetadata
		dish *domain.DishMetadata
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var out domain.MenuMetadata
		ok, err := e.extract(groupCtx, driven.PromptMenuMetadata, vars, menuMetadataFormat, &out)
		if ok {
			menu = &out
		}
		return err
	})
	group.Go(func() error {
		var out domain.DishMetadata
		ok, err := e.extract(groupCtx, driven.PromptDishMetadata, vars, dishMetadataFormat, &out)
		if ok {
			dish = &out
		}
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	logger.FromContext(ctx).Info("Extracted %d menu and %d dish fields", len(menu.Fields()), len(dish.Fields()))
	return menu, dish, nil
}

func (e *MetadataExtractor) extract(
	ctx context.Context, prompt string, vars map[string]string, format *driven.ResponseFormat, out any,
) (bool, error) {
	if err := e.judge.Extract(ctx, prompt, vars, format, out); err != nil {
		if domain.IsFatal(err) {
			return false, err
		}
		logger.FromContext(ctx).Warn("Metadata extraction %s failed, leaving scope unset: %v", prompt, err)
		return false, nil
	}
	return true, nil
}

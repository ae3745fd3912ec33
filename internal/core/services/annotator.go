package services

import (
	"context"
	"maps"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// annotationConcurrency bounds extraction calls in flight during an import.
const annotationConcurrency = 4

// MenuAnnotator tags menu documents with the entity keys the relevance filter
// matches on. Section headings give the restaurant and dish names; with a
// judge the remaining attributes are extracted from the section text.
// Values that cannot be determined are stored as null, which every filter
// condition accepts.
type MenuAnnotator struct {
	judge *StructuredJudge
}

// NewMenuAnnotator creates an annotator. judge may be nil, in which case only
// headings are used.
func NewMenuAnnotator(judge *StructuredJudge) *MenuAnnotator {
	return &MenuAnnotator{judge: judge}
}

// menuSection is the documents of one restaurant in one source file.
type menuSection struct {
	restaurant string
	members    []int
}

// Annotate returns copies of docs carrying menu and dish metadata. Keys
// already present are left alone. Documents under a dish heading get the dish
// keys; restaurant-level documents only get the menu keys.
func (a *MenuAnnotator) Annotate(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		d.Metadata = maps.Clone(d.Metadata)
		if d.Metadata == nil {
			d.Metadata = make(map[string]any)
		}
		out[i] = d
	}

	sections := groupSections(out)
	menus := make([]domain.MenuMetadata, len(sections))
	dishes := make([]*domain.DishMetadata, len(out))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(annotationConcurrency)
	for s := range sections {
		group.Go(func() error {
			menu, err := a.menuMetadata(groupCtx, out, sections[s])
			menus[s] = menu
			return err
		})
	}
	for i := range out {
		name := headerValue(out[i].Metadata, domain.MetadataHeader2)
		if name == "" {
			continue
		}
		group.Go(func() error {
			dish, err := a.dishMetadata(groupCtx, name, out[i].Content)
			dishes[i] = &dish
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for s, section := range sections {
		for _, i := range section.members {
			setMenuKeys(out[i].Metadata, menus[s])
			if dishes[i] != nil {
				setDishKeys(out[i].Metadata, *dishes[i])
			}
		}
	}
	logger.FromContext(ctx).Debug("Annotated %d menu documents in %d sections", len(out), len(sections))
	return out, nil
}

// groupSections groups document indices by source file and top heading, in
// order of first appearance.
func groupSections(docs []domain.Document) []menuSection {
	var sections []menuSection
	index := make(map[string]int)
	for i, d := range docs {
		restaurant := headerValue(d.Metadata, domain.MetadataHeader1)
		key := headerValue(d.Metadata, domain.MetadataSource) + "\x00" + restaurant
		s, ok := index[key]
		if !ok {
			s = len(sections)
			index[key] = s
			sections = append(sections, menuSection{restaurant: restaurant})
		}
		sections[s].members = append(sections[s].members, i)
	}
	return sections
}

// menuMetadata extracts restaurant attributes from the section text that is
// not under a dish heading, or from its first document when every document is.
func (a *MenuAnnotator) menuMetadata(
	ctx context.Context, docs []domain.Document, section menuSection,
) (domain.MenuMetadata, error) {
	var menu domain.MenuMetadata
	if a.judge != nil {
		var text []string
		for _, i := range section.members {
			if headerValue(docs[i].Metadata, domain.MetadataHeader2) == "" {
				text = append(text, docs[i].Content)
			}
		}
		if len(text) == 0 {
			text = append(text, docs[section.members[0]].Content)
		}
		err := a.judge.Extract(ctx, driven.PromptMenuDocument, map[string]string{
			"restaurant": section.restaurant,
			"document":   strings.Join(text, "\n\n"),
		}, menuMetadataFormat, &menu)
		if err != nil {
			if domain.IsFatal(err) {
				return menu, err
			}
			logger.FromContext(ctx).Warn("Menu metadata for %q unavailable, using headings: %v", section.restaurant, err)
			menu = domain.MenuMetadata{}
		}
	}
	if section.restaurant != "" {
		menu.RestaurantName = domain.StringPtr(section.restaurant)
	}
	return menu, nil
}

func (a *MenuAnnotator) dishMetadata(ctx context.Context, name, content string) (domain.DishMetadata, error) {
	var dish domain.DishMetadata
	if a.judge != nil {
		err := a.judge.Extract(ctx, driven.PromptDishDocument, map[string]string{
			"dish":     name,
			"document": content,
		}, dishMetadataFormat, &dish)
		if err != nil {
			if domain.IsFatal(err) {
				return dish, err
			}
			logger.FromContext(ctx).Warn("Dish metadata for %q unavailable, using heading: %v", name, err)
			dish = domain.DishMetadata{}
		}
	}
	dish.DishName = domain.StringPtr(name)
	return dish, nil
}

func setMenuKeys(metadata map[string]any, menu domain.MenuMetadata) {
	setAbsent(metadata, domain.KeyChefName, optionalString(menu.ChefName))
	setAbsent(metadata, domain.KeyRestaurantName, optionalString(menu.RestaurantName))
	setAbsent(metadata, domain.KeyPlanetName, optionalString(menu.PlanetName))
	setAbsent(metadata, domain.KeyLicences, optionalList(menu.Licences))
}

func setDishKeys(metadata map[string]any, dish domain.DishMetadata) {
	setAbsent(metadata, domain.KeyDishName, optionalString(dish.DishName))
	setAbsent(metadata, domain.KeyDishTechniques, optionalList(dish.Techniques))
	setAbsent(metadata, domain.KeyDishIngredients, optionalList(dish.Ingredients))
}

func setAbsent(metadata map[string]any, key string, value any) {
	if _, ok := metadata[key]; !ok {
		metadata[key] = value
	}
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optionalList(l []string) any {
	if l == nil {
		return nil
	}
	return l
}

func headerValue(metadata map[string]any, key string) string {
	s, _ := metadata[key].(string)
	return strings.TrimSpace(s)
}

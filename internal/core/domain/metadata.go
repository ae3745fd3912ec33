package domain

// Metadata keys shared by extracted metadata, documents and records.
const (
	KeyChefName        = "chef_name"
	KeyRestaurantName  = "restaurant_name"
	KeyPlanetName      = "planet_name"
	KeyLicences        = "licences"
	KeyDishName        = "dish_name"
	KeyDishTechniques  = "dish_techniques"
	KeyDishIngredients = "dish_ingredients"
)

// Predicate decides whether a document's metadata is acceptable.
// A nil Predicate accepts every document.
type Predicate func(metadata map[string]any) bool

// Accepts applies the predicate, treating nil as accept-all.
func (p Predicate) Accepts(metadata map[string]any) bool {
	return p == nil || p(metadata)
}

// MenuMetadata holds menu-scope attributes extracted from a question.
// A nil field is unset and means "no constraint". A non-nil empty list
// means extraction ran but found nothing feasible.
type MenuMetadata struct {
	ChefName       *string  `json:"chef_name"`
	RestaurantName *string  `json:"restaurant_name"`
	PlanetName     *string  `json:"planet_name"`
	Licences       []string `json:"licences"`
}

// DishMetadata holds dish-scope attributes extracted from a question.
// Unset and empty follow the same rules as MenuMetadata.
type DishMetadata struct {
	DishName    *string  `json:"dish_name"`
	Techniques  []string `json:"dish_techniques"`
	Ingredients []string `json:"dish_ingredients"`
}

// MetadataField is one set attribute of extracted metadata.
// Scalars carry a single value; lists carry every element, possibly none.
type MetadataField struct {
	Key    string
	Values []string
}

// Fields returns the set attributes in declaration order.
// A nil receiver has no fields.
func (m *MenuMetadata) Fields() []MetadataField {
	if m == nil {
		return nil
	}
	var fields []MetadataField
	fields = appendScalar(fields, KeyChefName, m.ChefName)
	fields = appendScalar(fields, KeyRestaurantName, m.RestaurantName)
	fields = appendScalar(fields, KeyPlanetName, m.PlanetName)
	fields = appendList(fields, KeyLicences, m.Licences)
	return fields
}

// Fields returns the set attributes in declaration order.
// A nil receiver has no fields.
func (d *DishMetadata) Fields() []MetadataField {
	if d == nil {
		return nil
	}
	var fields []MetadataField
	fields = appendScalar(fields, KeyDishName, d.DishName)
	fields = appendList(fields, KeyDishTechniques, d.Techniques)
	fields = appendList(fields, KeyDishIngredients, d.Ingredients)
	return fields
}

// MetadataValues flattens menu and dish attributes into one candidate-value list.
// Menu values come first; empty strings are skipped.
func MetadataValues(menu *MenuMetadata, dish *DishMetadata) []string {
	var values []string
	for _, fields := range [][]MetadataField{menu.Fields(), dish.Fields()} {
		for _, f := range fields {
			for _, v := range f.Values {
				if v != "" {
					values = append(values, v)
				}
			}
		}
	}
	return values
}

func appendScalar(fields []MetadataField, key string, v *string) []MetadataField {
	if v == nil {
		return fields
	}
	return append(fields, MetadataField{Key: key, Values: []string{*v}})
}

func appendList(fields []MetadataField, key string, v []string) []MetadataField {
	if v == nil {
		return fields
	}
	return append(fields, MetadataField{Key: key, Values: v})
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

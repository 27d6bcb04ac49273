package model

import "strings"

// Category is the kind of a documented item (class, function, enum value, ...).
type Category string

const (
	CategoryClass     Category = "class"
	CategoryStruct    Category = "struct"
	CategoryVariable  Category = "variable"
	CategoryFunction  Category = "function"
	CategoryEnum      Category = "enum"
	CategoryEnumValue Category = "enumValue"
	CategoryTypedef   Category = "typedef"
	CategoryNamespace Category = "namespace"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryClass,
	CategoryStruct,
	CategoryVariable,
	CategoryFunction,
	CategoryEnum,
	CategoryEnumValue,
	CategoryTypedef,
	CategoryNamespace,
}

// Valid reports whether c is one of the eight known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps a catalog string to a Category.
// Matching ignores case and the separators "_", "-" and " ", so "enum_value",
// "EnumValue" and "enum value" all resolve to CategoryEnumValue.
func ParseCategory(s string) (Category, bool) {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if strings.ToLower(string(known)) == normalized {
			return known, true
		}
	}
	return "", false
}

// Entity is one record of the documentation catalog, as produced by the
// extractor that walks the documented codebase.
type Entity struct {
	Name          string   `json:"name" yaml:"name"`                     // Display name, original case
	Description   string   `json:"description" yaml:"description"`       // Free text, may contain markup-escaped characters
	Category      Category `json:"category" yaml:"category"`             // One of Categories
	Owner         string   `json:"owner,omitempty" yaml:"owner"`         // Enclosing class/struct, empty for top-level entities
	Path          string   `json:"path" yaml:"path"`                     // Relative documentation path, unique per entity instance
	PartialTokens []string `json:"partial_tokens" yaml:"partial_tokens"` // Lowercase name fragments, already split by the extractor
}

// BasicSearchInfo is the display record shown next to a search result.
type BasicSearchInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        Category `json:"type"`
	Owner       string   `json:"owner"`
}

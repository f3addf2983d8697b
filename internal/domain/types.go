package domain

import (
	"fmt"
	"strings"
)

// Category is one of the closed set of catalog sections.
type Category string

const (
	CategoryWomen    Category = "women"
	CategoryMen      Category = "men"
	CategoryChildren Category = "children"
)

// DefaultCategory is where the root path lands.
const DefaultCategory = CategoryWomen

// Categories lists the catalog sections in display order.
func Categories() []Category {
	return []Category{CategoryWomen, CategoryMen, CategoryChildren}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryWomen, CategoryMen, CategoryChildren:
		return true
	}
	return false
}

// ParseCategory normalizes and validates a category name.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", ValidationError{Field: "category", Msg: fmt.Sprintf("unknown category %q", raw)}
	}
	return c, nil
}

// SortKey selects one of the supported listing orders.
type SortKey string

const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNew       SortKey = "new"
)

func (s SortKey) Valid() bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortNew:
		return true
	}
	return false
}

// ParseSortKey accepts "" as "no sort".
func ParseSortKey(raw string) (*SortKey, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil, nil
	}
	s := SortKey(raw)
	if !s.Valid() {
		return nil, ValidationError{Field: "sortBy", Msg: fmt.Sprintf("unsupported sort %q", raw)}
	}
	return &s, nil
}

// Dimension is a tag facet an item can be filtered by.
type Dimension string

const (
	DimensionFabric Dimension = "fabric"
	DimensionColor  Dimension = "color"
	DimensionSize   Dimension = "size"
)

// Dimensions lists the tag facets in query order.
func Dimensions() []Dimension {
	return []Dimension{DimensionFabric, DimensionColor, DimensionSize}
}

func (d Dimension) Valid() bool {
	switch d {
	case DimensionFabric, DimensionColor, DimensionSize:
		return true
	}
	return false
}

// Filters is the current filter selection of a catalog view.
type Filters struct {
	Fabrics  []string `json:"fabrics"`
	Colors   []string `json:"colors"`
	Sizes    []string `json:"sizes"`
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	IsNew    *bool    `json:"isNew,omitempty"`
	SortBy   *SortKey `json:"sortBy,omitempty"`
}

// EmptyFilters returns the reset state used by clear and category switches.
func EmptyFilters() Filters {
	return Filters{Fabrics: []string{}, Colors: []string{}, Sizes: []string{}}
}

// Tags returns the selected values of one dimension.
func (f Filters) Tags(d Dimension) []string {
	switch d {
	case DimensionFabric:
		return f.Fabrics
	case DimensionColor:
		return f.Colors
	case DimensionSize:
		return f.Sizes
	}
	return nil
}

// Clone deep-copies the selection so snapshots never alias store state.
func (f Filters) Clone() Filters {
	out := Filters{
		Fabrics: append([]string{}, f.Fabrics...),
		Colors:  append([]string{}, f.Colors...),
		Sizes:   append([]string{}, f.Sizes...),
	}
	if f.MinPrice != nil {
		v := *f.MinPrice
		out.MinPrice = &v
	}
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		out.MaxPrice = &v
	}
	if f.IsNew != nil {
		v := *f.IsNew
		out.IsNew = &v
	}
	if f.SortBy != nil {
		v := *f.SortBy
		out.SortBy = &v
	}
	return out
}

// Validate checks the invariants a filter snapshot must hold.
func (f Filters) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return ValidationError{Field: "minPrice", Msg: "must not be negative"}
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return ValidationError{Field: "maxPrice", Msg: "must not be negative"}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return ValidationError{Field: "minPrice", Msg: "must not exceed maxPrice"}
	}
	if f.SortBy != nil && !f.SortBy.Valid() {
		return ValidationError{Field: "sortBy", Msg: fmt.Sprintf("unsupported sort %q", *f.SortBy)}
	}
	return nil
}

// Equal reports whether two selections filter identically.
func (f Filters) Equal(o Filters) bool {
	return sameSet(f.Fabrics, o.Fabrics) &&
		sameSet(f.Colors, o.Colors) &&
		sameSet(f.Sizes, o.Sizes) &&
		equalPtr(f.MinPrice, o.MinPrice) &&
		equalPtr(f.MaxPrice, o.MaxPrice) &&
		equalPtr(f.IsNew, o.IsNew) &&
		equalPtr(f.SortBy, o.SortBy)
}

// NormalizeTags trims values, drops blanks and removes case-insensitive duplicates.
// The first spelling of a value wins.
func NormalizeTags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[strings.ToLower(v)]; !ok {
			return false
		}
	}
	return true
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Ptr is a small helper for optional literals.
func Ptr[T any](v T) *T { return &v }

package models

import (
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
)

// CatalogItem is a purchasable product record as listed in the catalog.
type CatalogItem struct {
	ID            string          `json:"id"`
	ExternalID    int64           `json:"externalId,omitempty"`
	Category      domain.Category `json:"category"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Image         string          `json:"image"`
	Images        []string        `json:"images,omitempty"`
	Price         float64         `json:"price"`
	OriginalPrice *float64        `json:"originalPrice,omitempty"`
	Fabrics       []string        `json:"fabrics"`
	Sizes         []string        `json:"sizes"`
	Colors        []string        `json:"colors"`
	IsNew         bool            `json:"isNew"`
	Active        bool            `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Tags returns the item's values for one dimension.
func (it CatalogItem) Tags(d domain.Dimension) []string {
	switch d {
	case domain.DimensionFabric:
		return it.Fabrics
	case domain.DimensionColor:
		return it.Colors
	case domain.DimensionSize:
		return it.Sizes
	}
	return nil
}

// Link points to the marketplace card when the item is listed there.
func (it CatalogItem) Link() string {
	if it.ExternalID <= 0 {
		return ""
	}
	return MarketplaceLink(it.ExternalID)
}

// MarketplaceLink builds the public product url for a marketplace id.
func MarketplaceLink(nmID int64) string {
	return "https://www.wildberries.ru/catalog/" + strconv.FormatInt(nmID, 10) + "/detail.aspx"
}

// PriceBounds is the absolute price range of a category.
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultPriceBounds applies while a category's bounds are unknown.
var DefaultPriceBounds = PriceBounds{Min: 0, Max: 30000}

// FilterConfig is the closed option set a category can be filtered by.
type FilterConfig struct {
	Category domain.Category `json:"category"`
	Fabrics  []string        `json:"fabrics"`
	Colors   []string        `json:"colors"`
	Sizes    []string        `json:"sizes"`
	Price    PriceBounds     `json:"price"`
}

// Options returns the configured values of one dimension.
func (c FilterConfig) Options(d domain.Dimension) []string {
	switch d {
	case domain.DimensionFabric:
		return c.Fabrics
	case domain.DimensionColor:
		return c.Colors
	case domain.DimensionSize:
		return c.Sizes
	}
	return nil
}

// OptionCounts maps dimension -> lower-cased option value -> matching items.
type OptionCounts map[domain.Dimension]map[string]int

// NewOptionCounts returns an empty count table for every dimension.
func NewOptionCounts() OptionCounts {
	out := make(OptionCounts, 3)
	for _, d := range domain.Dimensions() {
		out[d] = map[string]int{}
	}
	return out
}

// Add counts one item under each of its distinct values per dimension.
func (oc OptionCounts) Add(it CatalogItem) {
	for _, d := range domain.Dimensions() {
		seen := map[string]struct{}{}
		for _, v := range it.Tags(d) {
			key := strings.ToLower(strings.TrimSpace(v))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if oc[d] == nil {
				oc[d] = map[string]int{}
			}
			oc[d][key]++
		}
	}
}

// Slide is one entry of the rotating showcase.
type Slide struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	NewPrice    float64  `json:"newPrice"`
	OldPrice    *float64 `json:"oldPrice,omitempty"`
	Link        string   `json:"link"`
}

// SlideFromItem maps a catalog item into the showcase shape.
func SlideFromItem(it CatalogItem) Slide {
	link := it.Link()
	if link == "" {
		link = "/api/products/" + it.ID
	}
	return Slide{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		ImageURL:    it.Image,
		NewPrice:    it.Price,
		OldPrice:    it.OriginalPrice,
		Link:        link,
	}
}

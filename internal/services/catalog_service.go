package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront/internal/cache"
	"storefront/internal/clients/marketplace"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pagination"
	"storefront/internal/query"
	"storefront/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ContentSource is the store catalog items are read from.
type ContentSource interface {
	FindItems(ctx context.Context, q query.Query) ([]models.CatalogItem, error)
	CountOptions(ctx context.Context, q query.Query) (models.OptionCounts, error)
	GetItem(ctx context.Context, id string) (models.CatalogItem, error)
	FilterConfig(ctx context.Context, category domain.Category) (models.FilterConfig, error)
}

// CatalogWriter is implemented by sources that accept admin edits.
type CatalogWriter interface {
	UpsertItem(ctx context.Context, it models.CatalogItem) (models.CatalogItem, error)
	DeactivateItem(ctx context.Context, id string) error
	ReplaceFilterOptions(ctx context.Context, cfg models.FilterConfig) error
}

// Enricher overlays marketplace card data on catalog items.
type Enricher interface {
	Cards(ctx context.Context, ids []int64) (map[int64]marketplace.Card, error)
}

// CardSearcher finds marketplace cards by text; used to fill an empty showcase.
type CardSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]marketplace.Card, error)
}

const (
	filterConfigTTL   = 15 * time.Minute
	defaultSlideLimit = 5
)

var slideSearchText = map[domain.Category]string{
	domain.CategoryWomen:    "платье",
	domain.CategoryMen:      "рубашка",
	domain.CategoryChildren: "детская одежда",
}

// CatalogService reads items, option counts and filter configuration for
// one category at a time.
type CatalogService struct {
	Source       ContentSource
	Writer       CatalogWriter
	Enricher     Enricher
	Searcher     CardSearcher
	Cache        *cache.Cache
	ItemsPerPage int
	SlideLimit   int

	configs singleflight.Group
}

// BrowseResult is one rendered catalog page.
type BrowseResult struct {
	Category      domain.Category      `json:"category"`
	Filters       domain.Filters       `json:"filters"`
	Items         []models.CatalogItem `json:"items"`
	Counts        models.OptionCounts  `json:"counts"`
	Config        models.FilterConfig  `json:"filterConfig"`
	Pagination    pagination.Info      `json:"pagination"`
	CountsSkipped bool                 `json:"countsSkipped,omitempty"`
}

func (s *CatalogService) perPage() int {
	if s.ItemsPerPage > 0 {
		return s.ItemsPerPage
	}
	return 12
}

// FetchItems returns every item of category matching f, enriched from the
// marketplace when an Enricher is set.
func (s *CatalogService) FetchItems(ctx context.Context, category domain.Category, f domain.Filters) ([]models.CatalogItem, error) {
	if !category.Valid() {
		return nil, domain.ValidationError{Field: "category", Msg: fmt.Sprintf("unknown category %q", category)}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	items, err := s.Source.FindItems(ctx, query.Build(f, category))
	if err != nil {
		return nil, upstream(err)
	}
	s.enrich(ctx, items)
	return conform(items, f), nil
}

// conform re-applies the price range and price order after marketplace
// prices replaced the stored ones.
func conform(items []models.CatalogItem, f domain.Filters) []models.CatalogItem {
	out := items[:0]
	for _, it := range items {
		if f.MinPrice != nil && it.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && it.Price > *f.MaxPrice {
			continue
		}
		out = append(out, it)
	}
	if f.SortBy == nil {
		return out
	}
	switch *f.SortBy {
	case domain.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case domain.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

// FetchCounts counts option matches over the full filtered set. It is
// skipped while the base configuration is not loaded yet.
func (s *CatalogService) FetchCounts(ctx context.Context, category domain.Category, f domain.Filters, cfg *models.FilterConfig) (models.OptionCounts, bool, error) {
	if cfg == nil {
		return nil, true, nil
	}
	if err := f.Validate(); err != nil {
		return nil, false, err
	}
	counts, err := s.Source.CountOptions(ctx, query.Build(f, category))
	if err != nil {
		return nil, false, upstream(err)
	}
	return counts, false, nil
}

// FilterConfig loads the option lists and price bounds of category,
// cache-aside in Redis. Concurrent loads of one category share a call.
func (s *CatalogService) FilterConfig(ctx context.Context, category domain.Category) (models.FilterConfig, error) {
	if !category.Valid() {
		return models.FilterConfig{}, domain.ValidationError{Field: "category", Msg: fmt.Sprintf("unknown category %q", category)}
	}

	key := "filters:" + string(category)
	var cfg models.FilterConfig
	if hit, err := s.Cache.Get(ctx, key, &cfg); err != nil {
		utils.LogFailure("", "catalog", "config_cache_get", err)
	} else if hit {
		return cfg, nil
	}

	v, err, _ := s.configs.Do(key, func() (any, error) {
		cfg, err := s.Source.FilterConfig(ctx, category)
		if err != nil {
			return nil, err
		}
		if err := s.Cache.SetWithTTL(ctx, key, cfg, filterConfigTTL); err != nil {
			utils.LogFailure("", "catalog", "config_cache_set", err)
		}
		return cfg, nil
	})
	if err != nil {
		return models.FilterConfig{}, upstream(err)
	}
	return v.(models.FilterConfig), nil
}

// Browse renders one page of the catalog. Items and configuration load
// concurrently; counts follow the configuration.
func (s *CatalogService) Browse(ctx context.Context, category domain.Category, f domain.Filters, page int) (BrowseResult, error) {
	if page < 1 {
		page = 1
	}
	res := BrowseResult{Category: category, Filters: f}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.FetchItems(gctx, category, f)
		res.Items = items
		return err
	})
	g.Go(func() error {
		cfg, err := s.FilterConfig(gctx, category)
		if err != nil {
			return err
		}
		res.Config = cfg
		counts, skipped, err := s.FetchCounts(gctx, category, f, &cfg)
		res.Counts, res.CountsSkipped = counts, skipped
		return err
	})
	if err := g.Wait(); err != nil {
		return BrowseResult{}, err
	}

	res.Pagination = pagination.Describe(len(res.Items), s.perPage(), page)
	res.Items = pagination.Slice(res.Items, s.perPage(), page)
	return res, nil
}

// GetItem loads one item for the detail page.
func (s *CatalogService) GetItem(ctx context.Context, id string) (models.CatalogItem, error) {
	it, err := s.Source.GetItem(ctx, id)
	if err != nil {
		return models.CatalogItem{}, upstream(err)
	}
	items := []models.CatalogItem{it}
	s.enrich(ctx, items)
	return items[0], nil
}

// Slides builds the showcase of category from its newest items. When the
// catalog has none and a searcher is set, marketplace search fills in.
func (s *CatalogService) Slides(ctx context.Context, category domain.Category) ([]models.Slide, error) {
	limit := s.SlideLimit
	if limit <= 0 {
		limit = defaultSlideLimit
	}

	f := domain.EmptyFilters()
	f.IsNew = domain.Ptr(true)
	f.SortBy = domain.Ptr(domain.SortNew)
	items, err := s.FetchItems(ctx, category, f)
	if err != nil {
		return nil, err
	}

	slides := make([]models.Slide, 0, limit)
	for _, it := range items {
		if len(slides) == limit {
			break
		}
		slides = append(slides, models.SlideFromItem(it))
	}
	if len(slides) > 0 || s.Searcher == nil {
		return slides, nil
	}

	cards, err := s.Searcher.Search(ctx, slideSearchText[category], limit)
	if err != nil {
		utils.LogFailure("", "catalog", "slides_search", err)
		return slides, nil
	}
	for _, c := range cards {
		if len(slides) == limit {
			break
		}
		slides = append(slides, slideFromCard(c))
	}
	return slides, nil
}

func slideFromCard(c marketplace.Card) models.Slide {
	image := ""
	if len(c.Images) > 0 {
		image = c.Images[0]
	}
	return models.Slide{
		ID:          fmt.Sprintf("wb-%d", c.NmID),
		Title:       c.Title,
		Description: c.Description,
		ImageURL:    image,
		NewPrice:    c.Price,
		OldPrice:    c.OldPrice,
		Link:        c.Link(),
	}
}

// enrich overlays marketplace titles, photos and prices. Any failure leaves
// the content data as it is.
func (s *CatalogService) enrich(ctx context.Context, items []models.CatalogItem) {
	if s.Enricher == nil || len(items) == 0 {
		return
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.ExternalID > 0 {
			ids = append(ids, it.ExternalID)
		}
	}
	if len(ids) == 0 {
		return
	}

	cards, err := s.Enricher.Cards(ctx, ids)
	if err != nil {
		utils.LogFailure("", "catalog", "enrich", err, zap.Int("ids", len(ids)))
	}
	for i := range items {
		card, ok := cards[items[i].ExternalID]
		if !ok {
			continue
		}
		if card.Title != "" {
			items[i].Title = card.Title
		}
		if len(card.Images) > 0 {
			items[i].Image = card.Images[0]
			items[i].Images = card.Images
		}
		if card.Price > 0 {
			items[i].Price = card.Price
			items[i].OriginalPrice = card.OldPrice
		}
	}
}

// SaveItem creates or updates a catalog item and drops cached configs of
// its category.
func (s *CatalogService) SaveItem(ctx context.Context, it models.CatalogItem) (models.CatalogItem, error) {
	if s.Writer == nil {
		return models.CatalogItem{}, domain.ConflictError{Resource: "catalog", Msg: "content source is read-only"}
	}
	if !it.Category.Valid() {
		return models.CatalogItem{}, domain.ValidationError{Field: "category", Msg: fmt.Sprintf("unknown category %q", it.Category)}
	}
	it.Title = utils.NormalizeSpace(it.Title)
	if it.Title == "" {
		return models.CatalogItem{}, domain.ValidationError{Field: "title", Msg: "required"}
	}
	if it.Price < 0 {
		return models.CatalogItem{}, domain.ValidationError{Field: "price", Msg: "must not be negative"}
	}
	it.Fabrics = domain.NormalizeTags(it.Fabrics)
	it.Colors = domain.NormalizeTags(it.Colors)
	it.Sizes = domain.NormalizeTags(it.Sizes)

	saved, err := s.Writer.UpsertItem(ctx, it)
	if err != nil {
		return models.CatalogItem{}, err
	}
	s.dropConfig(ctx, it.Category)
	return saved, nil
}

// RemoveItem hides an item from listings.
func (s *CatalogService) RemoveItem(ctx context.Context, id string) error {
	if s.Writer == nil {
		return domain.ConflictError{Resource: "catalog", Msg: "content source is read-only"}
	}
	if err := s.Writer.DeactivateItem(ctx, id); err != nil {
		return err
	}
	s.InvalidateAll(ctx)
	return nil
}

// SaveFilterConfig replaces the option lists of cfg.Category.
func (s *CatalogService) SaveFilterConfig(ctx context.Context, cfg models.FilterConfig) error {
	if s.Writer == nil {
		return domain.ConflictError{Resource: "catalog", Msg: "content source is read-only"}
	}
	if !cfg.Category.Valid() {
		return domain.ValidationError{Field: "category", Msg: fmt.Sprintf("unknown category %q", cfg.Category)}
	}
	if err := s.Writer.ReplaceFilterOptions(ctx, cfg); err != nil {
		return err
	}
	s.dropConfig(ctx, cfg.Category)
	return nil
}

// InvalidateAll drops every cached filter configuration and returns the
// number of keys removed.
func (s *CatalogService) InvalidateAll(ctx context.Context) int {
	n, err := s.Cache.DeletePattern(ctx, "filters:*")
	if err != nil {
		utils.LogFailure("", "catalog", "cache_flush", err)
	}
	return n
}

func (s *CatalogService) dropConfig(ctx context.Context, category domain.Category) {
	if err := s.Cache.Delete(ctx, "filters:"+string(category)); err != nil {
		utils.LogFailure("", "catalog", "cache_delete", err)
	}
}

// upstream tags errors from the content source that are not already
// classified.
func upstream(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsNotFound(err) || domain.IsValidation(err) || domain.IsUpstream(err) || domain.IsConflict(err) || domain.IsInternal(err) {
		return err
	}
	return domain.UpstreamError{Source: "content", Err: err}
}

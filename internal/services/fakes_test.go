package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"storefront/internal/clients/marketplace"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/query"
)

// memorySource evaluates queries over a fixed item list.
type memorySource struct {
	mu      sync.Mutex
	items   []models.CatalogItem
	config  map[domain.Category]models.FilterConfig
	err     error
	queries []query.Query

	configCalls atomic.Int32
	// gate returns a channel FindItems waits on, or nil to answer at once.
	gate func(q query.Query) <-chan struct{}
}

func (m *memorySource) FindItems(ctx context.Context, q query.Query) ([]models.CatalogItem, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		if ch := gate(q); ch != nil {
			select {
			case <-ch:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}

	var out []models.CatalogItem
	for _, it := range m.items {
		if matches(q, it) {
			out = append(out, it)
		}
	}
	if q.Sort != nil {
		switch q.Sort.Key {
		case domain.SortPriceAsc:
			sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
		case domain.SortPriceDesc:
			sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
		}
	}
	return out, nil
}

func (m *memorySource) CountOptions(ctx context.Context, q query.Query) (models.OptionCounts, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := models.NewOptionCounts()
	for _, it := range m.items {
		if matches(q, it) {
			counts.Add(it)
		}
	}
	return counts, nil
}

func (m *memorySource) GetItem(ctx context.Context, id string) (models.CatalogItem, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.CatalogItem{}, domain.NotFoundError{Resource: "product"}
}

func (m *memorySource) FilterConfig(ctx context.Context, category domain.Category) (models.FilterConfig, error) {
	m.configCalls.Add(1)
	if m.err != nil {
		return models.FilterConfig{}, m.err
	}
	if cfg, ok := m.config[category]; ok {
		return cfg, nil
	}
	return models.FilterConfig{Category: category, Price: models.DefaultPriceBounds}, nil
}

func (m *memorySource) lastQuery() query.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[len(m.queries)-1]
}

func matches(q query.Query, it models.CatalogItem) bool {
	for _, c := range q.Conditions {
		v := q.Params[c.Param]
		switch c.Field {
		case query.FieldCategory:
			if string(it.Category) != v.(string) {
				return false
			}
		case query.FieldActive:
		case query.FieldPrice:
			p := v.(float64)
			if c.Op == query.OpGte && it.Price < p {
				return false
			}
			if c.Op == query.OpLte && it.Price > p {
				return false
			}
		case query.FieldIsNew:
			if it.IsNew != v.(bool) {
				return false
			}
		case query.FieldFabrics, query.FieldColors, query.FieldSizes:
			var tags []string
			switch c.Field {
			case query.FieldFabrics:
				tags = it.Fabrics
			case query.FieldColors:
				tags = it.Colors
			default:
				tags = it.Sizes
			}
			if !anyOf(tags, v.([]string)) {
				return false
			}
		}
	}
	return true
}

func anyOf(tags, wanted []string) bool {
	for _, t := range tags {
		for _, w := range wanted {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}

type fakeEnricher struct {
	cards map[int64]marketplace.Card
	err   error
	calls atomic.Int32
}

func (f *fakeEnricher) Cards(ctx context.Context, ids []int64) (map[int64]marketplace.Card, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := map[int64]marketplace.Card{}
	for _, id := range ids {
		if c, ok := f.cards[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type fakeSearcher struct {
	cards []marketplace.Card
	text  string
}

func (f *fakeSearcher) Search(ctx context.Context, text string, limit int) ([]marketplace.Card, error) {
	f.text = text
	if len(f.cards) > limit {
		return f.cards[:limit], nil
	}
	return f.cards, nil
}

type fakeWriter struct {
	saved    []models.CatalogItem
	removed  []string
	replaced []models.FilterConfig
}

func (f *fakeWriter) UpsertItem(ctx context.Context, it models.CatalogItem) (models.CatalogItem, error) {
	if it.ID == "" {
		it.ID = "new-1"
	}
	f.saved = append(f.saved, it)
	return it, nil
}

func (f *fakeWriter) DeactivateItem(ctx context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeWriter) ReplaceFilterOptions(ctx context.Context, cfg models.FilterConfig) error {
	f.replaced = append(f.replaced, cfg)
	return nil
}

func item(id string, cat domain.Category, price float64, colors ...string) models.CatalogItem {
	return models.CatalogItem{
		ID:       id,
		Category: cat,
		Title:    "item " + id,
		Price:    price,
		Colors:   colors,
		Fabrics:  []string{},
		Sizes:    []string{"M"},
		Active:   true,
	}
}

func hasField(q query.Query, field query.Field) bool {
	for _, c := range q.Conditions {
		if c.Field == field {
			return true
		}
	}
	return false
}

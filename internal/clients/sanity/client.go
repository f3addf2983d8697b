// Package sanity reads catalog content from a Sanity dataset over the HTTP
// query API.
package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/query"
)

const source = "sanity"

// Config selects the project and dataset to read.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// BaseURL overrides the api host, e.g. for tests.
	BaseURL string
}

// Client runs GROQ queries against one dataset.
type Client struct {
	cfg    Config
	base   string
	client *http.Client
}

// New creates a client with a 15s request timeout.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		host := "api.sanity.io"
		if cfg.UseCDN {
			host = "apicdn.sanity.io"
		}
		base = fmt.Sprintf("https://%s.%s", cfg.ProjectID, host)
	}
	version := strings.TrimPrefix(cfg.APIVersion, "v")
	if version == "" {
		version = "2026-01-20"
	}
	cfg.APIVersion = version
	return &Client{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Query runs groq with params and decodes the result into dest. Params are
// sent as JSON-encoded $name query parameters.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, dest any) error {
	values := url.Values{}
	values.Set("query", groq)
	for name, v := range params {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(raw))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s", c.base, c.cfg.APIVersion, url.PathEscape(c.cfg.Dataset), values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.UpstreamError{Source: source, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.UpstreamError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.UpstreamError{Source: source, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.UpstreamError{Source: source, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return errNull
	}
	if err := json.Unmarshal(envelope.Result, dest); err != nil {
		return domain.UpstreamError{Source: source, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

var errNull = errors.New("sanity: null result")

// ImageURL turns an asset reference ("image-<id>-<w>x<h>-<fmt>") into its
// CDN url. Anything that is not a reference is returned unchanged.
func (c *Client) ImageURL(ref string) string {
	if !strings.HasPrefix(ref, "image-") {
		return ref
	}
	body := strings.TrimPrefix(ref, "image-")
	cut := strings.LastIndex(body, "-")
	if cut <= 0 {
		return ref
	}
	return fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s.%s", c.cfg.ProjectID, c.cfg.Dataset, body[:cut], body[cut+1:])
}

const projection = `{
	"id": _id,
	externalId,
	category,
	title,
	description,
	"image": image.asset._ref,
	"images": images[].asset._ref,
	price,
	originalPrice,
	fabrics,
	sizes,
	colors,
	isNew,
	isActive,
	"createdAt": _createdAt
}`

type document struct {
	ID            string    `json:"id"`
	ExternalID    int64     `json:"externalId"`
	Category      string    `json:"category"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	Images        []string  `json:"images"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"originalPrice"`
	Fabrics       []string  `json:"fabrics"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	IsNew         bool      `json:"isNew"`
	IsActive      *bool     `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (c *Client) item(d document) models.CatalogItem {
	it := models.CatalogItem{
		ID:            d.ID,
		ExternalID:    d.ExternalID,
		Category:      domain.Category(d.Category),
		Title:         d.Title,
		Description:   d.Description,
		Image:         c.ImageURL(d.Image),
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Fabrics:       orEmpty(d.Fabrics),
		Sizes:         orEmpty(d.Sizes),
		Colors:        orEmpty(d.Colors),
		IsNew:         d.IsNew,
		Active:        d.IsActive == nil || *d.IsActive,
		CreatedAt:     d.CreatedAt,
	}
	it.Images = make([]string, 0, len(d.Images))
	for _, ref := range d.Images {
		if ref != "" {
			it.Images = append(it.Images, c.ImageURL(ref))
		}
	}
	if it.Image == "" && len(it.Images) > 0 {
		it.Image = it.Images[0]
	}
	return it
}

// FindItems returns every product document matching q.
func (c *Client) FindItems(ctx context.Context, q query.Query) ([]models.CatalogItem, error) {
	g, err := query.RenderGROQ(q)
	if err != nil {
		return nil, err
	}
	var docs []document
	groq := fmt.Sprintf("*[%s] | %s %s", g.Filter, g.Order, projection)
	if err := c.Query(ctx, groq, g.Params, &docs); err != nil && !errors.Is(err, errNull) {
		return nil, err
	}
	items := make([]models.CatalogItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, c.item(d))
	}
	return items, nil
}

// CountOptions fetches the tag arrays of every match and counts them here;
// GROQ has no group-by.
func (c *Client) CountOptions(ctx context.Context, q query.Query) (models.OptionCounts, error) {
	g, err := query.RenderGROQ(q)
	if err != nil {
		return nil, err
	}
	var docs []document
	groq := fmt.Sprintf("*[%s]{fabrics, sizes, colors}", g.Filter)
	if err := c.Query(ctx, groq, g.Params, &docs); err != nil && !errors.Is(err, errNull) {
		return nil, err
	}
	counts := models.NewOptionCounts()
	for _, d := range docs {
		counts.Add(models.CatalogItem{Fabrics: d.Fabrics, Sizes: d.Sizes, Colors: d.Colors})
	}
	return counts, nil
}

// GetItem loads one active product document by id.
func (c *Client) GetItem(ctx context.Context, id string) (models.CatalogItem, error) {
	var d document
	groq := fmt.Sprintf(`*[_type == %q && _id == $id && isActive != false][0] %s`, query.ProductType, projection)
	err := c.Query(ctx, groq, map[string]any{"id": id}, &d)
	if errors.Is(err, errNull) {
		return models.CatalogItem{}, domain.NotFoundError{Resource: "product"}
	}
	if err != nil {
		return models.CatalogItem{}, err
	}
	return c.item(d), nil
}

// FilterConfig reads the filterConfig document of category and derives the
// price bounds from its active products.
func (c *Client) FilterConfig(ctx context.Context, category domain.Category) (models.FilterConfig, error) {
	var res struct {
		Config *struct {
			Fabrics []string `json:"fabrics"`
			Colors  []string `json:"colors"`
			Sizes   []string `json:"sizes"`
		} `json:"config"`
		Prices []float64 `json:"prices"`
	}
	groq := fmt.Sprintf(`{
		"config": *[_type == "filterConfig" && category == $category][0]{fabrics, colors, sizes},
		"prices": *[_type == %q && category == $category && isActive != false].price
	}`, query.ProductType)
	if err := c.Query(ctx, groq, map[string]any{"category": string(category)}, &res); err != nil && !errors.Is(err, errNull) {
		return models.FilterConfig{}, err
	}

	cfg := models.FilterConfig{
		Category: category,
		Fabrics:  []string{},
		Colors:   []string{},
		Sizes:    []string{},
		Price:    models.DefaultPriceBounds,
	}
	if res.Config != nil {
		cfg.Fabrics = orEmpty(res.Config.Fabrics)
		cfg.Colors = orEmpty(res.Config.Colors)
		cfg.Sizes = orEmpty(res.Config.Sizes)
	}
	if len(res.Prices) > 0 {
		lo, hi := res.Prices[0], res.Prices[0]
		for _, p := range res.Prices[1:] {
			lo = min(lo, p)
			hi = max(hi, p)
		}
		if lo < hi {
			cfg.Price = models.PriceBounds{Min: lo, Max: hi}
		}
	}
	return cfg, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

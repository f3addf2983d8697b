// Package marketplace reads product cards from the Wildberries content API.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
)

const (
	source       = "marketplace"
	cardsPath    = "/content/v2/get/cards/list"
	maxBatch     = 100
	cardCacheTTL = 10 * time.Minute
)

// Card is the subset of a marketplace card the catalog uses.
type Card struct {
	NmID         int64    `json:"nmId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	Video        []string `json:"video"`
	Price        float64  `json:"price"`
	OldPrice     *float64 `json:"oldPrice,omitempty"`
	Availability int      `json:"availability"`
	Sizes        []string `json:"sizes"`
	Colors       []string `json:"colors"`
	Categories   []string `json:"categories"`
}

// Link is the public product page of the card.
func (c Card) Link() string {
	return "https://www.wildberries.ru/catalog/" + strconv.FormatInt(c.NmID, 10) + "/detail.aspx"
}

// Client calls the content API with a seller token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	cache   *cache.Cache
}

// New creates a client. cache may be nil or disabled.
func New(baseURL, token string, c *cache.Cache) *Client {
	if baseURL == "" {
		baseURL = "https://content-api.wildberries.ru"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 20 * time.Second},
		cache:   c,
	}
}

type apiPhoto struct {
	Big string `json:"big"`
}

type apiSize struct {
	TechSize string   `json:"techSize"`
	Skus     []string `json:"skus"`
	Price    float64  `json:"price"`
	OldPrice float64  `json:"oldPrice"`
}

type apiCharacteristic struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type apiCard struct {
	NmID            int64               `json:"nmID"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Photos          []apiPhoto          `json:"photos"`
	Video           string              `json:"video"`
	Price           float64             `json:"price"`
	OldPrice        float64             `json:"oldPrice"`
	Sizes           []apiSize           `json:"sizes"`
	Characteristics []apiCharacteristic `json:"characteristics"`
	SubjectName     string              `json:"subjectName"`
}

type cursor struct {
	Limit int `json:"limit"`
}

type listFilter struct {
	TextSearch string `json:"textSearch,omitempty"`
	WithPhoto  int    `json:"withPhoto"`
}

type listSettings struct {
	Cursor cursor      `json:"cursor"`
	Filter *listFilter `json:"filter,omitempty"`
}

type listRequest struct {
	Settings listSettings `json:"settings"`
	NmIDs    []int64      `json:"nmIds,omitempty"`
}

func toCard(c apiCard) Card {
	out := Card{
		NmID:        c.NmID,
		Title:       c.Title,
		Description: c.Description,
		Images:      []string{},
		Video:       []string{},
		Price:       c.Price,
		Sizes:       []string{},
		Colors:      []string{},
		Categories:  []string{},
	}
	for _, p := range c.Photos {
		if p.Big != "" {
			out.Images = append(out.Images, p.Big)
		}
	}
	if c.Video != "" {
		out.Video = append(out.Video, c.Video)
	}
	oldPrice := c.OldPrice
	for i, s := range c.Sizes {
		if s.TechSize != "" && s.TechSize != "0" {
			out.Sizes = append(out.Sizes, s.TechSize)
		}
		out.Availability += len(s.Skus)
		if i == 0 && out.Price == 0 {
			out.Price = s.Price
			oldPrice = s.OldPrice
		}
	}
	if oldPrice > out.Price {
		out.OldPrice = &oldPrice
	}
	for _, ch := range c.Characteristics {
		if strings.ToLower(strings.TrimSpace(ch.Name)) == "цвет" {
			out.Colors = append(out.Colors, characteristicValues(ch.Value)...)
		}
	}
	if c.SubjectName != "" {
		out.Categories = append(out.Categories, c.SubjectName)
	}
	return out
}

// characteristicValues accepts both the list and the scalar value shapes.
func characteristicValues(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return []string{one}
	}
	return nil
}

func (c *Client) list(ctx context.Context, body listRequest) ([]Card, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cardsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.UpstreamError{Source: source, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.UpstreamError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.UpstreamError{Source: source, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))}
	}

	var out struct {
		Cards []apiCard `json:"cards"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.UpstreamError{Source: source, Err: fmt.Errorf("decode response: %w", err)}
	}
	cards := make([]Card, 0, len(out.Cards))
	for _, ac := range out.Cards {
		cards = append(cards, toCard(ac))
	}
	return cards, nil
}

func cardKey(id int64) string {
	return "wb:card:" + strconv.FormatInt(id, 10)
}

// Cards returns the cards of ids keyed by nmID. Cached cards are served
// from Redis; the rest are fetched in batches of 100. Cards the API did
// not return are simply absent.
func (c *Client) Cards(ctx context.Context, ids []int64) (map[int64]Card, error) {
	out := make(map[int64]Card, len(ids))
	wanted := make(map[int64]bool, len(ids))
	var missing []int64

	for _, id := range ids {
		if id <= 0 || wanted[id] {
			continue
		}
		wanted[id] = true
		var card Card
		if hit, _ := c.cache.Get(ctx, cardKey(id), &card); hit {
			out[id] = card
			continue
		}
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += maxBatch {
		end := min(start+maxBatch, len(missing))
		cards, err := c.list(ctx, listRequest{
			Settings: listSettings{Cursor: cursor{Limit: maxBatch}},
			NmIDs:    missing[start:end],
		})
		if err != nil {
			return out, err
		}
		for _, card := range cards {
			if !wanted[card.NmID] {
				continue
			}
			out[card.NmID] = card
			_ = c.cache.SetWithTTL(ctx, cardKey(card.NmID), card, cardCacheTTL)
		}
	}
	return out, nil
}

// Search runs a text search over the seller's cards.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]Card, error) {
	if limit <= 0 || limit > maxBatch {
		limit = maxBatch
	}
	return c.list(ctx, listRequest{
		Settings: listSettings{
			Cursor: cursor{Limit: limit},
			Filter: &listFilter{TextSearch: text, WithPhoto: -1},
		},
	})
}

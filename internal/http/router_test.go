package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	intconfig "storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
	h "storefront/internal/http/handlers"
	"storefront/internal/query"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSource answers every query with the items of the queried category.
type stubSource struct {
	items []models.CatalogItem
	err   error
}

func (s *stubSource) FindItems(ctx context.Context, q query.Query) ([]models.CatalogItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	category := q.Params[query.ParamCategory].(string)
	var out []models.CatalogItem
	for _, it := range s.items {
		if string(it.Category) == category {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubSource) CountOptions(ctx context.Context, q query.Query) (models.OptionCounts, error) {
	items, err := s.FindItems(ctx, q)
	if err != nil {
		return nil, err
	}
	counts := models.NewOptionCounts()
	for _, it := range items {
		counts.Add(it)
	}
	return counts, nil
}

func (s *stubSource) GetItem(ctx context.Context, id string) (models.CatalogItem, error) {
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.CatalogItem{}, domain.NotFoundError{Resource: "product"}
}

func (s *stubSource) FilterConfig(ctx context.Context, category domain.Category) (models.FilterConfig, error) {
	if s.err != nil {
		return models.FilterConfig{}, s.err
	}
	return models.FilterConfig{
		Category: category,
		Colors:   []string{"Красный", "Синий"},
		Price:    models.DefaultPriceBounds,
	}, nil
}

type stubWriter struct {
	mu    sync.Mutex
	saved []models.CatalogItem
}

func (w *stubWriter) UpsertItem(ctx context.Context, it models.CatalogItem) (models.CatalogItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if it.ID == "" {
		it.ID = "101"
	}
	w.saved = append(w.saved, it)
	return it, nil
}

func (w *stubWriter) DeactivateItem(ctx context.Context, id string) error {
	if id != "1" {
		return domain.NotFoundError{Resource: "product"}
	}
	return nil
}

func (w *stubWriter) ReplaceFilterOptions(ctx context.Context, cfg models.FilterConfig) error {
	return nil
}

func sampleItems() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: "1", Category: domain.CategoryWomen, Title: "Платье льняное", Price: 4500, Colors: []string{"Красный"}, Fabrics: []string{"Лён"}, Sizes: []string{"S", "M"}, Active: true},
		{ID: "2", Category: domain.CategoryWomen, Title: "Блуза", Price: 2500, Colors: []string{"Синий"}, Sizes: []string{"M"}, IsNew: true, Active: true},
		{ID: "3", Category: domain.CategoryMen, Title: "Рубашка", Price: 3200, Colors: []string{"Белый"}, Active: true},
	}
}

const adminPassword = "s3cret"

func newTestRouter(t *testing.T, src *stubSource, writer services.CatalogWriter) *gin.Engine {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	catalog := &services.CatalogService{Source: src, ItemsPerPage: 12}
	if writer != nil {
		catalog.Writer = writer
	}
	sessions := services.NewSessionManager(catalog, services.SessionConfig{
		FilterDebounce: 10 * time.Millisecond,
		PriceDebounce:  10 * time.Millisecond,
		SliderInterval: time.Hour,
	})
	t.Cleanup(sessions.Close)

	deps := &h.API{
		Catalog:  catalog,
		Sessions: sessions,
		Auth: services.AuthService{
			Username:     "admin",
			PasswordHash: string(hash),
			Secret:       []byte("test-secret"),
			TTL:          time.Hour,
		},
	}
	return NewRouter(intconfig.Env{}, deps)
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// peek reads a session without failing the test; safe inside Eventually.
func peek(r http.Handler, path string) services.SessionView {
	var v services.SessionView
	_ = json.Unmarshal(do(r, http.MethodGet, path, "", "").Body.Bytes(), &v)
	return v
}

func TestRootRedirectsToDefaultSection(t *testing.T) {
	r := newTestRouter(t, &stubSource{}, nil)
	w := do(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/api/catalog/women", w.Header().Get("Location"))
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, &stubSource{}, nil)
	w := do(r, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestAboutListsSections(t *testing.T) {
	r := newTestRouter(t, &stubSource{}, nil)
	w := do(r, http.MethodGet, "/api/about", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Sections []h.Section `json:"sections"`
	}](t, w)
	require.Len(t, body.Sections, 4)
	assert.Equal(t, domain.CategoryWomen, body.Sections[0].Category)
	assert.Equal(t, "/api/about", body.Sections[3].Path)
}

func TestBrowseCatalog(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)

	w := do(r, http.MethodGet, "/api/catalog/women?sortBy=price_desc&colors="+url.QueryEscape("Красный,Синий"), "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[services.BrowseResult](t, w)

	assert.Equal(t, domain.CategoryWomen, res.Category)
	assert.Equal(t, []string{"Красный", "Синий"}, res.Filters.Colors)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Pagination.Total)
	assert.False(t, res.Pagination.ShowPagination)
	assert.Equal(t, 1, res.Counts[domain.DimensionColor]["красный"])
}

func TestBrowseCatalogNewSortImpliesNovelty(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)
	w := do(r, http.MethodGet, "/api/catalog/women?sortBy=new", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[services.BrowseResult](t, w)
	require.NotNil(t, res.Filters.IsNew)
	assert.True(t, *res.Filters.IsNew)
}

func TestBrowseCatalogRejectsBadInput(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)
	for _, path := range []string{
		"/api/catalog/shoes",
		"/api/catalog/women?minPrice=abc",
		"/api/catalog/women?minPrice=500&maxPrice=100",
		"/api/catalog/women?sortBy=random",
		"/api/catalog/women?page=0",
		"/api/catalog/women?isNew=maybe",
	} {
		w := do(r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "validation_error", path)
	}
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	r := newTestRouter(t, &stubSource{err: errors.New("connection refused")}, nil)
	w := do(r, http.MethodGet, "/api/catalog/men", "", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_error")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestFilterConfigAndSlides(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)

	w := do(r, http.MethodGet, "/api/catalog/women/filters", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode[models.FilterConfig](t, w)
	assert.Equal(t, []string{"Красный", "Синий"}, cfg.Colors)

	w = do(r, http.MethodGet, "/api/catalog/women/slides", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slides"`)
}

func TestProductDetailAndSheet(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)

	w := do(r, http.MethodGet, "/api/products/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Платье льняное")

	w = do(r, http.MethodGet, "/api/products/404", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/products/1/sheet.pdf", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)

	w := do(r, http.MethodPost, "/api/sessions", `{"category":"women"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[services.SessionView](t, w)
	require.NotEmpty(t, view.ID)
	base := "/api/sessions/" + view.ID

	require.Eventually(t, func() bool {
		v := peek(r, base)
		return v.Results.Pagination.Total == 2 && !v.Status.Loading
	}, 2*time.Second, 10*time.Millisecond)

	w = do(r, http.MethodPatch, base+"/filters", `{"colors":["Красный"],"sortBy":"price_asc"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode[services.SessionView](t, w)
	assert.Equal(t, []string{"Красный"}, view.State.Filters.Colors)
	require.NotNil(t, view.State.Filters.SortBy)
	assert.Equal(t, domain.SortPriceAsc, *view.State.Filters.SortBy)

	w = do(r, http.MethodPatch, base+"/filters", `{"sortBy":null}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[services.SessionView](t, w).State.Filters.SortBy)

	w = do(r, http.MethodPost, base+"/filters/clear", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[services.SessionView](t, w).State.Filters.Colors)

	w = do(r, http.MethodPost, base+"/category", `{"category":"men"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CategoryMen, decode[services.SessionView](t, w).State.Category)

	w = do(r, http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodGet, base, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionRejectsBadInput(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)

	w := do(r, http.MethodPost, "/api/sessions", `{"category":"pets"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	view := decode[services.SessionView](t, w)
	assert.Equal(t, domain.DefaultCategory, view.State.Category)
	base := "/api/sessions/" + view.ID

	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPatch, base + "/filters", `{"bogus":1}`, http.StatusBadRequest},
		{http.MethodPatch, base + "/filters", `{"minPrice":"cheap"}`, http.StatusBadRequest},
		{http.MethodPost, base + "/page", `{"page":0}`, http.StatusBadRequest},
		{http.MethodPost, base + "/sort", `{"sortBy":"random"}`, http.StatusBadRequest},
		{http.MethodPost, base + "/price/input", `{"field":"avg","value":"1"}`, http.StatusBadRequest},
		{http.MethodPost, base + "/price/zoom", `{"field":"min"}`, http.StatusNotFound},
		{http.MethodPost, base + "/slider/dance", "", http.StatusNotFound},
		{http.MethodPost, base + "/slider/pause", `{"kind":"wink"}`, http.StatusBadRequest},
		{http.MethodGet, "/api/sessions/missing", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.path, tc.body, "")
		assert.Equal(t, tc.status, w.Code, "%s %s %s", tc.method, tc.path, tc.body)
	}
}

func TestSessionPriceAndSlider(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)
	view := decode[services.SessionView](t, do(r, http.MethodPost, "/api/sessions", "", ""))
	base := "/api/sessions/" + view.ID

	w := do(r, http.MethodPost, base+"/price/input", `{"field":"min","value":"12a"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":false`)

	w = do(r, http.MethodPost, base+"/price/input", `{"field":"min","value":"1000"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":true`)

	w = do(r, http.MethodPost, base+"/price/blur", `{"field":"min"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		v := peek(r, base)
		return v.State.Filters.MinPrice != nil && *v.State.Filters.MinPrice == 1000
	}, 2*time.Second, 10*time.Millisecond)

	w = do(r, http.MethodPost, base+"/price/drag", `{"field":"max","value":20000}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, base+"/slider/pause", `{"kind":"touch"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.SessionView](t, w).State.Slider.Touching)

	w = do(r, http.MethodPost, base+"/slider/resume", `{"kind":"touch"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[services.SessionView](t, w).State.Slider.Touching)

	w = do(r, http.MethodPost, base+"/page", `{"page":1}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"change"`)
}

func TestAdminRequiresToken(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, &stubWriter{})

	w := do(r, http.MethodDelete, "/api/admin/cache", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodDelete, "/api/admin/cache", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"`+adminPassword+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Token string `json:"token"`
	}](t, w)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestAdminWrites(t *testing.T) {
	writer := &stubWriter{}
	r := newTestRouter(t, &stubSource{items: sampleItems()}, writer)
	token := login(t, r)

	w := do(r, http.MethodPut, "/api/admin/products/new",
		`{"category":"women","title":"Юбка","price":1900,"colors":["Чёрный","чёрный"]}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[models.CatalogItem](t, w)
	assert.Equal(t, "101", saved.ID)
	assert.Equal(t, []string{"Чёрный"}, saved.Colors)

	w = do(r, http.MethodPut, "/api/admin/products/1", `{"category":"nowhere","title":"x"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/api/admin/products/1", "", token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, "/api/admin/products/9", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/api/admin/filters/women", `{"colors":["Красный","Синий"]}`, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/admin/cache/stats", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)

	w = do(r, http.MethodDelete, "/api/admin/cache", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":0`)
}

func TestAdminWritesOnReadOnlySource(t *testing.T) {
	r := newTestRouter(t, &stubSource{items: sampleItems()}, nil)
	token := login(t, r)

	w := do(r, http.MethodPut, "/api/admin/products/new", `{"category":"women","title":"Юбка","price":1900}`, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
)

// BrowseCatalog serves one page of a section with counts and filter config.
func (a *API) BrowseCatalog(c *gin.Context) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	filters, err := filtersFromQuery(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page, err := pageFromQuery(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	res, err := a.Catalog.Browse(c.Request.Context(), category, filters, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetFilterConfig returns the option lists and price bounds of a section.
func (a *API) GetFilterConfig(c *gin.Context) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	cfg, err := a.Catalog.FilterConfig(c.Request.Context(), category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetSlides returns the showcase slides of a section.
func (a *API) GetSlides(c *gin.Context) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	slides, err := a.Catalog.Slides(c.Request.Context(), category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "slides": slides})
}

// filtersFromQuery reads fabrics, colors, sizes (repeated or comma separated),
// minPrice, maxPrice, isNew and sortBy.
func filtersFromQuery(c *gin.Context) (domain.Filters, error) {
	f := domain.EmptyFilters()
	f.Fabrics = domain.NormalizeTags(tagsFromQuery(c, "fabrics"))
	f.Colors = domain.NormalizeTags(tagsFromQuery(c, "colors"))
	f.Sizes = domain.NormalizeTags(tagsFromQuery(c, "sizes"))

	var err error
	if f.MinPrice, err = priceFromQuery(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = priceFromQuery(c, "maxPrice"); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(c.Query("isNew")); raw != "" {
		v, perr := strconv.ParseBool(raw)
		if perr != nil {
			return f, domain.ValidationError{Field: "isNew", Msg: "must be a boolean", Err: perr}
		}
		f.IsNew = &v
	}
	if f.SortBy, err = domain.ParseSortKey(c.Query("sortBy")); err != nil {
		return f, err
	}
	if f.SortBy != nil && *f.SortBy == domain.SortNew && f.IsNew == nil {
		f.IsNew = domain.Ptr(true)
	}
	return f, f.Validate()
}

func tagsFromQuery(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		out = append(out, utils.SplitCSV(v)...)
	}
	return out
}

func priceFromQuery(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return nil, domain.ValidationError{Field: key, Msg: "must be a finite number"}
	}
	if err != nil {
		// "12 500 ₽" as shown in the price field
		if v, err = utils.ParseRubles(raw); err != nil {
			return nil, domain.ValidationError{Field: key, Msg: "must be a number", Err: err}
		}
	}
	return &v, nil
}

func pageFromQuery(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, domain.ValidationError{Field: "page", Msg: "must be a positive integer"}
	}
	return page, nil
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("boom")

	nf := fmt.Errorf("load item: %w", NotFoundError{Resource: "product"})
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsUpstream(nf))
	assert.Equal(t, "load item: product not found", nf.Error())

	up := fmt.Errorf("fetch: %w", UpstreamError{Source: "content store", Err: base})
	assert.True(t, IsUpstream(up))
	assert.False(t, IsNotFound(up))
	assert.ErrorIs(t, up, base)

	v := ValidationError{Field: "minPrice", Msg: "must not exceed maxPrice"}
	assert.True(t, IsValidation(v))
	assert.Equal(t, "minPrice: must not exceed maxPrice", v.Error())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Men ")
	assert.NoError(t, err)
	assert.Equal(t, CategoryMen, c)

	_, err = ParseCategory("pets")
	assert.True(t, IsValidation(err))
}

func TestParseSortKey(t *testing.T) {
	s, err := ParseSortKey("")
	assert.NoError(t, err)
	assert.Nil(t, s)

	s, err = ParseSortKey("price_desc")
	assert.NoError(t, err)
	assert.Equal(t, SortPriceDesc, *s)

	_, err = ParseSortKey("cheapest")
	assert.True(t, IsValidation(err))
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Красный ", "красный", "", "синий", "СИНИЙ"})
	assert.Equal(t, []string{"Красный", "синий"}, got)
}

func TestFiltersValidateAndEqual(t *testing.T) {
	f := EmptyFilters()
	f.MinPrice = Ptr(5000.0)
	f.MaxPrice = Ptr(1000.0)
	assert.True(t, IsValidation(f.Validate()))

	a := Filters{Colors: []string{"Red", "blue"}, MinPrice: Ptr(10.0)}
	b := Filters{Colors: []string{"BLUE", "red"}, MinPrice: Ptr(10.0)}
	assert.True(t, a.Equal(b))
	b.MinPrice = nil
	assert.False(t, a.Equal(b))
}

func TestFiltersCloneDoesNotAlias(t *testing.T) {
	f := Filters{Sizes: []string{"M"}, MaxPrice: Ptr(100.0)}
	c := f.Clone()
	c.Sizes[0] = "L"
	*c.MaxPrice = 1
	assert.Equal(t, "M", f.Sizes[0])
	assert.Equal(t, 100.0, *f.MaxPrice)
}

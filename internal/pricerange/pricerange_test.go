package pricerange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/models"
)

var bounds = models.PriceBounds{Min: 500, Max: 20000}

func ptr(v float64) *float64 { return &v }

func TestNewEditorSeedsFromCommittedValues(t *testing.T) {
	e := NewEditor(bounds, ptr(1000), ptr(99999))
	assert.Equal(t, Range{Min: 1000, Max: 20000}, e.Committed())
	v := e.View()
	assert.Equal(t, "1000", v.MinText)
	assert.Equal(t, "20000", v.MaxText)
}

func TestInputAcceptsDigitsOnlyAndDoesNotCommit(t *testing.T) {
	e := NewEditor(bounds, nil, nil)
	assert.True(t, e.Input(FieldMin, ""))
	assert.True(t, e.Input(FieldMin, "12"))
	assert.False(t, e.Input(FieldMin, "12a"))
	assert.False(t, e.Input(FieldMin, "-5"))

	assert.Equal(t, "12", e.View().MinText)
	assert.Equal(t, Range{Min: 500, Max: 20000}, e.Committed())
}

func TestBlurEmptyRevertsToLastValid(t *testing.T) {
	e := NewEditor(bounds, ptr(800), nil)
	e.Input(FieldMin, "")
	r := e.Blur(FieldMin)
	assert.Equal(t, 800.0, r.Min)
	assert.Equal(t, "800", e.View().MinText)
}

func TestBlurClampsToBounds(t *testing.T) {
	e := NewEditor(bounds, nil, nil)
	e.Input(FieldMin, "100")
	assert.Equal(t, 500.0, e.Blur(FieldMin).Min)

	e.Input(FieldMax, "25000")
	assert.Equal(t, 20000.0, e.Blur(FieldMax).Max)
}

func TestBlurCrossingRevertsEditedFieldOnly(t *testing.T) {
	e := NewEditor(bounds, ptr(1000), ptr(5000))

	e.Input(FieldMin, "6000")
	r := e.Blur(FieldMin)
	assert.Equal(t, Range{Min: 1000, Max: 5000}, r)
	assert.Equal(t, "1000", e.View().MinText)
	assert.Equal(t, "5000", e.View().MaxText)

	e.Input(FieldMax, "900")
	r = e.Blur(FieldMax)
	assert.Equal(t, Range{Min: 1000, Max: 5000}, r)
	assert.Equal(t, "5000", e.View().MaxText)
}

func TestBlurOutOfBoundsClampsBeforeCrossingCheck(t *testing.T) {
	e := NewEditor(bounds, nil, nil)
	e.Input(FieldMin, "40000")
	assert.Equal(t, Range{Min: 20000, Max: 20000}, e.Blur(FieldMin))
	assert.Equal(t, "20000", e.View().MinText)

	low := NewEditor(models.PriceBounds{Min: 1000, Max: 20000}, nil, nil)
	low.Input(FieldMax, "200")
	assert.Equal(t, Range{Min: 1000, Max: 1000}, low.Blur(FieldMax))
	assert.Equal(t, "1000", low.View().MaxText)
}

func TestBlurClampedValueStillCrossingReverts(t *testing.T) {
	e := NewEditor(bounds, nil, ptr(5000))
	e.Input(FieldMin, "40000")
	assert.Equal(t, Range{Min: 500, Max: 5000}, e.Blur(FieldMin))
	assert.Equal(t, "500", e.View().MinText)
}

func TestBlurCommitsValidValue(t *testing.T) {
	e := NewEditor(bounds, nil, nil)
	e.Input(FieldMin, "1500")
	e.Input(FieldMax, "7000")
	assert.Equal(t, Range{Min: 1500, Max: 20000}, e.Blur(FieldMin))
	assert.Equal(t, Range{Min: 1500, Max: 7000}, e.Blur(FieldMax))
}

func TestDragClampsAgainstOtherHandle(t *testing.T) {
	e := NewEditor(bounds, ptr(1000), ptr(5000))

	r := e.Drag(FieldMin, 8000)
	assert.Equal(t, Range{Min: 5000, Max: 5000}, r)

	r = e.Drag(FieldMax, 100)
	assert.Equal(t, Range{Min: 5000, Max: 5000}, r)

	r = e.Drag(FieldMax, 30000)
	assert.Equal(t, Range{Min: 5000, Max: 20000}, r)
	assert.Equal(t, "20000", e.View().MaxText)
}

func TestSetBoundsPreservesValuesInside(t *testing.T) {
	e := NewEditor(bounds, ptr(1000), ptr(15000))
	e.SetBounds(models.PriceBounds{Min: 0, Max: 10000})

	assert.Equal(t, Range{Min: 1000, Max: 10000}, e.Committed())
	v := e.View()
	assert.Equal(t, "1000", v.MinText)
	assert.Equal(t, "10000", v.MaxText)
}

func TestSetBoundsFallsBackToNewBounds(t *testing.T) {
	e := NewEditor(bounds, ptr(1000), ptr(2000))
	e.SetBounds(models.PriceBounds{Min: 3000, Max: 9000})
	assert.Equal(t, Range{Min: 3000, Max: 9000}, e.Committed())
}

func TestPatchOmitsSidesAtBounds(t *testing.T) {
	e := NewEditor(bounds, nil, nil)
	lo, hi := e.Patch()
	assert.Nil(t, lo)
	assert.Nil(t, hi)

	e.Drag(FieldMin, 1200)
	lo, hi = e.Patch()
	require.NotNil(t, lo)
	assert.Equal(t, 1200.0, *lo)
	assert.Nil(t, hi)
}

func TestViewPercentages(t *testing.T) {
	e := NewEditor(models.PriceBounds{Min: 0, Max: 1000}, ptr(250), ptr(750))
	v := e.View()
	assert.InDelta(t, 25.0, v.MinPercent, 0.001)
	assert.InDelta(t, 75.0, v.MaxPercent, 0.001)

	flat := NewEditor(models.PriceBounds{Min: 100, Max: 100}, nil, nil)
	assert.Equal(t, 0.0, flat.View().MinPercent)
}

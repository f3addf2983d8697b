// Package pricerange reconciles the two price text fields with the dual
// slider. Text may be empty or half typed without touching the committed
// range; committing happens on blur or drag.
package pricerange

import (
	"math"
	"strconv"
	"strings"

	"storefront/internal/domain/models"
)

type Field string

const (
	FieldMin Field = "min"
	FieldMax Field = "max"
)

func (f Field) Valid() bool { return f == FieldMin || f == FieldMax }

// Range is a committed [Min, Max] pair.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// View is what a client needs to draw the control.
type View struct {
	MinText    string             `json:"minText"`
	MaxText    string             `json:"maxText"`
	Committed  Range              `json:"committed"`
	Bounds     models.PriceBounds `json:"bounds"`
	MinPercent float64            `json:"minPercent"`
	MaxPercent float64            `json:"maxPercent"`
}

// Editor is not safe for concurrent use.
type Editor struct {
	bounds  models.PriceBounds
	minText string
	maxText string
	lastMin float64
	lastMax float64
}

// NewEditor seeds the editor from the committed filter values. Values
// outside bounds, or missing, start at the bounds.
func NewEditor(bounds models.PriceBounds, committedMin, committedMax *float64) *Editor {
	bounds = normalizeBounds(bounds)
	e := &Editor{bounds: bounds, lastMin: bounds.Min, lastMax: bounds.Max}
	if committedMin != nil && within(*committedMin, bounds) {
		e.lastMin = *committedMin
	}
	if committedMax != nil && within(*committedMax, bounds) {
		e.lastMax = *committedMax
	}
	if e.lastMin > e.lastMax {
		e.lastMin, e.lastMax = bounds.Min, bounds.Max
	}
	e.minText = format(e.lastMin)
	e.maxText = format(e.lastMax)
	return e
}

// Input stores raw keystrokes. Only "" and digit strings are accepted; the
// committed range is untouched.
func (e *Editor) Input(f Field, raw string) bool {
	if !isDigits(raw) {
		return false
	}
	switch f {
	case FieldMin:
		e.minText = raw
	case FieldMax:
		e.maxText = raw
	default:
		return false
	}
	return true
}

// Blur validates the field that lost focus. Values outside the bounds are
// clamped first; empty, non numeric or still crossing values then revert to
// the last committed value; anything else is committed.
func (e *Editor) Blur(f Field) Range {
	switch f {
	case FieldMin:
		v, ok := parse(e.minText)
		if ok {
			v = clamp(v, e.bounds)
		}
		if !ok || v > e.ceilingForMin() {
			e.minText = format(e.lastMin)
			break
		}
		e.lastMin, e.minText = v, format(v)
	case FieldMax:
		v, ok := parse(e.maxText)
		if ok {
			v = clamp(v, e.bounds)
		}
		if !ok || v < e.floorForMax() {
			e.maxText = format(e.lastMax)
			break
		}
		e.lastMax, e.maxText = v, format(v)
	}
	return e.Committed()
}

// Drag commits a slider handle position right away. A handle never passes
// the other one.
func (e *Editor) Drag(f Field, v float64) Range {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return e.Committed()
	}
	v = clamp(v, e.bounds)
	switch f {
	case FieldMin:
		v = math.Min(v, e.ceilingForMin())
		e.lastMin, e.minText = v, format(v)
	case FieldMax:
		v = math.Max(v, e.floorForMax())
		e.lastMax, e.maxText = v, format(v)
	}
	return e.Committed()
}

// SetBounds swaps in new absolute bounds (category switch). Values that are
// still inside survive, the rest fall back to the new bounds.
func (e *Editor) SetBounds(b models.PriceBounds) {
	b = normalizeBounds(b)
	e.bounds = b
	if !within(e.lastMin, b) {
		e.lastMin = b.Min
	}
	if !within(e.lastMax, b) {
		e.lastMax = b.Max
	}
	if v, ok := parse(e.minText); !ok || !within(v, b) {
		e.minText = format(e.lastMin)
	}
	if v, ok := parse(e.maxText); !ok || !within(v, b) {
		e.maxText = format(e.lastMax)
	}
}

func (e *Editor) Bounds() models.PriceBounds { return e.bounds }

// Committed returns the last valid pair.
func (e *Editor) Committed() Range {
	return Range{Min: e.lastMin, Max: e.lastMax}
}

// Patch converts the committed pair into filter values: a side resting on
// its bound does not narrow the result and is reported as nil.
func (e *Editor) Patch() (minPrice, maxPrice *float64) {
	if e.lastMin > e.bounds.Min {
		v := e.lastMin
		minPrice = &v
	}
	if e.lastMax < e.bounds.Max {
		v := e.lastMax
		maxPrice = &v
	}
	return minPrice, maxPrice
}

func (e *Editor) View() View {
	curMin := e.currentOr(e.minText, e.lastMin)
	curMax := e.currentOr(e.maxText, e.lastMax)
	return View{
		MinText:    e.minText,
		MaxText:    e.maxText,
		Committed:  e.Committed(),
		Bounds:     e.bounds,
		MinPercent: e.percent(curMin),
		MaxPercent: e.percent(curMax),
	}
}

// ceilingForMin is the largest value the min side may take: the lower of
// the max field's text and its committed value.
func (e *Editor) ceilingForMin() float64 {
	return math.Min(e.currentOr(e.maxText, e.lastMax), e.lastMax)
}

func (e *Editor) floorForMax() float64 {
	return math.Max(e.currentOr(e.minText, e.lastMin), e.lastMin)
}

func (e *Editor) currentOr(text string, fallback float64) float64 {
	if v, ok := parse(text); ok {
		return v
	}
	return fallback
}

func (e *Editor) percent(v float64) float64 {
	span := e.bounds.Max - e.bounds.Min
	if span <= 0 {
		return 0
	}
	p := (v - e.bounds.Min) / span * 100
	return math.Max(0, math.Min(100, p))
}

func normalizeBounds(b models.PriceBounds) models.PriceBounds {
	if b.Min > b.Max {
		b.Min, b.Max = b.Max, b.Min
	}
	return b
}

func within(v float64, b models.PriceBounds) bool {
	return v >= b.Min && v <= b.Max
}

func clamp(v float64, b models.PriceBounds) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

func parse(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

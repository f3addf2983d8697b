// Package state holds the catalog view state of one visitor: filter
// selection, pagination and the showcase slider. All mutations go through
// Reduce; Store serializes them and fans snapshots out to subscribers.
package state

import (
	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

// DefaultItemsPerPage is the catalog page size.
const DefaultItemsPerPage = 12

// DefaultAutoPlayIntervalMs is the slider cadence.
const DefaultAutoPlayIntervalMs = 5000

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Interaction is a user gesture that pauses autoplay while it lasts.
type Interaction string

const (
	InteractionHover Interaction = "hover"
	InteractionTouch Interaction = "touch"
)

type Slider struct {
	Slides             []models.Slide `json:"slides"`
	CurrentIndex       int            `json:"currentIndex"`
	AutoPlay           bool           `json:"autoPlay"`
	AutoPlayIntervalMs int            `json:"autoPlayIntervalMs"`
	ShowArrows         bool           `json:"showArrows"`
	Hovered            bool           `json:"hovered"`
	Touching           bool           `json:"touching"`
}

// Paused reports whether an active interaction holds autoplay.
func (s Slider) Paused() bool { return s.Hovered || s.Touching }

type State struct {
	Category   domain.Category `json:"category"`
	Filters    domain.Filters  `json:"filters"`
	Pagination Pagination      `json:"pagination"`
	Slider     Slider          `json:"slider"`

	// NoveltyFromSort is true when Filters.IsNew was set only because the
	// "new" sort was chosen.
	NoveltyFromSort bool `json:"isNewFromSort"`
}

// New returns the initial state for a category.
func New(category domain.Category, itemsPerPage, autoPlayIntervalMs int) State {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	if autoPlayIntervalMs <= 0 {
		autoPlayIntervalMs = DefaultAutoPlayIntervalMs
	}
	return State{
		Category:   category,
		Filters:    domain.EmptyFilters(),
		Pagination: Pagination{CurrentPage: 1, ItemsPerPage: itemsPerPage},
		Slider: Slider{
			Slides:             []models.Slide{},
			AutoPlay:           true,
			AutoPlayIntervalMs: autoPlayIntervalMs,
			ShowArrows:         true,
		},
	}
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	out := s
	out.Filters = s.Filters.Clone()
	out.Slider.Slides = append([]models.Slide{}, s.Slider.Slides...)
	return out
}

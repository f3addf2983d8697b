package state

import (
	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

// Action describes an intended state change.
type Action interface {
	Name() string
}

// Optional distinguishes "leave as is" from "set" and "unset" in a patch.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// SetTo sets the field to v.
func SetTo[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Unset clears the field.
func Unset[T any]() Optional[T] { return Optional[T]{Set: true} }

// FilterPatch merges into the current filters. Nil tag slices are left as
// they are; an empty non-nil slice clears the dimension.
type FilterPatch struct {
	Fabrics  []string
	Colors   []string
	Sizes    []string
	MinPrice Optional[float64]
	MaxPrice Optional[float64]
	IsNew    Optional[bool]
	SortBy   Optional[domain.SortKey]
}

// Empty reports whether the patch would touch nothing.
func (p FilterPatch) Empty() bool {
	return p.Fabrics == nil && p.Colors == nil && p.Sizes == nil &&
		!p.MinPrice.Set && !p.MaxPrice.Set && !p.IsNew.Set && !p.SortBy.Set
}

type (
	SetFilters      struct{ Patch FilterPatch }
	ClearFilters    struct{}
	SetSort         struct{ SortBy *domain.SortKey }
	SetCategory     struct{ Category domain.Category }
	SetPage         struct{ Page int }
	SetItemsPerPage struct{ ItemsPerPage int }

	SetSlides        struct{ Slides []models.Slide }
	NextSlide        struct{}
	PrevSlide        struct{}
	GoToSlide        struct{ Index int }
	AutoAdvance      struct{}
	BeginInteraction struct{ Kind Interaction }
	EndInteraction   struct{ Kind Interaction }
	ToggleAutoPlay   struct{}
	SetShowArrows    struct{ Show bool }
)

func (SetFilters) Name() string { return "filters/set" }
func (ClearFilters) Name() string { return "filters/clear" }
func (SetSort) Name() string { return "filters/sort" }
func (SetCategory) Name() string { return "filters/category" }
func (SetPage) Name() string { return "pagination/page" }
func (SetItemsPerPage) Name() string { return "pagination/items_per_page" }
func (SetSlides) Name() string { return "slider/slides" }
func (NextSlide) Name() string { return "slider/next" }
func (PrevSlide) Name() string { return "slider/prev" }
func (GoToSlide) Name() string { return "slider/goto" }
func (AutoAdvance) Name() string { return "slider/auto_advance" }
func (BeginInteraction) Name() string { return "slider/interaction_begin" }
func (EndInteraction) Name() string { return "slider/interaction_end" }
func (ToggleAutoPlay) Name() string { return "slider/toggle_autoplay" }
func (SetShowArrows) Name() string { return "slider/show_arrows" }

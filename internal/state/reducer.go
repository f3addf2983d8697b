package state

import (
	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

// Reduce applies a to s and returns the next state. s is never mutated.
// Any change to the filter selection sends pagination back to page 1.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a := a.(type) {
	case SetFilters:
		next.Filters, next.NoveltyFromSort = applyPatch(next.Filters, next.NoveltyFromSort, a.Patch)
	case SetSort:
		next.Filters, next.NoveltyFromSort = applySort(next.Filters, next.NoveltyFromSort, a.SortBy)
	case ClearFilters:
		next.Filters = domain.EmptyFilters()
		next.NoveltyFromSort = false
		next.Pagination.CurrentPage = 1
		return next
	case SetCategory:
		if !a.Category.Valid() || a.Category == s.Category {
			return s
		}
		next.Category = a.Category
		next.Filters = domain.EmptyFilters()
		next.NoveltyFromSort = false
		next.Pagination.CurrentPage = 1
		next.Slider.Slides = []models.Slide{}
		next.Slider.CurrentIndex = 0
		return next

	case SetPage:
		if a.Page < 1 {
			return s
		}
		next.Pagination.CurrentPage = a.Page
		return next
	case SetItemsPerPage:
		if a.ItemsPerPage < 1 {
			return s
		}
		next.Pagination.ItemsPerPage = a.ItemsPerPage
		next.Pagination.CurrentPage = 1
		return next

	case SetSlides:
		next.Slider.Slides = append([]models.Slide{}, a.Slides...)
		next.Slider.CurrentIndex = 0
		return next
	case NextSlide:
		next.Slider.CurrentIndex = step(next.Slider.CurrentIndex, len(next.Slider.Slides), 1)
		return next
	case PrevSlide:
		next.Slider.CurrentIndex = step(next.Slider.CurrentIndex, len(next.Slider.Slides), -1)
		return next
	case GoToSlide:
		if a.Index < 0 || a.Index >= len(next.Slider.Slides) {
			return s
		}
		next.Slider.CurrentIndex = a.Index
		return next
	case AutoAdvance:
		if !next.Slider.AutoPlay || next.Slider.Paused() || len(next.Slider.Slides) == 0 {
			return s
		}
		next.Slider.CurrentIndex = step(next.Slider.CurrentIndex, len(next.Slider.Slides), 1)
		return next
	case BeginInteraction:
		setInteraction(&next.Slider, a.Kind, true)
		return next
	case EndInteraction:
		setInteraction(&next.Slider, a.Kind, false)
		return next
	case ToggleAutoPlay:
		next.Slider.AutoPlay = !next.Slider.AutoPlay
		return next
	case SetShowArrows:
		next.Slider.ShowArrows = a.Show
		return next

	default:
		return s
	}

	if !next.Filters.Equal(s.Filters) {
		next.Pagination.CurrentPage = 1
	}
	return next
}

func applyPatch(f domain.Filters, implied bool, p FilterPatch) (domain.Filters, bool) {
	if p.Fabrics != nil {
		f.Fabrics = domain.NormalizeTags(p.Fabrics)
	}
	if p.Colors != nil {
		f.Colors = domain.NormalizeTags(p.Colors)
	}
	if p.Sizes != nil {
		f.Sizes = domain.NormalizeTags(p.Sizes)
	}

	if p.MinPrice.Set || p.MaxPrice.Set {
		lo, hi := f.MinPrice, f.MaxPrice
		if p.MinPrice.Set {
			lo = p.MinPrice.Value
		}
		if p.MaxPrice.Set {
			hi = p.MaxPrice.Value
		}
		// a crossing pair is dropped, the previous bounds stay
		if lo == nil || hi == nil || *lo <= *hi {
			f.MinPrice, f.MaxPrice = copyPtr(lo), copyPtr(hi)
		}
	}

	if p.IsNew.Set {
		f.IsNew = copyPtr(p.IsNew.Value)
		implied = false
	}
	if p.SortBy.Set {
		f, implied = applySort(f, implied, p.SortBy.Value)
	}
	return f, implied
}

// applySort keeps novelty in step with the "new" sort: choosing it turns
// isNew on, leaving it turns isNew off again unless the visitor set isNew
// themselves.
func applySort(f domain.Filters, implied bool, key *domain.SortKey) (domain.Filters, bool) {
	if key != nil && !key.Valid() {
		return f, implied
	}
	f.SortBy = copyPtr(key)

	if key != nil && *key == domain.SortNew {
		if f.IsNew == nil || !*f.IsNew {
			f.IsNew = domain.Ptr(true)
			implied = true
		}
		return f, implied
	}
	if implied {
		f.IsNew = nil
		implied = false
	}
	return f, implied
}

func setInteraction(s *Slider, kind Interaction, active bool) {
	switch kind {
	case InteractionHover:
		s.Hovered = active
	case InteractionTouch:
		s.Touching = active
	}
}

// step moves i by delta and wraps modulo n in both directions.
func step(i, n, delta int) int {
	if n == 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Package pagination slices result lists into fixed-size pages.
package pagination

// TotalPages is ceil(total / perPage); zero when there is nothing to show.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Bounds returns the half-open [start, end) window of page within total
// items. The window is clamped to [0, total) and never wider than perPage.
func Bounds(total, perPage, page int) (start, end int) {
	if total <= 0 || perPage <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	start = (page - 1) * perPage
	if start >= total {
		return total, total
	}
	end = start + perPage
	if end > total {
		end = total
	}
	return start, end
}

// Slice returns the items visible on page.
func Slice[T any](items []T, perPage, page int) []T {
	start, end := Bounds(len(items), perPage, page)
	return items[start:end]
}

// Clamp brings a requested page into [1, totalPages]. The state store never
// clamps; callers do.
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		return 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ShouldRender is false when a single page holds everything; the control is
// then omitted rather than disabled.
func ShouldRender(totalPages int) bool {
	return totalPages > 1
}

// Info is the pagination block attached to listing responses.
type Info struct {
	Page           int  `json:"page"`
	Limit          int  `json:"limit"`
	Total          int  `json:"total"`
	TotalPages     int  `json:"totalPages"`
	ShowPagination bool `json:"showPagination"`
	HasPrev        bool `json:"hasPrev"`
	HasNext        bool `json:"hasNext"`
}

// Describe builds Info for page of total items.
func Describe(total, perPage, page int) Info {
	pages := TotalPages(total, perPage)
	return Info{
		Page:           page,
		Limit:          perPage,
		Total:          total,
		TotalPages:     pages,
		ShowPagination: ShouldRender(pages),
		HasPrev:        page > 1,
		HasNext:        page < pages,
	}
}

// Change is the outcome of a page request.
type Change struct {
	Page        int  `json:"page"`
	Changed     bool `json:"changed"`
	ScrollToTop bool `json:"scrollToTop"`
}

// Navigator turns page requests into page changes.
type Navigator struct {
	Current    func() int
	TotalPages func() int
	Apply      func(page int)
}

// Request clamps page and applies it unless it equals the current page.
// A real change asks the client to scroll back to the top of the results.
func (n Navigator) Request(page int) Change {
	current := n.Current()
	if n.TotalPages != nil {
		page = Clamp(page, n.TotalPages())
	}
	if page == current {
		return Change{Page: current}
	}
	n.Apply(page)
	return Change{Page: page, Changed: true, ScrollToTop: true}
}

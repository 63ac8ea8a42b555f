package services

import "stayfinder/models"

// DefaultPageSize is the number of results per search page.
const DefaultPageSize = 6

// windowSize is the number of numbered page buttons shown at once.
const windowSize = 5

// TotalPages returns ceil(count/pageSize), never less than 1.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage moves page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices one page out of listings. Out-of-range pages are clamped.
func Paginate(listings []*models.Listing, page, pageSize int) models.Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(listings), pageSize)
	current := ClampPage(page, total)

	start := (current - 1) * pageSize
	end := start + pageSize
	if end > len(listings) {
		end = len(listings)
	}

	items := make([]*models.Listing, 0, end-start)
	items = append(items, listings[start:end]...)

	return models.Page{
		Items:       items,
		TotalCount:  len(listings),
		TotalPages:  total,
		CurrentPage: current,
	}
}

// Window describes the page bar under the results.
type Window struct {
	Pages    []int `json:"pages"`
	HasPrev  bool  `json:"hasPrev"`
	HasNext  bool  `json:"hasNext"`
	ShowLast bool  `json:"showLast"`
	Last     int   `json:"last"`
}

// PageWindow returns at most five consecutive page numbers around current.
// ShowLast is set when the last page is out of the window and needs its own
// button after an ellipsis.
func PageWindow(current, totalPages int) Window {
	if totalPages < 1 {
		totalPages = 1
	}
	current = ClampPage(current, totalPages)

	n := windowSize
	if totalPages < n {
		n = totalPages
	}

	var first int
	switch {
	case totalPages <= windowSize, current <= 3:
		first = 1
	case current >= totalPages-2:
		first = totalPages - windowSize + 1
	default:
		first = current - 2
	}

	pages := make([]int, n)
	for i := range pages {
		pages[i] = first + i
	}

	return Window{
		Pages:    pages,
		HasPrev:  current > 1,
		HasNext:  current < totalPages,
		ShowLast: totalPages > windowSize && current < totalPages-2,
		Last:     totalPages,
	}
}

package models

import (
	"strconv"
	"strings"
)

// SortOption selects the order of search results.
type SortOption string

const (
	SortDefault      SortOption = "default"
	SortPriceLowHigh SortOption = "priceLowHigh"
	SortPriceHighLow SortOption = "priceHighLow"
	SortNameAsc      SortOption = "nameAsc"
	SortNameDesc     SortOption = "nameDesc"
	SortRatingHigh   SortOption = "ratingHighLow"
)

// ParseSortOption maps user text to a SortOption. Unknown text is SortDefault.
func ParseSortOption(s string) SortOption {
	switch opt := SortOption(strings.TrimSpace(s)); opt {
	case SortPriceLowHigh, SortPriceHighLow, SortNameAsc, SortNameDesc, SortRatingHigh:
		return opt
	default:
		return SortDefault
	}
}

// PriceRange is an inclusive price window.
type PriceRange struct {
	Min int
	Max int
}

// Contains reports whether price lies within the window.
func (r PriceRange) Contains(price float64) bool {
	return float64(r.Min) <= price && price <= float64(r.Max)
}

// Bounds is the visible rectangle of the map view.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// ParseBounds reads "south,west,north,east".
func ParseBounds(s string) (Bounds, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, false
		}
		v[i] = f
	}
	return Bounds{South: v[0], West: v[1], North: v[2], East: v[3]}, true
}

// Contains reports whether c lies inside the rectangle, edges included.
func (b Bounds) Contains(c Coordinates) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lng >= b.West && c.Lng <= b.East
}

// Query is the search state of one listings page. Changing any field other
// than Page through its setter sends the user back to page 1.
type Query struct {
	SearchText   string
	PriceRange   string
	PropertyType string
	Sort         SortOption
	AvailableOn  string
	Bounds       *Bounds
	Page         int
}

// DefaultQuery is the state on page entry.
func DefaultQuery() Query {
	return Query{Sort: SortDefault, Page: 1}
}

func (q *Query) SetSearchText(s string) {
	if s != q.SearchText {
		q.SearchText = s
		q.Page = 1
	}
}

func (q *Query) SetPriceRange(s string) {
	if s != q.PriceRange {
		q.PriceRange = s
		q.Page = 1
	}
}

func (q *Query) SetPropertyType(s string) {
	if s != q.PropertyType {
		q.PropertyType = s
		q.Page = 1
	}
}

func (q *Query) SetSort(opt SortOption) {
	if opt != q.Sort {
		q.Sort = opt
		q.Page = 1
	}
}

// SetAvailableOn sets the move-in date filter (YYYY-MM-DD, "" for none).
func (q *Query) SetAvailableOn(date string) {
	if date != q.AvailableOn {
		q.AvailableOn = date
		q.Page = 1
	}
}

func (q *Query) SetBounds(b *Bounds) {
	if !sameBounds(q.Bounds, b) {
		q.Bounds = b
		q.Page = 1
	}
}

// SetPage changes the requested page only. Clamping happens at pagination.
func (q *Query) SetPage(page int) {
	q.Page = page
}

func sameBounds(a, b *Bounds) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Page is one page of search results plus pagination metadata.
type Page struct {
	Items       []*Listing `json:"items"`
	TotalCount  int        `json:"totalCount"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

package services

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"stayfinder/models"
)

// FavoriteLookup answers membership questions for the Annotate step.
type FavoriteLookup interface {
	Contains(id models.ListingID) bool
}

// ParsePriceRange reads "<min>-<max>" price text. Each side is trimmed and
// read as its leading run of digits, so "300 - 800" and "300-800/mo" both
// parse. ok is false for anything else, which callers treat as no constraint.
func ParsePriceRange(text string) (models.PriceRange, bool) {
	if strings.TrimSpace(text) == "" {
		return models.PriceRange{}, false
	}
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return models.PriceRange{}, false
	}
	lo, ok := leadingInt(parts[0])
	if !ok {
		return models.PriceRange{}, false
	}
	hi, ok := leadingInt(parts[1])
	if !ok {
		return models.PriceRange{}, false
	}
	return models.PriceRange{Min: lo, Max: hi}, true
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Filter returns the listings matching every constraint of q, in input order.
// The input slice is never modified.
func Filter(listings []*models.Listing, q models.Query) []*models.Listing {
	text := strings.ToLower(q.SearchText)
	propertyType := strings.ToLower(q.PropertyType)
	priceRange, hasPrice := ParsePriceRange(q.PriceRange)

	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(l.Name), text) &&
			!strings.Contains(strings.ToLower(l.Address), text) {
			continue
		}
		if propertyType != "" && !strings.Contains(strings.ToLower(l.PropertyType), propertyType) {
			continue
		}
		if hasPrice && !priceRange.Contains(l.Price) {
			continue
		}
		if q.AvailableOn != "" && (l.AvailableFrom == "" || l.AvailableFrom > q.AvailableOn) {
			continue
		}
		if q.Bounds != nil && (l.Coordinates == nil || !q.Bounds.Contains(*l.Coordinates)) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Sort orders listings in place. Equal keys keep their relative order.
func Sort(listings []*models.Listing, option models.SortOption) {
	switch option {
	case models.SortPriceLowHigh:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price < listings[j].Price
		})
	case models.SortPriceHighLow:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price > listings[j].Price
		})
	case models.SortNameAsc:
		col := collate.New(language.English)
		sort.SliceStable(listings, func(i, j int) bool {
			return col.CompareString(listings[i].Name, listings[j].Name) < 0
		})
	case models.SortNameDesc:
		col := collate.New(language.English)
		sort.SliceStable(listings, func(i, j int) bool {
			return col.CompareString(listings[j].Name, listings[i].Name) < 0
		})
	case models.SortRatingHigh:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].RatingValue() > listings[j].RatingValue()
		})
	}
}

// Annotate returns copies of items with IsFavorite set from favorites.
func Annotate(items []*models.Listing, favorites FavoriteLookup) []*models.Listing {
	out := make([]*models.Listing, 0, len(items))
	for _, l := range items {
		cp := *l
		cp.IsFavorite = favorites != nil && favorites.Contains(l.ID)
		out = append(out, &cp)
	}
	return out
}

// Search runs filter, sort, paginate and annotate over listings. It has no
// side effects and may be called concurrently over a shared snapshot.
func Search(listings []*models.Listing, q models.Query, pageSize int, favorites FavoriteLookup) models.Page {
	results := Filter(listings, q)
	Sort(results, q.Sort)

	page := Paginate(results, q.Page, pageSize)
	page.Items = Annotate(page.Items, favorites)
	return page
}

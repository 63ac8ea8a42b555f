package services

import (
	"fmt"
	"reflect"
	"testing"

	"stayfinder/models"
)

func rating(v float64) *float64 { return &v }

func priced(prices ...float64) []*models.Listing {
	out := make([]*models.Listing, 0, len(prices))
	for i, p := range prices {
		out = append(out, &models.Listing{
			ID:    models.ListingID(fmt.Sprint(i + 1)),
			Name:  fmt.Sprintf("Stay %d", i+1),
			Price: p,
		})
	}
	return out
}

func sampleStays() []*models.Listing {
	return []*models.Listing{
		{ID: "1", Name: "Green Villa", Address: "Koregaon Park, Pune", Price: 800, PropertyType: "Flat", Rating: rating(4.6), AvailableFrom: "2025-01-10"},
		{ID: "2", Name: "Student Nest", Address: "Kota, Rajasthan", Price: 300, PropertyType: "PG Room", Rating: rating(4.1)},
		{ID: "3", Name: "apple Studio", Address: "Bandra, Mumbai", Price: 1200, PropertyType: "Studio Apartment"},
		{ID: "4", Name: "Zen Room", Address: "Indiranagar, Bengaluru", Price: 450, PropertyType: "Private Room", Rating: rating(4.9), AvailableFrom: "2025-03-01"},
		{ID: "5", Name: "Bunk Share", Address: "Anna Nagar, Chennai", Price: 450, PropertyType: "Shared Room", Rating: rating(4.1)},
	}
}

func ids(listings []*models.Listing) []models.ListingID {
	out := make([]models.ListingID, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestParsePriceRange(t *testing.T) {
	tests := []struct {
		text string
		want models.PriceRange
		ok   bool
	}{
		{"400-900", models.PriceRange{Min: 400, Max: 900}, true},
		{" 400 - 900 ", models.PriceRange{Min: 400, Max: 900}, true},
		{"300-800/month", models.PriceRange{Min: 300, Max: 800}, true},
		{"0-0", models.PriceRange{Min: 0, Max: 0}, true},
		{"", models.PriceRange{}, false},
		{"abc", models.PriceRange{}, false},
		{"400", models.PriceRange{}, false},
		{"400-", models.PriceRange{}, false},
		{"-900", models.PriceRange{}, false},
		{"1-2-3", models.PriceRange{}, false},
		{"a-b", models.PriceRange{}, false},
	}

	for _, tt := range tests {
		got, ok := ParsePriceRange(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePriceRange(%q) = %+v, %v; want %+v, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFilterIdentityWhenQueryEmpty(t *testing.T) {
	stays := sampleStays()
	got := Filter(stays, models.DefaultQuery())
	if !reflect.DeepEqual(ids(got), ids(stays)) {
		t.Errorf("empty query filtered to %v; want %v", ids(got), ids(stays))
	}
}

func TestFilterPriceRangeBounds(t *testing.T) {
	stays := priced(300, 450, 450, 600, 800, 900, 1200)
	q := models.DefaultQuery()
	q.SetPriceRange("400-900")

	got := Filter(stays, q)
	if len(got) != 5 {
		t.Fatalf("expected 5 listings in range, got %d", len(got))
	}
	for _, l := range got {
		if l.Price < 400 || l.Price > 900 {
			t.Errorf("listing %s with price %.0f escaped the range", l.ID, l.Price)
		}
	}
}

func TestFilterMalformedPriceIsNoOp(t *testing.T) {
	stays := sampleStays()
	for _, text := range []string{"abc", "cheap", "100-", "1-2-3"} {
		q := models.DefaultQuery()
		q.SetPriceRange(text)
		if got := Filter(stays, q); len(got) != len(stays) {
			t.Errorf("price %q dropped listings: got %d, want %d", text, len(got), len(stays))
		}
	}
}

func TestFilterTextAndType(t *testing.T) {
	stays := sampleStays()

	tests := []struct {
		name         string
		searchText   string
		propertyType string
		want         []models.ListingID
	}{
		{"name match", "villa", "", []models.ListingID{"1"}},
		{"address match", "PUNE", "", []models.ListingID{"1"}},
		{"type substring", "", "room", []models.ListingID{"2", "4", "5"}},
		{"type and text", "nagar", "shared", []models.ListingID{"5"}},
		{"no match", "downtown", "", []models.ListingID{}},
	}

	for _, tt := range tests {
		q := models.DefaultQuery()
		q.SetSearchText(tt.searchText)
		q.SetPropertyType(tt.propertyType)
		got := ids(Filter(stays, q))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestFilterAvailabilityAndBounds(t *testing.T) {
	stays := sampleStays()
	stays[0].Coordinates = &models.Coordinates{Lat: 18.53, Lng: 73.89}
	stays[3].Coordinates = &models.Coordinates{Lat: 12.97, Lng: 77.64}

	q := models.DefaultQuery()
	q.SetAvailableOn("2025-02-01")
	if got := ids(Filter(stays, q)); !reflect.DeepEqual(got, []models.ListingID{"1"}) {
		t.Errorf("availableOn: got %v; want [1]", got)
	}

	q = models.DefaultQuery()
	q.SetBounds(&models.Bounds{South: 10, West: 70, North: 15, East: 80})
	if got := ids(Filter(stays, q)); !reflect.DeepEqual(got, []models.ListingID{"4"}) {
		t.Errorf("bounds: got %v; want [4]", got)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	stays := sampleStays()
	before := ids(stays)

	q := models.DefaultQuery()
	q.SetSort(models.SortPriceHighLow)
	q.SetSearchText("a")
	Search(stays, q, DefaultPageSize, models.NewFavoriteSet("1"))

	if !reflect.DeepEqual(ids(stays), before) {
		t.Errorf("input order changed: %v; want %v", ids(stays), before)
	}
	for _, l := range stays {
		if l.IsFavorite {
			t.Errorf("listing %s in the fetched set was annotated in place", l.ID)
		}
	}
}

func TestSortOptions(t *testing.T) {
	tests := []struct {
		option models.SortOption
		want   []models.ListingID
	}{
		{models.SortDefault, []models.ListingID{"1", "2", "3", "4", "5"}},
		{models.SortPriceLowHigh, []models.ListingID{"2", "4", "5", "1", "3"}},
		{models.SortPriceHighLow, []models.ListingID{"3", "1", "4", "5", "2"}},
		{models.SortNameAsc, []models.ListingID{"3", "5", "1", "2", "4"}},
		{models.SortNameDesc, []models.ListingID{"4", "2", "1", "5", "3"}},
		{models.SortRatingHigh, []models.ListingID{"4", "1", "2", "5", "3"}},
	}

	for _, tt := range tests {
		stays := sampleStays()
		Sort(stays, tt.option)
		if got := ids(stays); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Sort(%s) = %v; want %v", tt.option, got, tt.want)
		}
	}
}

func TestSortIsIdempotent(t *testing.T) {
	options := []models.SortOption{
		models.SortPriceLowHigh, models.SortPriceHighLow,
		models.SortNameAsc, models.SortNameDesc, models.SortRatingHigh,
	}
	for _, opt := range options {
		stays := sampleStays()
		Sort(stays, opt)
		once := ids(stays)
		Sort(stays, opt)
		if twice := ids(stays); !reflect.DeepEqual(once, twice) {
			t.Errorf("Sort(%s) not idempotent: %v then %v", opt, once, twice)
		}
	}
}

func TestSortMissingFieldsSortAsZero(t *testing.T) {
	stays := []*models.Listing{
		{ID: "a", Rating: nil},
		{ID: "b", Rating: rating(3)},
		{ID: "c"},
	}
	Sort(stays, models.SortRatingHigh)
	if got := ids(stays); !reflect.DeepEqual(got, []models.ListingID{"b", "a", "c"}) {
		t.Errorf("got %v; want [b a c]", got)
	}

	Sort(stays, models.SortNameAsc)
	if got := ids(stays); !reflect.DeepEqual(got, []models.ListingID{"b", "a", "c"}) {
		t.Errorf("empty names must keep their order, got %v", got)
	}
}

func TestSearchPriceScenario(t *testing.T) {
	stays := priced(300, 450, 450, 600, 800, 900, 1200)
	q := models.DefaultQuery()
	q.SetPriceRange("400-900")
	q.SetSort(models.SortPriceLowHigh)

	page := Search(stays, q, DefaultPageSize, nil)

	var prices []float64
	for _, l := range page.Items {
		prices = append(prices, l.Price)
	}
	if !reflect.DeepEqual(prices, []float64{450, 450, 600, 800, 900}) {
		t.Errorf("prices: got %v", prices)
	}
	if page.TotalCount != 5 || page.TotalPages != 1 || page.CurrentPage != 1 {
		t.Errorf("metadata: got %+v", page)
	}
}

func TestSearchEmptyResultIsPageOne(t *testing.T) {
	q := models.DefaultQuery()
	q.SetSearchText("downtown")

	page := Search(sampleStays(), q, DefaultPageSize, nil)
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("items: got %v; want empty non-nil", page.Items)
	}
	if page.TotalCount != 0 || page.TotalPages != 1 || page.CurrentPage != 1 {
		t.Errorf("metadata: got %+v; want 0/1/1", page)
	}
}

func TestSearchClampsPage(t *testing.T) {
	stays := priced(1, 2, 3, 4, 5, 6, 7, 8, 9)
	q := models.DefaultQuery()
	q.SetPage(5)

	page := Search(stays, q, DefaultPageSize, nil)
	if page.TotalPages != 2 || page.CurrentPage != 2 {
		t.Errorf("got page %d of %d; want 2 of 2", page.CurrentPage, page.TotalPages)
	}
	if len(page.Items) != 3 {
		t.Errorf("last page items: got %d; want 3", len(page.Items))
	}
}

func TestSearchAnnotatesFavorites(t *testing.T) {
	stays := sampleStays()
	favs := models.NewFavoriteSet("2", "4")

	page := Search(stays, models.DefaultQuery(), DefaultPageSize, favs)
	for _, l := range page.Items {
		want := l.ID == "2" || l.ID == "4"
		if l.IsFavorite != want {
			t.Errorf("listing %s IsFavorite = %v; want %v", l.ID, l.IsFavorite, want)
		}
	}

	favs = favs.Toggle("4")
	page = Search(stays, models.DefaultQuery(), DefaultPageSize, favs)
	for _, l := range page.Items {
		if l.ID == "4" && l.IsFavorite {
			t.Error("annotation must follow the current favorite set")
		}
	}
}

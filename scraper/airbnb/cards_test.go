package airbnb

import (
	"fmt"
	"strings"
	"testing"

	"stayfinder/models"
)

func TestRoomID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.airbnb.com/rooms/12345", "12345"},
		{"https://www.airbnb.co.in/rooms/987?adults=2", "987"},
		{"https://www.airbnb.com/rooms/plus/555", "555"},
		{"https://www.airbnb.com/s/Pune/homes", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := roomID(tt.url); got != tt.want {
			t.Errorf("roomID(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestSplitCardTitle(t *testing.T) {
	tests := []struct {
		title, wantType, wantPlace string
	}{
		{"Apartment in Koregaon Park", "Apartment", "Koregaon Park"},
		{"Room in Pune", "Room", "Pune"},
		{"Koregaon Park", "", "Koregaon Park"},
		{"  Villa in  Goa ", "Villa", "Goa"},
	}
	for _, tt := range tests {
		gotType, gotPlace := splitCardTitle(tt.title)
		if gotType != tt.wantType || gotPlace != tt.wantPlace {
			t.Errorf("splitCardTitle(%q) = %q, %q; want %q, %q",
				tt.title, gotType, gotPlace, tt.wantType, tt.wantPlace)
		}
	}
}

func TestCardToRaw(t *testing.T) {
	raw := cardToRaw(card{
		Title:    "Apartment in Baner",
		Subtitle: "Sunny 1BHK near the hills",
		Price:    "₹3,500",
		Rating:   "4.87",
		Image:    "https://a0.muscache.com/im/1.jpg",
		URL:      "https://www.airbnb.com/rooms/42",
	})
	if raw == nil {
		t.Fatal("cardToRaw returned nil")
	}
	if raw.ID != "airbnb-42" {
		t.Errorf("ID = %q; want %q", raw.ID, "airbnb-42")
	}
	if raw.Name != "Sunny 1BHK near the hills" || raw.Address != "Baner" || raw.PropertyType != "Apartment" {
		t.Errorf("name/address/type = %q/%q/%q", raw.Name, raw.Address, raw.PropertyType)
	}
	if raw.RentUnit != "night" || raw.Price != "₹3,500" || len(raw.Images) != 1 {
		t.Errorf("unexpected raw: %+v", raw)
	}

	if cardToRaw(card{Title: "No link"}) != nil {
		t.Error("card without a room URL should be dropped")
	}
}

func TestMergeDetail(t *testing.T) {
	raw := &models.RawListing{
		Name:   "Card name",
		Rating: "",
		Images: []models.Text{"a.jpg"},
	}

	var imgs []string
	for i := 0; i < 10; i++ {
		imgs = append(imgs, fmt.Sprintf("img%d.jpg", i))
	}
	mergeDetail(raw, detail{
		Title:       "Page title",
		Description: "Quiet flat",
		Rating:      "4.9",
		Images:      append([]string{"a.jpg"}, imgs...),
		Features:    []string{"Wifi", "Kitchen"},
		Lat:         18.56,
		Lng:         73.78,
	})

	if raw.Name != "Card name" {
		t.Errorf("card name overwritten with %q", raw.Name)
	}
	if raw.Description != "Quiet flat" || raw.Rating != "4.9" {
		t.Errorf("description/rating = %q/%q", raw.Description, raw.Rating)
	}
	if len(raw.Images) != maxImages {
		t.Errorf("images = %d; want %d", len(raw.Images), maxImages)
	}
	if len(raw.Features) != 2 || len(raw.Coordinates) != 2 {
		t.Errorf("features=%v coords=%v", raw.Features, raw.Coordinates)
	}
}

func TestCardsScriptCarriesLimit(t *testing.T) {
	if !strings.Contains(cardsScript(7), "var limit = 7;") {
		t.Error("limit not embedded in script")
	}
}

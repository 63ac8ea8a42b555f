package airbnb

import (
	"fmt"
	"regexp"
	"strings"

	"stayfinder/models"
)

var roomIDRegexp = regexp.MustCompile(`/rooms/(?:plus/)?(\d+)`)

// maxImages caps how many photos are kept per listing.
const maxImages = 5

// card is what a search results card yields.
type card struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Price    string `json:"price"`
	Rating   string `json:"rating"`
	Image    string `json:"image"`
	URL      string `json:"url"`
}

// detail is what a listing page yields.
type detail struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Rating      string   `json:"rating"`
	Images      []string `json:"images"`
	Features    []string `json:"features"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
}

// roomID extracts the numeric room id from a listing URL.
func roomID(url string) string {
	m := roomIDRegexp.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// splitCardTitle reads card titles such as "Apartment in Koregaon Park" into
// a property type and a place.
func splitCardTitle(title string) (propertyType, place string) {
	title = strings.TrimSpace(title)
	if i := strings.Index(title, " in "); i > 0 {
		return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+4:])
	}
	return "", title
}

// cardToRaw maps a card onto a RawListing. Cards without a room URL are
// dropped.
func cardToRaw(c card) *models.RawListing {
	id := roomID(c.URL)
	if id == "" {
		return nil
	}

	propertyType, place := splitCardTitle(c.Title)
	name := strings.TrimSpace(c.Subtitle)
	if name == "" {
		name = strings.TrimSpace(c.Title)
	}

	raw := &models.RawListing{
		ID:           models.ListingID(fmt.Sprintf("airbnb-%s", id)),
		Name:         models.Text(name),
		Address:      models.Text(place),
		Price:        models.Text(c.Price),
		RentUnit:     "night",
		PropertyType: models.Text(propertyType),
		Rating:       models.Text(c.Rating),
		URL:          c.URL,
	}
	if c.Image != "" {
		raw.Images = []models.Text{models.Text(c.Image)}
	}
	return raw
}

// mergeDetail fills raw from a detail page without overwriting card data
// with blanks.
func mergeDetail(raw *models.RawListing, d detail) {
	if raw.Name == "" && d.Title != "" {
		raw.Name = models.Text(d.Title)
	}
	if d.Description != "" {
		raw.Description = models.Text(d.Description)
	}
	if raw.Rating == "" && d.Rating != "" {
		raw.Rating = models.Text(d.Rating)
	}

	seen := make(map[string]bool, len(raw.Images))
	for _, img := range raw.Images {
		seen[string(img)] = true
	}
	for _, img := range d.Images {
		if len(raw.Images) >= maxImages {
			break
		}
		if img == "" || seen[img] {
			continue
		}
		seen[img] = true
		raw.Images = append(raw.Images, models.Text(img))
	}

	for _, f := range d.Features {
		raw.Features = append(raw.Features, models.Text(f))
	}
	if d.Lat != 0 || d.Lng != 0 {
		raw.Coordinates = []float64{d.Lat, d.Lng}
	}
}

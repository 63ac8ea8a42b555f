package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"stayfinder/models"
	"stayfinder/utils"
)

var (
	// numberRegexp captures the first decimal number of "₹3500 /month", "3.5 (120 reviews)"
	numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// countRegexp captures the leading integer of "2", "2 beds", "3 BHK"
	countRegexp = regexp.MustCompile(`\d+`)
)

const dateLayout = "2006-01-02"

// Cleaner transforms RawListings from any source into clean, validated Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean processes raw listings and returns cleaned records. Records without an
// id are dropped and the first record wins when ids repeat.
func (c *Cleaner) Clean(raw []*models.RawListing) []*models.Listing {
	seen := make(map[models.ListingID]struct{}, len(raw))
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		if r.ID == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty id: %q", r.Name)
			continue
		}
		if _, dup := seen[r.ID]; dup {
			c.logger.Debug("[cleaner] Duplicate id skipped: %s", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}

		result = append(result, c.CleanOne(r))
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// CleanOne converts a single record. Fields that cannot be read fall back to
// their zero value.
func (c *Cleaner) CleanOne(r *models.RawListing) *models.Listing {
	listing := &models.Listing{
		ID:            r.ID,
		Name:          normaliseText(string(r.Name)),
		Address:       normaliseText(string(r.Address)),
		Price:         c.parsePrice(string(r.Price)),
		RentUnit:      strings.ToLower(normaliseText(string(r.RentUnit))),
		PropertyType:  normaliseText(string(r.PropertyType)),
		Bedrooms:      parseCount(string(r.Bedrooms)),
		Bathrooms:     parseCount(string(r.Bathrooms)),
		Rating:        c.parseRating(string(r.Rating)),
		Features:      normaliseList(r.Features),
		Images:        normaliseList(r.Images),
		AvailableFrom: c.parseDate(string(r.AvailableFrom)),
		Area:          normaliseText(string(r.Area)),
		Description:   normaliseText(string(r.Description)),
		Contact:       r.Contact,
		URL:           strings.TrimSpace(r.URL),
	}
	if len(r.Coordinates) == 2 {
		listing.Coordinates = &models.Coordinates{Lat: r.Coordinates[0], Lng: r.Coordinates[1]}
	}
	return listing
}

// parsePrice extracts a non-negative amount from price text.
// Examples:
//
//	"450"        → 450
//	"₹3,500/mo"  → 3500
//	"$99.50"     → 99.5
//	"on request" → 0
func (c *Cleaner) parsePrice(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		c.logger.Debug("[cleaner] Unreadable price %q: %v", raw, err)
		return 0
	}
	return price
}

// parseRating extracts a 0.0–5.0 rating. Missing or out-of-range text yields nil.
func (c *Cleaner) parseRating(raw string) *float64 {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil || val < 0 || val > 5 {
		return nil
	}
	return &val
}

// parseDate keeps the calendar day of an ISO date or timestamp.
func (c *Cleaner) parseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(dateLayout) {
		return ""
	}
	day := raw[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, day); err != nil {
		c.logger.Debug("[cleaner] Ignoring availableFrom %q: %v", raw, err)
		return ""
	}
	return day
}

func parseCount(raw string) int {
	match := countRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func normaliseList(in []models.Text) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s := normaliseText(string(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

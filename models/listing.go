package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ListingID identifies a listing. Upstream ids are integers or strings; both
// are held as text.
type ListingID string

// UnmarshalJSON accepts a JSON string or a JSON number.
func (id *ListingID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ListingID(strings.TrimSpace(s))
		return nil
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ListingID(n.String())
		return nil
	default:
		return fmt.Errorf("listing id: unsupported JSON value %s", data)
	}
}

// MarshalJSON emits canonical integers as JSON numbers and anything else as a
// JSON string.
func (id ListingID) MarshalJSON() ([]byte, error) {
	if id.isInteger() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ListingID) isInteger() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

func (id ListingID) String() string { return string(id) }

// Text is a JSON scalar read as text. Strings, numbers and booleans decode to
// their textual form and null decodes to "".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		return fmt.Errorf("text: expected a scalar, got %s", data)
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Contact is the host contact block attached to a listing.
type Contact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Coordinates is a map position, encoded as a [lat, lng] pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates: want [lat, lng], got %d values", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// RawListing holds an unvalidated record exactly as a source produced it.
// It is cleaned into a Listing before anything else sees it.
type RawListing struct {
	ID            ListingID `json:"id"`
	Name          Text      `json:"name"`
	Address       Text      `json:"address"`
	Price         Text      `json:"price"`
	RentUnit      Text      `json:"rentUnit"`
	PropertyType  Text      `json:"propertyType"`
	Bedrooms      Text      `json:"bedrooms"`
	Bathrooms     Text      `json:"bathrooms"`
	Rating        Text      `json:"rating"`
	Area          Text      `json:"area"`
	Description   Text      `json:"description"`
	Features      []Text    `json:"features"`
	Images        []Text    `json:"images"`
	AvailableFrom Text      `json:"availableFrom"`
	Coordinates   []float64 `json:"coordinates"`
	Contact       *Contact  `json:"contact"`
	URL           string    `json:"url"`
}

// Listing is the cleaned, validated record served to clients.
type Listing struct {
	ID            ListingID    `json:"id"`
	Name          string       `json:"name"`
	Address       string       `json:"address"`
	Price         float64      `json:"price"`
	RentUnit      string       `json:"rentUnit"`
	PropertyType  string       `json:"propertyType"`
	Bedrooms      int          `json:"bedrooms"`
	Bathrooms     int          `json:"bathrooms"`
	Rating        *float64     `json:"rating,omitempty"`
	Features      []string     `json:"features"`
	Images        []string     `json:"images"`
	AvailableFrom string       `json:"availableFrom,omitempty"`
	Area          string       `json:"area,omitempty"`
	Description   string       `json:"description,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Contact       *Contact     `json:"contact,omitempty"`
	URL           string       `json:"url,omitempty"`

	// IsFavorite is derived per response and never stored.
	IsFavorite bool `json:"isFavorite"`
}

// RatingValue returns the rating, or 0 when the listing has none.
func (l *Listing) RatingValue() float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

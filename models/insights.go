package models

// InsightReport holds the computed market summary over the catalog.
type InsightReport struct {
	TotalListings          int            `json:"totalListings"`
	PricedListings         int            `json:"pricedListings"`
	RatedListings          int            `json:"ratedListings"`
	AveragePrice           float64        `json:"averagePrice"`
	MinPrice               float64        `json:"minPrice"`
	MaxPrice               float64        `json:"maxPrice"`
	AverageRating          float64        `json:"averageRating"`
	MostExpensive          *Listing       `json:"mostExpensive,omitempty"`
	TopRated               []*Listing     `json:"topRated"`
	ListingsByPropertyType map[string]int `json:"listingsByPropertyType"`
}

// Package listing defines the domain model for booking-site listings and the
// search parameters used to query them.
package listing

// Listing represents a single bookable property as returned by the listings API.
type Listing struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	PricePerNight float64  `json:"price_per_night"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"review_count"`
	Beds          int      `json:"beds"`
	MaxGuests     int      `json:"max_guests"`
	Amenities     []string `json:"amenities,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// Batch is one page's worth of listings returned by a single fetch call.
type Batch []Listing

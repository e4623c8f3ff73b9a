package domain

import "strings"

// Hotel is the read-only snapshot of a hotel listing owned by the hotel CRUD side.
type Hotel struct {
	ID                int64
	Name              *string
	Address           *string
	City              *string
	Country           *string
	Stars             *int
	RoomsNumber       *int
	FloorsNumber      *int
	DistanceToAirport *float64 // miles
}

// Location is the display location denormalized into scoring rows.
func (h Hotel) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{h.Address, h.City, h.Country} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}

// DisplayName falls back to "Unknown" for unnamed listings.
func (h Hotel) DisplayName() string {
	if h.Name == nil || strings.TrimSpace(*h.Name) == "" {
		return "Unknown"
	}
	return *h.Name
}

// HotelDisplay holds the live hotel fields joined into leaderboard rows.
type HotelDisplay struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Stars   *int    `json:"stars,omitempty"`
}

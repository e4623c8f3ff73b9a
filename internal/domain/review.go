package domain

import "time"

// Review carries a single overall rating on a 0-10 scale. Per-dimension
// ratings are not stored yet; the overall rating stands in for all five.
type Review struct {
	ID        int64
	HotelID   int64
	UserID    int64
	Title     *string
	Content   string
	Rating    *float64
	CreatedAt time.Time
}

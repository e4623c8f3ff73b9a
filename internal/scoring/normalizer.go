package scoring

import "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"

const (
	MinMetadataScore = 20.0
	MaxMetadataScore = 100.0
	maxStars         = 5
)

// MetadataScore is the normalized metadata factor breakdown.
type MetadataScore struct {
	Base        float64 `json:"base"`
	RoomBonus   float64 `json:"roomBonus"`
	FloorBonus  float64 `json:"floorBonus"`
	DistanceAdj float64 `json:"distanceAdjustment"`
	Total       float64 `json:"total"`
}

// NormalizeMetadata maps stars, rooms, floors and airport distance onto
// [20, 100]. Missing stars, rooms and floors count as 0; a missing distance
// gets no adjustment.
func NormalizeMetadata(h domain.Hotel) MetadataScore {
	stars := clampInt(intOr(h.Stars, 0), 0, maxStars)
	s := MetadataScore{
		Base:       MinMetadataScore + float64(stars)/maxStars*80,
		RoomBonus:  roomBonus(intOr(h.RoomsNumber, 0)),
		FloorBonus: floorBonus(intOr(h.FloorsNumber, 0)),
	}
	if h.DistanceToAirport != nil {
		s.DistanceAdj = distanceAdjustment(*h.DistanceToAirport)
	}
	s.Total = clamp(s.Base+s.RoomBonus+s.FloorBonus+s.DistanceAdj, MinMetadataScore, MaxMetadataScore)
	return s
}

// step buckets, not a continuous curve
func roomBonus(rooms int) float64 {
	switch {
	case rooms > 200:
		return 10
	case rooms > 100:
		return 5
	default:
		return 0
	}
}

func floorBonus(floors int) float64 {
	switch {
	case floors > 10:
		return 5
	case floors > 5:
		return 2
	default:
		return 0
	}
}

func distanceAdjustment(miles float64) float64 {
	switch {
	case miles < 5:
		return 5
	case miles > 20:
		return -5
	default:
		return 0
	}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

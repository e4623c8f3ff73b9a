package scoring

import (
	"math"
	"time"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

// Result is the rounded score breakdown for one hotel.
type Result struct {
	SparklingScore    float64
	ReviewComponent   float64
	MetadataComponent float64
	Dimensions        domain.DimensionScores
	Metadata          MetadataScore
	TotalReviews      int
	Weights           domain.Weights
}

// Calculate combines the review and metadata components with w. Components
// are combined at full precision; only the outputs are rounded.
func Calculate(h domain.Hotel, reviews []domain.Review, w domain.Weights) Result {
	agg := AggregateReviews(reviews)
	meta := NormalizeMetadata(h)

	review := agg.Mean() * (100 / RatingScale)
	sparkling := review*w.Review + meta.Total*w.Metadata

	d := agg.Dimensions
	return Result{
		SparklingScore:    Round2(sparkling),
		ReviewComponent:   Round2(review),
		MetadataComponent: Round2(meta.Total),
		Dimensions: domain.DimensionScores{
			Amenities:   Round2(d.Amenities),
			Cleanliness: Round2(d.Cleanliness),
			FoodBev:     Round2(d.FoodBev),
			Sleep:       Round2(d.Sleep),
			Internet:    Round2(d.Internet),
		},
		Metadata:     meta,
		TotalReviews: agg.Count,
		Weights:      w,
	}
}

// Scoring builds the persisted row for h; ranking is assigned by the ranking pass.
func (r Result) Scoring(h domain.Hotel, now time.Time) domain.HotelScoring {
	return domain.HotelScoring{
		HotelID:           h.ID,
		HotelName:         h.DisplayName(),
		Location:          h.Location(),
		SparklingScore:    r.SparklingScore,
		ReviewComponent:   r.ReviewComponent,
		MetadataComponent: r.MetadataComponent,
		AmenitiesRate:     r.Dimensions.Amenities,
		CleanlinessRate:   r.Dimensions.Cleanliness,
		FoodBeverage:      r.Dimensions.FoodBev,
		SleepQuality:      r.Dimensions.Sleep,
		InternetQuality:   r.Dimensions.Internet,
		TotalReviews:      r.TotalReviews,
		HotelStars:        h.Stars,
		DistanceToAirport: h.DistanceToAirport,
		RoomsNumber:       h.RoomsNumber,
		FloorsNumber:      h.FloorsNumber,
		LastUpdated:       now.UTC(),
	}
}

// Breakdown is the API view of r for hotel id.
func (r Result) Breakdown(id int64, ranking int) domain.Breakdown {
	return domain.Breakdown{
		HotelID:           id,
		SparklingScore:    r.SparklingScore,
		ReviewComponent:   r.ReviewComponent,
		MetadataComponent: r.MetadataComponent,
		Dimensions:        r.Dimensions,
		TotalReviews:      r.TotalReviews,
		Ranking:           ranking,
		Weights:           r.Weights,
	}
}

func Round2(x float64) float64 { return math.Round(x*100) / 100 }

package scoring

import "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"

const (
	RatingScale = 10.0
	// NeutralRating is used for every dimension when a hotel has no reviews,
	// and for a review whose rating is missing.
	NeutralRating = 7.0
)

// ReviewAggregate is the five dimension averages plus the review count.
type ReviewAggregate struct {
	Dimensions domain.DimensionScores
	Count      int
}

// NeutralAggregate is what a hotel without reviews gets.
func NeutralAggregate() ReviewAggregate {
	return ReviewAggregate{Dimensions: uniform(NeutralRating)}
}

// AggregateReviews averages ratings per dimension. Reviews only carry one
// overall rating, so that rating feeds all five dimensions until per-dimension
// ratings are stored.
func AggregateReviews(reviews []domain.Review) ReviewAggregate {
	if len(reviews) == 0 {
		return NeutralAggregate()
	}
	var sum float64
	for _, r := range reviews {
		rating := NeutralRating
		if r.Rating != nil {
			rating = clamp(*r.Rating, 0, RatingScale)
		}
		sum += rating
	}
	return ReviewAggregate{Dimensions: uniform(sum / float64(len(reviews))), Count: len(reviews)}
}

// Mean is the equally weighted average of the five dimensions (0-10).
func (a ReviewAggregate) Mean() float64 {
	d := a.Dimensions
	return (d.Amenities + d.Cleanliness + d.FoodBev + d.Sleep + d.Internet) / 5
}

func uniform(v float64) domain.DimensionScores {
	return domain.DimensionScores{Amenities: v, Cleanliness: v, FoodBev: v, Sleep: v, Internet: v}
}

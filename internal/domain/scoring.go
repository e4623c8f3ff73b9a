package domain

import "time"

// HotelScoring is the derived per-hotel record. One row per scored hotel,
// updated in place on every recomputation.
type HotelScoring struct {
	HotelID           int64     `json:"hotelId"`
	HotelName         string    `json:"hotelName"`
	Location          string    `json:"location"`
	SparklingScore    float64   `json:"sparklingScore"`
	ReviewComponent   float64   `json:"reviewComponent"`
	MetadataComponent float64   `json:"metadataComponent"`
	AmenitiesRate     float64   `json:"amenitiesRate"`
	CleanlinessRate   float64   `json:"cleanlinessRate"`
	FoodBeverage      float64   `json:"foodBeverage"`
	SleepQuality      float64   `json:"sleepQuality"`
	InternetQuality   float64   `json:"internetQuality"`
	TotalReviews      int       `json:"totalReviews"`
	HotelStars        *int      `json:"hotelStars,omitempty"`
	DistanceToAirport *float64  `json:"distanceToAirport,omitempty"`
	RoomsNumber       *int      `json:"roomsNumber,omitempty"`
	FloorsNumber      *int      `json:"floorsNumber,omitempty"`
	Ranking           int       `json:"ranking"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// Weights is the factor -> weight set applied to the two score components.
// Weights are used as given, not rescaled to sum to 1.
type Weights struct {
	Review   float64 `json:"reviewComponent" validate:"gte=0"`
	Metadata float64 `json:"metadataComponent" validate:"gte=0"`
}

// DefaultWeights are used when neither config nor caller overrides them.
var DefaultWeights = Weights{Review: 0.6, Metadata: 0.4}

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	if err := validateStruct(w); err != nil {
		return err
	}
	if w.Review == 0 && w.Metadata == 0 {
		return NewValidationError("weights", "at least one weight must be greater than 0")
	}
	return nil
}

// WeightsOverride is a partial weight set supplied per call; nil fields
// fall back to the active defaults.
type WeightsOverride struct {
	Review   *float64 `json:"reviewComponent,omitempty"`
	Metadata *float64 `json:"metadataComponent,omitempty"`
}

// Merge applies o on top of base.
func (o *WeightsOverride) Merge(base Weights) Weights {
	if o == nil {
		return base
	}
	if o.Review != nil {
		base.Review = *o.Review
	}
	if o.Metadata != nil {
		base.Metadata = *o.Metadata
	}
	return base
}

// DimensionScores are the five review-derived averages on the 0-10 scale.
type DimensionScores struct {
	Amenities   float64 `json:"amenitiesRate"`
	Cleanliness float64 `json:"cleanlinessRate"`
	FoodBev     float64 `json:"foodBeverage"`
	Sleep       float64 `json:"sleepQuality"`
	Internet    float64 `json:"internetQuality"`
}

// Breakdown is the result of scoring one hotel.
type Breakdown struct {
	HotelID           int64           `json:"hotelId"`
	SparklingScore    float64         `json:"sparklingScore"`
	ReviewComponent   float64         `json:"reviewComponent"`
	MetadataComponent float64         `json:"metadataComponent"`
	Dimensions        DimensionScores `json:"dimensions"`
	TotalReviews      int             `json:"totalReviews"`
	Ranking           int             `json:"ranking"`
	Weights           Weights         `json:"weights"`
}

// RankEntry is the slice of a scoring row the ranking pass works on.
type RankEntry struct {
	HotelID        int64
	SparklingScore float64
	Ranking        int
}

// RankResult reports one ranking pass.
type RankResult struct {
	Total    int  `json:"total"`
	Updated  int  `json:"updated"`
	Failed   int  `json:"failed"`
	Attempts int  `json:"attempts"`
	Stale    bool `json:"stale"`
}

// PreviewEntry is one row of the recalculate-all top preview.
type PreviewEntry struct {
	HotelID        int64   `json:"hotelId"`
	HotelName      string  `json:"hotelName"`
	SparklingScore float64 `json:"sparklingScore"`
	Ranking        int     `json:"ranking"`
}

// RecalcResult is returned by a bulk recomputation.
type RecalcResult struct {
	ProcessedCount int            `json:"processedCount"`
	TotalHotels    int            `json:"totalHotels"`
	TopPreview     []PreviewEntry `json:"topPreview"`
	Weights        Weights        `json:"weights"`
	Stale          bool           `json:"stale"`
}

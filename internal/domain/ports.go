package domain

import "context"

// HotelReader reads hotel listings and their reviews. The hotel CRUD side
// owns these rows; scoring only reads current values.
type HotelReader interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	ListReviews(ctx context.Context, hotelID int64) ([]Review, error)
}

type ScoringRepository interface {
	// Read paths
	GetScoring(ctx context.Context, hotelID int64) (HotelScoring, error)
	Leaderboard(ctx context.Context, q LeaderboardQuery) (LeaderboardPage, error)
	TopScorings(ctx context.Context, n int) ([]HotelScoring, error)

	// WithRankTx runs fn inside one serialized transaction over the scoring
	// table. fn returning an error rolls every write back.
	WithRankTx(ctx context.Context, fn func(tx RankTx) error) error
}

// RankTx is the write side of the scoring table, only reachable inside WithRankTx.
type RankTx interface {
	UpsertScoring(ctx context.Context, s HotelScoring) error
	DeleteScoring(ctx context.Context, hotelID int64) error
	// LockRankEntries returns every scoring row, locked for the rest of the tx.
	LockRankEntries(ctx context.Context) ([]RankEntry, error)
	SetRanking(ctx context.Context, hotelID int64, ranking int) error
}

type ManagerDirectory interface {
	ManagesHotel(ctx context.Context, userID, hotelID int64) (bool, error)
}

// Store is everything a storage backend provides.
type Store interface {
	HotelReader
	ScoringRepository
	ManagerDirectory
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Action is an operation subject to the role policy.
type Action string

const (
	ActionReadLeaderboard Action = "leaderboard:read"
	ActionCalculate       Action = "scoring:calculate"
	ActionRecalculateAll  Action = "scoring:recalculate_all"
	ActionPublishEvents   Action = "hotel_events:publish"
)

type Authorizer interface {
	// Authorize returns nil or an error wrapping ErrForbidden. hotelID is
	// only consulted for ActionCalculate.
	Authorize(ctx context.Context, c Caller, act Action, hotelID int64) error
}

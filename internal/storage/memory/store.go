// Package memory is an in-process implementation of domain.Store used for
// local runs and tests. Rank transactions work on a copy of the scoring
// table and swap it in on commit, so readers never see a half-applied pass.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

type Store struct {
	txMu sync.Mutex // serializes rank transactions

	mu       sync.RWMutex
	hotels   map[int64]domain.Hotel
	reviews  map[int64][]domain.Review
	managers map[int64]map[int64]bool // user -> hotel -> active
	scorings map[int64]domain.HotelScoring
}

func New() *Store {
	return &Store{
		hotels:   map[int64]domain.Hotel{},
		reviews:  map[int64][]domain.Review{},
		managers: map[int64]map[int64]bool{},
		scorings: map[int64]domain.HotelScoring{},
	}
}

// ---- hotel side (owned by hotel CRUD; exposed for seeding) ----

func (s *Store) PutHotel(h domain.Hotel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.ID] = h
}

func (s *Store) AddReviews(rs ...domain.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		s.reviews[r.HotelID] = append(s.reviews[r.HotelID], r)
	}
}

func (s *Store) RemoveHotel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hotels, id)
	delete(s.reviews, id)
}

func (s *Store) AssignManager(userID, hotelID int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.managers[userID] == nil {
		s.managers[userID] = map[int64]bool{}
	}
	s.managers[userID][hotelID] = active
}

// ---- domain.HotelReader ----

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.hotels))
	slices.SortFunc(out, func(a, b domain.Hotel) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) ListReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reviews[hotelID]), nil
}

// ---- domain.ManagerDirectory ----

func (s *Store) ManagesHotel(ctx context.Context, userID, hotelID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers[userID][hotelID], nil
}

// ---- domain.ScoringRepository ----

func (s *Store) GetScoring(ctx context.Context, hotelID int64) (domain.HotelScoring, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scorings[hotelID]
	if !ok {
		return domain.HotelScoring{}, domain.ErrNotFound
	}
	return sc, nil
}

func (s *Store) TopScorings(ctx context.Context, n int) ([]domain.HotelScoring, error) {
	page, err := s.Leaderboard(ctx, domain.LeaderboardQuery{Page: 1, Limit: n, SortBy: domain.SortByRanking, SortOrder: domain.SortAsc})
	if err != nil {
		return nil, err
	}
	out := make([]domain.HotelScoring, 0, len(page.Records))
	for _, r := range page.Records {
		out = append(out, r.HotelScoring)
	}
	return out, nil
}

func (s *Store) Leaderboard(ctx context.Context, q domain.LeaderboardQuery) (domain.LeaderboardPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := slices.Collect(maps.Values(s.scorings))
	key := sortKey(q.SortBy)
	slices.SortFunc(rows, func(a, b domain.HotelScoring) int {
		c := cmp.Compare(key(a), key(b))
		if q.SortOrder == domain.SortDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.HotelID, b.HotelID)
	})

	total := len(rows)
	lo := min(q.Offset(), total)
	hi := min(lo+q.Limit, total)

	recs := make([]domain.LeaderboardRecord, 0, hi-lo)
	for _, sc := range rows[lo:hi] {
		rec := domain.LeaderboardRecord{HotelScoring: sc}
		if h, ok := s.hotels[sc.HotelID]; ok {
			rec.Hotel = domain.HotelDisplay{Name: h.Name, Address: h.Address, Stars: h.Stars}
		}
		recs = append(recs, rec)
	}
	return domain.LeaderboardPage{Records: recs, Pagination: domain.NewPagination(total, q)}, nil
}

func sortKey(by string) func(domain.HotelScoring) float64 {
	switch by {
	case domain.SortByReviewComponent:
		return func(s domain.HotelScoring) float64 { return s.ReviewComponent }
	case domain.SortByMetadataComponent:
		return func(s domain.HotelScoring) float64 { return s.MetadataComponent }
	case domain.SortByRanking:
		return func(s domain.HotelScoring) float64 { return float64(s.Ranking) }
	default:
		return func(s domain.HotelScoring) float64 { return s.SparklingScore }
	}
}

func (s *Store) WithRankTx(ctx context.Context, fn func(tx domain.RankTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := maps.Clone(s.scorings)
	s.mu.RUnlock()

	if err := fn(&tx{rows: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.scorings = work
	s.mu.Unlock()
	return nil
}

type tx struct{ rows map[int64]domain.HotelScoring }

func (t *tx) UpsertScoring(ctx context.Context, sc domain.HotelScoring) error {
	// keep the current rank until the pass reassigns it
	if prev, ok := t.rows[sc.HotelID]; ok {
		sc.Ranking = prev.Ranking
	}
	t.rows[sc.HotelID] = sc
	return nil
}

func (t *tx) DeleteScoring(ctx context.Context, hotelID int64) error {
	delete(t.rows, hotelID)
	return nil
}

func (t *tx) LockRankEntries(ctx context.Context) ([]domain.RankEntry, error) {
	out := make([]domain.RankEntry, 0, len(t.rows))
	for _, sc := range t.rows {
		out = append(out, domain.RankEntry{HotelID: sc.HotelID, SparklingScore: sc.SparklingScore, Ranking: sc.Ranking})
	}
	return out, nil
}

func (t *tx) SetRanking(ctx context.Context, hotelID int64, ranking int) error {
	sc, ok := t.rows[hotelID]
	if !ok {
		return domain.ErrNotFound
	}
	sc.Ranking = ranking
	t.rows[hotelID] = sc
	return nil
}

package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

// GetLeaderboard returns one page of scoring rows. Pages are cached per
// leaderboard generation so a committed ranking pass retires them all.
func (s *ScoringService) GetLeaderboard(ctx context.Context, c domain.Caller, q domain.LeaderboardQuery) (domain.LeaderboardPage, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return domain.LeaderboardPage{}, err
	}
	if err := s.authz.Authorize(ctx, c, domain.ActionReadLeaderboard, 0); err != nil {
		return domain.LeaderboardPage{}, err
	}

	key := fmt.Sprintf("leaderboard:v%d:%d:%d:%s:%s", s.generation(ctx), q.Page, q.Limit, q.SortBy, q.SortOrder)
	var page domain.LeaderboardPage
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &page)
		if err != nil {
			log.Debug().Err(err).Str("key", key).Msg("leaderboard cache read failed")
		}
		if ok && err == nil {
			page.Stale = s.engine.Stale()
			return page, nil
		}
	}

	page, err := s.store.Leaderboard(ctx, q)
	if err != nil {
		return domain.LeaderboardPage{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, int(s.cacheTTL.Seconds())); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("leaderboard cache write failed")
		}
	}
	page.Stale = s.engine.Stale()
	return page, nil
}

// GetScoring returns the stored record for one hotel, ErrNotFound if it was
// never computed.
func (s *ScoringService) GetScoring(ctx context.Context, c domain.Caller, hotelID int64) (domain.HotelScoring, error) {
	if err := s.authz.Authorize(ctx, c, domain.ActionReadLeaderboard, hotelID); err != nil {
		return domain.HotelScoring{}, err
	}
	return s.store.GetScoring(ctx, hotelID)
}

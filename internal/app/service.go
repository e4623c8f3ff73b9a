// Package app holds the scoring use cases: leaderboard reads, single and
// bulk recomputation, and reactions to hotel lifecycle events.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/ranking"
)

const (
	leaderboardGenKey = "leaderboard:gen"
	previewSize       = 5
)

type Options struct {
	Weights  domain.Weights
	Workers  int
	CacheTTL time.Duration
}

type ScoringService struct {
	store    domain.Store
	engine   *ranking.Engine
	authz    domain.Authorizer
	cache    domain.Cache
	weights  domain.Weights
	workers  int64
	cacheTTL time.Duration
	now      func() time.Time
}

// NewScoringService wires the use cases. cache may be nil.
func NewScoringService(store domain.Store, engine *ranking.Engine, az domain.Authorizer, cache domain.Cache, opts Options) *ScoringService {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Weights == (domain.Weights{}) {
		opts.Weights = domain.DefaultWeights
	}
	return &ScoringService{
		store:    store,
		engine:   engine,
		authz:    az,
		cache:    cache,
		weights:  opts.Weights,
		workers:  int64(opts.Workers),
		cacheTTL: opts.CacheTTL,
		now:      time.Now,
	}
}

// Stale reports whether the last ranking pass was abandoned.
func (s *ScoringService) Stale() bool { return s.engine.Stale() }

// Weights returns the active default weight set.
func (s *ScoringService) Weights() domain.Weights { return s.weights }

func (s *ScoringService) resolveWeights(o *domain.WeightsOverride) (domain.Weights, error) {
	w := o.Merge(s.weights)
	if err := w.Validate(); err != nil {
		return domain.Weights{}, err
	}
	return w, nil
}

// bumpGeneration retires every cached leaderboard page.
func (s *ScoringService) bumpGeneration(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, leaderboardGenKey); err != nil {
		log.Warn().Err(err).Msg("leaderboard cache generation bump failed")
	}
}

func (s *ScoringService) generation(ctx context.Context) int64 {
	var gen int64
	if s.cache == nil {
		return gen
	}
	if _, err := s.cache.Get(ctx, leaderboardGenKey, &gen); err != nil {
		log.Debug().Err(err).Msg("leaderboard generation read failed")
	}
	return gen
}

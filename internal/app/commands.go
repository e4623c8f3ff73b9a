package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/observability"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/ranking"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/scoring"
)

// CalculateHotelScore recomputes one hotel, persists it and re-ranks.
func (s *ScoringService) CalculateHotelScore(ctx context.Context, c domain.Caller, hotelID int64, o *domain.WeightsOverride) (domain.Breakdown, error) {
	if err := s.authz.Authorize(ctx, c, domain.ActionCalculate, hotelID); err != nil {
		return domain.Breakdown{}, err
	}
	w, err := s.resolveWeights(o)
	if err != nil {
		return domain.Breakdown{}, err
	}
	return s.recompute(ctx, hotelID, w)
}

func (s *ScoringService) recompute(ctx context.Context, hotelID int64, w domain.Weights) (domain.Breakdown, error) {
	h, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return domain.Breakdown{}, err
	}
	res, err := s.compute(ctx, h, w)
	if err != nil {
		return domain.Breakdown{}, err
	}

	out, err := s.engine.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{res.Scoring(h, s.now())}})
	if err != nil {
		return domain.Breakdown{}, err
	}
	s.bumpGeneration(ctx)
	if werr, ok := out.WriteErrors[hotelID]; ok {
		return domain.Breakdown{}, fmt.Errorf("persist scoring for hotel %d: %w", hotelID, werr)
	}

	stored, err := s.store.GetScoring(ctx, hotelID)
	if err != nil {
		return domain.Breakdown{}, err
	}
	return res.Breakdown(hotelID, stored.Ranking), nil
}

func (s *ScoringService) compute(ctx context.Context, h domain.Hotel, w domain.Weights) (scoring.Result, error) {
	reviews, err := s.store.ListReviews(ctx, h.ID)
	observability.ObserveScore(err)
	if err != nil {
		return scoring.Result{}, fmt.Errorf("load reviews for hotel %d: %w", h.ID, err)
	}
	return scoring.Calculate(h, reviews, w), nil
}

// RecalculateAll rescores every hotel with bounded concurrency, skipping
// hotels that fail, then runs one ranking pass over the result.
func (s *ScoringService) RecalculateAll(ctx context.Context, c domain.Caller, o *domain.WeightsOverride) (domain.RecalcResult, error) {
	if err := s.authz.Authorize(ctx, c, domain.ActionRecalculateAll, 0); err != nil {
		return domain.RecalcResult{}, err
	}
	w, err := s.resolveWeights(o)
	if err != nil {
		return domain.RecalcResult{}, err
	}

	hotels, err := s.store.ListHotels(ctx)
	if err != nil {
		return domain.RecalcResult{}, fmt.Errorf("list hotels: %w", err)
	}

	now := s.now()
	rows := make([]*domain.HotelScoring, len(hotels))
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	for i, h := range hotels {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Int("remaining", len(hotels)-i).Msg("recalculation cancelled")
			break
		}
		wg.Add(1)
		go func(i int, h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)
			res, err := s.compute(ctx, h, w)
			if err != nil {
				log.Warn().Err(err).Int64("hotel_id", h.ID).Msg("skipping hotel")
				return
			}
			sc := res.Scoring(h, now)
			rows[i] = &sc
		}(i, h)
	}
	wg.Wait()

	batch := ranking.Batch{Upserts: make([]domain.HotelScoring, 0, len(rows))}
	for _, r := range rows {
		if r != nil {
			batch.Upserts = append(batch.Upserts, *r)
		}
	}

	result := domain.RecalcResult{TotalHotels: len(hotels), Weights: w, TopPreview: []domain.PreviewEntry{}}
	out, err := s.engine.Apply(ctx, batch)
	if err != nil {
		result.Stale = true
		return result, err
	}
	s.bumpGeneration(ctx)
	result.ProcessedCount = len(out.Persisted)

	top, err := s.store.TopScorings(ctx, previewSize)
	if err != nil {
		log.Warn().Err(err).Msg("top preview unavailable")
	}
	for _, t := range top {
		result.TopPreview = append(result.TopPreview, domain.PreviewEntry{
			HotelID:        t.HotelID,
			HotelName:      t.HotelName,
			SparklingScore: t.SparklingScore,
			Ranking:        t.Ranking,
		})
	}

	log.Info().
		Int("processed", result.ProcessedCount).
		Int("total", result.TotalHotels).
		Int("rank_updates", out.Updated).
		Msg("recalculation complete")
	return result, nil
}

// HandleHotelCreated scores a new hotel with the default weights.
func (s *ScoringService) HandleHotelCreated(ctx context.Context, hotelID int64) error {
	_, err := s.recompute(ctx, hotelID, s.weights)
	return err
}

// HandleHotelUpdated rescores a hotel whose metadata or reviews changed.
func (s *ScoringService) HandleHotelUpdated(ctx context.Context, hotelID int64) error {
	_, err := s.recompute(ctx, hotelID, s.weights)
	return err
}

// HandleHotelDeleted drops the hotel's scoring row and closes the rank gap.
// A row is only dropped once the hotel itself is gone; a delete event for a
// live hotel rescores it instead.
func (s *ScoringService) HandleHotelDeleted(ctx context.Context, hotelID int64) error {
	if _, err := s.store.GetHotel(ctx, hotelID); err == nil {
		log.Warn().Int64("hotel_id", hotelID).Msg("delete event for existing hotel, rescoring")
		_, err := s.recompute(ctx, hotelID, s.weights)
		return err
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load hotel %d: %w", hotelID, err)
	}

	out, err := s.engine.Apply(ctx, ranking.Batch{Deletes: []int64{hotelID}})
	if err != nil {
		return err
	}
	s.bumpGeneration(ctx)
	if werr, ok := out.WriteErrors[hotelID]; ok && !errors.Is(werr, domain.ErrNotFound) {
		return fmt.Errorf("delete scoring for hotel %d: %w", hotelID, werr)
	}
	return nil
}

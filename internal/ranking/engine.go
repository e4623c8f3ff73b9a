// Package ranking maintains the dense leaderboard ranking over every scoring
// row. All writes to the scoring table go through Engine.Apply so that score
// changes and the rank reassignment land in the same transaction.
package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/observability"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

var errPartialPass = errors.New("rank writes failed")

// Batch is the set of score writes applied before re-ranking.
type Batch struct {
	Upserts []domain.HotelScoring
	Deletes []int64
}

// Outcome reports a committed (or abandoned) pass.
type Outcome struct {
	domain.RankResult
	// Persisted holds hotel ids whose upsert or delete was committed.
	Persisted []int64
	// WriteErrors holds the last error per hotel whose write failed.
	WriteErrors map[int64]error
}

type Engine struct {
	mu      sync.Mutex // one pass at a time in this process
	repo    domain.ScoringRepository
	retries int
	stale   atomic.Bool
}

// New returns an Engine retrying a failed pass up to retries more times.
func New(repo domain.ScoringRepository, retries int) *Engine {
	if retries < 0 {
		retries = 0
	}
	return &Engine{repo: repo, retries: retries}
}

// Stale reports whether the last pass was abandoned.
func (e *Engine) Stale() bool { return e.stale.Load() }

// Order sorts entries by sparkling score descending, hotel id ascending.
func Order(entries []domain.RankEntry) {
	slices.SortFunc(entries, func(a, b domain.RankEntry) int {
		if c := cmp.Compare(b.SparklingScore, a.SparklingScore); c != 0 {
			return c
		}
		return cmp.Compare(a.HotelID, b.HotelID)
	})
}

// Apply writes b and reassigns ranking 1..N in one transaction. A failed
// score write skips that hotel. A failed rank write, or any write reporting
// domain.ErrTxAborted, rolls the pass back and retries it. When retries run
// out the previous ranking stays in place, the engine is flagged stale and
// the error wraps domain.ErrRankingStale.
func (e *Engine) Apply(ctx context.Context, b Batch) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	var (
		out     Outcome
		lastErr error
	)
	for attempt := 1; attempt <= e.retries+1; attempt++ {
		out = Outcome{WriteErrors: map[int64]error{}}
		out.Attempts = attempt

		err := e.repo.WithRankTx(ctx, func(tx domain.RankTx) error {
			return e.pass(ctx, tx, b, &out)
		})
		if err == nil {
			e.stale.Store(false)
			observability.ObserveRankAttempt("ok")
			observability.ObserveRankPass(time.Since(start), false)
			log.Debug().
				Int("total", out.Total).
				Int("updated", out.Updated).
				Int("attempt", attempt).
				Msg("ranking pass committed")
			return out, nil
		}

		lastErr = err
		observability.ObserveRankAttempt("retry")
		log.Warn().Err(err).Int("attempt", attempt).Int("failed", out.Failed).Msg("ranking pass rolled back")
		if ctx.Err() != nil {
			break
		}
	}

	e.stale.Store(true)
	observability.ObserveRankAttempt("stale")
	observability.ObserveRankPass(time.Since(start), true)
	out.Stale = true
	out.Persisted = nil
	return out, fmt.Errorf("%w: %v", domain.ErrRankingStale, lastErr)
}

func (e *Engine) pass(ctx context.Context, tx domain.RankTx, b Batch, out *Outcome) error {
	for _, s := range b.Upserts {
		if err := tx.UpsertScoring(ctx, s); err != nil {
			if errors.Is(err, domain.ErrTxAborted) {
				return fmt.Errorf("upsert hotel %d: %w", s.HotelID, err)
			}
			log.Warn().Err(err).Int64("hotel_id", s.HotelID).Msg("scoring upsert failed, skipping hotel")
			out.WriteErrors[s.HotelID] = err
			continue
		}
		out.Persisted = append(out.Persisted, s.HotelID)
	}
	for _, id := range b.Deletes {
		if err := tx.DeleteScoring(ctx, id); err != nil {
			if errors.Is(err, domain.ErrTxAborted) {
				return fmt.Errorf("delete hotel %d: %w", id, err)
			}
			log.Warn().Err(err).Int64("hotel_id", id).Msg("scoring delete failed")
			out.WriteErrors[id] = err
			continue
		}
		out.Persisted = append(out.Persisted, id)
	}

	entries, err := tx.LockRankEntries(ctx)
	if err != nil {
		return fmt.Errorf("load rank entries: %w", err)
	}
	Order(entries)
	out.Total = len(entries)

	for i, en := range entries {
		want := i + 1
		if en.Ranking == want {
			continue
		}
		if err := tx.SetRanking(ctx, en.HotelID, want); err != nil {
			if errors.Is(err, domain.ErrTxAborted) {
				return fmt.Errorf("rank hotel %d: %w", en.HotelID, err)
			}
			log.Warn().Err(err).Int64("hotel_id", en.HotelID).Int("ranking", want).Msg("rank write failed")
			out.Failed++
			continue
		}
		out.Updated++
	}
	if out.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errPartialPass, out.Failed, out.Total)
	}
	return nil
}

package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/ranking"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/storage/memory"
)

// ---- fakes ----

// flakyRepo wraps the memory store and fails selected writes inside rank txs.
type flakyRepo struct {
	*memory.Store
	mu             sync.Mutex
	failRankFor    int64
	failRankTimes  int // -1 = always
	failUpsertFor  int64
	rankTxAttempts int

	// upserts of abortUpsertFor report a store-side rollback
	abortUpsertFor   int64
	abortUpsertTimes int // -1 = always
}

func (f *flakyRepo) WithRankTx(ctx context.Context, fn func(tx domain.RankTx) error) error {
	f.mu.Lock()
	f.rankTxAttempts++
	f.mu.Unlock()
	return f.Store.WithRankTx(ctx, func(tx domain.RankTx) error {
		return fn(&flakyTx{RankTx: tx, f: f})
	})
}

type flakyTx struct {
	domain.RankTx
	f *flakyRepo
}

func (t *flakyTx) UpsertScoring(ctx context.Context, s domain.HotelScoring) error {
	if t.f.failUpsertFor != 0 && s.HotelID == t.f.failUpsertFor {
		return errors.New("disk full")
	}
	t.f.mu.Lock()
	abort := s.HotelID == t.f.abortUpsertFor && t.f.abortUpsertTimes != 0
	if abort && t.f.abortUpsertTimes > 0 {
		t.f.abortUpsertTimes--
	}
	t.f.mu.Unlock()
	if abort {
		return fmt.Errorf("%w: Error 1213: Deadlock found when trying to get lock", domain.ErrTxAborted)
	}
	return t.RankTx.UpsertScoring(ctx, s)
}

func (t *flakyTx) SetRanking(ctx context.Context, id int64, r int) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if id == t.f.failRankFor && t.f.failRankTimes != 0 {
		if t.f.failRankTimes > 0 {
			t.f.failRankTimes--
		}
		return errors.New("lock wait timeout")
	}
	return t.RankTx.SetRanking(ctx, id, r)
}

func scoring(id int64, score float64) domain.HotelScoring {
	return domain.HotelScoring{HotelID: id, HotelName: "h", SparklingScore: score}
}

func allRows(t *testing.T, s *memory.Store) []domain.HotelScoring {
	t.Helper()
	rows, err := s.TopScorings(context.Background(), 100)
	require.NoError(t, err)
	return rows
}

func requireDenseRanking(t *testing.T, rows []domain.HotelScoring) {
	t.Helper()
	seen := map[int]bool{}
	for _, r := range rows {
		require.GreaterOrEqual(t, r.Ranking, 1)
		require.LessOrEqual(t, r.Ranking, len(rows))
		require.False(t, seen[r.Ranking], "duplicate ranking %d", r.Ranking)
		seen[r.Ranking] = true
	}
	for _, a := range rows {
		for _, b := range rows {
			if a.Ranking < b.Ranking {
				require.GreaterOrEqual(t, a.SparklingScore, b.SparklingScore)
			}
		}
	}
}

// ---- tests ----

func TestOrder_TiesBrokenByHotelID(t *testing.T) {
	entries := []domain.RankEntry{
		{HotelID: 9, SparklingScore: 80},
		{HotelID: 2, SparklingScore: 91.5},
		{HotelID: 4, SparklingScore: 80},
		{HotelID: 1, SparklingScore: 80},
	}
	ranking.Order(entries)
	got := []int64{entries[0].HotelID, entries[1].HotelID, entries[2].HotelID, entries[3].HotelID}
	assert.Equal(t, []int64{2, 1, 4, 9}, got)
}

func TestApply_AssignsDenseRanking(t *testing.T) {
	store := memory.New()
	eng := ranking.New(store, 1)
	ctx := context.Background()

	scores := []float64{55.2, 81, 81, 12.75, 99.99, 70, 64.1}
	batch := ranking.Batch{}
	for i, sc := range scores {
		batch.Upserts = append(batch.Upserts, scoring(int64(i+1), sc))
	}
	out, err := eng.Apply(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, len(scores), out.Total)
	assert.Equal(t, len(scores), out.Updated)
	assert.Len(t, out.Persisted, len(scores))

	rows := allRows(t, store)
	requireDenseRanking(t, rows)
	assert.Equal(t, int64(5), rows[0].HotelID)
	assert.Equal(t, int64(2), rows[1].HotelID) // tie with 3, lower id first
	assert.Equal(t, int64(3), rows[2].HotelID)

	// unchanged pass writes nothing
	out, err = eng.Apply(ctx, ranking.Batch{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Updated)
}

func TestApply_UpsertUpdatesInPlaceAndReranks(t *testing.T) {
	store := memory.New()
	eng := ranking.New(store, 0)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 50), scoring(2, 60)}})
	require.NoError(t, err)

	_, err = eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 75)}})
	require.NoError(t, err)

	rows := allRows(t, store)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].HotelID)
	assert.Equal(t, 1, rows[0].Ranking)
	assert.Equal(t, 75.0, rows[0].SparklingScore)
}

func TestApply_DeleteClosesGap(t *testing.T) {
	store := memory.New()
	eng := ranking.New(store, 0)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 10), scoring(2, 20), scoring(3, 30)}})
	require.NoError(t, err)
	_, err = eng.Apply(ctx, ranking.Batch{Deletes: []int64{3}})
	require.NoError(t, err)

	rows := allRows(t, store)
	require.Len(t, rows, 2)
	requireDenseRanking(t, rows)
	assert.Equal(t, int64(2), rows[0].HotelID)
}

func TestApply_RetriesAfterRankWriteFailure(t *testing.T) {
	repo := &flakyRepo{Store: memory.New(), failRankFor: 2, failRankTimes: 1}
	eng := ranking.New(repo, 2)

	out, err := eng.Apply(context.Background(), ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 10), scoring(2, 20)}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Attempts)
	assert.False(t, eng.Stale())
	requireDenseRanking(t, allRows(t, repo.Store))
}

func TestApply_ExhaustedRetriesKeepsPreviousRankingAndFlagsStale(t *testing.T) {
	repo := &flakyRepo{Store: memory.New()}
	eng := ranking.New(repo, 1)
	ctx := context.Background()

	_, err := eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 10), scoring(2, 20)}})
	require.NoError(t, err)
	before := allRows(t, repo.Store)

	repo.failRankFor, repo.failRankTimes = 1, -1
	out, err := eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 30)}})
	require.ErrorIs(t, err, domain.ErrRankingStale)
	assert.True(t, out.Stale)
	assert.True(t, eng.Stale())
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, before, allRows(t, repo.Store), "rolled back pass must not be visible")

	repo.failRankTimes = 0
	_, err = eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(1, 30)}})
	require.NoError(t, err)
	assert.False(t, eng.Stale())
	rows := allRows(t, repo.Store)
	requireDenseRanking(t, rows)
	assert.Equal(t, int64(1), rows[0].HotelID)
}

func TestApply_FailedUpsertSkipsHotelOnly(t *testing.T) {
	repo := &flakyRepo{Store: memory.New(), failUpsertFor: 3}
	eng := ranking.New(repo, 0)

	out, err := eng.Apply(context.Background(), ranking.Batch{
		Upserts: []domain.HotelScoring{scoring(1, 10), scoring(2, 20), scoring(3, 30)},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, out.Persisted)
	require.Contains(t, out.WriteErrors, int64(3))
	assert.Equal(t, 2, out.Total)

	_, err = repo.GetScoring(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApply_AbortedTransactionRetriesWholePass(t *testing.T) {
	repo := &flakyRepo{Store: memory.New(), abortUpsertFor: 2, abortUpsertTimes: 1}
	eng := ranking.New(repo, 2)

	out, err := eng.Apply(context.Background(), ranking.Batch{
		Upserts: []domain.HotelScoring{scoring(1, 10), scoring(2, 20), scoring(3, 30)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 2, repo.rankTxAttempts)
	assert.Empty(t, out.WriteErrors)
	assert.ElementsMatch(t, []int64{1, 2, 3}, out.Persisted)
	rows := allRows(t, repo.Store)
	require.Len(t, rows, 3)
	requireDenseRanking(t, rows)
}

func TestApply_AbortedTransactionNeverPartiallyVisible(t *testing.T) {
	repo := &flakyRepo{Store: memory.New(), abortUpsertFor: 2, abortUpsertTimes: -1}
	eng := ranking.New(repo, 1)

	out, err := eng.Apply(context.Background(), ranking.Batch{
		Upserts: []domain.HotelScoring{scoring(1, 10), scoring(2, 20), scoring(3, 30)},
	})
	require.ErrorIs(t, err, domain.ErrRankingStale)
	assert.ErrorContains(t, err, domain.ErrTxAborted.Error())
	assert.True(t, out.Stale)
	assert.Equal(t, 2, out.Attempts)
	assert.Empty(t, allRows(t, repo.Store), "hotel 1 upsert must roll back with the pass")
}

func TestApply_ConcurrentPassesKeepPermutation(t *testing.T) {
	store := memory.New()
	eng := ranking.New(store, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 40; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := eng.Apply(ctx, ranking.Batch{Upserts: []domain.HotelScoring{scoring(id, float64(id%7)*10+float64(id)/100)}})
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	rows := allRows(t, store)
	require.Len(t, rows, 40)
	requireDenseRanking(t, rows)
}

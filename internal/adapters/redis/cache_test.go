package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/redis"
)

type page struct {
	Records []string `json:"records"`
	Total   int      `json:"total"`
}

func newCache(t *testing.T, o redisad.Options) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	o.Addr = mr.Addr()
	return redisad.New(o), mr
}

func TestCache_SetGetExpires(t *testing.T) {
	c, mr := newCache(t, redisad.Options{})
	ctx := context.Background()

	ok, err := c.Get(ctx, "leaderboard:v0:1", &page{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "leaderboard:v0:1", page{Records: []string{"a", "b"}, Total: 2}, 60))
	assert.Equal(t, 60*time.Second, mr.TTL("leaderboard:v0:1"))

	var got page
	ok, err = c.Get(ctx, "leaderboard:v0:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, page{Records: []string{"a", "b"}, Total: 2}, got)

	mr.FastForward(61 * time.Second)
	ok, err = c.Get(ctx, "leaderboard:v0:1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_IncrGeneration(t *testing.T) {
	c, _ := newCache(t, redisad.Options{})
	ctx := context.Background()

	n, err := c.Incr(ctx, "leaderboard:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = c.Incr(ctx, "leaderboard:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var gen int64
	ok, err := c.Get(ctx, "leaderboard:gen", &gen)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), gen)
}

func TestCache_BreakerOpensWhenRedisIsDown(t *testing.T) {
	c, mr := newCache(t, redisad.Options{FailureThreshold: 2, OpenTimeout: time.Minute})
	ctx := context.Background()
	mr.Close()

	for i := 0; i < 2; i++ {
		_, err := c.Get(ctx, "k", &page{})
		assert.Error(t, err)
	}
	_, err := c.Get(ctx, "k", &page{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCache_MissDoesNotTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), redisad.Options{FailureThreshold: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.Get(ctx, "missing", &page{})
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

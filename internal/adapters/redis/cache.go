package redisad

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/observability"
)

// Cache is a JSON cache over redis. Calls go through a circuit breaker so
// an unreachable redis degrades to cache misses instead of slowing every
// request down to the dial timeout.
type Cache struct {
	c  *redis.Client
	cb *gobreaker.CircuitBreaker[any]
}

type Options struct {
	Addr     string
	Password string
	DB       int
	// consecutive failures before the breaker opens
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func New(o Options) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB}), o)
}

func NewWithClient(c *redis.Client, o Options) *Cache {
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 5
	}
	if o.OpenTimeout == 0 {
		o.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "redis",
		Timeout: o.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.FailureThreshold
		},
		// a miss is not a failure
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, redis.Nil) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache breaker state change")
		},
	})
	return &Cache{c: c, cb: cb}
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.cb.Execute(func() (any, error) { return r.c.Get(ctx, key).Bytes() })
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		observability.ObserveCache("redis", "error")
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(v.([]byte), dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = r.cb.Execute(func() (any, error) {
		return nil, r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
	})
	observability.ObserveCache("redis", eventOr("set", err))
	return err
}

func (r *Cache) Incr(ctx context.Context, key string) (int64, error) {
	v, err := r.cb.Execute(func() (any, error) { return r.c.Incr(ctx, key).Result() })
	observability.ObserveCache("redis", eventOr("incr", err))
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func eventOr(ev string, err error) string {
	if err != nil {
		return "error"
	}
	return ev
}

package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "sparkling"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|incr|error
	)
	ScoreComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "score_computations_total", Help: "Per-hotel score computations."},
		[]string{"outcome"}, // ok|failed
	)
	RankPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rank_passes_total", Help: "Ranking pass attempts."},
		[]string{"outcome"}, // ok|retry|stale
	)
	RankPassLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "rank_pass_duration_seconds",
			Help:    "Duration of a full ranking pass including retries.",
			Buckets: prometheus.DefBuckets,
		},
	)
	LeaderboardStale = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "leaderboard_stale", Help: "1 while the last ranking pass failed."},
	)
	HotelEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "hotel_events_total", Help: "Hotel lifecycle events consumed."},
		[]string{"type", "outcome"},
	)
)

// Serve exposes reg on a separate listener at addr; empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents,
		ScoreComputations, RankPasses, RankPassLatency, LeaderboardStale, HotelEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del|error
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveScore(err error) {
	if err != nil {
		ScoreComputations.WithLabelValues("failed").Inc()
		return
	}
	ScoreComputations.WithLabelValues("ok").Inc()
}

func ObserveRankAttempt(outcome string) { RankPasses.WithLabelValues(outcome).Inc() }

func ObserveRankPass(dur time.Duration, stale bool) {
	RankPassLatency.Observe(dur.Seconds())
	if stale {
		LeaderboardStale.Set(1)
		return
	}
	LeaderboardStale.Set(0)
}

func ObserveHotelEvent(typ string, err error) {
	HotelEvents.WithLabelValues(typ, LabelErr(err)).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}

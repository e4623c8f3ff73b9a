package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	server "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/http_server"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/observability"
	redisad "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/redis"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/app"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/auth"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/authz"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/events"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/ranking"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/shared"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/storage/memory"
	mysqlrepo "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("storage init failed")
	}
	defer closeStore()

	// deps
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(redisad.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, leaderboard cache degraded")
		}
		cache = rc
	}

	az, err := authz.New(authz.Config{}, store)
	if err != nil {
		log.Fatal().Err(err).Msg("authz policy load failed")
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("jwt verifier")
	}

	svc := app.NewScoringService(store, ranking.New(store, cfg.RankRetries), az, cache, app.Options{
		Weights:  cfg.Weights(),
		Workers:  cfg.ScoringWorkers,
		CacheTTL: cfg.CacheTTL(),
	})

	bus, err := events.NewBus(events.DefaultConfig(), svc)
	if err != nil {
		log.Fatal().Err(err).Msg("event bus init failed")
	}
	go func() {
		if err := bus.Run(ctx); err != nil {
			log.Error().Err(err).Msg("event router stopped")
		}
	}()

	// http
	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Svc:         svc,
		Authz:       az,
		Events:      bus,
		Verifier:    verifier,
		RecalcLimit: rate.NewLimiter(rate.Limit(cfg.RecalcRPS), 1),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := bus.Close(); err != nil {
		log.Error().Err(err).Msg("event bus close")
	}
}

func openStore(ctx context.Context, cfg shared.Config) (domain.Store, func(), error) {
	if cfg.Storage == "memory" {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := mysqlrepo.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db), func() { _ = db.Close() }, nil
}

package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"wager-engine/internal/auth"
	"wager-engine/internal/betfeed"
	"wager-engine/internal/betlock"
	"wager-engine/internal/config"
	"wager-engine/internal/engine"
	"wager-engine/internal/logging"
	"wager-engine/internal/notify"
	"wager-engine/internal/ratelimit"
	"wager-engine/internal/slip"
	"wager-engine/internal/store"
	httptransport "wager-engine/internal/transport/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}

	st, closeStore := openStore(cfg.Server)
	defer closeStore()

	lockTimeout := time.Duration(cfg.Engine.LockTimeoutMS) * time.Millisecond
	var (
		locks   betlock.Locker
		limiter ratelimit.Limiter
	)
	if cfg.Server.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Server.RedisAddr,
			Password: cfg.Server.RedisPassword,
			DB:       cfg.Server.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis ping failed")
		}
		locks = betlock.NewRedis(rdb, lockTimeout, time.Duration(cfg.Engine.LockTTLMS)*time.Millisecond)
		limiter = ratelimit.NewRedis(rdb, cfg.Server.RateLimitPerMinute, time.Minute)
		log.Info().Str("addr", cfg.Server.RedisAddr).Msg("using redis bet locks")
	} else {
		locks = betlock.NewLocal(lockTimeout)
		limiter = ratelimit.NewLocal(cfg.Server.RateLimitPerMinute, time.Minute)
	}

	calc, err := engine.BuildCalculator(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("engine config invalid")
	}
	tokens, err := auth.NewTokens(cfg.Server.JWTSecret, time.Duration(cfg.Server.JWTTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("token config invalid")
	}
	if cfg.Server.AdminAPIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY empty: admin routes and confirm_bet are disabled")
	}

	notifyCfg, err := notify.ConfigFrom(cfg.Notify)
	if err != nil {
		log.Fatal().Err(err).Msg("notify config invalid")
	}
	notifier := notify.New(notifyCfg)
	notifier.Start(context.Background())

	feed := betfeed.NewHub(0, 0)
	eng := engine.New(st, locks, calc, engine.Publishers{feed, notifier})
	r := httptransport.NewRouter(cfg.Server, httptransport.Deps{
		Engine:  eng,
		Store:   st,
		Feed:    feed,
		Slips:   slip.NewBook(),
		Tokens:  tokens,
		Limiter: limiter,
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

type backingStore interface {
	engine.Store
	httptransport.Pinger
}

func openStore(cfg config.ServerConfig) (backingStore, func()) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("POSTGRES_DSN empty: bets are kept in memory")
		return store.NewMemory(), func() {}
	}
	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	return st, st.Close
}

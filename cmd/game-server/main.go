package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"chess-arena/internal/app/arena"
	"chess-arena/internal/app/channels"
	"chess-arena/internal/config"
	"chess-arena/internal/logging"
	"chess-arena/internal/notify"
	"chess-arena/internal/store"
)

func main() {
	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)
	cfg := app.Server

	st, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("store ping failed")
	}

	pusher := notify.NewPusher(cfg.PusherAppID, cfg.PusherKey, cfg.PusherSecret, cfg.PusherCluster)
	svc := arena.NewService(st, pusher, cfg.JoinAutoSeat)
	svc.StartJanitor(context.Background(), cfg.SweepInterval(), cfg.SessionTTL())
	chanSvc := channels.NewService(st, pusher)

	r := newRouter(st, svc, chanSvc)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func buildStore(cfg config.ServerConfig) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return store.NewRedis(redis.NewClient(opts), cfg.SessionTTL()), nil
	case config.StoreDriverMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

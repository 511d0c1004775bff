package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playgeo/geohunt/internal/auth"
	"github.com/playgeo/geohunt/internal/config"
	"github.com/playgeo/geohunt/internal/database"
	"github.com/playgeo/geohunt/internal/game"
	"github.com/playgeo/geohunt/internal/hint"
	"github.com/playgeo/geohunt/internal/migrations"
	"github.com/playgeo/geohunt/internal/oracle"
	"github.com/playgeo/geohunt/internal/search"
	"github.com/playgeo/geohunt/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(stdout, opts)
	if cfg.Production() {
		handler = slog.NewJSONHandler(stdout, opts)
	}
	logger := slog.New(handler)

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Redis ---
	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	// --- Game pipeline ---
	store := game.NewSQLiteStore(db)
	maps := oracle.NewClient(cfg.GoogleMapsAPIKey, logger)
	finder := search.NewFinder(maps, logger)
	broker := server.NewBroker()

	lcOpts := []game.LifecycleOption{game.WithEvents(broker)}
	if cfg.OpenAIAPIKey != "" {
		lcOpts = append(lcOpts, game.WithHintGenerator(hint.NewAIComposer(cfg.OpenAIAPIKey)))
		logger.Info("hint generation backed by openai")
	}
	lifecycle := game.NewLifecycle(store, finder, maps, logger, lcOpts...)
	submitter := game.NewSubmitter(store, lifecycle, logger)

	// --- Auth ---
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSvc := auth.NewService(store, tokens, logger,
		auth.WithDenylist(auth.NewDenylist(rdb)))
	limiter := auth.NewLoginLimiter(rdb)

	var oauthProvider auth.Provider
	if cfg.OAuthClientID != "" && cfg.OAuthClientSecret != "" {
		oauthProvider = auth.NewGoogleProvider(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL)
		logger.Info("google login enabled")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Options{
		Logger:       logger,
		DB:           db,
		Redis:        rdb,
		Store:        store,
		Auth:         authSvc,
		LoginLimiter: limiter,
		OAuth:        oauthProvider,
		Lifecycle:    lifecycle,
		Submitter:    submitter,
		Broker:       broker,
		CORSOrigins:  cfg.CORSOrigins,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

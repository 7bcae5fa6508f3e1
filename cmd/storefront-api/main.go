package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-backend/internal/catalog"
	"storefront-backend/internal/config"
	"storefront-backend/internal/httpapi"
	"storefront-backend/internal/kstream"
	"storefront-backend/internal/logging"
	"storefront-backend/internal/persist"
	"storefront-backend/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-api: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource, so its deferred cleanup runs before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// redis/go-redis/v9: one client backs both the catalog cache and session snapshots.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, cache and snapshots will fail soft", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	upstream := catalog.NewHTTPClient(cfg.CatalogURL, cfg.UpstreamTimeout, logger)
	if err := upstream.HealthCheck(ctx); err != nil {
		logger.Warn("catalog upstream unreachable, serving fallback data until it recovers", zap.Error(err))
	}
	cache := catalog.NewCache(rdb, upstream, cfg.CatalogCacheTTL, logger)
	src := catalog.NewFallback(cache, logger)

	opts := session.Options{
		Catalog:         src,
		CatalogTTL:      cfg.CatalogCacheTTL,
		Store:           persist.NewRedisStore(rdb, cfg.SnapshotTTL),
		NotificationTTL: cfg.NotificationTTL,
		IdleTimeout:     cfg.SessionIdle,
		Logger:          logger,
	}

	if cfg.KafkaEnabled() {
		pub := kstream.NewPublisher(cfg.KafkaBroker, logger)
		defer pub.Close()
		opts.Sink = pub
	} else {
		logger.Info("KAFKA_BROKER not set, notification publishing and cache invalidation disabled")
	}

	sessions := session.NewManager(opts)
	defer sessions.Close()

	if cfg.KafkaEnabled() {
		// segmentio/kafka-go: consumer-group reader; one message invalidates the cache and every live session.
		r := kstream.KafkaReader(cfg.KafkaBroker, kstream.InvalidateTopic, cfg.KafkaGroupID)
		defer r.Close()
		go func() {
			if err := kstream.ConsumeCatalogInvalidations(ctx, r, kstream.Invalidators{cache, sessions}, logger); err != nil {
				logger.Error("catalog invalidation consumer stopped", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewServer(src, sessions, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("storefront API listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

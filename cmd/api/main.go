package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voyagr/travelstory/internal/auth"
	"github.com/voyagr/travelstory/internal/blob"
	"github.com/voyagr/travelstory/internal/cache"
	"github.com/voyagr/travelstory/internal/config"
	"github.com/voyagr/travelstory/internal/db"
	httpx "github.com/voyagr/travelstory/internal/http"
	"github.com/voyagr/travelstory/internal/observability"
	"github.com/voyagr/travelstory/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("ACCESS_TOKEN_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// tracing is optional; without an endpoint the service just runs
	// untraced
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "travelstory", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			cctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(cctx)
		}()
	}

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	usersRepo := postgres.NewUsersRepo(pool, prom)
	storiesRepo := postgres.NewStoriesRepo(pool, prom)

	blobs, err := newBlobStore(ctx, cfg, log, prom)

	if err != nil {
		log.Error("blob store init failed", "err", err)
		os.Exit(1)
	}

	listCache, redisCache := newListCache(cfg, log)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL())

	router := httpx.NewRouter(cfg, httpx.Deps{
		Log:     log,
		Users:   usersRepo,
		Stories: storiesRepo,
		Blobs:   blobs,
		Cache:   listCache,
		JWT:     jwtManager,
		Prom:    prom,
		Ping:    readinessPing(pool, redisCache),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "blob_backend", cfg.BlobBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	if redisCache != nil {
		_ = redisCache.Close()
	}
}

func newBlobStore(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (blob.Store, error) {
	if cfg.BlobBackend == "s3" {
		return blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			BaseURL:   cfg.BaseURL,
		}, log, prom)
	}

	return blob.NewDiskStore(cfg.UploadDir, cfg.BaseURL, log, prom)
}

func newListCache(cfg config.Config, log *slog.Logger) (cache.StoryListCache, *cache.Redis) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.CacheTTL), nil
	}

	redisCache := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	}, log)

	return redisCache, redisCache
}

func readinessPing(pool *pgxpool.Pool, redisCache *cache.Redis) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}

		if redisCache != nil {
			return redisCache.Ping(ctx)
		}

		return nil
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patline/internal/cache"
	"patline/internal/config"
	"patline/internal/handler"
	"patline/internal/hub"
	"patline/internal/ingestor"
	"patline/internal/metrics"
	"patline/internal/middleware"
	"patline/internal/objstore"
	"patline/internal/store"
	"patline/pkg/patcoweb"
	"patline/pkg/pdftext"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting patline server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"poll_interval", cfg.PollInterval,
		"gcs_bucket", cfg.GCSBucket,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var objects objstore.ObjectStore
	if cfg.GCSBucket != "" {
		gcs, err := objstore.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Error("failed to initialize object store", "error", err)
			os.Exit(1)
		}
		defer gcs.Close()
		objects = gcs
	} else {
		logger.Warn("no bucket configured, schedules will not survive restarts")
		objects = objstore.NewMemoryStore()
	}

	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Error("failed to connect to redis, continuing without cache", "error", err)
		} else {
			defer redisCache.Close()
		}
	}

	schedules := store.New()
	wsHub := hub.NewHub(logger)
	webClient := patcoweb.New(cfg.SchedulesPageURL, cfg.SiteBaseURL)
	extractor := pdftext.New(cfg.PDFExtractorURL, patcoweb.DefaultUserAgent, cfg.FetchTimeout, logger)
	ing := ingestor.New(webClient, extractor, objects, schedules, redisCache, wsHub, cfg, logger)

	httpHandler := handler.NewHTTPHandler(schedules, redisCache, cfg.CacheTTL, logger)
	filesHandler := handler.NewFilesHandler(objects, cfg.RegularSchedulePrefix, cfg.SignedURLTTL, logger)
	wsHandler := handler.NewWSHandler(wsHub, schedules, logger)
	healthHandler := handler.NewHealthHandler(ing, schedules)
	statsHandler := handler.NewStatsHandler(schedules)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/trips", httpHandler.QueryTrips)
	mux.HandleFunc("GET /v1/stations", httpHandler.ListStations)
	mux.HandleFunc("GET /v1/schedules/{date}/files", filesHandler.GetScheduleFiles)
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /v1/stats", statsHandler.GetStats)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	limiter := middleware.NewRateLimiter(
		cfg.RateLimitPerWindow,
		cfg.RateLimitWindow,
		cfg.RateLimitWhitelist,
		handler.ServerStats.IncRateLimitBlocked,
		logger,
	)

	root := handler.CountRequests(mux)
	root = limiter.Middleware(root)
	root = handler.CORSMiddleware(root)
	root = handler.GzipMiddleware(root)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go wsHub.Run(ctx)
	go ing.Run(ctx)
	go metrics.RunHeartbeat(ctx, cfg.HeartbeatInterval)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ZanzyTHEbar/tender-integrity/internal/analysis"
	"github.com/ZanzyTHEbar/tender-integrity/internal/cache"
	"github.com/ZanzyTHEbar/tender-integrity/internal/compliance"
	"github.com/ZanzyTHEbar/tender-integrity/internal/config"
	"github.com/ZanzyTHEbar/tender-integrity/internal/database"
	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/jobs"
	"github.com/ZanzyTHEbar/tender-integrity/internal/middleware"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/pipeline"
	"github.com/ZanzyTHEbar/tender-integrity/internal/security"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLoggerWithWriter(os.Stdout, monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(appLogger.Logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := monitoring.NewMetrics(registry)
	if err != nil {
		slog.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(appLogger),
		pipeline.WithMetrics(appMetrics),
		pipeline.WithCache(cache.NewCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval, appMetrics)),
	}

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.NewDB(cfg.DatabasePath())
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer errors.SafeClose(db, "audit database")

		repo := database.NewRepository(db)
		if cfg.Database.Retention > 0 {
			if _, err := repo.PruneRuns(context.Background(), time.Now().Add(-cfg.Database.Retention)); err != nil {
				slog.Warn("Run retention cleanup failed", "error", err)
			}
		}
		opts = append(opts, pipeline.WithStore(repo))
	}

	analyzer := fraud.NewAnalyzer(cfg.Thresholds, appLogger, fraud.WithMetrics(appMetrics))
	engine := analysis.NewEngine(compliance.NewRuleChecker(), appLogger)
	service := pipeline.NewService(analyzer, engine, opts...)

	runner := jobs.NewRunner(service, jobs.Config{
		Workers:         cfg.Jobs.Workers,
		QueueSize:       cfg.Jobs.QueueSize,
		MaxAttempts:     cfg.Jobs.MaxAttempts,
		Backoff:         cfg.Jobs.Backoff,
		Timeout:         cfg.Jobs.Timeout,
		StartsPerSecond: cfg.Jobs.StartsPerSecond,
	}, appLogger, appMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runner.Start(ctx)

	r := newRouter(&app{
		service:        service,
		runner:         runner,
		metrics:        appMetrics,
		logger:         appLogger,
		db:             db,
		allowedOrigins: cfg.CORS.AllowedOrigins,
		security: security.Config{
			MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
			RequestTimeout: cfg.HTTP.RequestTimeout,
			EnableHSTS:     cfg.HTTP.EnableHSTS,
		},
		compression: middleware.NewCompression(middleware.CompressionConfig{
			MinSize:          cfg.HTTP.GzipMinSize,
			CompressionLevel: cfg.HTTP.GzipLevel,
			ContentTypes:     middleware.DefaultCompressionConfig().ContentTypes,
		}),
		started: time.Now(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.SystemLogger("startup", "listening on :"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	runner.Wait()

	slog.Info("Server exited")
}

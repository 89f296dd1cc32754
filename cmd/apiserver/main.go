// API server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/calledstrike/szas/internal/application/dataset"
	"github.com/calledstrike/szas/internal/application/influence"
	"github.com/calledstrike/szas/internal/application/scoring"
	"github.com/calledstrike/szas/internal/config"
	"github.com/calledstrike/szas/internal/infrastructure/database/postgres"
	"github.com/calledstrike/szas/internal/infrastructure/database/postgres/repositories"
	"github.com/calledstrike/szas/internal/infrastructure/database/redis"
	"github.com/calledstrike/szas/internal/infrastructure/messaging/kafka"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/prometheus"
	"github.com/calledstrike/szas/internal/infrastructure/storage/minio"
	httpserver "github.com/calledstrike/szas/internal/interfaces/http"
	"github.com/calledstrike/szas/internal/interfaces/http/handlers"
	"github.com/calledstrike/szas/internal/interfaces/http/middleware"
)

// Version is injected via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	migrate := flag.Bool("migrate", true, "run database migrations on startup")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting apiserver",
		logging.String("version", Version),
		logging.String("addr", cfg.Server.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres is required; everything downstream reads from it.
	if *migrate {
		if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
			logger.Fatal("database migration failed", logging.Err(err))
		}
	}
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", logging.Err(err))
	}
	defer conn.Close()
	repo := repositories.NewPitchRepository(conn.Pool(), logger)

	checks := map[string]handlers.Pinger{
		"postgres": conn.HealthCheck,
	}

	// Redis, MinIO, and Kafka degrade gracefully: the services tolerate a
	// nil cache, snapshot store, or producer.
	var cache redis.Cache
	redisClient, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, result caching disabled", logging.Err(err))
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, logger)
		checks["redis"] = redisClient.Ping
	}

	var snapshots dataset.Snapshots
	store, err := minio.NewSnapshotStore(&cfg.MinIO, logger)
	if err != nil {
		logger.Warn("object storage unavailable, snapshot operations disabled", logging.Err(err))
	} else {
		snapshots = store
		checks["minio"] = func(ctx context.Context) error {
			_, listErr := store.List(ctx)
			return listErr
		}
	}

	var producer dataset.Publisher
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Producer(), logger)
	if err != nil {
		logger.Warn("kafka unavailable, import requests disabled", logging.Err(err))
	} else {
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "szas",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Fatal("metrics initialization failed", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

	scoringService := scoring.NewService(repo, cache, logger)
	influenceService := influence.NewService(repo, cache, logger)
	datasetService := dataset.NewService(repo, snapshots, producer, cache, logger)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ScoreHandler:     handlers.NewScoreHandler(scoringService),
		InfluenceHandler: handlers.NewInfluenceHandler(influenceService),
		DatasetHandler:   handlers.NewDatasetHandler(datasetService),
		HealthHandler:    handlers.NewHealthHandler(Version, checks),
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		RateLimiter:      middleware.NewRateLimiter(cfg.Server.RateLimitRPS),
		Mode:             cfg.Server.Mode,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server shutdown error", logging.Err(err))
	}
	logger.Info("apiserver stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

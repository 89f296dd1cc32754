// Import worker entry point. Consumes import request events and loads
// season snapshots into the pitch archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calledstrike/szas/internal/application/dataset"
	"github.com/calledstrike/szas/internal/config"
	"github.com/calledstrike/szas/internal/infrastructure/database/postgres"
	"github.com/calledstrike/szas/internal/infrastructure/database/postgres/repositories"
	"github.com/calledstrike/szas/internal/infrastructure/database/redis"
	"github.com/calledstrike/szas/internal/infrastructure/messaging/kafka"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/logging"
	"github.com/calledstrike/szas/internal/infrastructure/monitoring/prometheus"
	"github.com/calledstrike/szas/internal/infrastructure/storage/minio"
)

// Version is injected via ldflags.
var Version = "dev"

const importTimeout = 10 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthAddr := flag.String("health-addr", ":8081", "address for health and metrics endpoints")
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
	logger = logger.Named("worker")

	logger.Info("starting import worker",
		logging.String("version", Version),
		logging.Int("concurrency", cfg.Worker.Concurrency))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", logging.Err(err))
	}
	defer conn.Close()
	repo := repositories.NewPitchRepository(conn.Pool(), logger)

	store, err := minio.NewSnapshotStore(&cfg.MinIO, logger)
	if err != nil {
		logger.Fatal("object storage connection failed", logging.Err(err))
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Producer(), logger)
	if err != nil {
		logger.Fatal("kafka producer initialization failed", logging.Err(err))
	}
	defer producer.Close()

	var cache redis.Cache
	redisClient, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, cache invalidation disabled", logging.Err(err))
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, logger)
	}

	datasetService := dataset.NewService(repo, store, producer, cache, logger)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "szas_worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Fatal("metrics initialization failed", logging.Err(err))
	}
	metrics := prometheus.NewAppMetrics(collector)

	handler := importHandler(datasetService, metrics, logger)

	// Each consumer owns one reader; readers in the same group split the
	// topic's partitions between them.
	group, groupCtx := errgroup.WithContext(ctx)
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(
			cfg.Kafka.Consumer(kafka.TopicImportRequested),
			producer,
			logger,
		)
		if err != nil {
			logger.Fatal("kafka consumer initialization failed", logging.Err(err))
		}
		consumer.Subscribe(kafka.EventImportRequested, handler)
		consumers = append(consumers, consumer)

		group.Go(func() error {
			return consumer.Start(groupCtx)
		})
	}

	healthSrv := startHealthServer(*healthAddr, collector, logger)

	if err := group.Wait(); err != nil {
		logger.Error("consumer error", logging.Err(err))
	}

	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Warn("consumer close error", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", logging.Err(err))
	}
	logger.Info("import worker stopped")
}

// importHandler runs one snapshot import per request event. Import
// completion events are published by the dataset service itself, so a
// handler error here only drives dead-lettering of the request.
func importHandler(service dataset.Service, metrics *prometheus.AppMetrics, logger logging.Logger) kafka.Handler {
	return func(ctx context.Context, envelope *kafka.EventEnvelope) error {
		var payload kafka.ImportRequestedPayload
		if err := kafka.DecodePayload(envelope, &payload); err != nil {
			return err
		}

		logger.Info("import requested",
			logging.String("event_id", envelope.EventID),
			logging.Int("season", payload.Season))

		importCtx, cancel := context.WithTimeout(ctx, importTimeout)
		defer cancel()

		start := time.Now()
		report, err := service.RunImport(importCtx, payload.Season)
		if err != nil {
			prometheus.RecordImport(metrics, 0, time.Since(start), err)
			logger.Error("import failed",
				logging.Int("season", payload.Season),
				logging.Err(err))
			return err
		}

		prometheus.RecordImport(metrics, report.Inserted, time.Since(start), nil)
		logger.Info("import completed",
			logging.Int("season", report.Season),
			logging.Int("inserted", report.Inserted),
			logging.Int("skipped", report.Skipped),
			logging.Duration("elapsed", time.Since(start)))
		return nil
	}
}

// startHealthServer exposes liveness and metrics for the worker process.
func startHealthServer(addr string, collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

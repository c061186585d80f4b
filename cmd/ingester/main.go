package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"cropwatch/internal/canonical"
	"cropwatch/internal/ingest"
	ingestmetrics "cropwatch/internal/ingest/metrics"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	"cropwatch/internal/platform/config"
	"cropwatch/internal/platform/httpserver"
	"cropwatch/internal/platform/kafka/consumer"
	"cropwatch/internal/platform/kafka/producer"
	"cropwatch/internal/platform/logger"
	"cropwatch/internal/platform/postgres"
)

// The ingester consumes scraped price submissions from Kafka, validates and
// screens them, and stages them for moderation. It exposes only /metrics and
// /healthz over HTTP.
func main() {
	cfg := config.FromEnv()
	log := logger.New("ingester")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := producer.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 3); err != nil {
		log.Error("failed to ensure topic", "topic", cfg.Kafka.Topic, "error", err)
		os.Exit(1)
	}

	detector := observation.NewDetector(canonical.NewPostgresStore(db), logger.New("anomaly"))
	handler := ingest.NewHandler(obsstore.NewPostgresStore(db), detector, logger.New("ingest"), ingestmetrics.New())

	kafkaConsumer, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, handler, logger.New("kafka"))
	if err != nil {
		log.Error("failed to create kafka consumer", "error", err)
		os.Exit(1)
	}
	defer kafkaConsumer.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httpserver.New(envOr("CROPWATCH_INGESTER_ADDR", ":8081"), mux)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting ingester", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
		return kafkaConsumer.Run(ctx)
	})
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ingester exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("ingester stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cropwatch/internal/canonical"
	"cropwatch/internal/catalog"
	cataloghandler "cropwatch/internal/catalog/handler"
	pricehandler "cropwatch/internal/canonical/handler"
	"cropwatch/internal/moderation"
	moderationhandler "cropwatch/internal/moderation/handler"
	moderationmetrics "cropwatch/internal/moderation/metrics"
	"cropwatch/internal/notify"
	obsstore "cropwatch/internal/observation/store"
	"cropwatch/internal/platform/config"
	"cropwatch/internal/platform/httpserver"
	"cropwatch/internal/platform/kafka/producer"
	"cropwatch/internal/platform/logger"
	platformmetrics "cropwatch/internal/platform/metrics"
	authmiddleware "cropwatch/internal/platform/middleware/auth"
	"cropwatch/internal/platform/postgres"
	platformredis "cropwatch/internal/platform/redis"
	"cropwatch/internal/submit"
	httptransport "cropwatch/internal/transport/http"
	"cropwatch/pkg/platform/tx"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalogStore, err := catalog.NewPgxStore(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("failed to open catalog store", "error", err)
		os.Exit(1)
	}
	defer catalogStore.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if err := producer.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 3); err != nil {
		log.Error("failed to ensure topic", "topic", cfg.Kafka.Topic, "error", err)
		os.Exit(1)
	}
	kafkaProducer, err := producer.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Error("failed to create kafka producer", "error", err)
		os.Exit(1)
	}
	defer kafkaProducer.Close()

	stagingStore := obsstore.NewPostgresStore(db)
	canonicalStore := canonical.NewPostgresStore(db)

	var notifier notify.Notifier
	if redisClient != nil {
		notifier = notify.NewRedisNotifier(redisClient)
	}

	moderationService := moderation.NewService(
		tx.NewSQLRunner(db),
		stagingStore,
		canonicalStore,
		notifier,
		catalogStore,
		logger.New("moderation"),
		moderationmetrics.New(),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Moderation:   moderationhandler.New(moderationService, stagingStore, logger.New("moderation-http")),
		Catalog:      cataloghandler.New(catalogStore, logger.New("catalog")),
		Prices:       pricehandler.New(canonicalStore, logger.New("prices")),
		Submit:       submit.New(kafkaProducer, catalogStore, logger.New("submit")),
		RequireActor: authmiddleware.RequireActor(cfg.Server.JWTSigningKey, log),
		Metrics:      platformmetrics.New(),
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			if redisClient != nil {
				if err := redisClient.Health(r.Context()); err != nil {
					http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
					return
				}
			}
			w.WriteHeader(http.StatusOK)
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting cropwatch server", "addr", cfg.Server.Addr)
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

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	"github.com/angelmondragon/mealbridge-backend/pkg/migrate"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/registry"
	"github.com/angelmondragon/mealbridge-backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.New(logger.Options{ServiceName: serviceName}).Error(context.Background(), "outbox publisher exited", err)
		stop()
		os.Exit(1)
	}
}

// run returns once ctx is cancelled or a dependency fails; deferred closes
// execute before main exits.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": cfg.Service.Kind})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	defer closeQuietly(ctx, logg, "pubsub", ps.Close)

	reg := prometheus.NewRegistry()
	if addr := cfg.Service.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				logg.Error(ctx, "metrics.listener_stopped", err)
			}
		}()
	}

	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		PubSub:     ps,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   registry.NewEventRegistry(),
		Publisher:  newGCPPublisher(ps.DomainPublisher()),
		Metrics:    metrics.NewJobMetrics(reg),
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "outbox_publisher.started")
	defer logg.Info(ctx, "outbox_publisher.stopped")
	return svc.Run(ctx)
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.WithoutCancel(ctx), name+".close_failed", err)
	}
}

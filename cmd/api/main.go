package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/mealbridge-backend/api/routes"
	"github.com/angelmondragon/mealbridge-backend/internal/admin"
	"github.com/angelmondragon/mealbridge-backend/internal/auth"
	"github.com/angelmondragon/mealbridge-backend/internal/companies"
	"github.com/angelmondragon/mealbridge-backend/internal/meals"
	"github.com/angelmondragon/mealbridge-backend/internal/menus"
	"github.com/angelmondragon/mealbridge-backend/internal/notifications"
	"github.com/angelmondragon/mealbridge-backend/internal/notifications/push"
	"github.com/angelmondragon/mealbridge-backend/internal/orders"
	"github.com/angelmondragon/mealbridge-backend/internal/payments"
	"github.com/angelmondragon/mealbridge-backend/internal/tracking"
	"github.com/angelmondragon/mealbridge-backend/internal/users"
	stripewebhook "github.com/angelmondragon/mealbridge-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db"
	"github.com/angelmondragon/mealbridge-backend/pkg/env"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	"github.com/angelmondragon/mealbridge-backend/pkg/migrate"
	"github.com/angelmondragon/mealbridge-backend/pkg/mongo"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/mealbridge-backend/pkg/redis"
	"github.com/angelmondragon/mealbridge-backend/pkg/stripe"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers := []func() error{dbClient.Close}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	closers = append(closers, redisClient.Close)

	var trail tracking.TrailStore
	if cfg.Mongo.Enabled() {
		mongoClient, err := mongo.New(ctx, cfg.Mongo, logg)
		if err != nil {
			return err
		}
		closers = append(closers, mongoClient.Close)
		trail = tracking.NewMongoTrail(mongoClient.Collection(mongo.DeliveryLocationsCollection))
	} else {
		logg.Warn(ctx, "mongo disabled, delivery trail will be empty")
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	pushSender, err := push.NewWebPushSender(cfg.Push, nil)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := metrics.NewDomainMetrics(reg)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	companiesRepo := companies.NewRepository(conn)
	mealsRepo := meals.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	paymentsRepo := payments.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		Companies:      companiesRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		return err
	}
	companiesService, err := companies.NewService(companiesRepo, usersRepo)
	if err != nil {
		return err
	}
	mealsService, err := meals.NewService(mealsRepo)
	if err != nil {
		return err
	}
	menusService, err := menus.NewService(menus.NewRepository(conn), mealsRepo)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:   ordersRepo,
		Users:  usersRepo,
		Meals:  mealsRepo,
		Tx:     dbClient,
		Outbox: outboxService,
	})
	if err != nil {
		return err
	}
	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:     paymentsRepo,
		Orders:   ordersRepo,
		Stripe:   stripe.NewPaymentIntentCreator(stripeClient),
		Currency: stripeClient.Currency(),
	})
	if err != nil {
		return err
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return err
	}
	adminService, err := admin.NewService(admin.NewRepository(conn))
	if err != nil {
		return err
	}

	broker, err := tracking.NewBroker(redisClient, redisClient, cfg.Tracking.ChannelPrefix)
	if err != nil {
		return err
	}
	trackingService, err := tracking.NewService(tracking.ServiceParams{
		Orders:      ordersRepo,
		Users:       usersRepo,
		Broker:      broker,
		Trail:       trail,
		Push:        pushSender,
		Metrics:     domainMetrics,
		Logger:      logg,
		TrailLimit:  cfg.Tracking.TrailLimit,
		PushTimeout: cfg.Push.DispatchTimeout,
	})
	if err != nil {
		return err
	}
	hub, err := tracking.NewHub(tracking.HubParams{
		Broker:         broker,
		Access:         trackingService,
		Logger:         logg,
		AllowedOrigins: cfg.CORS.AllowedOrigins(),
		SendBuffer:     cfg.Tracking.SendBufferSize,
		WriteTimeout:   cfg.Tracking.WriteTimeout,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Payments:          paymentsRepo,
		Orders:            ordersRepo,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Metrics:        metrics.NewHTTPMetrics(reg),
		Gatherer:       reg,
		Auth:           authService,
		Users:          usersService,
		Companies:      companiesService,
		Meals:          mealsService,
		Menus:          menusService,
		Orders:         ordersService,
		Tracking:       trackingService,
		TrackingHub:    hub,
		Payments:       paymentsService,
		Notifications:  notificationsService,
		Admin:          adminService,
		StripeVerifier: stripeClient,
		StripeWebhook:  webhookService,
		WebhookGuard:   webhookGuard,
	})

	addr := ":" + env.First(cfg.App.Port, "PORT")
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked tracking sockets are invisible to Shutdown.
	server.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Redis and Mongo close after this returns; sockets must be gone first.
	if err := hub.Drain(shutdownCtx); err != nil {
		logg.Warn(serverCtx, "tracking sockets still open at shutdown")
	}
	return nil
}

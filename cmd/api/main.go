package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	recovermw "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atelier-erp/settlement-engine/internal/config"
	"github.com/atelier-erp/settlement-engine/internal/handler"
	"github.com/atelier-erp/settlement-engine/internal/infra/postgresql"
	"github.com/atelier-erp/settlement-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/atelier-erp/settlement-engine/internal/infra/redis"
	"github.com/atelier-erp/settlement-engine/internal/notify"
	"github.com/atelier-erp/settlement-engine/internal/observability"
	"github.com/atelier-erp/settlement-engine/internal/provider"
	"github.com/atelier-erp/settlement-engine/internal/repository"
	"github.com/atelier-erp/settlement-engine/internal/service"
	"github.com/atelier-erp/settlement-engine/internal/transport"
)

const (
	orderLockTTL    = 30 * time.Second
	eventPrefetch   = 8
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("settlement-engine exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	broker, err := notify.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer broker.Close()

	metrics := observability.NewMetrics()

	locker, err := infraredis.NewRedisLocker(rdb, orderLockTTL)
	if err != nil {
		return fmt.Errorf("redis locker initialization failed: %w", err)
	}

	registry := provider.NewRegistry(
		provider.NewManualProvider(),
		time.Duration(cfg.ProviderProbeTimeoutMS)*time.Millisecond,
		logger,
		provider.NewDeeplinkProvider(cfg.InfinityPayCallbackURL),
		provider.NewMercadoPagoProvider(
			cfg.MercadoPagoBaseURL,
			cfg.MercadoPagoClientID,
			cfg.MercadoPagoClientSecret,
			cfg.MercadoPagoDeviceID,
		),
	)
	registry.OnUnavailable(metrics.IncProviderUnavailable)

	publisher := notify.NewRabbitMQPublisher(broker)
	defer publisher.Close()

	orderRepo := repository.NewGormOrderRepo(db)
	paymentRepo := repository.NewGormPaymentRepo(db)
	obligationRepo := repository.NewGormObligationRepo(db)
	recurringRepo := repository.NewGormRecurringRepo(db)

	settlements, err := service.NewSettlementService(
		orderRepo,
		paymentRepo,
		registry,
		locker,
		publisher,
		metrics,
		cfg.PaymentMaxRetries,
		logger,
	)
	if err != nil {
		return fmt.Errorf("settlement service initialization failed: %w", err)
	}

	obligations, err := service.NewObligationService(obligationRepo, recurringRepo, metrics, logger)
	if err != nil {
		return fmt.Errorf("obligation service initialization failed: %w", err)
	}

	scanner, err := service.NewTimeoutScanner(
		paymentRepo,
		locker,
		time.Duration(cfg.TimeoutScanIntervalMS)*time.Millisecond,
		time.Duration(cfg.ProcessingDeadlineMin)*time.Minute,
		metrics,
		logger,
	)
	if err != nil {
		return fmt.Errorf("timeout scanner initialization failed: %w", err)
	}

	sink, err := notify.NewWebhookSink(cfg.NotifyWebhookURL)
	if err != nil {
		return fmt.Errorf("webhook sink initialization failed: %w", err)
	}

	consumer := notify.NewRabbitMQConsumer(broker, eventPrefetch, logger)
	defer consumer.Close()

	relay, err := notify.NewRelay(consumer, sink, logger)
	if err != nil {
		return fmt.Errorf("event relay initialization failed: %w", err)
	}

	app, err := newApp(cfg, logger, metrics, settlements, obligations, sqlDB, rdb, broker)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("settlement-engine api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := relay.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event relay failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := scanner.Start(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("timeout scanner failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	return group.Wait()
}

func newApp(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	settlements *service.SettlementService,
	obligations *service.ObligationService,
	sqlDB *sql.DB,
	rdb *redis.Client,
	broker handler.BrokerReadiness,
) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:      "settlement-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recovermw.New())
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	})
	app.Use(metrics.HTTPMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterPaymentRoutes(app, settlements, cfg.CallbackToken); err != nil {
		return nil, fmt.Errorf("payment routes registration failed: %w", err)
	}
	if err := handler.RegisterObligationRoutes(app, obligations); err != nil {
		return nil, fmt.Errorf("obligation routes registration failed: %w", err)
	}
	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)

	return app, nil
}

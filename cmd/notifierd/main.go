package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/config"
	"github.com/CyberArcenal/POS-Management-sub008/internal/handler"
	"github.com/CyberArcenal/POS-Management-sub008/internal/infra/postgresql"
	"github.com/CyberArcenal/POS-Management-sub008/internal/infra/postgresql/migrations"
	infraredis "github.com/CyberArcenal/POS-Management-sub008/internal/infra/redis"
	"github.com/CyberArcenal/POS-Management-sub008/internal/logstore"
	"github.com/CyberArcenal/POS-Management-sub008/internal/observability"
	"github.com/CyberArcenal/POS-Management-sub008/internal/provider"
	"github.com/CyberArcenal/POS-Management-sub008/internal/queue"
	"github.com/CyberArcenal/POS-Management-sub008/internal/readiness"
	"github.com/CyberArcenal/POS-Management-sub008/internal/repository"
	"github.com/CyberArcenal/POS-Management-sub008/internal/service"
	"github.com/CyberArcenal/POS-Management-sub008/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("notifierd exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := postgresql.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := migrations.Migrate(db.DB()); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}
	db.MarkReady()

	metrics := observability.NewMetrics()
	gate := readiness.NewGate(readiness.ProbeFunc(db.IsReady))
	repo := repository.NewGormNotificationLogRepo(db.DB())
	store := logstore.NewStore(repo, gate, logger)

	healthChecks := map[string]handler.HealthChecker{
		"postgres": handler.HealthCheckerFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	envProvider := config.NewEnvProvider()

	smsOpts := []provider.TwilioOption{
		provider.WithBatchDelay(time.Duration(cfg.SMSBatchItemDelayMs) * time.Millisecond),
	}
	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer rdb.Close() //nolint:errcheck

		limiter, err := infraredis.NewSendRateLimiter(rdb, cfg.SMSRateLimitPerSec)
		if err != nil {
			return fmt.Errorf("rate limiter initialization failed: %w", err)
		}
		smsOpts = append(smsOpts, provider.WithRateLimiter(limiter))
		healthChecks["redis"] = handler.HealthCheckerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	emailSender, err := provider.NewSMTPEmailSender(envProvider)
	if err != nil {
		return fmt.Errorf("email sender initialization failed: %w", err)
	}
	smsSender, err := provider.NewTwilioSMSSender(envProvider, logger, smsOpts...)
	if err != nil {
		return fmt.Errorf("sms sender initialization failed: %w", err)
	}

	var deadLetter queue.DeadLetterPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("rabbitmq initialization failed: %w", err)
		}
		publisher := queue.NewRabbitMQDeadLetterPublisher(mq)
		defer publisher.Close() //nolint:errcheck
		deadLetter = publisher
	}

	lane := queue.NewDeliveryLane(func(ctx context.Context, task queue.Task, err error) {
		logger.Error("delivery task reached terminal failure",
			zap.String("task", task.Name),
			zap.Error(err),
		)
	}, logger, queue.WithMaxBacklog(cfg.DeliveryQueueBacklog))
	metrics.RegisterQueueDepth(lane.Depth)

	policy := service.RetryPolicy{
		MaxAttempts:    cfg.MaxSendAttempts,
		Delay:          time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		AttemptTimeout: time.Duration(cfg.AttemptTimeoutMs) * time.Millisecond,
	}
	notifier := service.NewNotifier(emailSender, smsSender, store, lane, deadLetter, policy, metrics, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, healthChecks)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterDeliveryLogRoutes(app, repo); err != nil {
		return err
	}
	if err := handler.RegisterNotificationRoutes(app, notifier); err != nil {
		return err
	}

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return lane.Start(groupCtx)
	})

	g.Go(func() error {
		logger.Info("notifierd started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		// Stop intake first so the lane can drain the backlog.
		lane.Close() //nolint:errcheck
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/cron"
	"github.com/rentiva/rentiva-backend/internal/deposits"
	"github.com/rentiva/rentiva-backend/internal/gateway"
	"github.com/rentiva/rentiva-backend/internal/notify"
	"github.com/rentiva/rentiva-backend/internal/payments"
	"github.com/rentiva/rentiva-backend/pkg/config"
	"github.com/rentiva/rentiva-backend/pkg/db"
	"github.com/rentiva/rentiva-backend/pkg/logger"
	"github.com/rentiva/rentiva-backend/pkg/metrics"
	"github.com/rentiva/rentiva-backend/pkg/migrate"
	"github.com/rentiva/rentiva-backend/pkg/pubsub"
	"github.com/rentiva/rentiva-backend/pkg/redis"
	"github.com/rentiva/rentiva-backend/pkg/square"
	"github.com/rentiva/rentiva-backend/pkg/stripe"
)

const lockKeyFormat = "rv:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	cardLinks, err := gateway.NewStripeLinks(stripeClient, cfg.Links.MerchantName)
	if err != nil {
		logg.Error(context.Background(), "failed to create card link gateway", err)
		os.Exit(1)
	}

	bankTransfers, err := gateway.NewLocalBankTransfer(cfg.Links)
	if err != nil {
		logg.Error(context.Background(), "failed to create bank transfer gateway", err)
		os.Exit(1)
	}

	depositAuthorizer, err := gateway.NewSquareDeposits(squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create deposit gateway", err)
		os.Exit(1)
	}

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	notifyService, err := notify.NewService(notify.ServiceParams{
		Publisher: pubsubClient.NotificationPublisher(),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	depositsService, err := deposits.NewService(deposits.ServiceParams{
		Repo:           deposits.NewRepository(dbClient.DB()),
		Audit:          auditService,
		Notify:         notifyService,
		Authorizer:     depositAuthorizer,
		TxRunner:       dbClient,
		Logger:         logg,
		Metrics:        paymentMetrics,
		GatewayTimeout: cfg.Gateway.CallTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create deposits service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:           payments.NewRepository(dbClient.DB()),
		Audit:          auditService,
		Notify:         notifyService,
		CardLinks:      cardLinks,
		BankTransfers:  bankTransfers,
		Deposits:       depositsService,
		TxRunner:       dbClient,
		Logger:         logg,
		Metrics:        paymentMetrics,
		GatewayTimeout: cfg.Gateway.CallTimeout,
		LinkTTL:        cfg.Gateway.LinkTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	linkExpiry, err := cron.NewLinkExpiryJob(cron.LinkExpiryJobParams{
		Logger:   logg,
		Payments: paymentsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create link expiry job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(linkExpiry),
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

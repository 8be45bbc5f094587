package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rentiva/rentiva-backend/api/routes"
	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/deposits"
	"github.com/rentiva/rentiva-backend/internal/gateway"
	"github.com/rentiva/rentiva-backend/internal/notify"
	"github.com/rentiva/rentiva-backend/internal/payments"
	gatewaywebhook "github.com/rentiva/rentiva-backend/internal/webhooks/gateway"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

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

	paymentsRepo := payments.NewRepository(dbClient.DB())
	depositsRepo := deposits.NewRepository(dbClient.DB())

	depositsService, err := deposits.NewService(deposits.ServiceParams{
		Repo:           depositsRepo,
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
		Repo:           paymentsRepo,
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

	webhookService, err := gatewaywebhook.NewService(gatewaywebhook.ServiceParams{
		Payments:       paymentsRepo,
		Deposits:       depositsRepo,
		Audit:          auditService,
		Notify:         notifyService,
		CardLinks:      cardLinks,
		TxRunner:       dbClient,
		Logger:         logg,
		Metrics:        paymentMetrics,
		Dedup:          redisClient,
		DedupTTL:       cfg.Gateway.WebhookDedup,
		GatewayTimeout: cfg.Gateway.CallTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Payments: paymentsService,
			Deposits: depositsService,
			Audit:    auditService,
			Webhooks: webhookService,
			Stripe:   stripeClient,
			Square:   squareClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

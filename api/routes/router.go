package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rentiva/rentiva-backend/api/controllers"
	webhookcontrollers "github.com/rentiva/rentiva-backend/api/controllers/webhooks"
	"github.com/rentiva/rentiva-backend/api/middleware"
	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/deposits"
	"github.com/rentiva/rentiva-backend/internal/payments"
	gatewaywebhook "github.com/rentiva/rentiva-backend/internal/webhooks/gateway"
	"github.com/rentiva/rentiva-backend/pkg/config"
	"github.com/rentiva/rentiva-backend/pkg/db"
	"github.com/rentiva/rentiva-backend/pkg/logger"
	"github.com/rentiva/rentiva-backend/pkg/redis"
	"github.com/rentiva/rentiva-backend/pkg/square"
	"github.com/rentiva/rentiva-backend/pkg/stripe"
)

// Params bundles the router dependencies.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Payments payments.Service
	Deposits deposits.Service
	Audit    audit.Service
	Webhooks gatewaywebhook.Service

	Stripe *stripe.Client
	Square *square.Client
}

func NewRouter(p Params) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	pingers := make([]db.Pinger, 0, 2)
	if p.DB != nil {
		pingers = append(pingers, p.DB)
	}
	if p.Redis != nil {
		pingers = append(pingers, p.Redis)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, pingers...))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	// Provider callbacks authenticate by signature, not bearer token.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.Webhooks, p.Stripe, p.Logger))
		r.Post("/square", webhookcontrollers.SquareWebhook(p.Webhooks, p.Square, p.Logger))
	})

	var idempotencyStore redis.IdempotencyStore
	if p.Redis != nil {
		idempotencyStore = p.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.Idempotency(idempotencyStore, p.Logger))

		r.Route("/bookings/{bookingId}", func(r chi.Router) {
			r.Post("/payment-links", controllers.GeneratePaymentLinks(p.Payments, p.Logger))
			r.Post("/manual-payments", controllers.RecordManualPayment(p.Payments, p.Logger))
			r.Get("/audit", controllers.BookingAuditTrail(p.Audit, p.Logger))
		})
		r.Post("/manual-payments/{paymentId}/confirm", controllers.ConfirmManualPayment(p.Payments, p.Logger))
		r.Post("/deposits/{authorizationId}/release", controllers.ReleaseDeposit(p.Deposits, p.Logger))
	})

	return r
}

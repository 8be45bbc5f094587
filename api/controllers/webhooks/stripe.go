package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/rentiva/rentiva-backend/api/responses"
	gatewaywebhook "github.com/rentiva/rentiva-backend/internal/webhooks/gateway"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

type stripeClient interface {
	SigningSecret() string
}

// checkoutSession is the slice of the event payload the processor needs.
type checkoutSession struct {
	PaymentLink   string `json:"payment_link"`
	PaymentIntent string `json:"payment_intent"`
}

// StripeWebhook verifies and normalizes Stripe checkout events for the
// payment link lifecycle.
func StripeWebhook(svc gatewaywebhook.Service, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify signature"))
			return
		}

		notification, err := stripeNotification(&event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ack, err := svc.HandleNotification(ctx, *notification)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ack)
	}
}

func stripeNotification(event *stripe.Event) (*gatewaywebhook.Notification, error) {
	notification := &gatewaywebhook.Notification{
		Provider: "stripe",
		EventID:  event.ID,
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		notification.Status = gatewaywebhook.EventStatusPaid
	case "checkout.session.async_payment_failed":
		notification.Status = gatewaywebhook.EventStatusFailed
	case "checkout.session.expired":
		notification.Status = gatewaywebhook.EventStatusExpired
	default:
		// Unsubscribed event type; the processor acknowledges it as unknown.
		return notification, nil
	}

	var session checkoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	notification.TransactionID = session.PaymentLink
	if notification.TransactionID == "" {
		notification.TransactionID = session.PaymentIntent
	}
	return notification, nil
}

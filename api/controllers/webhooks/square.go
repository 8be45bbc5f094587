package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rentiva/rentiva-backend/api/responses"
	gatewaywebhook "github.com/rentiva/rentiva-backend/internal/webhooks/gateway"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

type squareClient interface {
	SigningSecret() string
}

// squareEvent is the slice of a Square payment event the processor needs.
type squareEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		Object struct {
			Payment struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// SquareWebhook verifies and normalizes Square payment events for the
// security deposit lifecycle.
func SquareWebhook(svc gatewaywebhook.Service, client squareClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "square client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Square-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "square signature missing"))
			return
		}
		if !validateSquareSignature(payload, client.SigningSecret(), sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid square signature"))
			return
		}

		var event squareEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		ack, err := svc.HandleNotification(ctx, squareNotification(&event))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ack)
	}
}

func squareNotification(event *squareEvent) gatewaywebhook.Notification {
	notification := gatewaywebhook.Notification{
		Provider:      "square",
		EventID:       event.EventID,
		TransactionID: event.Data.Object.Payment.ID,
	}
	switch strings.ToUpper(event.Data.Object.Payment.Status) {
	case "APPROVED":
		notification.Status = gatewaywebhook.EventStatusAuthorized
	case "COMPLETED":
		notification.Status = gatewaywebhook.EventStatusPaid
	case "CANCELED", "VOIDED":
		notification.Status = gatewaywebhook.EventStatusCanceled
	case "FAILED":
		notification.Status = gatewaywebhook.EventStatusFailed
	}
	return notification
}

func validateSquareSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

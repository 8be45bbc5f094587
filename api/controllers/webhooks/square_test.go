package webhooks

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	gatewaywebhook "github.com/rentiva/rentiva-backend/internal/webhooks/gateway"
)

func TestSquareWebhookMapsPaymentStatuses(t *testing.T) {
	cases := []struct {
		squareStatus string
		want         gatewaywebhook.EventStatus
	}{
		{"APPROVED", gatewaywebhook.EventStatusAuthorized},
		{"COMPLETED", gatewaywebhook.EventStatusPaid},
		{"CANCELED", gatewaywebhook.EventStatusCanceled},
		{"VOIDED", gatewaywebhook.EventStatusCanceled},
		{"FAILED", gatewaywebhook.EventStatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.squareStatus, func(t *testing.T) {
			payload := buildSquareEvent("sq_pay_1", tc.squareStatus)
			service := &fakeWebhookService{}
			handler := SquareWebhook(service, &fakeSigningClient{secret: "secret"}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", bytes.NewReader(payload))
			req.Header.Set("Square-Signature", buildSquareSignature(payload, "secret"))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
			}
			if service.calls != 1 {
				t.Fatalf("expected service called once, got %d", service.calls)
			}
			if service.last.Provider != "square" {
				t.Fatalf("expected provider square, got %q", service.last.Provider)
			}
			if service.last.TransactionID != "sq_pay_1" {
				t.Fatalf("expected payment id as transaction id, got %q", service.last.TransactionID)
			}
			if service.last.Status != tc.want {
				t.Fatalf("expected status %q, got %q", tc.want, service.last.Status)
			}
		})
	}
}

func TestSquareWebhookPassesUnmappedStatusThrough(t *testing.T) {
	payload := buildSquareEvent("sq_pay_1", "PENDING")
	service := &fakeWebhookService{}
	handler := SquareWebhook(service, &fakeSigningClient{secret: "secret"}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", bytes.NewReader(payload))
	req.Header.Set("Square-Signature", buildSquareSignature(payload, "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	// An unmapped status reaches the processor blank and is acked as unknown.
	if service.last.Status != "" {
		t.Fatalf("expected blank status, got %q", service.last.Status)
	}
}

func TestSquareWebhookRejectsInvalidSignature(t *testing.T) {
	payload := buildSquareEvent("sq_pay_1", "COMPLETED")
	service := &fakeWebhookService{}
	handler := SquareWebhook(service, &fakeSigningClient{secret: "secret"}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", bytes.NewReader(payload))
	req.Header.Set("Square-Signature", "invalid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestSquareWebhookRequiresSignatureHeader(t *testing.T) {
	payload := buildSquareEvent("sq_pay_1", "COMPLETED")
	service := &fakeWebhookService{}
	handler := SquareWebhook(service, &fakeSigningClient{secret: "secret"}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", rec.Code)
	}
}

func buildSquareEvent(paymentID, status string) []byte {
	return []byte(fmt.Sprintf(`{
		"event_id": "evt_%s",
		"type": "payment.updated",
		"data": {
			"object": {
				"payment": {
					"id": %q,
					"status": %q
				}
			}
		}
	}`, uuid.NewString(), paymentID, status))
}

func buildSquareSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

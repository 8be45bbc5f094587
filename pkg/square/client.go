package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/rentiva/rentiva-backend/pkg/config"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired   = errors.New("square access token is required")
	errWebhookSecretRequired = errors.New("square webhook secret is required")
	errInvalidSquareEnv      = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired        = errors.New("square logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Client exposes the Square primitives the deposit state machine needs:
// delayed-capture payments as authorization holds and payment cancellation
// as release. Auth, logging, idempotency and error mapping are centralized.
type Client struct {
	sdk           *sqclient.Client
	accessToken   string
	environment   string
	webhookSecret string
	locationID    string
	baseURL       string
	logger        *logger.Logger
}

// NewClient initializes the Square wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	baseURL := baseURLs[env]
	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(accessToken),
	)

	c := &Client{
		sdk:           sdk,
		accessToken:   accessToken,
		environment:   env,
		webhookSecret: webhookSecret,
		locationID:    strings.TrimSpace(cfg.LocationID),
		baseURL:       baseURL,
		logger:        logg,
	}

	logg.Info(ctx, "square client initialized")
	return c, nil
}

// Environment reports the normalized Square environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the Square webhook secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// NewIdempotencyKey returns a unique key for Square operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "rv"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// AuthorizationCreateParams encapsulates the inputs for a deposit hold.
type AuthorizationCreateParams struct {
	AmountCents    int64
	Currency       string
	CustomerID     string
	SourceID       string
	ReferenceID    string
	Note           string
	IdempotencyKey string
}

func (p AuthorizationCreateParams) toSquareRequest(idempotencyKey, locationID string) *sq.CreatePaymentRequest {
	autocomplete := false
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		LocationID:     ptrString(locationID),
		CustomerID:     ptrString(p.CustomerID),
		SourceID:       p.SourceID,
		Autocomplete:   &autocomplete,
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Note = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		req.ReferenceID = ptrString(trimmed)
	}
	return req
}

// CreateAuthorization places a delayed-capture hold for a security deposit.
func (c *Client) CreateAuthorization(ctx context.Context, params AuthorizationCreateParams) (*sq.Payment, error) {
	req := params.toSquareRequest(c.ensureIdempotencyKey("deposit.authorize", params.IdempotencyKey), c.locationID)
	c.log(ctx, "request", "create_authorization", map[string]any{
		"location_id": c.locationID,
		"reference":   params.ReferenceID,
		"amount":      params.AmountCents,
	})

	resp, err := c.sdk.Payments.Create(ctx, req)
	if err != nil {
		c.log(ctx, "error", "create_authorization", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "create authorization")
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", "create_authorization", map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

// CancelAuthorization voids an uncaptured hold, returning the funds.
func (c *Client) CancelAuthorization(ctx context.Context, paymentID string) (*sq.Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square payment id required")
	}
	req := &sq.CancelPaymentsRequest{PaymentID: paymentID}
	c.log(ctx, "request", "cancel_authorization", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Cancel(ctx, req)
	if err != nil {
		c.log(ctx, "error", "cancel_authorization", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "cancel authorization")
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", "cancel_authorization", map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

// GetPayment fetches the current gateway view of a hold.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	req := &sq.GetPaymentsRequest{PaymentID: paymentID}
	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Get(ctx, req)
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "get payment")
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("square %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		for _, sqErr := range c.extractSquareErrors(apiErr) {
			if sqErr == nil {
				continue
			}
			if sqErr.Code == sq.ErrorCodeIdempotencyKeyReused {
				code = pkgerrors.CodeIdempotency
				break
			}
			if sqErr.Category == sq.ErrorCategoryAuthenticationError {
				code = pkgerrors.CodeUnauthorized
				break
			}
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("square %s failed", op))
}

func (c *Client) extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "EUR"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidSquareEnv
	}
}

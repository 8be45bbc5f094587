package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentlink"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"

	"github.com/rentiva/rentiva-backend/pkg/config"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API plus env-specific metadata. It is the card
// network gateway behind hosted payment links.
type Client struct {
	environment   string
	signingSecret string
	logger        *logger.Logger
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		environment:   env,
		signingSecret: signingSecret,
		logger:        logg,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// PaymentLinkParams describes a single hosted checkout link.
type PaymentLinkParams struct {
	Name           string
	Reference      string
	Amount         decimal.Decimal
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentLink is the externally hosted flow handed to the client.
type PaymentLink struct {
	ID  string
	URL string
}

// CreatePaymentLink builds product, price and link for a one-off charge.
func (c *Client) CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (*PaymentLink, error) {
	if c == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("payment link amount must be positive, got %s", params.Amount)
	}

	productParams := &stripe.ProductParams{
		Name:        stripe.String(params.Name),
		Description: stripe.String(params.Reference),
	}
	productParams.Context = ctx
	prod, err := product.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("stripe create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(strings.ToLower(params.Currency)),
		UnitAmount: stripe.Int64(minorUnits(params.Amount)),
		Product:    stripe.String(prod.ID),
	}
	priceParams.Context = ctx
	pr, err := price.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("stripe create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(pr.ID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	linkParams.Context = ctx
	if params.IdempotencyKey != "" {
		linkParams.IdempotencyKey = stripe.String(params.IdempotencyKey)
	}
	for k, v := range params.Metadata {
		linkParams.AddMetadata(k, v)
	}

	link, err := paymentlink.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment link: %w", err)
	}

	if c.logger != nil {
		c.logger.Info(c.logger.WithFields(ctx, map[string]any{
			"link_id":   link.ID,
			"reference": params.Reference,
		}), "stripe payment link created")
	}

	return &PaymentLink{ID: link.ID, URL: link.URL}, nil
}

// DeactivatePaymentLink turns a hosted link off so stale links cannot be paid.
func (c *Client) DeactivatePaymentLink(ctx context.Context, linkID string) error {
	if c == nil {
		return errors.New("stripe client not initialized")
	}
	if strings.TrimSpace(linkID) == "" {
		return errors.New("payment link id is required")
	}
	params := &stripe.PaymentLinkParams{Active: stripe.Bool(false)}
	params.Context = ctx
	if _, err := paymentlink.Update(linkID, params); err != nil {
		return fmt.Errorf("stripe deactivate payment link: %w", err)
	}
	return nil
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}

package gateway

import (
	"context"
	"fmt"

	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/stripe"
)

// StripeLinks adapts the Stripe wrapper to the CardLinkCreator interface.
type StripeLinks struct {
	client       *stripe.Client
	merchantName string
}

// NewStripeLinks wires the Stripe-backed card link creator.
func NewStripeLinks(client *stripe.Client, merchantName string) (*StripeLinks, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if merchantName == "" {
		merchantName = "Rentiva Car Rental"
	}
	return &StripeLinks{client: client, merchantName: merchantName}, nil
}

func (s *StripeLinks) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	link, err := s.client.CreatePaymentLink(ctx, stripe.PaymentLinkParams{
		Name:           fmt.Sprintf("%s - %s", s.merchantName, req.Description),
		Reference:      req.Reference,
		Amount:         req.Amount,
		Currency:       req.Currency.String(),
		Metadata:       req.Metadata,
		IdempotencyKey: req.Reference,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe link creation failed")
	}
	return &Link{ExternalID: link.ID, URL: link.URL}, nil
}

func (s *StripeLinks) DeactivateLink(ctx context.Context, externalID string) error {
	if err := s.client.DeactivatePaymentLink(ctx, externalID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe link deactivation failed")
	}
	return nil
}

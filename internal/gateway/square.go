package gateway

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/square"
)

// SquareDeposits adapts the Square wrapper to the DepositAuthorizer
// interface. A delayed-capture payment is the hold; cancelling it is the
// release.
type SquareDeposits struct {
	client *square.Client
}

// NewSquareDeposits wires the Square-backed deposit authorizer.
func NewSquareDeposits(client *square.Client) (*SquareDeposits, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &SquareDeposits{client: client}, nil
}

func (s *SquareDeposits) Authorize(ctx context.Context, req HoldRequest) (*Hold, error) {
	payment, err := s.client.CreateAuthorization(ctx, square.AuthorizationCreateParams{
		AmountCents:    req.Amount.Shift(2).Round(0).IntPart(),
		Currency:       req.Currency.String(),
		CustomerID:     req.CustomerID,
		SourceID:       req.SourceID,
		ReferenceID:    req.Reference,
		Note:           req.Note,
		IdempotencyKey: req.Reference,
	})
	if err != nil {
		return nil, err
	}

	externalID := stringValue(payment.GetID())
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square returned authorization without id")
	}
	return &Hold{
		ExternalAuthID: externalID,
		Authorized:     isApproved(payment),
	}, nil
}

func (s *SquareDeposits) Release(ctx context.Context, externalAuthID string) error {
	if strings.TrimSpace(externalAuthID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "external authorization id required")
	}
	_, err := s.client.CancelAuthorization(ctx, externalAuthID)
	return err
}

func isApproved(payment *sq.Payment) bool {
	if payment == nil {
		return false
	}
	status := strings.ToUpper(stringValue(payment.GetStatus()))
	return status == "APPROVED"
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

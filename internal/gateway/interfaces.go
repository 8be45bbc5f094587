package gateway

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/rentiva/rentiva-backend/pkg/enums"
)

// LinkRequest describes one checkout link for a (intent, method type) slot.
type LinkRequest struct {
	BookingNumber string
	Reference     string
	Description   string
	Amount        decimal.Decimal
	Currency      enums.Currency
	Metadata      map[string]string
}

// Link is the gateway-side handle for a created checkout flow.
type Link struct {
	ExternalID string
	URL        string
}

// CardLinkCreator creates hosted card checkout links.
type CardLinkCreator interface {
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
	DeactivateLink(ctx context.Context, externalID string) error
}

// TransferInstructions are the wire details handed to the customer. Bank
// transfers have no hosted flow; the reference ties the incoming wire back
// to the payment record.
type TransferInstructions struct {
	Reference    string
	IBAN         string
	AccountOwner string
	MerchantName string
	Amount       decimal.Decimal
	Currency     enums.Currency
}

// BankTransferInstructor produces wire instructions locally.
type BankTransferInstructor interface {
	Instructions(req LinkRequest) (*TransferInstructions, error)
}

// HoldRequest describes a security-deposit authorization hold.
type HoldRequest struct {
	Reference  string
	Amount     decimal.Decimal
	Currency   enums.Currency
	CustomerID string
	SourceID   string
	Note       string
}

// Hold is the gateway-side view of an authorization.
type Hold struct {
	ExternalAuthID string
	Authorized     bool
}

// DepositAuthorizer places and releases security-deposit holds.
type DepositAuthorizer interface {
	Authorize(ctx context.Context, req HoldRequest) (*Hold, error)
	Release(ctx context.Context, externalAuthID string) error
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/pkg/enums"
)

// Payment is one payment attempt or hosted link for a booking. Records are
// never deleted; superseded attempts stay behind in a terminal status.
//
// The partial unique index uq_payments_open_slot (booking_id, intent,
// method_type WHERE link_status IN ('pending','active')) enforces at most
// one open record per slot; concurrent creators treat an insert conflict as
// "already exists".
type Payment struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID      uuid.UUID                 `gorm:"column:booking_id;type:uuid;not null"`
	Kind           enums.LegacyPaymentKind   `gorm:"column:kind;type:legacy_payment_kind;not null"`
	LegacyMethod   enums.LegacyPaymentMethod `gorm:"column:legacy_method;type:legacy_payment_method;not null"`
	MethodType     enums.PaymentMethodType   `gorm:"column:method_type;type:payment_method_type;not null"`
	Intent         enums.PaymentIntent       `gorm:"column:intent;type:payment_intent;not null"`
	Amount         decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency       enums.Currency            `gorm:"column:currency;type:currency;not null"`
	LinkStatus     enums.LinkStatus          `gorm:"column:link_status;type:link_status;not null;default:'pending'"`
	ExternalLinkID *string                   `gorm:"column:external_link_id"`
	ExternalTxID   *string                   `gorm:"column:external_tx_id;uniqueIndex"`
	LinkURL        *string                   `gorm:"column:link_url"`
	Note           *string                   `gorm:"column:note"`
	FineID         *uuid.UUID                `gorm:"column:fine_id;type:uuid"`
	Manual         bool                      `gorm:"column:manual;not null;default:false"`
	PaidAt         *time.Time                `gorm:"column:paid_at"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/pkg/enums"
)

// Booking is the aggregate root the payment orchestrator works against.
// AmountPaid is only ever moved by the webhook processor and by manual
// payment confirmation, always through an atomic increment.
type Booking struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingNumber      string              `gorm:"column:booking_number;not null;uniqueIndex"`
	CustomerName       string              `gorm:"column:customer_name;not null"`
	CustomerEmail      string              `gorm:"column:customer_email;not null"`
	Currency           enums.Currency      `gorm:"column:currency;type:currency;not null"`
	AmountTotal        decimal.Decimal     `gorm:"column:amount_total;type:numeric(12,2);not null"`
	AmountPaid         decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	SecurityDeposit    decimal.Decimal     `gorm:"column:security_deposit;type:numeric(12,2);not null;default:0"`
	PaymentPolicy      enums.PaymentPolicy `gorm:"column:payment_policy;type:payment_policy;not null;default:'client_choice'"`
	DownPaymentPercent decimal.Decimal     `gorm:"column:down_payment_percent;type:numeric(5,2);not null;default:0"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

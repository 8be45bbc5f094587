package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/pkg/enums"
)

// Fine is a traffic or damage fine attached to a booking. UnpaidAmount is
// only reduced when a fine-intent manual payment is confirmed, never when it
// is merely recorded.
type Fine struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID    uuid.UUID       `gorm:"column:booking_id;type:uuid;not null"`
	Description  string          `gorm:"column:description;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	UnpaidAmount decimal.Decimal `gorm:"column:unpaid_amount;type:numeric(12,2);not null"`
	Currency     enums.Currency  `gorm:"column:currency;type:currency;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

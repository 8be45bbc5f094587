package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/pkg/enums"
)

// SecurityDepositAuthorization is one pre-authorization hold attempt.
// released and failed are terminal; ReleasedAt is written exactly once, by
// the conditional authorized to released transition.
type SecurityDepositAuthorization struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID      uuid.UUID               `gorm:"column:booking_id;type:uuid;not null"`
	Amount         decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency       enums.Currency          `gorm:"column:currency;type:currency;not null"`
	MethodType     enums.PaymentMethodType `gorm:"column:method_type;type:payment_method_type;not null"`
	Status         enums.DepositStatus     `gorm:"column:status;type:deposit_status;not null;default:'pending'"`
	ExternalAuthID *string                 `gorm:"column:external_auth_id;uniqueIndex"`
	AuthorizedAt   *time.Time              `gorm:"column:authorized_at"`
	ReleasedAt     *time.Time              `gorm:"column:released_at"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

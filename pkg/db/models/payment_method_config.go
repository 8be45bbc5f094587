package models

import (
	"time"

	"github.com/rentiva/rentiva-backend/pkg/enums"
)

// PaymentMethodConfig toggles a payment method type on or off. Read-only
// input to the link orchestrator; maintained outside this subsystem.
type PaymentMethodConfig struct {
	MethodType enums.PaymentMethodType `gorm:"column:method_type;type:payment_method_type;primaryKey"`
	Enabled    bool                    `gorm:"column:enabled;not null;default:false"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

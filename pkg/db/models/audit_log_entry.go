package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records an immutable state transition in the payment and
// deposit lifecycle. Append-only.
type AuditLogEntry struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID  uuid.UUID       `gorm:"column:booking_id;type:uuid;not null;index"`
	EntityType string          `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID       `gorm:"column:entity_id;type:uuid;not null"`
	Action     string          `gorm:"column:action;not null"`
	Payload    json.RawMessage `gorm:"column:payload;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

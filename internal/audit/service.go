package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Entity types recorded in the audit trail.
const (
	EntityPayment = "payment"
	EntityDeposit = "security_deposit"
	EntityBooking = "booking"
)

// Actions recorded in the audit trail.
const (
	ActionLinkGenerated      = "link_generated"
	ActionLinkExpired        = "link_expired"
	ActionPaymentConfirmed   = "payment_confirmed"
	ActionPaymentFailed      = "payment_failed"
	ActionManualRecorded     = "manual_payment_recorded"
	ActionManualConfirmed    = "manual_payment_confirmed"
	ActionDepositAuthorized  = "deposit_authorized"
	ActionDepositReleased    = "deposit_released"
	ActionDepositFailed      = "deposit_failed"
	ActionBalanceIncremented = "balance_incremented"
)

// Service defines operations that record and list audit trail entries.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Record(ctx context.Context, input RecordEntryInput) (*models.AuditLogEntry, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.AuditLogEntry, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data an audit entry requires.
type RecordEntryInput struct {
	BookingID  uuid.UUID       `json:"booking_id"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Action     string          `json:"action"`
	Payload    json.RawMessage `json:"payload"`
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Record(ctx context.Context, input RecordEntryInput) (*models.AuditLogEntry, error) {
	if input.BookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	if input.EntityType == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if input.EntityID == uuid.Nil {
		return nil, fmt.Errorf("entity id is required")
	}
	if input.Action == "" {
		return nil, fmt.Errorf("action is required")
	}

	entry := &models.AuditLogEntry{
		BookingID:  input.BookingID,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Action:     input.Action,
		Payload:    input.Payload,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.AuditLogEntry, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	return s.repo.ListByBookingID(ctx, bookingID)
}
